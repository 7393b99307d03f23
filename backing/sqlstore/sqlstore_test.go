package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/reconcile"
	"github.com/fulldump/rowsetdb/rowset"
)

func newTestStore(t *testing.T) *Store {
	var store, err = Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var ctx = context.Background()
	require.NoError(t, store.Exec(ctx, `CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER)`))
	require.NoError(t, store.Exec(ctx, `INSERT INTO people (id, name, age) VALUES (1, 'a', 10), (2, 'b', 20), (3, 'c', 30), (4, 'd', 40)`))
	return store
}

func TestFetch(t *testing.T) {
	var store = newTestStore(t)

	result, err := store.Fetch(context.Background(), backing.Query{Table: "people"})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "age"}, backing.ColumnNames(result.Columns))
	require.Equal(t, backing.TypeInteger, result.Columns[0].Type)
	require.Equal(t, backing.TypeString, result.Columns[1].Type)
	require.True(t, result.Columns[0].Key)
	require.False(t, result.Columns[1].Key)
	require.Len(t, result.Tuples, 4)
}

func TestFetchPage(t *testing.T) {
	var store = newTestStore(t)

	result, err := store.Fetch(context.Background(), backing.Query{
		Command: `SELECT id, name FROM people WHERE age > ? ORDER BY id`,
		Params:  []any{10},
		Offset:  1,
		Limit:   5,
	})
	require.NoError(t, err)
	require.Len(t, result.Tuples, 2)
	require.EqualValues(t, 3, result.Tuples[0][0])
}

func TestApply(t *testing.T) {
	var store = newTestStore(t)
	var ctx = context.Background()
	var columns = []string{"id", "name", "age"}
	var key = func(id int64) backing.Key {
		return backing.Key{Columns: []string{"id"}, Values: []any{id}}
	}

	// Duplicate key
	var err = store.Apply(ctx, backing.Mutation{Op: backing.OpInsert, Table: "people", Columns: columns, Values: []any{int64(1), "z", nil}})
	require.True(t, errors.Is(err, backing.ErrConstraint), "got %v", err)

	// Not null
	err = store.Apply(ctx, backing.Mutation{Op: backing.OpInsert, Table: "people", Columns: columns, Values: []any{int64(9), nil, nil}})
	require.True(t, errors.Is(err, backing.ErrConstraint), "got %v", err)

	require.NoError(t, store.Apply(ctx, backing.Mutation{Op: backing.OpInsert, Table: "people", Columns: columns, Values: []any{int64(5), "e", nil}}))

	require.NoError(t, store.Apply(ctx, backing.Mutation{Op: backing.OpUpdate, Table: "people", Columns: columns, Key: key(2), Values: []any{int64(2), "bb", int64(21)}}))
	values, found, err := store.ReadByKey(ctx, "people", columns, key(2))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "bb", values[1])

	err = store.Apply(ctx, backing.Mutation{Op: backing.OpUpdate, Table: "people", Columns: columns, Key: key(77), Values: []any{int64(77), "x", nil}})
	require.True(t, errors.Is(err, backing.ErrNotFound), "got %v", err)

	require.NoError(t, store.Apply(ctx, backing.Mutation{Op: backing.OpDelete, Table: "people", Key: key(3)}))
	_, found, err = store.ReadByKey(ctx, "people", columns, key(3))
	require.NoError(t, err)
	require.False(t, found)

	err = store.Apply(ctx, backing.Mutation{Op: backing.OpDelete, Table: "people", Key: key(3)})
	require.True(t, errors.Is(err, backing.ErrNotFound), "got %v", err)
}

func TestSynchronize(t *testing.T) {
	var store = newTestStore(t)
	var ctx = context.Background()

	var rs = rowset.NewWithStrategy(reconcile.NewOptimistic())
	rs.SetTableName("people")
	require.NoError(t, rs.Execute(ctx, store))
	require.Equal(t, 4, rs.Size())

	// delete the third row
	ok, err := rs.Absolute(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, rs.DeleteRow())
	require.Equal(t, 0, rs.GetRow())

	// update the first one
	_, err = rs.First()
	require.NoError(t, err)
	require.NoError(t, rs.UpdateString(2, "aa"))
	require.NoError(t, rs.UpdateRow())

	require.NoError(t, rs.Synchronize(ctx, store))
	require.Equal(t, 3, rs.Size())

	fresh := rowset.New()
	fresh.SetTableName("people")
	require.NoError(t, fresh.Execute(ctx, store))
	require.Equal(t, 3, fresh.Size())

	_, err = fresh.First()
	require.NoError(t, err)
	name, err := fresh.GetString(2)
	require.NoError(t, err)
	require.Equal(t, "aa", name)

	// someone else changes row 2 behind our back
	require.NoError(t, store.Exec(ctx, `UPDATE people SET age = 99 WHERE id = 2`))
	_, err = rs.Absolute(2)
	require.NoError(t, err)
	require.NoError(t, rs.UpdateString(2, "bb"))
	require.NoError(t, rs.UpdateRow())

	err = rs.Synchronize(ctx, store)
	require.True(t, errors.Is(err, rowset.ErrSynchronization))

	var syncErr *rowset.SyncError
	require.True(t, errors.As(err, &syncErr))
	require.Equal(t, 1, syncErr.Conflicts.Len())
	require.True(t, syncErr.Conflicts.NextConflict())
	kind, err := syncErr.Conflicts.Status()
	require.NoError(t, err)
	require.Equal(t, rowset.UpdateConflict, kind)
	age, err := syncErr.Conflicts.ConflictValue(3)
	require.NoError(t, err)
	require.EqualValues(t, 99, age)
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer s.Close()

	var schema backing.Schema = s
	require.NoError(t, schema.CreateTable("tags", []backing.Column{
		{Name: "id", Type: backing.TypeInteger, Key: true},
		{Name: "label", Type: backing.TypeString, Nullable: true},
	}))

	require.NoError(t, s.Apply(ctx, backing.Mutation{
		Op:      backing.OpInsert,
		Table:   "tags",
		Columns: []string{"id", "label"},
		Values:  []any{int64(1), "go"},
	}))

	result, err := s.Fetch(ctx, backing.Query{Table: "tags"})
	require.NoError(t, err)
	require.Len(t, result.Tuples, 1)
	require.True(t, result.Columns[0].Key)

	err = schema.CreateTable("empty", nil)
	require.Error(t, err)
}
