package rowset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/backing/memstore"
	"github.com/fulldump/rowsetdb/rowset"
)

func TestSynchronize(t *testing.T) {
	ctx := context.Background()

	biff.Alternative("Synchronize", func(a *biff.A) {
		Environment(func(st *memstore.Store, rs *rowset.RowSet) {

			a.Alternative("Delete the third row", func(a *biff.A) {
				rs.Absolute(3)
				biff.AssertNil(rs.DeleteRow())
				biff.AssertEqual(rs.GetRow(), 0)

				biff.AssertNil(rs.Synchronize(ctx, nil))
				biff.AssertEqual(st.Count("letters"), 3)
				biff.AssertEqual(rs.Size(), 3)

				rs.BeforeFirst()
				rs.Next()
				rs.Next()
				rs.Next()
				biff.AssertEqual(currentRow(rs), []any{int64(4), "d"})

				fresh := rowset.New()
				fresh.SetTableName("letters")
				biff.AssertNil(fresh.Execute(ctx, st))
				biff.AssertEqualJson(fresh.ToRows(), []map[string]any{
					{"id": 1, "letter": "a"},
					{"id": 2, "letter": "b"},
					{"id": 4, "letter": "d"},
				})
			})

			a.Alternative("Deleted row stays visible until commit", func(a *biff.A) {
				rs.SetShowDeleted(true)
				rs.Absolute(3)
				rs.DeleteRow()

				ok, _ := rs.Absolute(3)
				biff.AssertTrue(ok)
				deleted, _ := rs.RowDeleted()
				biff.AssertTrue(deleted)

				rs.Synchronize(ctx, nil)
				rs.Absolute(3)
				biff.AssertEqual(currentRow(rs), []any{int64(4), "d"})
			})

			a.Alternative("UndoDelete makes synchronize a no-op", func(a *biff.A) {
				rs.SetShowDeleted(true)
				rs.Absolute(2)
				rs.DeleteRow()
				rs.Absolute(2)
				biff.AssertNil(rs.UndoDelete())

				biff.AssertEqual(len(rs.Pending()), 0)
				biff.AssertNil(rs.Synchronize(ctx, nil))
				biff.AssertEqual(st.Count("letters"), 4)
			})

			a.Alternative("Update round trip", func(a *biff.A) {
				rs.Absolute(2)
				rs.UpdateString(2, "bb")
				rs.UpdateRow()

				biff.AssertNil(rs.Synchronize(ctx, nil))

				letter, _ := rs.GetString(2)
				biff.AssertEqual(letter, "bb")
				original, _ := rs.OriginalRow()
				biff.AssertEqual(original, []any{int64(2), "bb"})
				updated, _ := rs.RowUpdated()
				biff.AssertFalse(updated)

				values, _, _ := st.ReadByKey(ctx, "letters", nil, backing.Key{Columns: []string{"id"}, Values: []any{2}})
				biff.AssertEqual(values, []any{int64(2), "bb"})
			})

			a.Alternative("Insert", func(a *biff.A) {
				rs.MoveToInsertRow()
				rs.UpdateInt(1, 5)
				rs.UpdateString(2, "e")
				rs.InsertRow()
				rs.MoveToCurrentRow()

				biff.AssertNil(rs.Synchronize(ctx, nil))
				biff.AssertEqual(st.Count("letters"), 5)
				biff.AssertEqual(len(rs.Pending()), 0)
			})

			a.Alternative("Inserted then deleted never reaches the store", func(a *biff.A) {
				rs.MoveToInsertRow()
				rs.UpdateInt(1, 5)
				rs.InsertRow()
				rs.MoveToCurrentRow()
				rs.Last()
				rs.DeleteRow()

				biff.AssertNil(rs.Synchronize(ctx, nil))
				biff.AssertEqual(st.Count("letters"), 4)
				biff.AssertEqual(rs.Size(), 4)
			})

			a.Alternative("Three conflicts", func(a *biff.A) {
				// someone else touches rows 1 and 3
				st.Apply(ctx, backing.Mutation{
					Op:      backing.OpUpdate,
					Table:   "letters",
					Columns: []string{"id", "letter"},
					Key:     backing.Key{Columns: []string{"id"}, Values: []any{1}},
					Values:  []any{1, "z"},
				})
				st.Apply(ctx, backing.Mutation{
					Op:    backing.OpDelete,
					Table: "letters",
					Key:   backing.Key{Columns: []string{"id"}, Values: []any{3}},
				})

				rs.Absolute(1)
				rs.UpdateString(2, "aa")
				rs.UpdateRow()

				rs.Absolute(3)
				rs.DeleteRow()

				rs.MoveToInsertRow()
				rs.UpdateInt(1, 2)
				rs.UpdateString(2, "duplicated")
				rs.InsertRow()
				rs.MoveToCurrentRow()

				rs.Absolute(2)
				rs.UpdateString(2, "bb")
				rs.UpdateRow()

				err := rs.Synchronize(ctx, nil)
				biff.AssertTrue(errors.Is(err, rowset.ErrSynchronization))

				syncErr := &rowset.SyncError{}
				biff.AssertTrue(errors.As(err, &syncErr))
				conflicts := syncErr.Conflicts
				biff.AssertEqual(conflicts.Len(), 3)

				biff.AssertEqual(conflicts.Row(), 0)
				_, err = conflicts.ConflictValue(1)
				biff.AssertTrue(errors.Is(err, rowset.ErrInvalidCursor))

				biff.AssertTrue(conflicts.NextConflict())
				biff.AssertEqual(conflicts.Row(), 1)
				kind, _ := conflicts.Status()
				biff.AssertEqual(kind, rowset.UpdateConflict)
				v, _ := conflicts.ConflictValue(2)
				biff.AssertEqual(v, "z")

				biff.AssertTrue(conflicts.NextConflict())
				biff.AssertEqual(conflicts.Row(), 3)
				kind, _ = conflicts.Status()
				biff.AssertEqual(kind, rowset.DeleteConflict)
				_, err = conflicts.ConflictValue(2)
				biff.AssertTrue(errors.Is(err, rowset.ErrValueUnknown))

				biff.AssertTrue(conflicts.NextConflict())
				biff.AssertEqual(conflicts.Row(), 5)
				kind, _ = conflicts.Status()
				biff.AssertEqual(kind, rowset.InsertConflict)

				biff.AssertFalse(conflicts.NextConflict())

				// the update of row 2 went through, conflicting rows stay dirty
				biff.AssertEqual(len(rs.Pending()), 3)
				values, _, _ := st.ReadByKey(ctx, "letters", nil, backing.Key{Columns: []string{"id"}, Values: []any{2}})
				biff.AssertEqual(values, []any{int64(2), "bb"})
			})

			a.Alternative("Without strategy", func(a *biff.A) {
				rs.SetStrategy(nil)
				err := rs.Synchronize(ctx, nil)
				biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))
			})
		})
	})
}
