package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/rowsetdb/backing"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	biff.Alternative("Store", func(a *biff.A) {
		s := New()
		err := s.CreateTable("people", []backing.Column{
			{Name: "name", Type: backing.TypeString},
			{Name: "id", Type: backing.TypeInteger, Key: true},
			{Name: "age", Type: backing.TypeInteger, Nullable: true},
		})
		biff.AssertNil(err)
		s.Load("people",
			[]any{"carol", 3, nil},
			[]any{"alice", 1, 30},
			[]any{"bob", 2, 40},
		)

		a.Alternative("Fetch in key order", func(a *biff.A) {
			result, err := s.Fetch(ctx, backing.Query{Table: "people"})
			biff.AssertNil(err)
			biff.AssertEqual(len(result.Columns), 3)
			biff.AssertEqual(result.Tuples, [][]any{
				{"alice", int64(1), int64(30)},
				{"bob", int64(2), int64(40)},
				{"carol", int64(3), nil},
			})
		})

		a.Alternative("Fetch a page", func(a *biff.A) {
			result, _ := s.Fetch(ctx, backing.Query{Table: "people", Offset: 1, Limit: 1})
			biff.AssertEqual(result.Tuples, [][]any{{"bob", int64(2), int64(40)}})
		})

		a.Alternative("Unknown table", func(a *biff.A) {
			_, err := s.Fetch(ctx, backing.Query{Table: "nobody"})
			biff.AssertTrue(errors.Is(err, backing.ErrNoTable))
		})

		a.Alternative("Duplicated key", func(a *biff.A) {
			err := s.Load("people", []any{"dave", 1, nil})
			biff.AssertTrue(errors.Is(err, backing.ErrConstraint))
			biff.AssertEqual(s.Count("people"), 3)
		})

		a.Alternative("Not nullable", func(a *biff.A) {
			err := s.Load("people", []any{nil, 4, nil})
			biff.AssertTrue(errors.Is(err, backing.ErrConstraint))
		})

		a.Alternative("Update and delete", func(a *biff.A) {
			key := backing.Key{Columns: []string{"id"}, Values: []any{2}}
			err := s.Apply(ctx, backing.Mutation{
				Op:      backing.OpUpdate,
				Table:   "people",
				Columns: []string{"id", "name", "age"},
				Key:     key,
				Values:  []any{2, "robert", 41},
			})
			biff.AssertNil(err)

			values, found, _ := s.ReadByKey(ctx, "people", []string{"age", "name"}, key)
			biff.AssertTrue(found)
			biff.AssertEqual(values, []any{int64(41), "robert"})

			biff.AssertNil(s.Apply(ctx, backing.Mutation{Op: backing.OpDelete, Table: "people", Key: key}))
			_, found, _ = s.ReadByKey(ctx, "people", nil, key)
			biff.AssertFalse(found)

			err = s.Apply(ctx, backing.Mutation{Op: backing.OpDelete, Table: "people", Key: key})
			biff.AssertTrue(errors.Is(err, backing.ErrNotFound))
		})

		a.Alternative("Read by another column", func(a *biff.A) {
			values, found, err := s.ReadByKey(ctx, "people", nil, backing.Key{Columns: []string{"name"}, Values: []any{"bob"}})
			biff.AssertNil(err)
			biff.AssertTrue(found)
			biff.AssertEqual(values[1], int64(2))
		})
	})
}
