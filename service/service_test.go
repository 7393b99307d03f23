package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fulldump/biff"
	"github.com/go-json-experiment/json"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/database"
	"github.com/fulldump/rowsetdb/rowset"
)

func newService(maxRowSets int) *Service {
	db := database.NewDatabase(&database.Config{})
	err := db.Load()
	if err != nil {
		panic(err)
	}
	s := NewService(db, Config{MaxRowSets: maxRowSets, PageSize: 2})
	err = s.CreateTable("items", []backing.Column{
		{Name: "id", Type: backing.TypeInteger, Key: true},
		{Name: "label", Type: backing.TypeString},
		{Name: "blob", Type: backing.TypeBytes, Nullable: true},
	})
	if err != nil {
		panic(err)
	}
	return s
}

func TestService(t *testing.T) {
	ctx := context.Background()

	biff.Alternative("Service", func(a *biff.A) {
		s := newService(2)
		entry, err := s.CreateRowSet(ctx, &CreateInput{Table: "items"})
		biff.AssertNil(err)
		biff.AssertEqual(entry.Name, "items")
		biff.AssertEqual(entry.Strategy, "optimistic")
		biff.AssertNotEqual(entry.Id, "")

		_, err = entry.Insert(map[string]any{"id": 1, "label": "one", "blob": []byte{0, 1}})
		biff.AssertNil(err)
		_, err = entry.Insert(map[string]any{"id": 2, "label": "two"})
		biff.AssertNil(err)
		report, err := s.Synchronize(ctx, "items")
		biff.AssertNil(err)
		biff.AssertEqual(report.Synchronized, 2)

		a.Alternative("Unknown strategy", func(a *biff.A) {
			_, err := s.CreateRowSet(ctx, &CreateInput{Name: "x", Table: "items", Strategy: "pessimistic"})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))
		})

		a.Alternative("Key columns by name", func(a *biff.A) {
			entry, err := s.CreateRowSet(ctx, &CreateInput{Name: "by-label", Table: "items", KeyColumns: []string{"label"}})
			biff.AssertNil(err)
			biff.AssertEqual(entry.rs.KeyColumns(), []int{2})

			_, err = s.CreateRowSet(ctx, &CreateInput{Name: "bad", Table: "items", KeyColumns: []string{"nope"}})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidColumn))
		})

		a.Alternative("Least recently used is evicted", func(a *biff.A) {
			_, err := s.CreateRowSet(ctx, &CreateInput{Name: "second", Table: "items"})
			biff.AssertNil(err)
			s.GetRowSet("items")
			_, err = s.CreateRowSet(ctx, &CreateInput{Name: "third", Table: "items"})
			biff.AssertNil(err)

			_, err = s.GetRowSet("second")
			biff.AssertEqual(err, ErrorRowSetNotFound)

			names := []string{}
			for _, e := range s.ListRowSets() {
				names = append(names, e.Name)
			}
			biff.AssertEqual(names, []string{"items", "third"})
		})

		a.Alternative("Drop", func(a *biff.A) {
			biff.AssertNil(s.DropRowSet("items"))
			biff.AssertEqual(s.DropRowSet("items"), ErrorRowSetNotFound)
			_, err := s.Synchronize(ctx, "items")
			biff.AssertEqual(err, ErrorRowSetNotFound)
		})

		a.Alternative("Find", func(a *biff.A) {
			rows, err := entry.Find(&FindInput{Filter: map[string]any{"label": "two"}})
			biff.AssertNil(err)
			biff.AssertEqual(len(rows), 1)
			biff.AssertEqual(rows[0].Row, 2)

			rows, _ = entry.Find(&FindInput{Skip: 1})
			biff.AssertEqual(len(rows), 1)
			biff.AssertEqual(rows[0].Values["label"], "two")
		})

		a.Alternative("Failed update changes nothing", func(a *biff.A) {
			_, err := entry.Update(&UpdateInput{Row: 1, Values: map[string]any{"label": "uno", "nope": 1}})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidColumn))
			rows, _ := entry.Find(&FindInput{})
			biff.AssertEqual(rows[0].Values["label"], "one")
			biff.AssertEqual(rows[0].Status, rowset.Unchanged)
		})

		a.Alternative("Undo insert", func(a *biff.A) {
			entry.Insert(map[string]any{"id": 3, "label": "three"})
			row, err := entry.Undo(&RowInput{Row: 3})
			biff.AssertNil(err)
			biff.AssertNil(row)
			biff.AssertEqual(entry.Info().Size, 2)

			_, err = entry.Undo(&RowInput{Row: 1})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))
		})

		a.Alternative("Restore original and refresh", func(a *biff.A) {
			entry.Delete(&RowInput{Row: 1})
			entry.Insert(map[string]any{"id": 3, "label": "three"})
			biff.AssertEqual(entry.Info().Pending, 2)

			biff.AssertNil(entry.Restore())
			biff.AssertEqual(entry.Info().Pending, 0)
			biff.AssertEqual(entry.Info().Size, 2)

			entry.Insert(map[string]any{"id": 3, "label": "three"})
			biff.AssertNil(entry.Refresh(ctx))
			biff.AssertEqual(entry.Info().Size, 2)
		})

		a.Alternative("Snapshot keeps bytes", func(a *biff.A) {
			entry.Update(&UpdateInput{Row: 2, Values: map[string]any{"blob": []byte("raw")}})
			data, err := s.Snapshot("items")
			biff.AssertNil(err)

			restored, err := s.Restore("copy", data)
			biff.AssertNil(err)
			rows, _ := restored.Find(&FindInput{})
			biff.AssertEqual(rows[0].Values["blob"], []byte{0, 1})
			biff.AssertEqual(rows[1].Values["blob"], []byte("raw"))
			biff.AssertEqual(rows[1].Status, rowset.Updated)
			biff.AssertEqual(restored.Strategy, "optimistic")

			_, err = s.Restore("copy", data)
			biff.AssertEqual(err, ErrorRowSetAlreadyExists)

			_, err = s.Restore("broken", []byte(`{"rows": 3}`))
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))
		})

		a.Alternative("Restore keeps the strategy", func(a *biff.A) {
			_, err := s.CreateRowSet(ctx, &CreateInput{Name: "forced", Table: "items", Strategy: "overwrite"})
			biff.AssertNil(err)
			data, _ := s.Snapshot("forced")

			restored, err := s.Restore("forced-copy", data)
			biff.AssertNil(err)
			biff.AssertEqual(restored.Strategy, "overwrite")
		})

		a.Alternative("Inconsistent snapshots are rejected", func(a *biff.A) {
			entry.Insert(map[string]any{"id": 3, "label": "three"})
			data, _ := s.Snapshot("items")

			restore := func(change func(snapshot *rowset.Snapshot)) error {
				snapshot := rowset.Snapshot{}
				biff.AssertNil(json.Unmarshal(data, &snapshot))
				change(&snapshot)
				broken, err := json.Marshal(snapshot)
				biff.AssertNil(err)
				_, err = s.Restore("broken", broken)
				return err
			}

			err := restore(func(snapshot *rowset.Snapshot) {
				snapshot.Rows[0].Status = rowset.Updated
				snapshot.Rows[0].Original = nil
			})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))

			err = restore(func(snapshot *rowset.Snapshot) {
				snapshot.Rows[1].Status = rowset.Deleted
				snapshot.Rows[1].Original = nil
			})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))

			err = restore(func(snapshot *rowset.Snapshot) {
				snapshot.Rows[0].Prior = rowset.Updated
			})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))

			err = restore(func(snapshot *rowset.Snapshot) {
				snapshot.Properties.KeyColumns = []int{0}
			})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidColumn))

			err = restore(func(snapshot *rowset.Snapshot) {
				snapshot.Properties.MatchIndexes = []int{4}
			})
			biff.AssertTrue(errors.Is(err, rowset.ErrInvalidColumn))

			_, err = s.GetRowSet("broken")
			biff.AssertEqual(err, ErrorRowSetNotFound)

			// a locally inserted row has no original values
			biff.AssertNil(restore(func(snapshot *rowset.Snapshot) {}))
			report, err := s.Synchronize(ctx, "broken")
			biff.AssertNil(err)
			biff.AssertEqual(report.Synchronized, 1)
		})

		a.Alternative("Pages", func(a *biff.A) {
			entry.Insert(map[string]any{"id": 3, "label": "three"})
			s.Synchronize(ctx, "items")

			page, err := entry.Page(ctx, &PageInput{})
			biff.AssertNil(err)
			biff.AssertEqual(page.PageSize, 2)
			biff.AssertEqual(len(page.Rows), 2)

			page, _ = entry.Page(ctx, &PageInput{})
			biff.AssertEqual(page.Page, 2)
			biff.AssertEqual(len(page.Rows), 1)
			biff.AssertFalse(page.HasNext)

			offset := 1
			page, _ = entry.Page(ctx, &PageInput{Offset: &offset, PageSize: 5})
			biff.AssertEqual(len(page.Rows), 2)

			_, err = entry.Page(ctx, &PageInput{Move: "sideways"})
			biff.AssertTrue(errors.Is(err, rowset.ErrUnsupportedDirection))
		})
	})
}

func TestServiceSchema(t *testing.T) {
	s := newService(0)
	err := s.CreateTable("items", []backing.Column{{Name: "id"}})
	biff.AssertTrue(errors.Is(err, backing.ErrConstraint))

	err = s.CreateTable("", []backing.Column{{Name: "id"}})
	biff.AssertTrue(errors.Is(err, rowset.ErrInvalidState))

	db := database.NewDatabase(&database.Config{})
	_, err = NewService(db, Config{}).CreateRowSet(context.Background(), &CreateInput{Table: "items"})
	biff.AssertEqual(err, ErrorUnavailable)
}
