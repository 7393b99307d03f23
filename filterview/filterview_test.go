package filterview

import (
	"errors"
	"strings"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

func newWords() *rowset.RowSet {
	rs := rowset.New()
	rs.Populate(&backing.Result{
		Columns: []backing.Column{
			{Name: "id", Type: backing.TypeInteger, Key: true},
			{Name: "word", Type: backing.TypeString, Nullable: true},
		},
		Tuples: [][]any{
			{1, "hermit"},
			{2, "test"},
			{3, "testing"},
			{4, "latest"},
		},
	})
	return rs
}

var containsTest = Func{
	Row: func(row rowset.RowView) bool {
		s, _ := row.Value(2).(string)
		return strings.Contains(s, "test")
	},
	Value: func(value any, column rowset.ColumnRef) bool {
		if column.Index != 2 {
			return true
		}
		s, _ := value.(string)
		return strings.Contains(s, "test")
	},
}

func visibleIds(v *View) []any {
	ids := []any{}
	v.BeforeFirst()
	for {
		ok, _ := v.Next()
		if !ok {
			break
		}
		id, _ := v.GetObject(1)
		ids = append(ids, id)
	}
	return ids
}

func TestView(t *testing.T) {
	biff.Alternative("View", func(a *biff.A) {
		rs := newWords()
		v := NewFiltered(rs, containsTest)

		a.Alternative("Hides rows the filter refuses", func(a *biff.A) {
			biff.AssertEqual(v.Count(), 3)
			biff.AssertEqual(visibleIds(v), []any{int64(2), int64(3), int64(4)})

			v.Absolute(1)
			biff.AssertEqual(v.GetRow(), 1)
			id, _ := v.GetObject(1)
			biff.AssertEqual(id, int64(2))

			// the source is not filtered
			biff.AssertEqual(len(rs.VisibleRows()), 4)
		})

		a.Alternative("Removing the filter shows every row", func(a *biff.A) {
			v.SetFilter(nil)
			biff.AssertEqual(v.Count(), 4)
			biff.AssertEqual(visibleIds(v), []any{int64(1), int64(2), int64(3), int64(4)})
		})

		a.Alternative("Insert rejected by the filter", func(a *biff.A) {
			v.MoveToInsertRow()
			biff.AssertNil(v.UpdateInt(1, 5))
			err := v.UpdateString(2, "nope")
			biff.AssertTrue(errors.Is(err, rowset.ErrFilterViolation))
		})

		a.Alternative("Rows inserted while hidden show up later", func(a *biff.A) {
			v.SetFilter(Func{Row: containsTest.Row})
			v.MoveToInsertRow()
			v.UpdateInt(1, 5)
			v.UpdateString(2, "hidden")
			biff.AssertNil(v.InsertRow())
			v.MoveToCurrentRow()
			biff.AssertEqual(v.Count(), 3)

			v.SetFilter(nil)
			biff.AssertEqual(v.Count(), 5)
			v.Last()
			inserted, _ := v.RowInserted()
			biff.AssertTrue(inserted)
		})

		a.Alternative("Mutations reach the underlying rows", func(a *biff.A) {
			v.First()
			v.UpdateString(2, "gone")
			v.UpdateRow()

			// lazily hidden on the next navigation
			biff.AssertEqual(v.Count(), 2)
			rs.Absolute(2)
			word, _ := rs.GetString(2)
			biff.AssertEqual(word, "gone")
		})
	})
}

func TestMatch(t *testing.T) {
	biff.Alternative("Match", func(a *biff.A) {
		rs := newWords()

		a.Alternative("Equality", func(a *biff.A) {
			v := NewFiltered(rs, Match{"word": "test"})
			biff.AssertEqual(visibleIds(v), []any{int64(2)})
		})

		a.Alternative("Operators", func(a *biff.A) {
			v := NewFiltered(rs, Match{"id": map[string]any{"$gte": 3}})
			biff.AssertEqual(visibleIds(v), []any{int64(3), int64(4)})
		})

		a.Alternative("Value check only looks at its column", func(a *biff.A) {
			m := Match{"id": map[string]any{"$gte": 3}}
			biff.AssertTrue(m.EvaluateValue("anything", rowset.ColumnRef{Index: 2, Name: "word"}))
			biff.AssertFalse(m.EvaluateValue(int64(1), rowset.ColumnRef{Index: 1, Name: "id"}))
			biff.AssertTrue(m.EvaluateValue(int64(7), rowset.ColumnRef{Index: 1, Name: "id"}))
		})

		a.Alternative("Empty document accepts everything", func(a *biff.A) {
			v := NewFiltered(rs, Match{})
			biff.AssertEqual(v.Count(), 4)
		})
	})
}

func TestRange(t *testing.T) {
	rs := newWords()
	v := NewFiltered(rs, Range{Column: "id", Min: 2, Max: 3})
	biff.AssertEqual(visibleIds(v), []any{int64(2), int64(3)})

	v.SetFilter(Range{Column: "id", Min: 3})
	biff.AssertEqual(v.Count(), 2)

	v.SetFilter(And{Range{Column: "id", Min: 2}, containsTest})
	biff.AssertEqual(v.Count(), 3)
	biff.AssertFalse(Range{Column: "id", Min: 2}.EvaluateValue(int64(1), rowset.ColumnRef{Index: 1, Name: "id"}))
}
