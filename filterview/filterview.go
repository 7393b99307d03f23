// Package filterview restricts the rows a cursor visits with a predicate.
package filterview

import (
	"github.com/fulldump/rowsetdb/rowset"
)

// View is a filtered cursor over the rows of a RowSet. The rows are shared:
// hidden rows stay in the store and mutations through the view land in the
// same rows the source sees.
type View struct {
	*rowset.RowSet
}

// New returns a view over the rows of rs. rs keeps its own cursor and is not
// filtered.
func New(rs *rowset.RowSet) *View {
	return &View{RowSet: rs.CreateShared()}
}

// NewFiltered is New followed by SetFilter(p).
func NewFiltered(rs *rowset.RowSet, p rowset.Predicate) *View {
	v := New(rs)
	v.SetFilter(p)
	return v
}

// SetFilter replaces the predicate. nil shows every row again, including the
// ones inserted while they were filtered out.
func (v *View) SetFilter(p rowset.Predicate) {
	v.SetPredicate(p)
}

func (v *View) Filter() rowset.Predicate {
	return v.Predicate()
}

// Count returns the number of rows visible through the filter.
func (v *View) Count() int {
	return len(v.VisibleRows())
}
