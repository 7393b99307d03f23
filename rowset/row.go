package rowset

import (
	"fmt"

	"github.com/fulldump/rowsetdb/backing"
)

type Status int

const (
	Unchanged Status = iota
	Inserted
	Updated
	Deleted
)

var statusNames = []string{"unchanged", "inserted", "updated", "deleted"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status '%s'", string(text))
}

// Row is one cached tuple. original holds the values as last synchronized
// and is nil for rows inserted locally.
type Row struct {
	values   []any
	original []any
	status   Status
	prior    Status // status before a delete mark
	staged   []any  // values before the first uncommitted update
}

func newRow(values []any) *Row {
	return &Row{
		values:   values,
		original: backing.Clone(values),
	}
}

func (r *Row) Values() []any {
	return backing.Clone(r.values)
}

// Original returns the last synchronized values, nil for inserted rows.
func (r *Row) Original() []any {
	return backing.Clone(r.original)
}

func (r *Row) Status() Status {
	return r.status
}

// WasInserted reports rows that never reached the backing store, including
// inserted rows later marked deleted.
func (r *Row) WasInserted() bool {
	return r.status == Inserted || (r.status == Deleted && r.prior == Inserted)
}

func (r *Row) IsNull(i int) bool {
	return i < 1 || i > len(r.values) || r.values[i-1] == nil
}

func (r *Row) accept() {
	r.original = backing.Clone(r.values)
	r.status = Unchanged
	r.prior = Unchanged
	r.staged = nil
}

func (r *Row) restore() {
	r.values = backing.Clone(r.original)
	r.status = Unchanged
	r.prior = Unchanged
	r.staged = nil
}

func (r *Row) clone() *Row {
	return &Row{
		values:   backing.Clone(r.values),
		original: backing.Clone(r.original),
		status:   r.status,
		prior:    r.prior,
		staged:   backing.Clone(r.staged),
	}
}

// RowView is a read-only view of a row together with its column metadata.
type RowView struct {
	columns []backing.Column
	row     *Row
}

func (v RowView) Columns() []backing.Column {
	return v.columns
}

func (v RowView) Status() Status {
	return v.row.status
}

// Value returns the value at the 1-based column i.
func (v RowView) Value(i int) any {
	if i < 1 || i > len(v.row.values) {
		return nil
	}
	return v.row.values[i-1]
}

func (v RowView) Named(name string) (any, bool) {
	for i, c := range v.columns {
		if c.Name == name {
			return v.row.values[i], true
		}
	}
	return nil, false
}

func (v RowView) Values() []any {
	return v.row.Values()
}

func (v RowView) Map() map[string]any {
	m := make(map[string]any, len(v.columns))
	for i, c := range v.columns {
		m[c.Name] = v.row.values[i]
	}
	return m
}

// ColumnRef names one column by 1-based index and name.
type ColumnRef struct {
	Index int
	Name  string
	Type  backing.Type
}
