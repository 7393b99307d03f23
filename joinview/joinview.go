// Package joinview combines several row sets into one by equality of their
// match columns.
package joinview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	RightOuterJoin
	FullJoin
	CrossJoin
)

var joinTypeNames = map[JoinType]string{
	InnerJoin:      "INNER JOIN",
	LeftOuterJoin:  "LEFT OUTER JOIN",
	RightOuterJoin: "RIGHT OUTER JOIN",
	FullJoin:       "FULL JOIN",
	CrossJoin:      "CROSS JOIN",
}

func (t JoinType) String() string {
	return joinTypeNames[t]
}

var ErrUnsupportedJoin = errors.New("unsupported join type")

type member struct {
	name  string
	rs    *rowset.RowSet
	match []int // 1-based, in the member's own columns
}

// View is the inner join of its members. The joined rows are materialized
// in a RowSet rebuilt on every AddRowSet and on Refresh.
type View struct {
	members  []*member
	joinType JoinType
	columns  []backing.Column
	result   *rowset.RowSet
}

func New() *View {
	return &View{
		joinType: InnerJoin,
		result:   rowset.New(),
	}
}

// AddRowSet adds rs joined by matchColumns (1-based). Without matchColumns
// the match columns bound on rs are used. A failed add leaves the view as
// it was.
func (v *View) AddRowSet(rs *rowset.RowSet, matchColumns ...int) error {
	if len(matchColumns) == 0 {
		bound, err := rs.MatchColumns()
		if err != nil {
			return err
		}
		matchColumns = bound
	}

	columns := rs.Columns()
	if columns == nil {
		return fmt.Errorf("%w: row set is not populated", rowset.ErrInvalidState)
	}
	for _, m := range matchColumns {
		if m < 1 || m > len(columns) {
			return fmt.Errorf("%w: match column %d", rowset.ErrInvalidColumn, m)
		}
		if !columns[m-1].Type.Sortable() {
			return fmt.Errorf("%w: '%s' of type %s", rowset.ErrUnsortable, columns[m-1].Name, columns[m-1].Type)
		}
	}

	if len(v.members) > 0 {
		first := v.members[0]
		if len(matchColumns) != len(first.match) {
			return fmt.Errorf("%w: %d match columns, the view joins on %d", rowset.ErrColumnBindingMismatch, len(matchColumns), len(first.match))
		}
		firstColumns := first.rs.Columns()
		for i, m := range matchColumns {
			left := firstColumns[first.match[i]-1]
			right := columns[m-1]
			if left.Type.Family() != right.Type.Family() {
				return fmt.Errorf("%w: '%s' %s does not join with '%s' %s", rowset.ErrTypeMismatch, left.Name, left.Type, right.Name, right.Type)
			}
		}
	}

	name := rs.TableName()
	if name == "" {
		name = fmt.Sprintf("rowset%d", len(v.members)+1)
	}

	members := append(append([]*member{}, v.members...), &member{
		name:  name,
		rs:    rs,
		match: append([]int{}, matchColumns...),
	})
	result, resultColumns, err := join(members)
	if err != nil {
		return err
	}

	v.members = members
	v.columns = resultColumns
	v.result = result
	return nil
}

// AddRowSetByName is AddRowSet with match columns given by name.
func (v *View) AddRowSetByName(rs *rowset.RowSet, matchColumns ...string) error {
	indexes := make([]int, len(matchColumns))
	for i, name := range matchColumns {
		index, err := rs.FindColumn(name)
		if err != nil {
			return err
		}
		indexes[i] = index
	}
	return v.AddRowSet(rs, indexes...)
}

// Refresh joins the members again, picking up their changes.
func (v *View) Refresh() error {
	if len(v.members) == 0 {
		return nil
	}
	result, columns, err := join(v.members)
	if err != nil {
		return err
	}
	v.columns = columns
	v.result = result
	return nil
}

// RowSet returns the joined rows with their own cursor.
func (v *View) RowSet() *rowset.RowSet {
	return v.result
}

func (v *View) RowSets() []*rowset.RowSet {
	result := make([]*rowset.RowSet, len(v.members))
	for i, m := range v.members {
		result[i] = m.rs
	}
	return result
}

func (v *View) RowSetNames() []string {
	names := make([]string, len(v.members))
	for i, m := range v.members {
		names[i] = m.name
	}
	return names
}

func (v *View) Columns() []backing.Column {
	return append([]backing.Column{}, v.columns...)
}

func (v *View) JoinType() JoinType {
	return v.joinType
}

func (v *View) SetJoinType(t JoinType) error {
	if t != InnerJoin {
		return fmt.Errorf("%w: %s", ErrUnsupportedJoin, t)
	}
	v.joinType = t
	return nil
}

func (v *View) SupportsJoinType(t JoinType) bool {
	return t == InnerJoin
}

// WhereClause renders the join condition, e.g. "a.id = b.a_id".
func (v *View) WhereClause() string {
	if len(v.members) < 2 {
		return ""
	}
	first := v.members[0]
	firstColumns := first.rs.Columns()
	conditions := []string{}
	for _, m := range v.members[1:] {
		columns := m.rs.Columns()
		for i, index := range m.match {
			conditions = append(conditions, fmt.Sprintf("%s.%s = %s.%s",
				first.name, firstColumns[first.match[i]-1].Name,
				m.name, columns[index-1].Name,
			))
		}
	}
	return strings.Join(conditions, " AND ")
}

func (v *View) Size() int {
	return v.result.Size()
}

// group holds every right side tuple sharing one match key.
type group struct {
	key    []any
	tuples [][]any
}

func lessGroup(a, b *group) bool {
	c, err := backing.CompareTuples(a.key, b.key)
	return err == nil && c < 0
}

func join(members []*member) (*rowset.RowSet, []backing.Column, error) {
	first := members[0]
	columns := first.rs.Columns()
	names := map[string]bool{}
	for _, c := range columns {
		names[c.Name] = true
	}

	tuples := [][]any{}
	for _, row := range first.rs.VisibleRows() {
		tuples = append(tuples, row.Values())
	}

	// positions of the first member match columns inside the joined tuples
	leftKey := make([]int, len(first.match))
	for i, m := range first.match {
		leftKey[i] = m - 1
	}

	for _, m := range members[1:] {
		memberColumns := m.rs.Columns()
		isMatch := map[int]bool{}
		for _, index := range m.match {
			isMatch[index-1] = true
		}

		kept := []int{}
		for i, c := range memberColumns {
			if isMatch[i] {
				continue
			}
			kept = append(kept, i)
			c.Name = relabel(c.Name, names)
			c.Key = false
			names[c.Name] = true
			columns = append(columns, c)
		}

		index := btree.NewG[*group](8, lessGroup)
		for _, row := range m.rs.VisibleRows() {
			values := row.Values()
			key := make([]any, len(m.match))
			for i, mi := range m.match {
				key[i] = values[mi-1]
			}
			if hasNull(key) {
				continue
			}
			g, found := index.Get(&group{key: key})
			if !found {
				g = &group{key: key}
				index.ReplaceOrInsert(g)
			}
			tail := make([]any, len(kept))
			for i, k := range kept {
				tail[i] = values[k]
			}
			g.tuples = append(g.tuples, tail)
		}

		joined := [][]any{}
		for _, tuple := range tuples {
			key := make([]any, len(leftKey))
			for i, k := range leftKey {
				key[i] = tuple[k]
			}
			if hasNull(key) {
				continue
			}
			g, found := index.Get(&group{key: key})
			if !found {
				continue
			}
			for _, tail := range g.tuples {
				joined = append(joined, append(append([]any{}, tuple...), tail...))
			}
		}
		tuples = joined
	}

	result := rowset.New()
	result.SetTableName(first.name)
	err := result.Populate(&backing.Result{Columns: columns, Tuples: tuples})
	if err != nil {
		return nil, nil, fmt.Errorf("populate join: %w", err)
	}
	return result, columns, nil
}

func relabel(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_merged%d", name, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

func hasNull(values []any) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
	}
	return false
}
