// Package rowset implements a disconnected row set: an in-memory,
// cursor-navigable cache of rows fetched from a backing store, mutated offline
// and later synchronized back.
//
// A RowSet is not safe for concurrent use. Shared copies (CreateShared) alias
// the same rows but each own a cursor.
package rowset

import (
	"context"
	"fmt"

	"github.com/fulldump/rowsetdb/backing"
)

type CursorType int

const (
	Scrollable CursorType = iota
	ForwardOnly
)

// Predicate decides row visibility. EvaluateValue checks a single value being
// written into the insert buffer, before the whole row exists.
type Predicate interface {
	Evaluate(row RowView) bool
	EvaluateValue(value any, column ColumnRef) bool
}

// SyncStrategy reconciles the pending rows of a RowSet with a backing store.
type SyncStrategy interface {
	Synchronize(ctx context.Context, rs *RowSet, store backing.Store) error
}

// store is the part of a RowSet aliased by shared copies.
type store struct {
	columns []backing.Column
	rows    []*Row
}

type RowSet struct {
	data *store

	pos       int // store position, 0 before first, len(rows)+1 after last
	onInsert  bool
	insertBuf []any
	insertSet []bool
	savedPos  int
	wasNull   bool

	cursorType   CursorType
	showDeleted  bool
	predicate    Predicate
	pageSize     int
	maxRows      int
	tableName    string
	command      string
	params       []any
	keyColumns   []int
	matchIndexes []int
	matchNames   []string
	username     string
	password     string

	backingStore backing.Store
	strategy     SyncStrategy
	listeners    []Listener
}

func New() *RowSet {
	return &RowSet{
		data: &store{},
	}
}

// NewWithStrategy returns an empty RowSet synchronized with strategy.
func NewWithStrategy(strategy SyncStrategy) *RowSet {
	rs := New()
	rs.strategy = strategy
	return rs
}

func (rs *RowSet) populated() bool {
	return rs.data.columns != nil
}

func (rs *RowSet) Columns() []backing.Column {
	return append([]backing.Column{}, rs.data.columns...)
}

// FindColumn returns the 1-based index of the column called name.
func (rs *RowSet) FindColumn(name string) (int, error) {
	for i, c := range rs.data.columns {
		if c.Name == name {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s' not found", ErrInvalidColumn, name)
}

func (rs *RowSet) column(i int) (backing.Column, error) {
	if !rs.populated() {
		return backing.Column{}, fmt.Errorf("%w: row set is not populated", ErrInvalidState)
	}
	if i < 1 || i > len(rs.data.columns) {
		return backing.Column{}, fmt.Errorf("%w: index %d out of [1,%d]", ErrInvalidColumn, i, len(rs.data.columns))
	}
	return rs.data.columns[i-1], nil
}

// Size counts every row present in the store, including rows marked deleted
// and not yet synchronized.
func (rs *RowSet) Size() int {
	return len(rs.data.rows)
}

// Populate replaces the content with result. Rows of shared copies change too.
func (rs *RowSet) Populate(result *backing.Result) error {
	return rs.PopulateFrom(result, 1)
}

// PopulateFrom populates starting at the 1-based tuple startRow, honoring
// MaxRows.
func (rs *RowSet) PopulateFrom(result *backing.Result, startRow int) error {
	if result == nil || result.Columns == nil {
		return fmt.Errorf("%w: result has no column metadata", ErrInvalidState)
	}
	if startRow < 1 {
		return fmt.Errorf("%w: start row %d", ErrInvalidCursor, startRow)
	}

	rows := []*Row{}
	for i := startRow - 1; i < len(result.Tuples); i++ {
		if rs.maxRows > 0 && len(rows) >= rs.maxRows {
			break
		}
		values, err := backing.CoerceTuple(result.Columns, result.Tuples[i])
		if err != nil {
			return fmt.Errorf("tuple %d: %w", i+1, err)
		}
		rows = append(rows, newRow(values))
	}
	for _, k := range rs.keyColumns {
		if k > len(result.Columns) {
			return fmt.Errorf("%w: key column %d, result has %d columns", ErrInvalidColumn, k, len(result.Columns))
		}
	}

	rs.data.columns = append([]backing.Column{}, result.Columns...)
	rs.data.rows = rows
	rs.pos = 0
	rs.onInsert = false
	rs.insertBuf = nil
	rs.insertSet = nil

	rs.notify(RowSetChanged)
	return nil
}

// SetCommand stores the query re-run by Execute.
func (rs *RowSet) SetCommand(command string, params ...any) {
	rs.command = command
	rs.params = params
	rs.notify(RowSetChanged)
}

func (rs *RowSet) Command() (string, []any) {
	return rs.command, append([]any{}, rs.params...)
}

// Execute fetches again using the stored command (or the table name) and the
// bound parameters. A page size bounds the first fetch.
func (rs *RowSet) Execute(ctx context.Context, st backing.Store) error {
	if st == nil {
		st = rs.backingStore
	}
	if st == nil {
		return fmt.Errorf("%w: no backing store", ErrInvalidState)
	}
	if rs.command == "" && rs.tableName == "" {
		return fmt.Errorf("%w: neither command nor table name is set", ErrInvalidState)
	}

	q := backing.Query{
		Table:   rs.tableName,
		Command: rs.command,
		Params:  rs.params,
		Limit:   rs.maxRows,
	}
	if rs.pageSize > 0 && (q.Limit == 0 || rs.pageSize < q.Limit) {
		q.Limit = rs.pageSize
	}

	result, err := st.Fetch(ctx, q)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	return rs.Populate(result)
}

// Release drops every row, keeping metadata and properties.
func (rs *RowSet) Release() {
	rs.data.rows = []*Row{}
	rs.pos = 0
	rs.onInsert = false
	rs.notify(RowSetChanged)
}

func (rs *RowSet) Close() error {
	rs.data = &store{}
	rs.pos = 0
	rs.onInsert = false
	rs.listeners = nil
	return nil
}

func (rs *RowSet) copyProperties(dst *RowSet) {
	dst.cursorType = rs.cursorType
	dst.showDeleted = rs.showDeleted
	dst.predicate = rs.predicate
	dst.pageSize = rs.pageSize
	dst.maxRows = rs.maxRows
	dst.tableName = rs.tableName
	dst.command = rs.command
	dst.params = append([]any{}, rs.params...)
	dst.keyColumns = append([]int{}, rs.keyColumns...)
	dst.matchIndexes = append([]int{}, rs.matchIndexes...)
	dst.matchNames = append([]string{}, rs.matchNames...)
	dst.username = rs.username
	dst.password = rs.password
	dst.backingStore = rs.backingStore
	dst.strategy = rs.strategy
}

// CreateShared returns a RowSet over the same rows with its own cursor and
// its own copy of the scalar properties.
func (rs *RowSet) CreateShared() *RowSet {
	shared := &RowSet{data: rs.data}
	rs.copyProperties(shared)
	return shared
}

// CreateCopy returns a deep copy: rows, statuses and originals are cloned.
func (rs *RowSet) CreateCopy() *RowSet {
	c := &RowSet{data: &store{
		columns: rs.Columns(),
		rows:    make([]*Row, len(rs.data.rows)),
	}}
	if rs.data.columns == nil {
		c.data.columns = nil
	}
	for i, r := range rs.data.rows {
		c.data.rows[i] = r.clone()
	}
	rs.copyProperties(c)
	return c
}

// CreateCopyNoConstraints is CreateCopy without key and match columns.
func (rs *RowSet) CreateCopyNoConstraints() *RowSet {
	c := rs.CreateCopy()
	c.keyColumns = nil
	c.matchIndexes = nil
	c.matchNames = nil
	return c
}

// CreateCopySchema returns an empty RowSet with the same columns.
func (rs *RowSet) CreateCopySchema() *RowSet {
	c := &RowSet{data: &store{
		columns: rs.Columns(),
		rows:    []*Row{},
	}}
	if rs.data.columns == nil {
		c.data.columns = nil
	}
	rs.copyProperties(c)
	return c
}

func (rs *RowSet) CursorType() CursorType {
	return rs.cursorType
}

func (rs *RowSet) SetCursorType(t CursorType) {
	rs.cursorType = t
}

func (rs *RowSet) ShowDeleted() bool {
	return rs.showDeleted
}

func (rs *RowSet) SetShowDeleted(show bool) {
	rs.showDeleted = show
}

func (rs *RowSet) Predicate() Predicate {
	return rs.predicate
}

// SetPredicate installs a visibility predicate evaluated at navigation
// time. nil makes every row visible again.
func (rs *RowSet) SetPredicate(p Predicate) {
	rs.predicate = p
	rs.notify(RowSetChanged)
}

func (rs *RowSet) PageSize() int {
	return rs.pageSize
}

func (rs *RowSet) SetPageSize(size int) error {
	if size < 0 {
		return fmt.Errorf("%w: page size %d", ErrInvalidState, size)
	}
	if rs.maxRows > 0 && size > rs.maxRows {
		return fmt.Errorf("%w: page size %d exceeds max rows %d", ErrInvalidState, size, rs.maxRows)
	}
	rs.pageSize = size
	return nil
}

func (rs *RowSet) MaxRows() int {
	return rs.maxRows
}

func (rs *RowSet) SetMaxRows(max int) error {
	if max < 0 {
		return fmt.Errorf("%w: max rows %d", ErrInvalidState, max)
	}
	rs.maxRows = max
	return nil
}

func (rs *RowSet) TableName() string {
	return rs.tableName
}

func (rs *RowSet) SetTableName(name string) {
	rs.tableName = name
}

func (rs *RowSet) Credentials() (username, password string) {
	return rs.username, rs.password
}

func (rs *RowSet) SetCredentials(username, password string) {
	rs.username = username
	rs.password = password
}

func (rs *RowSet) Store() backing.Store {
	return rs.backingStore
}

// SetStore sets the backing store used when Execute or Synchronize get nil.
func (rs *RowSet) SetStore(st backing.Store) {
	rs.backingStore = st
}

func (rs *RowSet) Strategy() SyncStrategy {
	return rs.strategy
}

func (rs *RowSet) SetStrategy(s SyncStrategy) {
	rs.strategy = s
}

// KeyColumns returns the 1-based key column indexes: the explicit ones, else
// the columns flagged as key, else every column.
func (rs *RowSet) KeyColumns() []int {
	if len(rs.keyColumns) > 0 {
		return append([]int{}, rs.keyColumns...)
	}
	keys := []int{}
	for i, c := range rs.data.columns {
		if c.Key {
			keys = append(keys, i+1)
		}
	}
	if len(keys) == 0 {
		for i := range rs.data.columns {
			keys = append(keys, i+1)
		}
	}
	return keys
}

func (rs *RowSet) SetKeyColumns(columns ...int) error {
	for _, c := range columns {
		if c < 1 || (rs.populated() && c > len(rs.data.columns)) {
			return fmt.Errorf("%w: key column %d", ErrInvalidColumn, c)
		}
	}
	rs.keyColumns = append([]int{}, columns...)
	return nil
}

// VisibleRows lists the rows navigation would visit, in store order.
func (rs *RowSet) VisibleRows() []RowView {
	result := []RowView{}
	for _, r := range rs.data.rows {
		if rs.visible(r) {
			result = append(result, RowView{columns: rs.data.columns, row: r})
		}
	}
	return result
}

// ToRows renders the visible rows as column name to value maps.
func (rs *RowSet) ToRows() []map[string]any {
	result := []map[string]any{}
	for _, v := range rs.VisibleRows() {
		result = append(result, v.Map())
	}
	return result
}
