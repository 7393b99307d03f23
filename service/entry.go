package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/filterview"
	"github.com/fulldump/rowsetdb/paging"
	"github.com/fulldump/rowsetdb/rowset"
)

// Entry is a named row set. Rows are addressed by their 1-based position,
// deleted rows included, so positions are stable until the next
// synchronization removes deleted rows.
type Entry struct {
	Id       string
	Name     string
	Strategy string
	Created  time.Time

	mutex    sync.Mutex
	rs       *rowset.RowSet
	pageSize int
	pager    *paging.Controller
}

func newEntry(name, strategy string, rs *rowset.RowSet, pageSize int) *Entry {
	rs.SetShowDeleted(true)
	return &Entry{
		Id:       uuid.New().String(),
		Name:     name,
		Strategy: strategy,
		Created:  time.Now(),
		rs:       rs,
		pageSize: pageSize,
	}
}

type Info struct {
	Id       string           `json:"id"`
	Name     string           `json:"name"`
	Table    string           `json:"table"`
	Command  string           `json:"command,omitempty"`
	Strategy string           `json:"strategy"`
	Columns  []backing.Column `json:"columns"`
	Size     int              `json:"size"`
	Pending  int              `json:"pending"`
	Created  time.Time        `json:"created"`
}

func (e *Entry) Info() *Info {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	command, _ := e.rs.Command()
	columns := e.rs.Columns()
	if columns == nil {
		columns = []backing.Column{}
	}
	return &Info{
		Id:       e.Id,
		Name:     e.Name,
		Table:    e.rs.TableName(),
		Command:  command,
		Strategy: e.Strategy,
		Columns:  columns,
		Size:     e.rs.Size(),
		Pending:  len(e.rs.Pending()),
		Created:  e.Created,
	}
}

type Row struct {
	Row    int            `json:"row"`
	Status rowset.Status  `json:"status"`
	Values map[string]any `json:"values"`
}

func newRow(position int, view rowset.RowView) *Row {
	return &Row{
		Row:    position,
		Status: view.Status(),
		Values: view.Map(),
	}
}

type FindInput struct {
	Filter      map[string]any `json:"filter"`
	Skip        int            `json:"skip"`
	Limit       int            `json:"limit"`
	ShowDeleted bool           `json:"showDeleted"`
}

// Find lists the rows matching a connor filter document. Limit <= 0 means
// no limit.
func (e *Entry) Find(input *FindInput) ([]*Row, error) {
	match := filterview.Match(input.Filter)
	err := match.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rowset.ErrInvalidState, err.Error())
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	result := []*Row{}
	skip := input.Skip
	for i, view := range e.rs.VisibleRows() {
		if view.Status() == rowset.Deleted && !input.ShowDeleted {
			continue
		}
		if !match.Evaluate(view) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		result = append(result, newRow(i+1, view))
		if input.Limit > 0 && len(result) >= input.Limit {
			break
		}
	}
	return result, nil
}

// Insert appends a row built from column name to value. Missing columns
// must be nullable.
func (e *Entry) Insert(values map[string]any) (*Row, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	rs := e.rs
	err := rs.MoveToInsertRow()
	if err != nil {
		return nil, err
	}
	defer rs.MoveToCurrentRow()

	err = e.stage(values)
	if err != nil {
		return nil, err
	}
	err = rs.InsertRow()
	if err != nil {
		return nil, err
	}
	return e.row(rs.Size())
}

type UpdateInput struct {
	Row    int            `json:"row"`
	Values map[string]any `json:"values"`
}

// Update changes some columns of a row. Nothing is changed when any value is
// rejected.
func (e *Entry) Update(input *UpdateInput) (*Row, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	err := e.moveTo(input.Row)
	if err != nil {
		return nil, err
	}
	err = e.stage(input.Values)
	if err != nil {
		e.rs.CancelPendingUpdate()
		return nil, err
	}
	err = e.rs.UpdateRow()
	if err != nil {
		return nil, err
	}
	return e.row(input.Row)
}

type RowInput struct {
	Row int `json:"row"`
}

func (e *Entry) Delete(input *RowInput) (*Row, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	err := e.moveTo(input.Row)
	if err != nil {
		return nil, err
	}
	err = e.rs.DeleteRow()
	if err != nil {
		return nil, err
	}
	return e.row(input.Row)
}

// Undo reverts the pending change of a row. An undone insert removes the
// row and returns nil.
func (e *Entry) Undo(input *RowInput) (*Row, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	err := e.moveTo(input.Row)
	if err != nil {
		return nil, err
	}

	rs := e.rs
	if deleted, _ := rs.RowDeleted(); deleted {
		err = rs.UndoDelete()
	} else if updated, _ := rs.RowUpdated(); updated {
		err = rs.UndoUpdate()
	} else if inserted, _ := rs.RowInserted(); inserted {
		return nil, rs.UndoInsert()
	} else {
		err = fmt.Errorf("%w: row %d has no pending change", rowset.ErrInvalidState, input.Row)
	}
	if err != nil {
		return nil, err
	}
	return e.row(input.Row)
}

// Restore reverts every pending change of the row set.
func (e *Entry) Restore() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.rs.RestoreOriginal()
}

// Refresh drops the rows, pending changes included, and fetches again.
func (e *Entry) Refresh(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.rs.Execute(ctx, nil)
}

type PageInput struct {
	PageSize int    `json:"pageSize"`
	Offset   *int   `json:"offset"`
	Move     string `json:"move"` // next or previous
}

type Page struct {
	Page        int              `json:"page"`
	Offset      int              `json:"offset"`
	PageSize    int              `json:"pageSize"`
	HasNext     bool             `json:"hasNext"`
	HasPrevious bool             `json:"hasPrevious"`
	Rows        []map[string]any `json:"rows"`
}

// Page reads the source of the row set block by block, straight from the
// backing store. The row set itself is left alone.
func (e *Entry) Page(ctx context.Context, input *PageInput) (*Page, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.pager == nil {
		command, params := e.rs.Command()
		source := &paging.QuerySource{
			Store: e.rs.Store(),
			Query: backing.Query{
				Table:   e.rs.TableName(),
				Command: command,
				Params:  params,
			},
		}
		e.pager = paging.NewController(source, e.pageSize)
	}
	pager := e.pager

	if input.PageSize > 0 && input.PageSize != pager.PageSize() {
		err := pager.SetPageSize(input.PageSize)
		if err != nil {
			return nil, err
		}
	}

	var err error
	switch {
	case input.Offset != nil:
		_, err = pager.Seek(ctx, *input.Offset)
	case input.Move == "previous":
		_, err = pager.PreviousPage(ctx)
	case input.Move == "" || input.Move == "next":
		_, err = pager.NextPage(ctx)
	default:
		err = fmt.Errorf("%w: move '%s', must be [next|previous]", rowset.ErrUnsupportedDirection, input.Move)
	}
	if err != nil {
		return nil, err
	}

	return &Page{
		Page:        pager.Page(),
		Offset:      pager.Offset(),
		PageSize:    pager.PageSize(),
		HasNext:     pager.HasNext(),
		HasPrevious: pager.HasPrevious(),
		Rows:        pager.RowSet().ToRows(),
	}, nil
}

func (e *Entry) moveTo(position int) error {
	if position < 1 {
		return fmt.Errorf("%w: row %d", rowset.ErrInvalidCursor, position)
	}
	ok, err := e.rs.Absolute(position)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: row %d out of %d", rowset.ErrInvalidCursor, position, e.rs.Size())
	}
	return nil
}

// stage writes values into the current row or the insert buffer sorted by
// column name, so the first error reported is always the same one.
func (e *Entry) stage(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		i, err := e.rs.FindColumn(name)
		if err != nil {
			return err
		}
		err = e.rs.UpdateObject(i, values[name])
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Entry) row(position int) (*Row, error) {
	rows := e.rs.VisibleRows()
	if position < 1 || position > len(rows) {
		return nil, fmt.Errorf("%w: row %d", rowset.ErrInvalidCursor, position)
	}
	return newRow(position, rows[position-1]), nil
}
