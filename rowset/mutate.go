package rowset

import (
	"fmt"
	"time"

	"github.com/fulldump/rowsetdb/backing"
)

// UpdateObject stages value into column i. On a regular row the value is
// readable at once but the row only becomes an update once UpdateRow is
// called. On the insert row the value is checked against the predicate.
func (rs *RowSet) UpdateObject(i int, value any) error {
	c, err := rs.column(i)
	if err != nil {
		return err
	}
	v, err := backing.Coerce(c.Type, value)
	if err != nil {
		return fmt.Errorf("column '%s': %w", c.Name, err)
	}

	if rs.onInsert {
		ref := ColumnRef{Index: i, Name: c.Name, Type: c.Type}
		if rs.predicate != nil && !rs.predicate.EvaluateValue(v, ref) {
			return fmt.Errorf("%w: column '%s' value %v", ErrFilterViolation, c.Name, v)
		}
		rs.insertBuf[i-1] = v
		rs.insertSet[i-1] = true
		return nil
	}

	r, err := rs.current()
	if err != nil {
		return err
	}
	if r.status == Deleted {
		return fmt.Errorf("%w: row is deleted", ErrInvalidCursor)
	}
	if r.staged == nil {
		r.staged = backing.Clone(r.values)
	}
	r.values[i-1] = v
	return nil
}

func (rs *RowSet) UpdateNull(i int) error {
	return rs.UpdateObject(i, nil)
}

func (rs *RowSet) UpdateInt(i int, v int64) error {
	return rs.UpdateObject(i, v)
}

func (rs *RowSet) UpdateFloat(i int, v float64) error {
	return rs.UpdateObject(i, v)
}

func (rs *RowSet) UpdateString(i int, v string) error {
	return rs.UpdateObject(i, v)
}

func (rs *RowSet) UpdateBool(i int, v bool) error {
	return rs.UpdateObject(i, v)
}

func (rs *RowSet) UpdateBytes(i int, v []byte) error {
	return rs.UpdateObject(i, v)
}

func (rs *RowSet) UpdateTime(i int, v time.Time) error {
	return rs.UpdateObject(i, v)
}

// UpdateRow turns the staged values of the current row into an update.
func (rs *RowSet) UpdateRow() error {
	if rs.onInsert {
		return fmt.Errorf("%w: UpdateRow on the insert row", ErrInvalidState)
	}
	r, err := rs.current()
	if err != nil {
		return err
	}
	if r.status == Deleted {
		return fmt.Errorf("%w: row is deleted", ErrInvalidCursor)
	}
	if r.staged == nil {
		return nil
	}
	r.staged = nil
	if r.status == Unchanged {
		r.status = Updated
	}
	rs.notify(RowChanged)
	return nil
}

// CancelPendingUpdate drops the values staged since the last UpdateRow.
func (rs *RowSet) CancelPendingUpdate() error {
	if rs.onInsert {
		return fmt.Errorf("%w: CancelPendingUpdate on the insert row", ErrInvalidState)
	}
	r, err := rs.current()
	if err != nil {
		return err
	}
	if r.staged != nil {
		r.values = r.staged
		r.staged = nil
	}
	return nil
}

// InsertRow appends the insert buffer to the store as an inserted row and
// clears the buffer. The cursor stays on the insert row.
func (rs *RowSet) InsertRow() error {
	if !rs.onInsert {
		return fmt.Errorf("%w: not on the insert row", ErrInvalidState)
	}
	for i, c := range rs.data.columns {
		if !rs.insertSet[i] && !c.Nullable {
			return fmt.Errorf("%w: column '%s' has no value", ErrInvalidState, c.Name)
		}
	}

	r := &Row{
		values: rs.insertBuf,
		status: Inserted,
	}
	rs.data.rows = append(rs.data.rows, r)
	rs.resetInsertBuffer()

	rs.notify(RowChanged)
	return nil
}

// DeleteRow marks the current row deleted and resets the cursor before the
// first row. The row keeps its slot until synchronized.
func (rs *RowSet) DeleteRow() error {
	if rs.onInsert {
		return fmt.Errorf("%w: DeleteRow on the insert row", ErrInvalidState)
	}
	r, err := rs.current()
	if err != nil {
		return err
	}
	if r.status == Deleted {
		return fmt.Errorf("%w: row is already deleted", ErrInvalidCursor)
	}
	if r.staged != nil {
		r.values = r.staged
		r.staged = nil
	}
	r.prior = r.status
	r.status = Deleted

	rs.notify(RowChanged)
	rs.pos = 0
	rs.notify(CursorMoved)
	return nil
}

func (rs *RowSet) currentWithStatus(status Status) (*Row, error) {
	if rs.onInsert {
		return nil, fmt.Errorf("%w: cursor is on the insert row", ErrInvalidState)
	}
	r, err := rs.current()
	if err != nil {
		return nil, err
	}
	if r.status != status {
		return nil, fmt.Errorf("%w: row is %s, not %s", ErrInvalidCursor, r.status, status)
	}
	return r, nil
}

// UndoDelete clears the delete mark of the current row. Rows that were
// synchronized before get their original values back.
func (rs *RowSet) UndoDelete() error {
	r, err := rs.currentWithStatus(Deleted)
	if err != nil {
		return err
	}
	if r.prior == Inserted {
		r.status = Inserted
		r.prior = Unchanged
	} else {
		r.restore()
	}
	rs.notify(RowChanged)
	return nil
}

func (rs *RowSet) UndoUpdate() error {
	r, err := rs.currentWithStatus(Updated)
	if err != nil {
		return err
	}
	r.restore()
	rs.notify(RowChanged)
	return nil
}

// UndoInsert removes the current inserted row. The cursor moves to the
// position before it.
func (rs *RowSet) UndoInsert() error {
	_, err := rs.currentWithStatus(Inserted)
	if err != nil {
		return err
	}
	i := rs.pos - 1
	rs.data.rows = append(rs.data.rows[:i], rs.data.rows[i+1:]...)
	rs.pos = i
	rs.notify(RowChanged)
	return nil
}

// RestoreOriginal reverts every pending change: inserted rows go away,
// updated and deleted rows get their original values back.
func (rs *RowSet) RestoreOriginal() error {
	if !rs.populated() {
		return fmt.Errorf("%w: row set is not populated", ErrInvalidState)
	}
	rows := rs.data.rows[:0]
	for _, r := range rs.data.rows {
		if r.WasInserted() {
			continue
		}
		if r.status != Unchanged || r.staged != nil {
			r.restore()
		}
		rows = append(rows, r)
	}
	rs.data.rows = rows
	rs.pos = 0
	rs.onInsert = false
	rs.notify(RowSetChanged)
	return nil
}

func (rs *RowSet) RowUpdated() (bool, error) {
	r, err := rs.current()
	if err != nil {
		return false, err
	}
	return r.status == Updated, nil
}

func (rs *RowSet) RowInserted() (bool, error) {
	r, err := rs.current()
	if err != nil {
		return false, err
	}
	return r.status == Inserted, nil
}

func (rs *RowSet) RowDeleted() (bool, error) {
	r, err := rs.current()
	if err != nil {
		return false, err
	}
	return r.status == Deleted, nil
}

// OriginalRow returns the last synchronized values of the current row.
func (rs *RowSet) OriginalRow() ([]any, error) {
	r, err := rs.current()
	if err != nil {
		return nil, err
	}
	return r.Original(), nil
}
