package rowset

import "fmt"

func (rs *RowSet) visible(r *Row) bool {
	if r.status == Deleted && !rs.showDeleted {
		return false
	}
	if rs.predicate != nil && !rs.predicate.Evaluate(RowView{columns: rs.data.columns, row: r}) {
		return false
	}
	return true
}

func (rs *RowSet) afterLast() int {
	return len(rs.data.rows) + 1
}

// clampedPos keeps the cursor inside [0, size+1] after rows were removed
// through a shared copy.
func (rs *RowSet) clampedPos() int {
	if rs.pos > rs.afterLast() {
		return rs.afterLast()
	}
	return rs.pos
}

func (rs *RowSet) checkNavigation() error {
	if !rs.populated() {
		return fmt.Errorf("%w: row set is not populated", ErrInvalidState)
	}
	if rs.onInsert {
		return fmt.Errorf("%w: cursor is on the insert row", ErrInvalidState)
	}
	return nil
}

// moveTo sets the cursor, refusing backward moves on forward-only row sets.
func (rs *RowSet) moveTo(target int) error {
	current := rs.clampedPos()
	if rs.cursorType == ForwardOnly && target < current {
		return fmt.Errorf("%w: row set is forward only", ErrUnsupportedDirection)
	}
	rs.pos = target
	if target != current {
		rs.notify(CursorMoved)
	}
	return nil
}

// scan walks visible rows from position from (exclusive) in direction step
// and returns the position of the n-th one, or 0 when there are not enough.
func (rs *RowSet) scan(from, step, n int) int {
	rows := rs.data.rows
	for p := from + step; p >= 1 && p <= len(rows); p += step {
		if !rs.visible(rows[p-1]) {
			continue
		}
		n--
		if n == 0 {
			return p
		}
	}
	return 0
}

func (rs *RowSet) Next() (bool, error) {
	if err := rs.checkNavigation(); err != nil {
		return false, err
	}
	target := rs.scan(rs.clampedPos(), 1, 1)
	if target == 0 {
		return false, rs.moveTo(rs.afterLast())
	}
	return true, rs.moveTo(target)
}

func (rs *RowSet) Previous() (bool, error) {
	if err := rs.checkNavigation(); err != nil {
		return false, err
	}
	if rs.cursorType == ForwardOnly {
		return false, fmt.Errorf("%w: previous on a forward only row set", ErrUnsupportedDirection)
	}
	target := rs.scan(rs.clampedPos(), -1, 1)
	if target == 0 {
		return false, rs.moveTo(0)
	}
	return true, rs.moveTo(target)
}

func (rs *RowSet) First() (bool, error) {
	if err := rs.checkNavigation(); err != nil {
		return false, err
	}
	target := rs.scan(0, 1, 1)
	if target == 0 {
		return false, rs.moveTo(rs.clampedPos())
	}
	return true, rs.moveTo(target)
}

func (rs *RowSet) Last() (bool, error) {
	if err := rs.checkNavigation(); err != nil {
		return false, err
	}
	target := rs.scan(rs.afterLast(), -1, 1)
	if target == 0 {
		return false, rs.moveTo(rs.clampedPos())
	}
	return true, rs.moveTo(target)
}

func (rs *RowSet) BeforeFirst() error {
	if err := rs.checkNavigation(); err != nil {
		return err
	}
	return rs.moveTo(0)
}

func (rs *RowSet) AfterLast() error {
	if err := rs.checkNavigation(); err != nil {
		return err
	}
	return rs.moveTo(rs.afterLast())
}

// Absolute moves to the n-th visible row, counting from the end when n is
// negative. Out of range leaves the cursor after the last row (n > 0) or
// before the first one (n < 0). n == 0 fails without moving.
func (rs *RowSet) Absolute(n int) (bool, error) {
	if err := rs.checkNavigation(); err != nil {
		return false, err
	}
	if n == 0 {
		return false, fmt.Errorf("%w: absolute(0)", ErrInvalidCursor)
	}

	if n > 0 {
		target := rs.scan(0, 1, n)
		if target == 0 {
			return false, rs.moveTo(rs.afterLast())
		}
		return true, rs.moveTo(target)
	}

	target := rs.scan(rs.afterLast(), -1, -n)
	if target == 0 {
		return false, rs.moveTo(0)
	}
	return true, rs.moveTo(target)
}

// Relative moves n visible rows from the current position. Relative(0)
// reports whether the cursor is on a row.
func (rs *RowSet) Relative(n int) (bool, error) {
	if err := rs.checkNavigation(); err != nil {
		return false, err
	}

	current := rs.clampedPos()
	switch {
	case n == 0:
		return rs.onRow(), nil
	case n > 0:
		target := rs.scan(current, 1, n)
		if target == 0 {
			return false, rs.moveTo(rs.afterLast())
		}
		return true, rs.moveTo(target)
	}

	if rs.cursorType == ForwardOnly {
		return false, fmt.Errorf("%w: relative(%d) on a forward only row set", ErrUnsupportedDirection, n)
	}
	target := rs.scan(current, -1, -n)
	if target == 0 {
		return false, rs.moveTo(0)
	}
	return true, rs.moveTo(target)
}

func (rs *RowSet) onRow() bool {
	p := rs.clampedPos()
	return !rs.onInsert && p >= 1 && p <= len(rs.data.rows)
}

// GetRow returns the visible ordinal of the current row, 0 when the cursor
// is on a sentinel or on the insert row.
func (rs *RowSet) GetRow() int {
	if !rs.onRow() {
		return 0
	}
	n := 1
	for _, r := range rs.data.rows[:rs.pos-1] {
		if rs.visible(r) {
			n++
		}
	}
	return n
}

func (rs *RowSet) IsBeforeFirst() bool {
	return !rs.onInsert && rs.pos == 0 && rs.scan(0, 1, 1) != 0
}

func (rs *RowSet) IsAfterLast() bool {
	return !rs.onInsert && rs.clampedPos() == rs.afterLast() && rs.scan(0, 1, 1) != 0
}

func (rs *RowSet) IsFirst() bool {
	return rs.onRow() && rs.scan(0, 1, 1) == rs.pos
}

func (rs *RowSet) IsLast() bool {
	return rs.onRow() && rs.scan(rs.afterLast(), -1, 1) == rs.pos
}

// MoveToInsertRow parks the cursor on the insert buffer, remembering the
// current position.
func (rs *RowSet) MoveToInsertRow() error {
	if !rs.populated() {
		return fmt.Errorf("%w: row set is not populated", ErrInvalidState)
	}
	if !rs.onInsert {
		rs.savedPos = rs.clampedPos()
	}
	rs.onInsert = true
	rs.resetInsertBuffer()
	return nil
}

func (rs *RowSet) resetInsertBuffer() {
	rs.insertBuf = make([]any, len(rs.data.columns))
	rs.insertSet = make([]bool, len(rs.data.columns))
}

// MoveToCurrentRow leaves the insert buffer and restores the position held
// before MoveToInsertRow. It is a no-op elsewhere.
func (rs *RowSet) MoveToCurrentRow() error {
	if !rs.onInsert {
		return nil
	}
	rs.onInsert = false
	rs.insertBuf = nil
	rs.insertSet = nil
	rs.pos = rs.savedPos
	if rs.pos > rs.afterLast() {
		rs.pos = rs.afterLast()
	}
	rs.notify(CursorMoved)
	return nil
}

func (rs *RowSet) OnInsertRow() bool {
	return rs.onInsert
}

// current returns the row under the cursor.
func (rs *RowSet) current() (*Row, error) {
	if !rs.populated() {
		return nil, fmt.Errorf("%w: row set is not populated", ErrInvalidState)
	}
	if !rs.onRow() {
		return nil, fmt.Errorf("%w: not on a row", ErrInvalidCursor)
	}
	return rs.data.rows[rs.pos-1], nil
}
