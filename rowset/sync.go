package rowset

import (
	"context"
	"fmt"

	"github.com/fulldump/rowsetdb/backing"
)

// PendingRow is a row with status other than Unchanged and its store
// position at the time Pending was called.
type PendingRow struct {
	Position int
	Row      *Row
}

// Pending lists the rows a synchronization pass must reconcile, in store
// order.
func (rs *RowSet) Pending() []PendingRow {
	result := []PendingRow{}
	for i, r := range rs.data.rows {
		if r.status != Unchanged {
			result = append(result, PendingRow{Position: i + 1, Row: r})
		}
	}
	return result
}

// Commit finalizes rows that reached the backing store: deleted rows are
// removed from the store, the others become Unchanged with their current
// values as original. The cursor follows its row when it survives.
func (rs *RowSet) Commit(rows []*Row) {
	if len(rows) == 0 {
		return
	}

	done := make(map[*Row]bool, len(rows))
	for _, r := range rows {
		done[r] = true
	}

	pos := rs.clampedPos()
	wasAfterLast := pos == rs.afterLast()
	newPos := pos
	kept := rs.data.rows[:0]
	for i, r := range rs.data.rows {
		if done[r] && r.status == Deleted {
			switch {
			case i+1 < pos:
				newPos--
			case i+1 == pos:
				newPos = 0
			}
			continue
		}
		if done[r] {
			r.accept()
		}
		kept = append(kept, r)
	}
	rs.data.rows = kept

	if wasAfterLast {
		newPos = len(kept) + 1
	}
	rs.pos = newPos
}

// Synchronize reconciles pending rows with st (or the row set's own store
// when st is nil) using the configured strategy. On conflicts the returned
// error is a *SyncError.
func (rs *RowSet) Synchronize(ctx context.Context, st backing.Store) error {
	if st == nil {
		st = rs.backingStore
	}
	if st == nil {
		return fmt.Errorf("%w: no backing store", ErrInvalidState)
	}
	if rs.strategy == nil {
		return fmt.Errorf("%w: no synchronization strategy", ErrInvalidState)
	}
	if !rs.populated() {
		return fmt.Errorf("%w: row set is not populated", ErrInvalidState)
	}

	err := rs.strategy.Synchronize(ctx, rs, st)
	rs.notify(RowSetChanged)
	return err
}
