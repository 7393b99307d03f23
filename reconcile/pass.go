// Package reconcile holds the synchronization strategies that write the
// pending rows of a rowset.RowSet back to a backing.Store.
package reconcile

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

// pass is the state of one synchronization pass.
type pass struct {
	ctx     context.Context
	store   backing.Store
	table   string
	columns []backing.Column
	names   []string
	keys    []int // 0-based
	isKey   []bool
}

// reconcileFunc applies one pending row. A nil conflict and nil error means
// the row reached the store.
type reconcileFunc func(p *pass, row *rowset.Row) (*rowset.Conflict, error)

func run(ctx context.Context, rs *rowset.RowSet, st backing.Store, strategy string, f reconcileFunc) error {
	table := rs.TableName()
	if table == "" {
		return fmt.Errorf("%w: table name is not set", rowset.ErrInvalidState)
	}

	p := &pass{
		ctx:     ctx,
		store:   st,
		table:   table,
		columns: rs.Columns(),
	}
	p.names = backing.ColumnNames(p.columns)
	p.isKey = make([]bool, len(p.columns))
	for _, k := range rs.KeyColumns() {
		// key columns set before the first fetch were never bounded
		if k < 1 || k > len(p.columns) {
			return fmt.Errorf("%w: key column %d", rowset.ErrInvalidColumn, k)
		}
		p.keys = append(p.keys, k-1)
		p.isKey[k-1] = true
	}

	t0 := time.Now()
	SyncPassesTotal.Inc()
	defer func() { SyncDurationSeconds.Observe(time.Since(t0).Seconds()) }()

	conflicts := rowset.NewConflictSet(p.columns)
	committed := []*rowset.Row{}
	var failure error

	for _, pending := range rs.Pending() {
		row := pending.Row
		op := opOf(row)

		// Inserted then deleted locally: the store never saw it.
		if row.WasInserted() && row.Status() == rowset.Deleted {
			committed = append(committed, row)
			continue
		}

		conflict, err := f(p, row)
		if err != nil {
			SyncRowsTotal.WithLabelValues(op.String(), Fail).Inc()
			failure = fmt.Errorf("%s row %d: %w", op, pending.Position, err)
			break
		}
		if conflict != nil {
			conflict.Position = pending.Position
			conflicts.Add(*conflict)
			SyncRowsTotal.WithLabelValues(op.String(), Conflict).Inc()
			log.WithFields(log.Fields{
				"table": table,
				"row":   pending.Position,
				"kind":  conflict.Kind,
				"known": conflict.Known,
			}).Warn("synchronization conflict")
			continue
		}

		SyncRowsTotal.WithLabelValues(op.String(), Ok).Inc()
		log.WithFields(log.Fields{"table": table, "row": pending.Position, "op": op}).Debug("row synchronized")
		committed = append(committed, row)
	}

	rs.Commit(committed)

	log.WithFields(log.Fields{
		"table":     table,
		"strategy":  strategy,
		"committed": len(committed),
		"conflicts": conflicts.Len(),
		"elapsed":   time.Since(t0),
	}).Info("synchronization pass")

	if failure != nil {
		return failure
	}
	if conflicts.Len() > 0 {
		return &rowset.SyncError{Conflicts: conflicts}
	}
	return nil
}

func opOf(row *rowset.Row) backing.Op {
	switch row.Status() {
	case rowset.Inserted:
		return backing.OpInsert
	case rowset.Deleted:
		return backing.OpDelete
	}
	return backing.OpUpdate
}

func (p *pass) key(values []any) backing.Key {
	key := backing.Key{
		Columns: make([]string, len(p.keys)),
		Values:  make([]any, len(p.keys)),
	}
	for i, k := range p.keys {
		key.Columns[i] = p.names[k]
		key.Values[i] = values[k]
	}
	return key
}

func (p *pass) apply(op backing.Op, key backing.Key, values []any) error {
	return p.store.Apply(p.ctx, backing.Mutation{
		Op:      op,
		Table:   p.table,
		Columns: p.names,
		Key:     key,
		Values:  values,
	})
}

// read returns the current backing values of the row identified by key.
func (p *pass) read(key backing.Key) ([]any, bool, error) {
	values, found, err := p.store.ReadByKey(p.ctx, p.table, p.names, key)
	if err != nil || !found {
		return nil, found, err
	}
	values, err = backing.CoerceTuple(p.columns, values)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

// changed reports whether any non key column differs between the original
// snapshot and the current backing values.
func (p *pass) changed(original, current []any) bool {
	for i := range p.columns {
		if p.isKey[i] {
			continue
		}
		if !backing.Equal(original[i], current[i]) {
			return true
		}
	}
	return false
}

// conflict builds a conflict carrying the current backing values when they
// can be read.
func (p *pass) conflict(kind rowset.ConflictKind, key backing.Key) *rowset.Conflict {
	c := &rowset.Conflict{Kind: kind}
	values, found, err := p.read(key)
	if err == nil && found {
		c.Values = values
		c.Known = true
	}
	return c
}
