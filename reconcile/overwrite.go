package reconcile

import (
	"context"
	"errors"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

// Overwrite writes pending rows without comparing against the backing
// store: last writer wins. Only rows the store refuses become conflicts.
type Overwrite struct{}

var _ rowset.SyncStrategy = (*Overwrite)(nil)

func NewOverwrite() *Overwrite {
	return &Overwrite{}
}

func (o *Overwrite) Synchronize(ctx context.Context, rs *rowset.RowSet, st backing.Store) error {
	return run(ctx, rs, st, "overwrite", o.reconcile)
}

func (o *Overwrite) reconcile(p *pass, row *rowset.Row) (*rowset.Conflict, error) {
	var kind rowset.ConflictKind
	var key backing.Key
	var err error

	switch row.Status() {
	case rowset.Inserted:
		kind = rowset.InsertConflict
		values := row.Values()
		key = p.key(values)
		err = p.apply(backing.OpInsert, backing.Key{}, values)
	case rowset.Updated:
		kind = rowset.UpdateConflict
		key = p.key(row.Original())
		err = p.apply(backing.OpUpdate, key, row.Values())
	case rowset.Deleted:
		kind = rowset.DeleteConflict
		key = p.key(row.Original())
		err = p.apply(backing.OpDelete, key, nil)
	default:
		return nil, nil
	}

	if errors.Is(err, backing.ErrConstraint) || errors.Is(err, backing.ErrNotFound) {
		return p.conflict(kind, key), nil
	}
	return nil, err
}
