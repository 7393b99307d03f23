package reconcile

import (
	"context"
	"errors"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

// Optimistic reconciles each pending row independently. Updates and deletes
// only go through when the backing row still holds the original values;
// everything else becomes a conflict and the pass carries on.
type Optimistic struct{}

var _ rowset.SyncStrategy = (*Optimistic)(nil)

func NewOptimistic() *Optimistic {
	return &Optimistic{}
}

func (o *Optimistic) Synchronize(ctx context.Context, rs *rowset.RowSet, st backing.Store) error {
	return run(ctx, rs, st, "optimistic", o.reconcile)
}

func (o *Optimistic) reconcile(p *pass, row *rowset.Row) (*rowset.Conflict, error) {
	switch row.Status() {
	case rowset.Inserted:
		values := row.Values()
		err := p.apply(backing.OpInsert, backing.Key{}, values)
		if errors.Is(err, backing.ErrConstraint) {
			return p.conflict(rowset.InsertConflict, p.key(values)), nil
		}
		return nil, err

	case rowset.Updated:
		original := row.Original()
		key := p.key(original)
		current, found, err := p.read(key)
		if err != nil {
			return nil, err
		}
		if !found {
			return &rowset.Conflict{Kind: rowset.UpdateConflict}, nil
		}
		if p.changed(original, current) {
			return &rowset.Conflict{Kind: rowset.UpdateConflict, Values: current, Known: true}, nil
		}
		err = p.apply(backing.OpUpdate, key, row.Values())
		if errors.Is(err, backing.ErrConstraint) || errors.Is(err, backing.ErrNotFound) {
			return p.conflict(rowset.UpdateConflict, key), nil
		}
		return nil, err

	case rowset.Deleted:
		original := row.Original()
		key := p.key(original)
		current, found, err := p.read(key)
		if err != nil {
			return nil, err
		}
		if !found {
			return &rowset.Conflict{Kind: rowset.DeleteConflict}, nil
		}
		if p.changed(original, current) {
			return &rowset.Conflict{Kind: rowset.DeleteConflict, Values: current, Known: true}, nil
		}
		err = p.apply(backing.OpDelete, key, nil)
		if errors.Is(err, backing.ErrNotFound) {
			return &rowset.Conflict{Kind: rowset.DeleteConflict}, nil
		}
		return nil, err
	}

	return nil, nil
}
