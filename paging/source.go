package paging

import (
	"context"
	"fmt"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

// Source returns blocks of an ordered result.
type Source interface {
	Table() string
	Page(ctx context.Context, offset, limit int) (*backing.Result, error)
}

// QuerySource pages a query against a backing store.
type QuerySource struct {
	Store backing.Store
	Query backing.Query
}

func (s *QuerySource) Table() string {
	return s.Query.Table
}

func (s *QuerySource) Page(ctx context.Context, offset, limit int) (*backing.Result, error) {
	q := s.Query
	q.Offset = offset
	q.Limit = limit
	result, err := s.Store.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch page at %d: %w", offset, err)
	}
	return result, nil
}

// RowSetSource pages the visible rows of a row set already in memory.
type RowSetSource struct {
	RowSet *rowset.RowSet
}

func (s *RowSetSource) Table() string {
	return s.RowSet.TableName()
}

func (s *RowSetSource) Page(ctx context.Context, offset, limit int) (*backing.Result, error) {
	columns := s.RowSet.Columns()
	if columns == nil {
		return nil, fmt.Errorf("%w: row set is not populated", rowset.ErrInvalidState)
	}
	rows := s.RowSet.VisibleRows()
	result := &backing.Result{Columns: columns, Tuples: [][]any{}}
	for i := offset; i < len(rows) && i < offset+limit; i++ {
		result.Tuples = append(result.Tuples, rows[i].Values())
	}
	return result, nil
}
