// Package paging loads large results in fixed size blocks into a RowSet.
package paging

import (
	"context"
	"fmt"

	"github.com/fulldump/rowsetdb/rowset"
)

const DefaultPageSize = 100

// Controller keeps one page of a Source materialized in a RowSet and moves
// between adjacent pages. Loading a page replaces the rows and leaves the
// cursor before the first one.
type Controller struct {
	source   Source
	pageSize int
	offset   int
	loaded   bool
	end      bool // the current page reached the end of the source
	rs       *rowset.RowSet
}

func NewController(source Source, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	rs := rowset.New()
	rs.SetTableName(source.Table())
	return &Controller{
		source:   source,
		pageSize: pageSize,
		rs:       rs,
	}
}

func (c *Controller) RowSet() *rowset.RowSet {
	return c.rs
}

func (c *Controller) PageSize() int {
	return c.pageSize
}

// SetPageSize changes the size of the pages loaded from now on.
func (c *Controller) SetPageSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: page size %d", rowset.ErrInvalidState, size)
	}
	c.pageSize = size
	return nil
}

// Offset is the absolute position of the first row of the current page.
func (c *Controller) Offset() int {
	return c.offset
}

// Page is the 1-based number of the current page, 0 before the first load.
func (c *Controller) Page() int {
	if !c.loaded {
		return 0
	}
	return c.offset/c.pageSize + 1
}

// HasNext is false once the page holding the last row is loaded.
func (c *Controller) HasNext() bool {
	return !c.loaded || !c.end
}

func (c *Controller) HasPrevious() bool {
	return c.loaded && c.offset > 0
}

// NextPage loads the block following the current one, or the first block
// when nothing is loaded yet. It returns false, keeping the current page,
// when there are no more rows.
func (c *Controller) NextPage(ctx context.Context) (bool, error) {
	offset := 0
	if c.loaded {
		if !c.HasNext() {
			return false, nil
		}
		offset = c.offset + c.rs.Size()
	}
	return c.load(ctx, offset, c.pageSize)
}

// PreviousPage loads the block before the current one. Near the start the
// block is short so pages stay contiguous.
func (c *Controller) PreviousPage(ctx context.Context) (bool, error) {
	if !c.HasPrevious() {
		return false, nil
	}
	offset := c.offset - c.pageSize
	limit := c.pageSize
	if offset < 0 {
		offset = 0
		limit = c.offset
	}
	return c.load(ctx, offset, limit)
}

// Seek loads the block starting at the absolute offset.
func (c *Controller) Seek(ctx context.Context, offset int) (bool, error) {
	if offset < 0 {
		return false, fmt.Errorf("%w: offset %d", rowset.ErrInvalidCursor, offset)
	}
	return c.load(ctx, offset, c.pageSize)
}

func (c *Controller) load(ctx context.Context, offset, limit int) (bool, error) {
	result, err := c.source.Page(ctx, offset, limit)
	if err != nil {
		return false, err
	}
	if len(result.Tuples) == 0 && c.loaded {
		c.end = true
		return false, nil
	}
	err = c.rs.Populate(result)
	if err != nil {
		return false, err
	}
	c.offset = offset
	c.loaded = true
	c.end = len(result.Tuples) < limit
	return len(result.Tuples) > 0, nil
}
