package backing

import (
	"context"
	"errors"
)

// Errors reported by Store implementations. Anything else returned by a Store
// is an opaque I/O failure of the driver.
var (
	ErrConstraint   = errors.New("constraint violation")
	ErrNotFound     = errors.New("row not found")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrNoTable      = errors.New("table not found")
)

type Op int

const (
	OpInsert Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Query describes what to fetch. Command takes precedence over Table when
// both are set. Limit <= 0 means no limit.
type Query struct {
	Table   string
	Command string
	Params  []any
	Offset  int
	Limit   int
}

// Result is an ordered sequence of tuples with their column metadata.
type Result struct {
	Columns []Column
	Tuples  [][]any
}

// Key identifies one backing row by the values of its key columns.
type Key struct {
	Columns []string
	Values  []any
}

// Mutation is a single change applied to a table. Values follow Columns and
// are ignored for OpDelete.
type Mutation struct {
	Op      Op
	Table   string
	Columns []string
	Key     Key
	Values  []any
}

// Store is the boundary with the relational backing store.
type Store interface {
	Fetch(ctx context.Context, q Query) (*Result, error)
	Apply(ctx context.Context, m Mutation) error
	// ReadByKey returns the current values of columns for the row identified
	// by key, or false when the row does not exist.
	ReadByKey(ctx context.Context, table string, columns []string, key Key) ([]any, bool, error)
}

// Schema is implemented by stores able to create tables.
type Schema interface {
	CreateTable(name string, columns []Column) error
}
