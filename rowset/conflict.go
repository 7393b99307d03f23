package rowset

import (
	"fmt"

	"github.com/fulldump/rowsetdb/backing"
)

type ConflictKind int

const (
	InsertConflict ConflictKind = iota + 1
	UpdateConflict
	DeleteConflict
)

func (k ConflictKind) String() string {
	switch k {
	case InsertConflict:
		return "insert"
	case UpdateConflict:
		return "update"
	case DeleteConflict:
		return "delete"
	}
	return fmt.Sprintf("conflict(%d)", int(k))
}

func (k ConflictKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Conflict describes one row that could not be synchronized. Values are the
// backing store's current values, nil when Known is false.
type Conflict struct {
	Position int          `json:"row"`
	Kind     ConflictKind `json:"kind"`
	Values   []any        `json:"values"`
	Known    bool         `json:"known"`
}

// ConflictSet is an ordered list of conflicts with its own cursor, which
// starts before the first conflict.
type ConflictSet struct {
	columns   []backing.Column
	conflicts []Conflict
	cursor    int
}

func NewConflictSet(columns []backing.Column) *ConflictSet {
	return &ConflictSet{
		columns: columns,
	}
}

func (c *ConflictSet) Add(conflict Conflict) {
	c.conflicts = append(c.conflicts, conflict)
}

func (c *ConflictSet) Len() int {
	return len(c.conflicts)
}

func (c *ConflictSet) Conflicts() []Conflict {
	return append([]Conflict{}, c.conflicts...)
}

func (c *ConflictSet) Columns() []backing.Column {
	return c.columns
}

func (c *ConflictSet) BeforeFirst() {
	c.cursor = 0
}

func (c *ConflictSet) NextConflict() bool {
	if c.cursor > len(c.conflicts) {
		return false
	}
	c.cursor++
	return c.cursor <= len(c.conflicts)
}

func (c *ConflictSet) onConflict() (*Conflict, error) {
	if c.cursor < 1 || c.cursor > len(c.conflicts) {
		return nil, fmt.Errorf("%w: not on a conflict", ErrInvalidCursor)
	}
	return &c.conflicts[c.cursor-1], nil
}

// Row returns the position the conflicting row had in the store, 0 when the
// cursor is not on a conflict.
func (c *ConflictSet) Row() int {
	conflict, err := c.onConflict()
	if err != nil {
		return 0
	}
	return conflict.Position
}

func (c *ConflictSet) Status() (ConflictKind, error) {
	conflict, err := c.onConflict()
	if err != nil {
		return 0, err
	}
	return conflict.Kind, nil
}

// ConflictValue returns the backing store's value of column i for the
// current conflict.
func (c *ConflictSet) ConflictValue(i int) (any, error) {
	conflict, err := c.onConflict()
	if err != nil {
		return nil, err
	}
	if i < 1 || i > len(c.columns) {
		return nil, fmt.Errorf("%w: index %d out of [1,%d]", ErrInvalidColumn, i, len(c.columns))
	}
	if !conflict.Known {
		return nil, ErrValueUnknown
	}
	return conflict.Values[i-1], nil
}
