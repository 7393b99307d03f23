package rowset

import (
	"errors"
	"fmt"

	"github.com/fulldump/rowsetdb/backing"
)

var (
	ErrInvalidCursor         = errors.New("invalid cursor position")
	ErrInvalidColumn         = errors.New("invalid column")
	ErrTypeMismatch          = backing.ErrTypeMismatch
	ErrInvalidState          = errors.New("invalid state")
	ErrSynchronization       = errors.New("synchronization failed")
	ErrUnsupportedDirection  = errors.New("unsupported direction")
	ErrUnsortable            = errors.New("unsortable column")
	ErrColumnBindingMismatch = errors.New("columns being unset are not the ones currently bound")
	ErrFilterViolation       = errors.New("value violates filter")
	ErrValueUnknown          = errors.New("conflict value unknown")
)

// SyncError is returned by Synchronize when at least one row conflicted.
// Rows that synchronized are committed; conflicting rows keep their status.
type SyncError struct {
	Conflicts *ConflictSet
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %d conflicts", ErrSynchronization.Error(), e.Conflicts.Len())
}

func (e *SyncError) Unwrap() error {
	return ErrSynchronization
}
