package service

import (
	"context"
	"errors"

	"github.com/fulldump/rowsetdb/backing"
)

var (
	ErrorRowSetNotFound      = errors.New("row set not found")
	ErrorRowSetAlreadyExists = errors.New("row set already exists")
	ErrorUnavailable         = errors.New("backing store is not ready")
	ErrorNoSchema            = errors.New("backing store can not create tables")
)

type Servicer interface {
	CreateTable(name string, columns []backing.Column) error
	CreateRowSet(ctx context.Context, input *CreateInput) (*Entry, error)
	GetRowSet(name string) (*Entry, error)
	ListRowSets() []*Entry
	DropRowSet(name string) error
	Synchronize(ctx context.Context, name string) (*SyncReport, error)
	Snapshot(name string) ([]byte, error)
	Restore(name string, data []byte) (*Entry, error)
}
