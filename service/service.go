package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/database"
	"github.com/fulldump/rowsetdb/reconcile"
	"github.com/fulldump/rowsetdb/rowset"
)

const DefaultMaxRowSets = 1000

type Config struct {
	Strategy   string // used when a row set does not name one
	PageSize   int
	MaxRowSets int
}

// Service keeps the named row sets of a database. When more than MaxRowSets
// are open the least recently used one is closed, losing its pending
// changes.
type Service struct {
	db     *database.Database
	config Config

	mutex   sync.Mutex
	rowsets *lru.Cache
}

var _ Servicer = (*Service)(nil)

func NewService(db *database.Database, config Config) *Service {
	if config.MaxRowSets <= 0 {
		config.MaxRowSets = DefaultMaxRowSets
	}
	if config.Strategy == "" {
		config.Strategy = reconcile.DefaultStrategy
	}

	rowsets, err := lru.NewWithEvict(config.MaxRowSets, func(key, value interface{}) {
		entry := value.(*Entry)
		entry.mutex.Lock()
		defer entry.mutex.Unlock()
		log.WithFields(log.Fields{
			"rowset":  key,
			"pending": len(entry.rs.Pending()),
		}).Warn("row set evicted")
		entry.rs.Close()
	})
	if err != nil {
		panic(err) // only for a non positive size
	}

	return &Service{
		db:      db,
		config:  config,
		rowsets: rowsets,
	}
}

func (s *Service) store() (backing.Store, error) {
	store := s.db.Store()
	if store == nil {
		return nil, ErrorUnavailable
	}
	return store, nil
}

func (s *Service) CreateTable(name string, columns []backing.Column) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	schema, ok := store.(backing.Schema)
	if !ok {
		return ErrorNoSchema
	}
	if name == "" {
		return fmt.Errorf("%w: table name is empty", rowset.ErrInvalidState)
	}
	return schema.CreateTable(name, columns)
}

func (s *Service) strategy(name string) (rowset.SyncStrategy, error) {
	strategy, err := reconcile.ByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rowset.ErrInvalidState, err.Error())
	}
	return strategy, nil
}

type CreateInput struct {
	Name     string `json:"name"`
	Table    string `json:"table"`
	Command  string `json:"command"`
	Params   []any  `json:"params"`
	Strategy string `json:"strategy"`
	MaxRows  int    `json:"maxRows"`

	// KeyColumns override the key reported by the store, by name.
	KeyColumns []string `json:"keyColumns"`
}

// CreateRowSet fetches a new row set and registers it under input.Name, the
// table name when empty.
func (s *Service) CreateRowSet(ctx context.Context, input *CreateInput) (*Entry, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = input.Table
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name or table is required", rowset.ErrInvalidState)
	}
	if s.rowsets.Contains(name) {
		return nil, ErrorRowSetAlreadyExists
	}

	strategyName := input.Strategy
	if strategyName == "" {
		strategyName = s.config.Strategy
	}
	strategy, err := s.strategy(strategyName)
	if err != nil {
		return nil, err
	}

	rs := rowset.NewWithStrategy(strategy)
	rs.SetTableName(input.Table)
	rs.SetCommand(input.Command, input.Params...)
	if input.MaxRows > 0 {
		err := rs.SetMaxRows(input.MaxRows)
		if err != nil {
			return nil, err
		}
	}
	rs.SetStore(store)

	t0 := time.Now()
	err = rs.Execute(ctx, nil)
	if err != nil {
		return nil, err
	}

	if len(input.KeyColumns) > 0 {
		keys := []int{}
		for _, k := range input.KeyColumns {
			i, err := rs.FindColumn(k)
			if err != nil {
				return nil, err
			}
			keys = append(keys, i)
		}
		err := rs.SetKeyColumns(keys...)
		if err != nil {
			return nil, err
		}
	}

	entry := newEntry(name, strategyName, rs, s.config.PageSize)
	err = s.register(entry)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"rowset":   name,
		"table":    input.Table,
		"rows":     rs.Size(),
		"strategy": strategyName,
		"took":     time.Since(t0),
	}).Info("row set created")

	return entry, nil
}

func (s *Service) register(entry *Entry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ok, _ := s.rowsets.ContainsOrAdd(entry.Name, entry)
	if ok {
		return ErrorRowSetAlreadyExists
	}
	return nil
}

func (s *Service) GetRowSet(name string) (*Entry, error) {
	value, ok := s.rowsets.Get(name)
	if !ok {
		return nil, ErrorRowSetNotFound
	}
	return value.(*Entry), nil
}

// ListRowSets returns the open row sets from the oldest to the most recently
// used.
func (s *Service) ListRowSets() []*Entry {
	result := []*Entry{}
	for _, key := range s.rowsets.Keys() {
		value, ok := s.rowsets.Peek(key)
		if !ok {
			continue
		}
		result = append(result, value.(*Entry))
	}
	return result
}

// DropRowSet closes and forgets the row set. Pending changes are lost.
func (s *Service) DropRowSet(name string) error {
	if !s.rowsets.Remove(name) {
		return ErrorRowSetNotFound
	}
	return nil
}

// SyncReport tells how a synchronization pass went. Conflicts is empty when
// every pending row reached the store.
type SyncReport struct {
	Synchronized int               `json:"synchronized"`
	Pending      int               `json:"pending"`
	Conflicts    []rowset.Conflict `json:"conflicts"`
}

// Synchronize writes the pending rows of the row set back. Conflicting rows
// come back in the report together with an error wrapping
// rowset.ErrSynchronization.
func (s *Service) Synchronize(ctx context.Context, name string) (*SyncReport, error) {
	entry, err := s.GetRowSet(name)
	if err != nil {
		return nil, err
	}

	entry.mutex.Lock()
	defer entry.mutex.Unlock()

	before := len(entry.rs.Pending())
	err = entry.rs.Synchronize(ctx, nil)
	after := len(entry.rs.Pending())

	report := &SyncReport{
		Synchronized: before - after,
		Pending:      after,
		Conflicts:    []rowset.Conflict{},
	}

	var syncErr *rowset.SyncError
	if errors.As(err, &syncErr) {
		report.Conflicts = syncErr.Conflicts.Conflicts()
	}
	return report, err
}
