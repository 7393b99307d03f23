// Package memstore is an in-memory backing store of keyed tables.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/fulldump/rowsetdb/backing"
)

type record struct {
	key    []any
	values []any
}

type table struct {
	columns []backing.Column
	keys    []int // positions of key columns
	tree    *btree.BTreeG[*record]
}

// Store keeps every table in a btree ordered by primary key. Fetch returns
// rows in key order.
type Store struct {
	mutex  *sync.RWMutex
	tables map[string]*table
}

var _ backing.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mutex:  &sync.RWMutex{},
		tables: map[string]*table{},
	}
}

// CreateTable registers a table. Columns flagged Key form the primary key;
// when none is flagged the first column is the key.
func (s *Store) CreateTable(name string, columns []backing.Column) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("%w: table '%s' already exists", backing.ErrConstraint, name)
	}
	if len(columns) == 0 {
		return fmt.Errorf("table '%s' has no columns", name)
	}

	t := &table{
		columns: append([]backing.Column{}, columns...),
	}
	for i, c := range columns {
		if c.Key {
			t.keys = append(t.keys, i)
		}
	}
	if len(t.keys) == 0 {
		t.keys = []int{0}
		t.columns[0].Key = true
	}
	t.tree = btree.NewG(32, func(a, b *record) bool {
		c, _ := backing.CompareTuples(a.key, b.key)
		return c < 0
	})

	s.tables[name] = t
	return nil
}

// Load inserts tuples straight into a table, bypassing mutation checks other
// than key uniqueness.
func (s *Store) Load(name string, tuples ...[]any) error {
	for _, tuple := range tuples {
		err := s.Apply(context.Background(), backing.Mutation{
			Op:     backing.OpInsert,
			Table:  name,
			Values: tuple,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Count(name string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return 0
	}
	return t.tree.Len()
}

func (s *Store) getTable(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", backing.ErrNoTable, name)
	}
	return t, nil
}

// Fetch reads q.Table; Command and Params are not interpreted by this store.
func (s *Store) Fetch(ctx context.Context, q backing.Query) (*backing.Result, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, err := s.getTable(q.Table)
	if err != nil {
		return nil, err
	}

	result := &backing.Result{
		Columns: append([]backing.Column{}, t.columns...),
		Tuples:  [][]any{},
	}

	skip := q.Offset
	t.tree.Ascend(func(r *record) bool {
		if skip > 0 {
			skip--
			return true
		}
		if q.Limit > 0 && len(result.Tuples) >= q.Limit {
			return false
		}
		result.Tuples = append(result.Tuples, backing.Clone(r.values))
		return true
	})

	return result, ctx.Err()
}

func (s *Store) Apply(ctx context.Context, m backing.Mutation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, err := s.getTable(m.Table)
	if err != nil {
		return err
	}

	switch m.Op {
	case backing.OpInsert:
		values, err := t.tuple(m.Columns, m.Values)
		if err != nil {
			return err
		}
		r := &record{key: t.keyOf(values), values: values}
		if t.tree.Has(r) {
			return fmt.Errorf("%w: duplicate key %v in '%s'", backing.ErrConstraint, r.key, m.Table)
		}
		t.tree.ReplaceOrInsert(r)

	case backing.OpUpdate:
		current, err := t.find(m.Key)
		if err != nil {
			return err
		}
		values, err := t.tuple(m.Columns, m.Values)
		if err != nil {
			return err
		}
		r := &record{key: t.keyOf(values), values: values}
		if c, _ := backing.CompareTuples(r.key, current.key); c != 0 && t.tree.Has(r) {
			return fmt.Errorf("%w: duplicate key %v in '%s'", backing.ErrConstraint, r.key, m.Table)
		}
		t.tree.Delete(current)
		t.tree.ReplaceOrInsert(r)

	case backing.OpDelete:
		current, err := t.find(m.Key)
		if err != nil {
			return err
		}
		t.tree.Delete(current)

	default:
		return fmt.Errorf("unsupported operation %d", m.Op)
	}

	return nil
}

func (s *Store) ReadByKey(ctx context.Context, name string, columns []string, key backing.Key) ([]any, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, err := s.getTable(name)
	if err != nil {
		return nil, false, err
	}

	r, err := t.find(key)
	if err == backing.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if columns == nil {
		return backing.Clone(r.values), true, nil
	}
	result := make([]any, len(columns))
	for i, name := range columns {
		j := t.index(name)
		if j < 0 {
			return nil, false, fmt.Errorf("unknown column '%s'", name)
		}
		result[i] = r.values[j]
	}
	return backing.Clone(result), true, nil
}

func (t *table) index(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *table) keyOf(values []any) []any {
	key := make([]any, len(t.keys))
	for i, k := range t.keys {
		key[i] = values[k]
	}
	return key
}

// tuple lays out values in table order; nil columns means values are
// already in table order.
func (t *table) tuple(columns []string, values []any) ([]any, error) {
	result := make([]any, len(t.columns))
	if columns == nil {
		if len(values) != len(t.columns) {
			return nil, fmt.Errorf("%w: %d values for %d columns", backing.ErrTypeMismatch, len(values), len(t.columns))
		}
		copy(result, values)
	} else {
		if len(columns) != len(values) {
			return nil, fmt.Errorf("%w: %d values for %d columns", backing.ErrTypeMismatch, len(values), len(columns))
		}
		for i, name := range columns {
			j := t.index(name)
			if j < 0 {
				return nil, fmt.Errorf("unknown column '%s'", name)
			}
			result[j] = values[i]
		}
	}

	result, err := backing.CoerceTuple(t.columns, result)
	if err != nil {
		return nil, err
	}
	for i, c := range t.columns {
		if result[i] == nil && (c.Key || !c.Nullable) {
			return nil, fmt.Errorf("%w: column '%s' is not nullable", backing.ErrConstraint, c.Name)
		}
	}
	return result, nil
}

func (t *table) find(key backing.Key) (*record, error) {
	pivot := &record{key: make([]any, len(t.keys))}
	if len(key.Columns) != len(t.keys) {
		return t.scan(key)
	}
	for i, name := range key.Columns {
		j := t.index(name)
		if j < 0 || j != t.keys[i] {
			return t.scan(key)
		}
		v, err := backing.Coerce(t.columns[j].Type, key.Values[i])
		if err != nil {
			return nil, err
		}
		pivot.key[i] = v
	}

	r, ok := t.tree.Get(pivot)
	if !ok {
		return nil, backing.ErrNotFound
	}
	return r, nil
}

// scan finds a record by a key that is not the primary key.
func (t *table) scan(key backing.Key) (*record, error) {
	positions := make([]int, len(key.Columns))
	for i, name := range key.Columns {
		positions[i] = t.index(name)
		if positions[i] < 0 {
			return nil, fmt.Errorf("unknown column '%s'", name)
		}
	}

	var found *record
	t.tree.Ascend(func(r *record) bool {
		for i, p := range positions {
			if !backing.Equal(r.values[p], key.Values[i]) {
				return true
			}
		}
		found = r
		return false
	})
	if found == nil {
		return nil, backing.ErrNotFound
	}
	return found, nil
}
