package service

import (
	"encoding/base64"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

// Snapshot encodes the row set, pending changes included, as JSON.
func (s *Service) Snapshot(name string) ([]byte, error) {
	entry, err := s.GetRowSet(name)
	if err != nil {
		return nil, err
	}

	entry.mutex.Lock()
	snapshot := entry.rs.Export()
	entry.mutex.Unlock()
	snapshot.Properties.Strategy = entry.Strategy

	return json.Marshal(snapshot, jsontext.WithIndent("  "), json.Deterministic(true))
}

// Restore registers a row set decoded from a Snapshot under name. It is
// bound to the current backing store and keeps its pending changes, so it
// can be synchronized.
func (s *Service) Restore(name string, data []byte) (*Entry, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}

	snapshot := rowset.Snapshot{}
	err = json.Unmarshal(data, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %s", rowset.ErrInvalidState, err.Error())
	}
	err = decodeBytes(&snapshot)
	if err != nil {
		return nil, err
	}

	rs, err := rowset.Import(snapshot)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = rs.TableName()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", rowset.ErrInvalidState)
	}

	strategyName := snapshot.Properties.Strategy
	if strategyName == "" {
		strategyName = s.config.Strategy
	}
	strategy, err := s.strategy(strategyName)
	if err != nil {
		return nil, err
	}
	rs.SetStrategy(strategy)
	rs.SetStore(store)

	entry := newEntry(name, strategyName, rs, s.config.PageSize)
	err = s.register(entry)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// decodeBytes turns the base64 strings JSON produces for binary columns back
// into bytes.
func decodeBytes(snapshot *rowset.Snapshot) error {
	for i, c := range snapshot.Columns {
		if c.Type != backing.TypeBytes {
			continue
		}
		for _, row := range snapshot.Rows {
			for _, values := range [][]any{row.Values, row.Original} {
				if i >= len(values) {
					continue
				}
				encoded, ok := values[i].(string)
				if !ok {
					continue
				}
				decoded, err := base64.StdEncoding.DecodeString(encoded)
				if err != nil {
					return fmt.Errorf("%w: column '%s': %s", backing.ErrTypeMismatch, c.Name, err.Error())
				}
				values[i] = decoded
			}
		}
	}
	return nil
}
