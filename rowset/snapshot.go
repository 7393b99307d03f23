package rowset

import (
	"fmt"

	"github.com/fulldump/rowsetdb/backing"
)

// Snapshot is a plain copy of a RowSet: rows with their statuses and
// originals, plus properties. It carries no encoding of its own.
type Snapshot struct {
	Columns    []backing.Column `json:"columns"`
	Rows       []RowSnapshot    `json:"rows"`
	Properties Properties       `json:"properties"`
}

type RowSnapshot struct {
	Values   []any  `json:"values"`
	Original []any  `json:"original,omitempty"`
	Status   Status `json:"status"`
	Prior    Status `json:"prior,omitempty"`
}

type Properties struct {
	TableName    string     `json:"table_name,omitempty"`
	Command      string     `json:"command,omitempty"`
	Params       []any      `json:"params,omitempty"`
	KeyColumns   []int      `json:"key_columns,omitempty"`
	MatchIndexes []int      `json:"match_indexes,omitempty"`
	MatchNames   []string   `json:"match_names,omitempty"`
	PageSize     int        `json:"page_size,omitempty"`
	MaxRows      int        `json:"max_rows,omitempty"`
	ShowDeleted  bool       `json:"show_deleted,omitempty"`
	CursorType   CursorType `json:"cursor_type,omitempty"`
	// Strategy names the synchronization strategy. Export leaves it empty,
	// the owner of the strategy registry fills it.
	Strategy string `json:"strategy,omitempty"`
}

func (rs *RowSet) Export() Snapshot {
	s := Snapshot{
		Columns: rs.Columns(),
		Rows:    make([]RowSnapshot, len(rs.data.rows)),
		Properties: Properties{
			TableName:    rs.tableName,
			Command:      rs.command,
			Params:       append([]any{}, rs.params...),
			KeyColumns:   append([]int{}, rs.keyColumns...),
			MatchIndexes: append([]int{}, rs.matchIndexes...),
			MatchNames:   append([]string{}, rs.matchNames...),
			PageSize:     rs.pageSize,
			MaxRows:      rs.maxRows,
			ShowDeleted:  rs.showDeleted,
			CursorType:   rs.cursorType,
		},
	}
	for i, r := range rs.data.rows {
		s.Rows[i] = RowSnapshot{
			Values:   r.Values(),
			Original: r.Original(),
			Status:   r.status,
			Prior:    r.prior,
		}
	}
	return s
}

// Import builds a RowSet from a snapshot, coercing every value to its
// column type.
func Import(s Snapshot) (*RowSet, error) {
	if s.Columns == nil {
		return nil, fmt.Errorf("%w: snapshot has no columns", ErrInvalidState)
	}

	rs := New()
	rs.data.columns = append([]backing.Column{}, s.Columns...)
	rs.data.rows = make([]*Row, len(s.Rows))
	for i, snapshot := range s.Rows {
		values, err := backing.CoerceTuple(s.Columns, snapshot.Values)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		r := &Row{
			values: values,
			status: snapshot.Status,
			prior:  snapshot.Prior,
		}
		err = checkRowStatus(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		// rows known to the store need their synchronized values
		if !r.WasInserted() {
			if snapshot.Original == nil {
				return nil, fmt.Errorf("%w: row %d is %s without original values", ErrInvalidState, i+1, r.status)
			}
			r.original, err = backing.CoerceTuple(s.Columns, snapshot.Original)
			if err != nil {
				return nil, fmt.Errorf("row %d original: %w", i+1, err)
			}
		}
		rs.data.rows[i] = r
	}

	p := s.Properties
	for _, k := range append(append([]int{}, p.KeyColumns...), p.MatchIndexes...) {
		if k < 1 || k > len(s.Columns) {
			return nil, fmt.Errorf("%w: column %d out of [1,%d]", ErrInvalidColumn, k, len(s.Columns))
		}
	}
	rs.tableName = p.TableName
	rs.command = p.Command
	rs.params = p.Params
	rs.keyColumns = p.KeyColumns
	rs.matchIndexes = p.MatchIndexes
	rs.matchNames = p.MatchNames
	rs.pageSize = p.PageSize
	rs.maxRows = p.MaxRows
	rs.showDeleted = p.ShowDeleted
	rs.cursorType = p.CursorType

	return rs, nil
}

func checkRowStatus(r *Row) error {
	switch r.status {
	case Unchanged, Inserted, Updated:
		if r.prior != Unchanged {
			return fmt.Errorf("%w: %s row with prior status %s", ErrInvalidState, r.status, r.prior)
		}
	case Deleted:
		if r.prior == Deleted {
			return fmt.Errorf("%w: deleted row with prior status %s", ErrInvalidState, r.prior)
		}
	default:
		return fmt.Errorf("%w: unknown row status %d", ErrInvalidState, r.status)
	}
	return nil
}
