package filterview

import (
	"fmt"

	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/rowset"
)

// Match is a Mongo style filter document, for example
// {"age": {"$gte": 18}, "name": "alice"}, evaluated against the row rendered
// as column name to value.
type Match map[string]any

var _ rowset.Predicate = Match{}

func (m Match) Evaluate(row rowset.RowView) bool {
	ok, err := m.match(row.Map())
	return err == nil && ok
}

// EvaluateValue only checks the condition of the column being written; a
// document without a condition on it accepts any value.
func (m Match) EvaluateValue(value any, column rowset.ColumnRef) bool {
	cond, exists := m[column.Name]
	if !exists {
		return true
	}
	ok, err := connor.Match(map[string]any{column.Name: cond}, map[string]any{column.Name: value})
	return err == nil && ok
}

// Validate reports filter documents connor can not evaluate.
func (m Match) Validate() error {
	_, err := m.match(map[string]any{})
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	return nil
}

func (m Match) match(data map[string]any) (bool, error) {
	if len(m) == 0 {
		return true, nil
	}
	return connor.Match(map[string]any(m), data)
}

// Range accepts rows whose Column value lies in [Min, Max]. A nil bound is
// open. Null values are never in range.
type Range struct {
	Column string
	Min    any
	Max    any
}

var _ rowset.Predicate = Range{}

func (r Range) Evaluate(row rowset.RowView) bool {
	value, exists := row.Named(r.Column)
	if !exists {
		return false
	}
	return r.contains(value)
}

func (r Range) EvaluateValue(value any, column rowset.ColumnRef) bool {
	if column.Name != r.Column {
		return true
	}
	return r.contains(value)
}

func (r Range) contains(value any) bool {
	if value == nil {
		return false
	}
	if r.Min != nil {
		c, ok := compare(value, r.Min)
		if !ok || c < 0 {
			return false
		}
	}
	if r.Max != nil {
		c, ok := compare(value, r.Max)
		if !ok || c > 0 {
			return false
		}
	}
	return true
}

// compare orders value against a bound given as any Go number, string or
// time.
func compare(value, bound any) (int, bool) {
	bound, err := backing.Coerce(backing.TypeAny, bound)
	if err != nil {
		return 0, false
	}
	c, err := backing.Compare(value, bound)
	return c, err == nil
}

// Func adapts closures. A nil Value accepts every candidate value.
type Func struct {
	Row   func(row rowset.RowView) bool
	Value func(value any, column rowset.ColumnRef) bool
}

var _ rowset.Predicate = Func{}

func (f Func) Evaluate(row rowset.RowView) bool {
	if f.Row == nil {
		return true
	}
	return f.Row(row)
}

func (f Func) EvaluateValue(value any, column rowset.ColumnRef) bool {
	if f.Value == nil {
		return true
	}
	return f.Value(value, column)
}

// And accepts what every predicate accepts.
type And []rowset.Predicate

func (a And) Evaluate(row rowset.RowView) bool {
	for _, p := range a {
		if !p.Evaluate(row) {
			return false
		}
	}
	return true
}

func (a And) EvaluateValue(value any, column rowset.ColumnRef) bool {
	for _, p := range a {
		if !p.EvaluateValue(value, column) {
			return false
		}
	}
	return true
}
