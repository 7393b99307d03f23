package rowset

import (
	"fmt"
	"slices"
)

// SetMatchColumn binds more match columns by 1-based index. Bindings
// accumulate in call order.
func (rs *RowSet) SetMatchColumn(columns ...int) error {
	for _, c := range columns {
		if c < 1 {
			return fmt.Errorf("%w: match column %d must be greater than 0", ErrInvalidColumn, c)
		}
	}
	rs.matchIndexes = append(rs.matchIndexes, columns...)
	return nil
}

// SetMatchColumnName binds more match columns by name.
func (rs *RowSet) SetMatchColumnName(names ...string) error {
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("%w: empty match column name", ErrInvalidColumn)
		}
	}
	rs.matchNames = append(rs.matchNames, names...)
	return nil
}

func (rs *RowSet) MatchColumnIndexes() ([]int, error) {
	if len(rs.matchIndexes) == 0 {
		return nil, fmt.Errorf("%w: no match column indexes are set", ErrInvalidState)
	}
	return append([]int{}, rs.matchIndexes...), nil
}

func (rs *RowSet) MatchColumnNames() ([]string, error) {
	if len(rs.matchNames) == 0 {
		return nil, fmt.Errorf("%w: no match column names are set", ErrInvalidState)
	}
	return append([]string{}, rs.matchNames...), nil
}

// MatchColumns resolves every binding, names after indexes, to 1-based
// column indexes.
func (rs *RowSet) MatchColumns() ([]int, error) {
	result := append([]int{}, rs.matchIndexes...)
	for _, name := range rs.matchNames {
		i, err := rs.FindColumn(name)
		if err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: no match columns are set", ErrInvalidState)
	}
	for _, i := range result {
		if _, err := rs.column(i); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UnsetMatchColumn removes the index bindings. columns must be exactly the
// bound set, otherwise nothing changes.
func (rs *RowSet) UnsetMatchColumn(columns ...int) error {
	if !sameSet(rs.matchIndexes, columns) {
		return fmt.Errorf("%w: bound %v, unset %v", ErrColumnBindingMismatch, rs.matchIndexes, columns)
	}
	rs.matchIndexes = nil
	return nil
}

func (rs *RowSet) UnsetMatchColumnName(names ...string) error {
	if !sameSet(rs.matchNames, names) {
		return fmt.Errorf("%w: bound %v, unset %v", ErrColumnBindingMismatch, rs.matchNames, names)
	}
	rs.matchNames = nil
	return nil
}

func sameSet[T int | string](bound, unset []T) bool {
	if len(bound) == 0 || len(bound) != len(unset) {
		return false
	}
	a := slices.Clone(bound)
	b := slices.Clone(unset)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
