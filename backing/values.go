package backing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Coerce normalizes v to the canonical Go representation of t:
// int64, float64, string, bool, []byte or time.Time. nil stays nil.
func Coerce(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case TypeInteger:
		switch value := v.(type) {
		case int:
			return int64(value), nil
		case int8:
			return int64(value), nil
		case int16:
			return int64(value), nil
		case int32:
			return int64(value), nil
		case int64:
			return value, nil
		case uint:
			return int64(value), nil
		case uint8:
			return int64(value), nil
		case uint16:
			return int64(value), nil
		case uint32:
			return int64(value), nil
		case uint64:
			if value > math.MaxInt64 {
				break
			}
			return int64(value), nil
		case float32:
			if float32(int64(value)) == value {
				return int64(value), nil
			}
		case float64:
			if float64(int64(value)) == value {
				return int64(value), nil
			}
		case json.Number:
			if i, err := value.Int64(); err == nil {
				return i, nil
			}
		}

	case TypeFloat:
		switch value := v.(type) {
		case float32:
			return float64(value), nil
		case float64:
			return value, nil
		case json.Number:
			if f, err := value.Float64(); err == nil {
				return f, nil
			}
		default:
			if i, err := Coerce(TypeInteger, v); err == nil {
				return float64(i.(int64)), nil
			}
		}

	case TypeString:
		switch value := v.(type) {
		case string:
			return value, nil
		case []byte:
			return string(value), nil
		}

	case TypeBool:
		switch value := v.(type) {
		case bool:
			return value, nil
		case int64:
			if value == 0 || value == 1 {
				return value == 1, nil
			}
		case int:
			if value == 0 || value == 1 {
				return value == 1, nil
			}
		}

	case TypeBytes:
		switch value := v.(type) {
		case []byte:
			return bytes.Clone(value), nil
		case string:
			return []byte(value), nil
		}

	case TypeTime:
		switch value := v.(type) {
		case time.Time:
			return value, nil
		case string:
			if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
				return parsed, nil
			}
		}

	default:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return Coerce(TypeInteger, v)
		case float32:
			return float64(v.(float32)), nil
		case []byte:
			return Coerce(TypeBytes, v)
		}
		return v, nil
	}

	return nil, fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, t)
}

// CoerceTuple coerces every value of a tuple to its column type.
func CoerceTuple(columns []Column, tuple []any) ([]any, error) {
	if len(tuple) != len(columns) {
		return nil, fmt.Errorf("%w: tuple has %d values, expected %d", ErrTypeMismatch, len(tuple), len(columns))
	}
	result := make([]any, len(tuple))
	for i, v := range tuple {
		c, err := Coerce(columns[i].Type, v)
		if err != nil {
			return nil, fmt.Errorf("column '%s': %w", columns[i].Name, err)
		}
		result[i] = c
	}
	return result, nil
}

// Equal compares two coerced values. Numbers compare across int64/float64.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch va := a.(type) {
	case []byte:
		vb, ok := b.([]byte)
		return ok && bytes.Equal(va, vb)
	case time.Time:
		vb, ok := b.(time.Time)
		return ok && va.Equal(vb)
	case int64, float64:
		fa, _ := toFloat(a)
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case int64:
		return float64(value), true
	case float64:
		return value, true
	}
	return 0, false
}

// Compare orders two coerced values: nil first, then by value. Values of
// different families are not comparable.
func Compare(a, b any) (int, error) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, nil
		case a == nil:
			return -1, nil
		}
		return 1, nil
	}

	switch va := a.(type) {
	case int64:
		if vb, ok := b.(int64); ok {
			return compareOrdered(va, vb), nil
		}
		if vb, ok := b.(float64); ok {
			return compareOrdered(float64(va), vb), nil
		}
	case float64:
		if vb, ok := toFloat(b); ok {
			return compareOrdered(va, vb), nil
		}
	case string:
		if vb, ok := b.(string); ok {
			return compareOrdered(va, vb), nil
		}
	case bool:
		if vb, ok := b.(bool); ok {
			switch {
			case va == vb:
				return 0, nil
			case !va:
				return -1, nil
			}
			return 1, nil
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb), nil
		}
	}

	return 0, fmt.Errorf("%w: cannot compare %T with %T", ErrTypeMismatch, a, b)
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareTuples compares two tuples lexicographically.
func CompareTuples(a, b []any) (int, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		c, err := Compare(a[i], b[i])
		if err != nil || c != 0 {
			return c, err
		}
	}
	return compareOrdered(int64(len(a)), int64(len(b))), nil
}

func Clone(values []any) []any {
	if values == nil {
		return nil
	}
	result := make([]any, len(values))
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			v = bytes.Clone(b)
		}
		result[i] = v
	}
	return result
}
