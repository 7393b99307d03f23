package rowset

import (
	"fmt"
	"time"

	"github.com/fulldump/rowsetdb/backing"
)

// GetObject reads column i of the current row or of the insert buffer.
func (rs *RowSet) GetObject(i int) (any, error) {
	if _, err := rs.column(i); err != nil {
		return nil, err
	}

	var v any
	if rs.onInsert {
		v = rs.insertBuf[i-1]
	} else {
		r, err := rs.current()
		if err != nil {
			return nil, err
		}
		v = r.values[i-1]
	}

	rs.wasNull = v == nil
	return v, nil
}

// WasNull reports whether the last value read was NULL.
func (rs *RowSet) WasNull() bool {
	return rs.wasNull
}

func (rs *RowSet) getAs(i int, t backing.Type) (any, error) {
	v, err := rs.GetObject(i)
	if err != nil || v == nil {
		return nil, err
	}
	converted, err := backing.Coerce(t, v)
	if err != nil {
		return nil, fmt.Errorf("column %d: %w", i, err)
	}
	return converted, nil
}

func (rs *RowSet) GetInt(i int) (int64, error) {
	v, err := rs.getAs(i, backing.TypeInteger)
	if err != nil || v == nil {
		return 0, err
	}
	return v.(int64), nil
}

func (rs *RowSet) GetFloat(i int) (float64, error) {
	v, err := rs.getAs(i, backing.TypeFloat)
	if err != nil || v == nil {
		return 0, err
	}
	return v.(float64), nil
}

func (rs *RowSet) GetBool(i int) (bool, error) {
	v, err := rs.getAs(i, backing.TypeBool)
	if err != nil || v == nil {
		return false, err
	}
	return v.(bool), nil
}

func (rs *RowSet) GetBytes(i int) ([]byte, error) {
	v, err := rs.getAs(i, backing.TypeBytes)
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (rs *RowSet) GetTime(i int) (time.Time, error) {
	v, err := rs.getAs(i, backing.TypeTime)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	return v.(time.Time), nil
}

// GetString renders any non NULL value as text.
func (rs *RowSet) GetString(i int) (string, error) {
	v, err := rs.GetObject(i)
	if err != nil || v == nil {
		return "", err
	}
	switch value := v.(type) {
	case string:
		return value, nil
	case []byte:
		return string(value), nil
	case time.Time:
		return value.Format(time.RFC3339Nano), nil
	}
	return fmt.Sprint(v), nil
}
