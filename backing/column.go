package backing

import (
	"fmt"
	"strings"
)

// Type is the declared type of a column.
type Type int

const (
	TypeAny Type = iota
	TypeInteger
	TypeFloat
	TypeString
	TypeBool
	TypeBytes
	TypeTime
)

var typeNames = map[Type]string{
	TypeAny:     "any",
	TypeInteger: "integer",
	TypeFloat:   "float",
	TypeString:  "string",
	TypeBool:    "bool",
	TypeBytes:   "bytes",
	TypeTime:    "time",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	for k, v := range typeNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown column type '%s'", string(text))
}

// Family groups types whose values compare with each other. Integer and
// float share the numeric family.
func (t Type) Family() Type {
	if t == TypeFloat {
		return TypeInteger
	}
	return t
}

// Sortable reports whether values of this type have a total order.
func (t Type) Sortable() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeString, TypeBool, TypeTime:
		return true
	}
	return false
}

// ParseDatabaseType maps a SQL type name as reported by a driver to a Type.
func ParseDatabaseType(name string) Type {
	name = strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	switch name {
	case "INT", "INT2", "INT4", "INT8", "INTEGER", "SMALLINT", "BIGINT", "TINYINT", "MEDIUMINT", "SERIAL", "BIGSERIAL":
		return TypeInteger
	case "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "NUMERIC", "DECIMAL":
		return TypeFloat
	case "TEXT", "VARCHAR", "CHAR", "CHARACTER", "CHARACTER VARYING", "BPCHAR", "CLOB", "NVARCHAR", "UUID":
		return TypeString
	case "BOOL", "BOOLEAN":
		return TypeBool
	case "BLOB", "BYTEA", "BINARY", "VARBINARY":
		return TypeBytes
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ", "TIME":
		return TypeTime
	}
	return TypeAny
}

type Column struct {
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Nullable bool   `json:"nullable"`
	Key      bool   `json:"key"`
}

func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
