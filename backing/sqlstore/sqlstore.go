// Package sqlstore is a backing store over database/sql. It speaks the
// sqlite3 and postgres dialects.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fulldump/rowsetdb/backing"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Store struct {
	db     *sql.DB
	driver string
}

var _ backing.Store = (*Store)(nil)

// Open connects to dsn through driver, which must be DriverSQLite or
// DriverPostgres.
func Open(driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver '%s'", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.WithMessagef(err, "opening %s", driver)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WithMessagef(err, "connecting to %s", driver)
	}
	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	return New(db, driver), nil
}

// New wraps an already opened database.
func New(db *sql.DB, driver string) *Store {
	return &Store{
		db:     db,
		driver: driver,
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exec runs a statement, typically schema setup.
func (s *Store) Exec(ctx context.Context, statement string, args ...any) error {
	_, err := s.db.ExecContext(ctx, statement, args...)
	return s.classify(err, "exec")
}

var sqlTypes = map[string]map[backing.Type]string{
	DriverSQLite: {
		backing.TypeInteger: "INTEGER",
		backing.TypeFloat:   "REAL",
		backing.TypeString:  "TEXT",
		backing.TypeBool:    "BOOLEAN",
		backing.TypeBytes:   "BLOB",
		backing.TypeTime:    "TIMESTAMP",
		backing.TypeAny:     "TEXT",
	},
	DriverPostgres: {
		backing.TypeInteger: "BIGINT",
		backing.TypeFloat:   "DOUBLE PRECISION",
		backing.TypeString:  "TEXT",
		backing.TypeBool:    "BOOLEAN",
		backing.TypeBytes:   "BYTEA",
		backing.TypeTime:    "TIMESTAMP",
		backing.TypeAny:     "TEXT",
	},
}

// CreateTable issues a CREATE TABLE for columns. Key columns form the
// primary key.
func (s *Store) CreateTable(name string, columns []backing.Column) error {
	if len(columns) == 0 {
		return fmt.Errorf("table '%s' has no columns", name)
	}
	definitions := []string{}
	keys := []string{}
	for _, c := range columns {
		d := quote(c.Name) + " " + sqlTypes[s.driver][c.Type]
		if !c.Nullable {
			d += " NOT NULL"
		}
		definitions = append(definitions, d)
		if c.Key {
			keys = append(keys, quote(c.Name))
		}
	}
	if len(keys) > 0 {
		definitions = append(definitions, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	statement := "CREATE TABLE " + quote(name) + " (" + strings.Join(definitions, ", ") + ")"
	return s.Exec(context.Background(), statement)
}

// Fetch runs q.Command, or reads the whole q.Table when there is no command.
// Offset and Limit wrap the statement.
func (s *Store) Fetch(ctx context.Context, q backing.Query) (*backing.Result, error) {
	statement := q.Command
	if statement == "" {
		if q.Table == "" {
			return nil, fmt.Errorf("%w: neither command nor table", backing.ErrNoTable)
		}
		statement = "SELECT * FROM " + quote(q.Table)
	}
	if q.Limit > 0 || q.Offset > 0 {
		limit := "-1"
		if s.driver == DriverPostgres {
			limit = "ALL"
		}
		if q.Limit > 0 {
			limit = fmt.Sprint(q.Limit)
		}
		statement = fmt.Sprintf("SELECT * FROM (%s) AS page LIMIT %s OFFSET %d", statement, limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, statement, q.Params...)
	if err != nil {
		return nil, s.classify(err, "query")
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.WithMessage(err, "column types")
	}

	keys := map[string]bool{}
	if q.Table != "" {
		keys, err = s.primaryKey(ctx, q.Table)
		if err != nil {
			return nil, err
		}
	}

	result := &backing.Result{
		Columns: make([]backing.Column, len(types)),
		Tuples:  [][]any{},
	}
	for i, t := range types {
		nullable, ok := t.Nullable()
		result.Columns[i] = backing.Column{
			Name:     t.Name(),
			Type:     backing.ParseDatabaseType(t.DatabaseTypeName()),
			Nullable: nullable || !ok,
			Key:      keys[t.Name()],
		}
	}

	for rows.Next() {
		tuple, err := scan(rows, len(types))
		if err != nil {
			return nil, err
		}
		result.Tuples = append(result.Tuples, tuple)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err, "reading rows")
	}

	return result, nil
}

func scan(rows *sql.Rows, n int) ([]any, error) {
	tuple := make([]any, n)
	pointers := make([]any, n)
	for i := range tuple {
		pointers[i] = &tuple[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, errors.WithMessage(err, "scan")
	}
	return tuple, nil
}

// primaryKey returns the primary key column names of table.
func (s *Store) primaryKey(ctx context.Context, table string) (map[string]bool, error) {
	keys := map[string]bool{}

	var statement string
	var args []any
	switch s.driver {
	case DriverSQLite:
		statement = "SELECT name FROM pragma_table_info(?) WHERE pk > 0"
		args = []any{table}
	case DriverPostgres:
		statement = `SELECT a.attname
			FROM pg_index i
			JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
			WHERE i.indrelid = $1::regclass AND i.indisprimary`
		args = []any{table}
	default:
		return keys, nil
	}

	rows, err := s.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, s.classify(err, "primary key of "+table)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WithMessage(err, "scan primary key")
		}
		keys[name] = true
	}
	return keys, rows.Err()
}

func (s *Store) Apply(ctx context.Context, m backing.Mutation) error {
	if m.Table == "" {
		return fmt.Errorf("%w: mutation without table", backing.ErrNoTable)
	}

	b := &builder{driver: s.driver}
	switch m.Op {
	case backing.OpInsert:
		names := make([]string, len(m.Columns))
		marks := make([]string, len(m.Columns))
		for i, c := range m.Columns {
			names[i] = quote(c)
			marks[i] = b.bind(m.Values[i])
		}
		b.sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(m.Table), strings.Join(names, ", "), strings.Join(marks, ", "))

	case backing.OpUpdate:
		sets := make([]string, len(m.Columns))
		for i, c := range m.Columns {
			sets[i] = quote(c) + " = " + b.bind(m.Values[i])
		}
		b.sql = fmt.Sprintf("UPDATE %s SET %s WHERE %s", quote(m.Table), strings.Join(sets, ", "), b.where(m.Key))

	case backing.OpDelete:
		b.sql = fmt.Sprintf("DELETE FROM %s WHERE %s", quote(m.Table), b.where(m.Key))

	default:
		return fmt.Errorf("unknown operation %d", m.Op)
	}

	result, err := s.db.ExecContext(ctx, b.sql, b.args...)
	if err != nil {
		return s.classify(err, m.Op.String()+" "+m.Table)
	}
	if m.Op == backing.OpInsert {
		return nil
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "rows affected")
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %s", backing.ErrNotFound, m.Op, m.Table)
	}
	return nil
}

func (s *Store) ReadByKey(ctx context.Context, table string, columns []string, key backing.Key) ([]any, bool, error) {
	b := &builder{driver: s.driver}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quote(c)
	}
	b.sql = fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(names, ", "), quote(table), b.where(key))

	rows, err := s.db.QueryContext(ctx, b.sql, b.args...)
	if err != nil {
		return nil, false, s.classify(err, "read "+table)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, s.classify(rows.Err(), "read "+table)
	}
	tuple, err := scan(rows, len(columns))
	if err != nil {
		return nil, false, err
	}
	return tuple, true, nil
}

// classify maps driver errors to backing errors. nil stays nil.
func (s *Store) classify(err error, message string) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return errors.WithMessage(backing.ErrConstraint, message+": "+err.Error())
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return errors.WithMessage(backing.ErrConstraint, message+": "+err.Error())
	}
	return errors.WithMessage(err, message)
}

type builder struct {
	driver string
	sql    string
	args   []any
}

// bind adds a parameter and returns its placeholder.
func (b *builder) bind(value any) string {
	b.args = append(b.args, value)
	if b.driver == DriverPostgres {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

func (b *builder) where(key backing.Key) string {
	conditions := make([]string, len(key.Columns))
	for i, c := range key.Columns {
		if key.Values[i] == nil {
			conditions[i] = quote(c) + " IS NULL"
			continue
		}
		conditions[i] = quote(c) + " = " + b.bind(key.Values[i])
	}
	if len(conditions) == 0 {
		return "1 = 1"
	}
	return strings.Join(conditions, " AND ")
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
