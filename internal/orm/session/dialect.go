package session

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// Dialect covers the SQL differences between supported databases
type Dialect interface {
	// Name returns the database/sql driver name
	Name() string
	// Placeholder returns the bind parameter for the n-th argument, 1-based
	Placeholder(n int) string
	// Quote quotes an identifier
	Quote(ident string) string
	// Returning reports whether INSERT ... RETURNING is supported
	Returning() bool
	// ColumnType maps a field type to a column type
	ColumnType(f *schema.Field) string
	// True is the boolean literal for true
	True() string
}

// DialectFor returns the dialect for a driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	case "postgres":
		return Postgres{driver: "postgres"}, nil
	case "pgx":
		return Postgres{driver: "pgx"}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// SQLite is the dialect for mattn/go-sqlite3
type SQLite struct{}

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) Quote(ident string) string { return quoteIdent(ident) }

func (SQLite) Returning() bool { return false }

func (SQLite) True() string { return "1" }

func (SQLite) ColumnType(f *schema.Field) string {
	switch f.Type {
	case schema.TypeInt, schema.TypeBigInt, schema.TypeBool:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	case schema.TypeDecimal:
		return "NUMERIC"
	case schema.TypeTimestamp, schema.TypeDate, schema.TypeTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// Postgres is the dialect for lib/pq and the pgx stdlib driver
type Postgres struct {
	driver string
}

func (p Postgres) Name() string {
	if p.driver == "" {
		return "postgres"
	}
	return p.driver
}

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) Quote(ident string) string { return quoteIdent(ident) }

func (Postgres) Returning() bool { return true }

func (Postgres) True() string { return "TRUE" }

func (Postgres) ColumnType(f *schema.Field) string {
	switch f.Type {
	case schema.TypeInt:
		if f.IsPrimary() {
			if _, auto := f.Constraint(schema.ConstraintAuto); auto {
				return "SERIAL"
			}
		}
		return "INTEGER"
	case schema.TypeBigInt:
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE PRECISION"
	case schema.TypeDecimal:
		return "NUMERIC"
	case schema.TypeBool:
		return "BOOLEAN"
	case schema.TypeTimestamp:
		return "TIMESTAMPTZ"
	case schema.TypeDate:
		return "DATE"
	case schema.TypeTime:
		return "TIME"
	case schema.TypeUUID:
		return "UUID"
	case schema.TypeJSON, schema.TypeSet:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
