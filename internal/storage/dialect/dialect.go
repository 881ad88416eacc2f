// Package dialect provides database dialect abstractions for multi-database support.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect represents a SQL database dialect.
type Dialect interface {
	// Name returns the dialect name (e.g., "sqlite", "postgres")
	Name() string

	// DriverName returns the database/sql driver name to use
	DriverName() string

	// Rebind converts ? placeholders to the dialect's format.
	// For example, PostgreSQL uses $1, $2, etc.
	Rebind(query string) string

	// AutoIncrementClause returns the clause for auto-increment primary keys
	AutoIncrementClause() string

	// TimestampType returns the SQL type for timestamps
	TimestampType() string

	// TextType returns the SQL type for large text fields
	TextType() string

	// PragmaStatements returns dialect-specific initialization statements (e.g., PRAGMA for SQLite)
	PragmaStatements() []string
}

// DialectType represents supported database types
type DialectType string

const (
	SQLite   DialectType = "sqlite"
	Postgres DialectType = "postgres"
)

// New creates a new Dialect based on the dialect type
func New(dialectType DialectType) (Dialect, error) {
	switch dialectType {
	case SQLite:
		return &sqliteDialect{}, nil
	case Postgres:
		return &postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialectType)
	}
}

// FromDriverName returns the dialect for a given driver name
func FromDriverName(driverName string) (Dialect, error) {
	switch strings.ToLower(driverName) {
	case "sqlite", "sqlite3":
		return &sqliteDialect{}, nil
	case "postgres", "postgresql", "pq":
		return &postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driverName)
	}
}

// sqliteDialect implements Dialect for SQLite
type sqliteDialect struct{}

func (d *sqliteDialect) Name() string {
	return "sqlite"
}

func (d *sqliteDialect) DriverName() string {
	return "sqlite"
}

func (d *sqliteDialect) Rebind(query string) string {
	return query // SQLite uses ?
}

func (d *sqliteDialect) AutoIncrementClause() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *sqliteDialect) TimestampType() string {
	return "TIMESTAMP"
}

func (d *sqliteDialect) TextType() string {
	return "TEXT"
}

func (d *sqliteDialect) PragmaStatements() []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
}

// postgresDialect implements Dialect for PostgreSQL
type postgresDialect struct{}

func (d *postgresDialect) Name() string {
	return "postgres"
}

func (d *postgresDialect) DriverName() string {
	return "postgres"
}

func (d *postgresDialect) Rebind(query string) string {
	// Convert ? placeholders to $1, $2, etc.
	var result strings.Builder
	idx := 1
	for _, ch := range query {
		if ch == '?' {
			result.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			result.WriteRune(ch)
		}
	}
	return result.String()
}

func (d *postgresDialect) AutoIncrementClause() string {
	return "BIGSERIAL PRIMARY KEY"
}

func (d *postgresDialect) TimestampType() string {
	return "TIMESTAMP WITH TIME ZONE"
}

func (d *postgresDialect) TextType() string {
	return "TEXT"
}

func (d *postgresDialect) PragmaStatements() []string {
	return nil // PostgreSQL doesn't use pragmas
}
