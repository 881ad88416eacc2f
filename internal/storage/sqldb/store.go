// Package sqldb provides a SQL-backed event journal supporting SQLite and PostgreSQL.
package sqldb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
	"github.com/tjfontaine/feedlot-portal/internal/storage/dialect"
)

// Store is a SQL implementation of ports.Journal. Records are kept in
// insertion order by an auto-increment sequence column.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
	dsn     string
	logger  *slog.Logger
}

var _ ports.Journal = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver string // Driver name: sqlite, postgres
	DSN    string // Data source name / connection string
	Logger *slog.Logger
}

// New creates a new SQL store with the specified configuration.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn cannot be empty")
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run dialect-specific initialization (e.g., PRAGMA for SQLite)
	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := &Store{db: db, dialect: d, dsn: cfg.DSN, logger: logger}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS event_records (
seq %s,
event_id TEXT NOT NULL,
role TEXT NOT NULL,
tag TEXT NOT NULL,
event_type TEXT NOT NULL,
at %s NOT NULL,
record %s NOT NULL
)`, s.dialect.AutoIncrementClause(), s.dialect.TimestampType(), s.dialect.TextType()),
		`CREATE INDEX IF NOT EXISTS idx_event_records_tag ON event_records(tag)`,
		`CREATE INDEX IF NOT EXISTS idx_event_records_event_id ON event_records(event_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(s.dialect.Rebind(stmt)); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Append inserts rec as the newest journal entry.
func (s *Store) Append(ctx context.Context, rec domain.EventRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	query := s.dialect.Rebind(`INSERT INTO event_records (event_id, role, tag, event_type, at, record) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, rec.EventID, string(rec.Role), rec.Tag, string(rec.EventType), rec.At.UTC(), string(raw)); err != nil {
		return fmt.Errorf("failed to insert event record: %w", err)
	}
	return nil
}

// Tail returns the newest limit records, oldest first. Rows whose stored
// record no longer decodes are skipped.
func (s *Store) Tail(ctx context.Context, limit int) ([]domain.EventRecord, error) {
	if limit <= 0 {
		return []domain.EventRecord{}, nil
	}

	query := s.dialect.Rebind(`SELECT record FROM (
SELECT seq, record FROM event_records ORDER BY seq DESC LIMIT ?
) newest ORDER BY seq ASC`)

	var rows []string
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query event records: %w", err)
	}

	out := make([]domain.EventRecord, 0, len(rows))
	skipped := 0
	for _, raw := range rows {
		var rec domain.EventRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	if skipped > 0 {
		s.logger.Debug("skipped malformed journal rows", slog.Int("count", skipped))
	}
	return out, nil
}

// Location reports the driver the journal is stored in. The DSN is not
// returned since it may carry credentials.
func (s *Store) Location() string {
	return s.dialect.Name() + " journal"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
