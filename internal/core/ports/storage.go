package ports

import (
	"context"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

// Journal is an append-only local store of event records.
// Implementations: NDJSON file (default), SQL (sqlite, postgres), memory.
type Journal interface {
	// Append durably writes one record after every record already written.
	Append(ctx context.Context, rec domain.EventRecord) error

	// Tail returns up to limit of the most recently appended records that
	// could be decoded, oldest first. Undecodable entries are skipped.
	Tail(ctx context.Context, limit int) ([]domain.EventRecord, error)

	// Location describes where records are kept (file path or DSN driver).
	Location() string

	// Close releases the underlying handle.
	Close() error
}

// ListOptions bounds a read of recent records.
type ListOptions struct {
	Limit int
}

const (
	// DefaultListLimit is used when a caller supplies no usable limit.
	DefaultListLimit = 200
	// MaxListLimit caps a single read.
	MaxListLimit = 1000
)

// Normalize clamps the limit into [1, MaxListLimit], using DefaultListLimit
// for a zero value.
func (o ListOptions) Normalize() ListOptions {
	switch {
	case o.Limit == 0:
		o.Limit = DefaultListLimit
	case o.Limit < 1:
		o.Limit = 1
	case o.Limit > MaxListLimit:
		o.Limit = MaxListLimit
	}
	return o
}
