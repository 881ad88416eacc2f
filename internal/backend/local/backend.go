// Package local implements the LogBackend that persists records only to the
// local append-only journal.
package local

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
)

// IDFunc generates record identifiers.
type IDFunc func() (string, error)

// NewID returns a UUIDv7: a millisecond timestamp followed by random bits,
// so identifiers sort by creation time.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Backend is the local-only LogBackend.
type Backend struct {
	journal ports.Journal
	newID   IDFunc
}

var _ ports.LogBackend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithIDFunc overrides identifier generation.
func WithIDFunc(fn IDFunc) Option {
	return func(b *Backend) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// New creates a Backend that owns journal.
func New(journal ports.Journal, opts ...Option) *Backend {
	b := &Backend{journal: journal, newID: NewID}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mode implements ports.LogBackend.
func (b *Backend) Mode() domain.Mode {
	return domain.ModeLocal
}

// Location is the journal location reported by the status endpoint.
func (b *Backend) Location() string {
	return b.journal.Location()
}

// Append assigns the record an identifier and appends it to the journal.
func (b *Backend) Append(ctx context.Context, rec domain.EventRecord) (*domain.Receipt, error) {
	id, err := b.newID()
	if err != nil {
		return nil, domain.ErrBackend("failed to generate event id", err)
	}
	rec.EventID = id
	rec.Mode = domain.ModeLocal

	if err := b.journal.Append(ctx, rec); err != nil {
		return nil, domain.ErrBackend("failed to append event", err)
	}
	return domain.ReceiptFor(rec), nil
}

// List returns the most recent records in append order.
func (b *Backend) List(ctx context.Context, opts ports.ListOptions) ([]domain.EventRecord, error) {
	opts = opts.Normalize()
	recs, err := b.journal.Tail(ctx, opts.Limit)
	if err != nil {
		return nil, domain.ErrBackend(fmt.Sprintf("failed to read last %d events", opts.Limit), err)
	}
	return recs, nil
}

// Close closes the journal.
func (b *Backend) Close() error {
	return b.journal.Close()
}
