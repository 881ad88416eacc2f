// Package ports defines the core interfaces of the portal.
package ports

import (
	"context"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

// LogBackend durably appends event records.
// Implementations: local journal, external ledger contract.
type LogBackend interface {
	// Mode identifies the backend variant.
	Mode() domain.Mode

	// Append persists rec and returns the backend-specific receipt. A record
	// is either fully committed or the call fails; there is no partial state.
	Append(ctx context.Context, rec domain.EventRecord) (*domain.Receipt, error)

	// List returns recent records in append order. Backends without a local
	// query authority return a domain error of kind KindUnsupported.
	List(ctx context.Context, opts ListOptions) ([]domain.EventRecord, error)

	Close() error
}

// HeightReader reports the current height of an external chain.
type HeightReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}
