// Package ledger implements the LogBackend that commits records to the event
// ledger contract and mirrors them into the local journal.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tjfontaine/feedlot-portal/internal/chain"
	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
)

// Contract is the ledger contract surface used by the backend.
// *chain.Client implements it.
type Contract interface {
	Address() string
	Submit(ctx context.Context, key *ecdsa.PrivateKey, call chain.Call) (*types.Transaction, error)
	Confirm(ctx context.Context, tx *types.Transaction) (*chain.Confirmation, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close() error
}

var _ Contract = (*chain.Client)(nil)

// signer is a role's signing account. mu serializes nonce allocation and
// broadcast for the account.
type signer struct {
	key     *ecdsa.PrivateKey
	address string
	mu      sync.Mutex
}

// Backend is the ledger LogBackend.
type Backend struct {
	contract Contract
	signers  map[domain.Role]*signer
	mirror   ports.Journal
	logger   *slog.Logger
}

var (
	_ ports.LogBackend   = (*Backend)(nil)
	_ ports.HeightReader = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithMirror sets the journal that receives a best-effort copy of every
// committed record.
func WithMirror(j ports.Journal) Option {
	return func(b *Backend) {
		b.mirror = j
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Backend signing with keys, one per role.
func New(contract Contract, keys map[domain.Role]*ecdsa.PrivateKey, opts ...Option) (*Backend, error) {
	if contract == nil {
		return nil, fmt.Errorf("ledger contract is required")
	}

	b := &Backend{
		contract: contract,
		signers:  make(map[domain.Role]*signer, len(keys)),
		logger:   slog.Default(),
	}
	for role, key := range keys {
		if !role.Known() {
			return nil, fmt.Errorf("signing key configured for unknown role %q", role)
		}
		if key == nil {
			return nil, fmt.Errorf("signing key for role %s is nil", role)
		}
		b.signers[role] = &signer{
			key:     key,
			address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Mode implements ports.LogBackend.
func (b *Backend) Mode() domain.Mode {
	return domain.ModeLedger
}

// ContractAddress returns the ledger contract address.
func (b *Backend) ContractAddress() string {
	return b.contract.Address()
}

// BlockNumber implements ports.HeightReader.
func (b *Backend) BlockNumber(ctx context.Context) (uint64, error) {
	return b.contract.BlockNumber(ctx)
}

// SignerAddress returns the account address used for role.
func (b *Backend) SignerAddress(role domain.Role) (string, bool) {
	s, ok := b.signers[role]
	if !ok {
		return "", false
	}
	return s.address, true
}

// Append signs and broadcasts logEvent with the role's key, then waits for
// the transaction to be mined. Neither step is bound to ctx cancellation, so
// a caller that goes away does not abandon an in-flight transaction.
func (b *Backend) Append(ctx context.Context, rec domain.EventRecord) (*domain.Receipt, error) {
	s, ok := b.signers[rec.Role]
	if !ok {
		return nil, domain.ErrBackend(fmt.Sprintf("no signing key configured for role %s", rec.Role), nil)
	}

	call := chain.Call{Tag: rec.Tag, EventType: string(rec.EventType), PayloadJSON: rec.PayloadJSON}
	detached := context.WithoutCancel(ctx)

	s.mu.Lock()
	tx, err := b.contract.Submit(detached, s.key, call)
	s.mu.Unlock()
	if err != nil {
		return nil, domain.ErrBackend("failed to submit ledger transaction", err)
	}

	b.logger.Debug("ledger transaction broadcast",
		slog.String("tx_hash", tx.Hash().Hex()),
		slog.String("role", string(rec.Role)),
		slog.String("event_type", string(rec.EventType)),
	)

	conf, err := b.contract.Confirm(detached, tx)
	if err != nil {
		return nil, domain.ErrBackend("ledger transaction failed", err)
	}

	rec.EventID = conf.TxHash
	rec.TxHash = conf.TxHash
	rec.BlockNumber = conf.BlockNumber
	rec.LedgerEventID = conf.LedgerEventID
	rec.SubmittedBy = s.address
	rec.Mode = domain.ModeLedger

	if b.mirror != nil {
		if err := b.mirror.Append(detached, rec); err != nil {
			b.logger.Warn("failed to mirror ledger record",
				slog.String("tx_hash", rec.TxHash),
				slog.String("error", err.Error()),
			)
		}
	}

	return domain.ReceiptFor(rec), nil
}

// List is not served in ledger mode; the contract is the query authority.
func (b *Backend) List(ctx context.Context, opts ports.ListOptions) ([]domain.EventRecord, error) {
	return nil, domain.ErrUnsupported("event listing is not available in BLOCKCHAIN mode; query the ledger")
}

// Close releases the contract connection and the mirror journal.
func (b *Backend) Close() error {
	err := b.contract.Close()
	if b.mirror != nil {
		if mErr := b.mirror.Close(); err == nil {
			err = mErr
		}
	}
	return err
}
