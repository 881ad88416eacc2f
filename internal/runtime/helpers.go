package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tjfontaine/feedlot-portal/internal/backend/ledger"
	"github.com/tjfontaine/feedlot-portal/internal/backend/local"
	"github.com/tjfontaine/feedlot-portal/internal/chain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
	"github.com/tjfontaine/feedlot-portal/internal/pkg/config"
	"github.com/tjfontaine/feedlot-portal/internal/status"
	"github.com/tjfontaine/feedlot-portal/internal/storage/memory"
	"github.com/tjfontaine/feedlot-portal/internal/storage/ndjson"
	"github.com/tjfontaine/feedlot-portal/internal/storage/sqldb"
)

// openJournal opens the journal named by the storage section.
func openJournal(cfg config.StorageConfig, logger *slog.Logger) (ports.Journal, error) {
	switch cfg.Type {
	case config.StorageNDJSON:
		return ndjson.Open(cfg.Path, logger)
	case config.StorageSQLite, config.StoragePostgres:
		return sqldb.New(sqldb.Config{Driver: cfg.Type, DSN: cfg.Database.DSN, Logger: logger})
	case config.StorageMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// buildBackend selects the local or ledger backend and the matching status
// reporter.
func (p *Portal) buildBackend(ctx context.Context) (ports.LogBackend, status.Reporter, error) {
	if !p.cfg.LedgerEnabled() {
		j := p.journal
		if j == nil {
			var err error
			if j, err = openJournal(p.cfg.Storage, p.logger); err != nil {
				return nil, nil, fmt.Errorf("open journal: %w", err)
			}
		}
		return local.New(j), status.NewLocal(j.Location()), nil
	}

	keys, err := ledger.ResolveKeys(p.cfg.Ledger.PrivateKeys, p.cfg.SignerIndex())
	if err != nil {
		return nil, nil, fmt.Errorf("resolve signer keys: %w", err)
	}

	contract := p.contract
	if contract == nil {
		client, err := chain.Dial(ctx, p.cfg.Ledger.RPCURL, p.cfg.Ledger.ContractAddress, chain.Options{HTTPClient: p.httpClient})
		if err != nil {
			return nil, nil, err
		}
		contract = client
	}

	opts := []ledger.Option{ledger.WithLogger(p.logger)}
	if p.cfg.Ledger.Mirror {
		j := p.journal
		if j == nil {
			if j, err = openJournal(p.cfg.Storage, p.logger); err != nil {
				contract.Close()
				return nil, nil, fmt.Errorf("open mirror journal: %w", err)
			}
		}
		opts = append(opts, ledger.WithMirror(j))
	}

	b, err := ledger.New(contract, keys, opts...)
	if err != nil {
		contract.Close()
		return nil, nil, err
	}

	for role := range keys {
		addr, _ := b.SignerAddress(role)
		p.logger.Debug("ledger signer", slog.String("role", string(role)), slog.String("address", addr))
	}

	return b, status.NewLedger(b.ContractAddress(), b, p.logger), nil
}
