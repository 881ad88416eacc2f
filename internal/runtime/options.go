package runtime

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tjfontaine/feedlot-portal/internal/backend/ledger"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
	"github.com/tjfontaine/feedlot-portal/internal/pkg/config"
)

// Option is a functional option for configuring a Portal.
type Option func(*Portal) error

// WithConfig uses an already loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(p *Portal) error {
		p.cfg = cfg
		return nil
	}
}

// WithConfigFile loads the configuration from path plus the environment.
// An empty path reads config.yaml if present.
func WithConfigFile(path string) Option {
	return func(p *Portal) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		p.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Portal) error {
		p.logger = logger
		return nil
	}
}

// WithAddr overrides the listen address derived from server.port.
func WithAddr(addr string) Option {
	return func(p *Portal) error {
		p.addr = addr
		return nil
	}
}

// WithJournal sets a custom journal instead of the configured storage.
func WithJournal(j ports.Journal) Option {
	return func(p *Portal) error {
		p.journal = j
		return nil
	}
}

// WithContract sets the ledger contract instead of dialing ledger.rpc_url.
func WithContract(c ledger.Contract) Option {
	return func(p *Portal) error {
		p.contract = c
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for ledger JSON-RPC calls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Portal) error {
		p.httpClient = c
		return nil
	}
}
