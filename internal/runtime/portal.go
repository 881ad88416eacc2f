// Package runtime assembles the portal from its configuration and manages
// the HTTP server lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/tjfontaine/feedlot-portal/internal/auth"
	"github.com/tjfontaine/feedlot-portal/internal/backend/ledger"
	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
	"github.com/tjfontaine/feedlot-portal/internal/pipeline"
	"github.com/tjfontaine/feedlot-portal/internal/pkg/config"
	"github.com/tjfontaine/feedlot-portal/internal/policy"
	"github.com/tjfontaine/feedlot-portal/internal/reference"
	"github.com/tjfontaine/feedlot-portal/internal/server"
)

// Portal wires configuration, storage, the admission pipeline and the HTTP
// server. It can be embedded in larger applications or run standalone.
type Portal struct {
	// Dependencies (injected via options)
	cfg        *config.Config
	logger     *slog.Logger
	addr       string
	journal    ports.Journal
	contract   ledger.Contract
	httpClient *http.Client

	service *pipeline.Service
	handler *server.Server

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New builds a Portal from the given options. A configuration is required;
// everything else is derived from it.
func New(opts ...Option) (*Portal, error) {
	p := &Portal{logger: slog.Default()}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if p.cfg == nil {
		return nil, fmt.Errorf("config required (use WithConfig or WithConfigFile)")
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if p.addr == "" {
		p.addr = fmt.Sprintf(":%d", p.cfg.Server.Port)
	}

	authn := auth.NewAuthenticator(p.cfg.RoleSecrets())
	for _, role := range domain.Roles() {
		if !authn.Configured(role) {
			p.logger.Warn("no PIN configured, role cannot submit", slog.String("role", string(role)))
		}
	}

	backend, reporter, err := p.buildBackend(context.Background())
	if err != nil {
		return nil, err
	}

	svc, err := pipeline.New(pipeline.Config{
		Policy:     policy.Default(),
		Auth:       authn,
		References: reference.NewValidator(),
		Backend:    backend,
		Status:     reporter,
		Logger:     p.logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}
	p.service = svc

	p.handler = server.New(svc, p.logger, server.Options{
		StaticDir:      p.cfg.Server.StaticDir,
		AllowedOrigins: p.cfg.Server.AllowedOrigins,
		ReadTimeout:    p.cfg.Server.ReadTimeout,
		RateLimit: server.RateLimitConfig{
			RPS:   p.cfg.Server.RateLimit.RPS,
			Burst: p.cfg.Server.RateLimit.Burst,
		},
	})

	return p, nil
}

// Handler returns the portal's HTTP handler.
func (p *Portal) Handler() http.Handler {
	return p.handler
}

// Mode returns the active backend mode.
func (p *Portal) Mode() domain.Mode {
	return p.service.Mode()
}

// Start binds the listen address and serves in the background.
func (p *Portal) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.server != nil {
		return fmt.Errorf("portal already started")
	}

	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", p.addr, err)
	}

	srv := &http.Server{
		Handler:     p.handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	p.server = srv
	p.listener = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	p.logger.Info("portal started",
		slog.String("addr", ln.Addr().String()),
		slog.String("mode", string(p.service.Mode())))

	return nil
}

// Addr returns the bound address once started.
func (p *Portal) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Shutdown drains in-flight requests, then closes the backend.
func (p *Portal) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Info("shutting down portal")

	var errs []error
	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		p.server = nil
		p.listener = nil
	}
	if err := p.service.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close backend: %w", err))
	}
	return errors.Join(errs...)
}
