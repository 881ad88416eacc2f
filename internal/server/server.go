// Package server is the HTTP surface of the portal.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
	"github.com/tjfontaine/feedlot-portal/internal/pipeline"
	"github.com/tjfontaine/feedlot-portal/internal/status"
)

// Portal is the admission service the handlers call.
// *pipeline.Service implements it.
type Portal interface {
	Submit(ctx context.Context, req pipeline.SubmitRequest) (*domain.Receipt, error)
	List(ctx context.Context, opts ports.ListOptions) ([]domain.EventRecord, error)
	Status(ctx context.Context) status.Report
}

var _ Portal = (*pipeline.Service)(nil)

// Options configures the router.
type Options struct {
	// StaticDir, when set, is served at /.
	StaticDir string
	// AllowedOrigins for CORS. Defaults to every origin.
	AllowedOrigins []string
	// ReadTimeout bounds the status and events endpoints. Submissions are
	// not bounded: a ledger confirmation must not be cut short.
	ReadTimeout time.Duration
	// RateLimit is applied per client IP when RPS is positive.
	RateLimit RateLimitConfig
}

// Server holds the configured router.
type Server struct {
	Router  *chi.Mux
	logger  *slog.Logger
	limiter *RateLimiter
}

// New builds the router for portal.
func New(portal Portal, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	s := &Server{Router: r, logger: logger}
	if opts.RateLimit.RPS > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit)
		r.Use(s.limiter.Middleware)
	}

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "feedlot-portal")
	})

	h := &handlers{portal: portal, logger: logger}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.ReadTimeout > 0 {
				r.Use(TimeoutMiddleware(opts.ReadTimeout))
			}
			r.Get("/status", h.status)
			r.Get("/events", h.events)
		})
		r.With(CredentialMiddleware).Post("/submit", h.submit)
	})

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
