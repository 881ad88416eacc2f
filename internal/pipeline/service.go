package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/feedlot-portal/internal/auth"
	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
	"github.com/tjfontaine/feedlot-portal/internal/policy"
	"github.com/tjfontaine/feedlot-portal/internal/reference"
	"github.com/tjfontaine/feedlot-portal/internal/status"
)

const tracerName = "github.com/tjfontaine/feedlot-portal/internal/pipeline"

// SubmitRequest is a single event submission.
type SubmitRequest struct {
	Role      string          `json:"role"`
	PIN       string          `json:"pin"`
	Tag       string          `json:"tag"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Config holds the collaborators of a Service.
type Config struct {
	Policy     *policy.Table
	Auth       *auth.Authenticator
	References *reference.Validator
	Backend    ports.LogBackend
	Status     status.Reporter
	Logger     *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Service runs the admission pipeline against one backend.
type Service struct {
	policy     *policy.Table
	auth       *auth.Authenticator
	references *reference.Validator
	backend    ports.LogBackend
	status     status.Reporter
	logger     *slog.Logger
	now        func() time.Time
	tracer     trace.Tracer
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("pipeline requires a backend")
	}
	if cfg.Auth == nil {
		return nil, fmt.Errorf("pipeline requires an authenticator")
	}
	if cfg.Status == nil {
		return nil, fmt.Errorf("pipeline requires a status reporter")
	}

	s := &Service{
		policy:     cfg.Policy,
		auth:       cfg.Auth,
		references: cfg.References,
		backend:    cfg.Backend,
		status:     cfg.Status,
		logger:     cfg.Logger,
		now:        cfg.Clock,
		tracer:     otel.Tracer(tracerName),
	}
	if s.policy == nil {
		s.policy = policy.Default()
	}
	if s.references == nil {
		s.references = reference.NewValidator()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Mode returns the backend mode.
func (s *Service) Mode() domain.Mode {
	return s.backend.Mode()
}

// Submit admits one event. Checks run in order and the first failure is
// returned as a *domain.Error; the backend is only called once every check
// has passed.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*domain.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Submit", trace.WithAttributes(
		attribute.String("portal.role", req.Role),
		attribute.String("portal.event_type", req.EventType),
		attribute.String("portal.mode", string(s.backend.Mode())),
	))
	defer span.End()

	rec, err := s.admit(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, req, err)
	}

	appendCtx, appendSpan := s.tracer.Start(ctx, "pipeline.append")
	receipt, err := s.backend.Append(appendCtx, rec)
	if err != nil {
		appendSpan.RecordError(err)
		appendSpan.SetStatus(codes.Error, "append failed")
	}
	appendSpan.End()
	if err != nil {
		return nil, s.fail(ctx, span, req, err)
	}

	span.SetAttributes(attribute.String("portal.event_id", receipt.EventID))
	s.logger.Info("event recorded",
		slog.String("event_id", receipt.EventID),
		slog.String("role", req.Role),
		slog.String("event_type", req.EventType),
		slog.String("tag", req.Tag),
	)
	return receipt, nil
}

// admit runs every check and builds the record.
func (s *Service) admit(ctx context.Context, req SubmitRequest) (domain.EventRecord, error) {
	role := domain.Role(req.Role)
	eventType := domain.EventType(req.EventType)

	_, span := s.tracer.Start(ctx, "pipeline.validate")
	err := s.validate(role, req)
	span.End()
	if err != nil {
		return domain.EventRecord{}, err
	}

	_, span = s.tracer.Start(ctx, "pipeline.authorize")
	allowed := s.policy.IsAllowed(role, eventType)
	span.End()
	if !allowed {
		return domain.EventRecord{}, domain.ErrAuthorization(fmt.Sprintf("Role %s not allowed to submit %s", role, eventType)).WithField("eventType")
	}

	_, span = s.tracer.Start(ctx, "pipeline.authenticate")
	ok := s.auth.Check(role, req.PIN)
	span.End()
	if !ok {
		return domain.EventRecord{}, domain.ErrAuthentication("Invalid PIN for selected role").WithField("pin")
	}

	payload := domain.NormalizePayload(req.Payload)

	_, span = s.tracer.Start(ctx, "pipeline.reference")
	err = s.references.Check(eventType, payload)
	span.End()
	if err != nil {
		return domain.EventRecord{}, err
	}

	return domain.NewEventRecord(s.now(), role, req.Tag, eventType, payload, s.backend.Mode())
}

func (s *Service) validate(role domain.Role, req SubmitRequest) error {
	if req.Role == "" || !s.policy.Knows(role) {
		return domain.ErrValidation("Invalid role").WithField("role")
	}
	if req.Tag == "" {
		return domain.ErrValidation("Missing tag").WithField("tag")
	}
	if req.EventType == "" {
		return domain.ErrValidation("Missing eventType").WithField("eventType")
	}
	return nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, req SubmitRequest, err error) error {
	kind := domain.KindOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))

	level := slog.LevelInfo
	if kind == domain.KindBackend || kind == "" {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "event rejected",
		slog.String("kind", string(kind)),
		slog.String("role", req.Role),
		slog.String("event_type", req.EventType),
		slog.String("error", err.Error()),
	)
	return err
}

// List returns up to opts.Limit recent records in append order.
func (s *Service) List(ctx context.Context, opts ports.ListOptions) ([]domain.EventRecord, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.List")
	defer span.End()

	opts = opts.Normalize()
	span.SetAttributes(attribute.Int("portal.limit", opts.Limit))

	recs, err := s.backend.List(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
		return nil, err
	}
	return recs, nil
}

// Status reports the operating mode and backend health.
func (s *Service) Status(ctx context.Context) status.Report {
	ctx, span := s.tracer.Start(ctx, "pipeline.Status")
	defer span.End()
	return s.status.Status(ctx)
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.backend.Close()
}
