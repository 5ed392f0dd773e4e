// Package service implements the security workflows: signup with email
// confirmation, password recovery, credential login, client-credential
// exchange, and session issuance and revocation.
package service

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gatekey/internal/notification"
	"gatekey/internal/platform/metrics"
	"gatekey/internal/security/models"
	"gatekey/pkg/attrs"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/audit"
	"gatekey/pkg/requestcontext"
)

const bearerPrefix = "Bearer "

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type CheckStore interface {
	Create(ctx context.Context, userID id.UserID, typ models.CheckType) (*models.Check, error)
	Consume(ctx context.Context, code string, typ models.CheckType) (*models.Check, error)
}

type TokenStore interface {
	Create(ctx context.Context, userID id.UserID, device string) (*models.Token, error)
	Find(ctx context.Context, value string) (*models.Token, error)
	Delete(ctx context.Context, value string) error
}

type ClientStore interface {
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
}

type Mailer interface {
	Send(ctx context.Context, msg notification.Message) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the security workflows over pluggable stores.
type Service struct {
	users   UserStore
	checks  CheckStore
	tokens  TokenStore
	clients ClientStore
	mailer  Mailer

	// acceptedOrigins is the allow-list of URL prefixes that may appear as
	// the origin of confirmation and recovery links.
	acceptedOrigins []string

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func NewService(users UserStore, checks CheckStore, tokens TokenStore, clients ClientStore, mailer Mailer, acceptedOrigins []string, opts ...Option) *Service {
	s := &Service{
		users:           users,
		checks:          checks,
		tokens:          tokens,
		clients:         clients,
		mailer:          mailer,
		acceptedOrigins: acceptedOrigins,
		logger:          slog.Default(),
		tracer:          otel.Tracer("gatekey/security"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkOrigin rejects link origins outside the accepted allow-list. Matching
// is by prefix so an entry covers every path under it.
func (s *Service) checkOrigin(origin string) error {
	for _, accepted := range s.acceptedOrigins {
		if strings.HasPrefix(origin, accepted) {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodePolicyRejected, "url %s is not acceptable", origin)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	userID := attrs.ExtractUserID(attributes, "user_id")
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:    userID,
		Subject:   userID.String(),
		Action:    event,
		Reason:    attrs.ExtractString(attributes, "reason"),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   attrs.ExtractString(attributes, "actor_id"),
		ClientIP:  requestcontext.ClientIP(ctx),
	})
}

// authFailure records a rejected credential presentation without revealing
// the reason to the caller.
func (s *Service) authFailure(ctx context.Context, flow, reason string) {
	if s.metrics != nil {
		s.metrics.IncrementAuthFailures(flow)
	}
	s.logAudit(ctx, string(audit.EventAuthFailed), "flow", flow, "reason", reason)
}

func (s *Service) issueToken(ctx context.Context, user *models.User, flow string) (*models.Token, error) {
	device := deviceLabel(requestcontext.UserAgent(ctx))
	token, err := s.tokens.Create(ctx, user.ID, device)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session token")
	}
	if s.metrics != nil {
		s.metrics.IncrementSessionsIssued(flow)
	}
	s.logAudit(ctx, string(audit.EventSessionCreated),
		"user_id", user.ID.String(),
		"flow", flow,
		"device", device,
	)
	return token, nil
}
