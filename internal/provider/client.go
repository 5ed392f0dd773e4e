// Package provider validates bearer credentials against an external identity
// provider and mirrors the upstream identity into the local user store.
package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/audit"
	"gatekey/pkg/requestcontext"
)

const bearerPrefix = "Bearer "

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "gatekey_provider_request_duration_seconds",
	Help:    "Duration of identity provider requests.",
	Buckets: prometheus.DefBuckets,
}, []string{"outcome"})

// UserSyncer mirrors upstream identities into local storage.
type UserSyncer interface {
	UpsertByUpstreamID(ctx context.Context, user *models.User) error
}

// AuditPublisher records delegated session validations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Client calls the external identity provider's profile endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	users   UserSyncer
	logger  *slog.Logger
	tracer  trace.Tracer
	audit   AuditPublisher
}

type Option func(c *Client)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *Client) {
		c.audit = publisher
	}
}

func New(baseURL string, timeout time.Duration, users UserSyncer, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		users:   users,
		logger:  logger,
		tracer:  otel.Tracer("gatekey/provider"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// profileResponse is the provider's /api/v1/me payload.
type profileResponse struct {
	User struct {
		ID    string `json:"_id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

// Resolution is a successfully validated delegated session.
type Resolution struct {
	Token string // bearer value without the scheme prefix
	User  *models.User
}

// Resolve validates the Authorization header value against the provider and
// returns the synchronized local user. The raw header is forwarded as-is; the
// returned token has the Bearer prefix stripped.
func (c *Client) Resolve(ctx context.Context, authorization string) (*Resolution, error) {
	ctx, span := c.tracer.Start(ctx, "provider.Resolve")
	defer span.End()

	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/me", nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build provider request")
	}
	req.Header.Set("Authorization", authorization)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		requestDuration.WithLabelValues("unavailable").Observe(time.Since(start).Seconds())
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "authorization service is not available")
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("provider.status", resp.StatusCode))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		requestDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	case resp.StatusCode == http.StatusInternalServerError:
		requestDuration.WithLabelValues("upstream_error").Observe(time.Since(start).Seconds())
		// Detail stays in the log; the caller gets a generic failure.
		c.logger.WarnContext(ctx, "authorization service returned unexpected code",
			slog.Int("status", resp.StatusCode))
		return nil, dErrors.New(dErrors.CodeUpstreamError, "authorization service returned unexpected code")
	default:
		requestDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials").WithStatus(resp.StatusCode)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamError, "decode provider response")
	}
	if profile.User.ID == "" {
		return nil, dErrors.New(dErrors.CodeUpstreamError, "provider response missing user id")
	}

	user := &models.User{
		ID:         id.NewUserID(),
		Email:      profile.User.Email,
		Name:       profile.User.Name,
		UpstreamID: profile.User.ID,
	}
	if err := c.users.UpsertByUpstreamID(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "synchronize upstream user")
	}

	if c.audit != nil {
		_ = c.audit.Emit(ctx, audit.Event{
			UserID:    user.ID,
			Subject:   user.UpstreamID,
			Action:    string(audit.EventDelegatedSession),
			RequestID: requestcontext.RequestID(ctx),
			ClientIP:  requestcontext.ClientIP(ctx),
		})
	}

	return &Resolution{
		Token: strings.TrimPrefix(authorization, bearerPrefix),
		User:  user,
	}, nil
}
