// Package httptransport is the thin HTTP layer over the security service.
// Handlers validate and decode, delegate to the service, and translate
// classified errors to statuses; no business logic lives here.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatekey/internal/security/models"
	"gatekey/internal/security/resolver"
	"gatekey/internal/security/service"
	dErrors "gatekey/pkg/domain-errors"
)

// SecurityService is the workflow surface the handlers call.
type SecurityService interface {
	Signup(ctx context.Context, params service.SignupParams) (*models.User, error)
	Forgot(ctx context.Context, params service.ForgotParams) (*models.User, error)
	Confirm(ctx context.Context, check string) (*models.TokenResult, error)
	Recover(ctx context.Context, check string) (*models.RecoverResult, error)
	RecoverPasswd(ctx context.Context, check, password string) (*models.TokenResult, error)
	Passwd(ctx context.Context, params service.PasswdParams) (*models.User, error)
	Login(ctx context.Context, params service.LoginParams) (*models.TokenResult, error)
	Client(ctx context.Context, params service.ClientParams) (*models.TokenResult, error)
	Logout(ctx context.Context, authorization string) (*models.TokenResult, error)
}

type Handler struct {
	security SecurityService
	logger   *slog.Logger
}

func NewHandler(security SecurityService, logger *slog.Logger) *Handler {
	return &Handler{security: security, logger: logger}
}

// NewRouter wires the public endpoints. sessionMW guards /me with the
// configured resolution strategy.
func NewRouter(h *Handler, sessionMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestScope)

	r.Route("/security", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
		r.Post("/forgot", h.handleForgot)
		r.Post("/passwd", h.handlePasswd)
		r.Post("/token", h.handleClientToken)
		r.Post("/logout", h.handleLogout)
		r.Get("/confirm/{check}", h.handleConfirm)
		r.Get("/recover/{check}", h.handleRecover)
		r.Post("/recover/{check}", h.handleRecoverPasswd)
	})

	r.Group(func(r chi.Router) {
		r.Use(sessionMW)
		r.Get("/me", h.handleMe)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := resolver.PrincipalFrom(r.Context())
	if principal == nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials"))
		return
	}
	writeJSON(w, http.StatusOK, tokenEnvelope{
		Token: principal.Token,
		User:  toUserEnvelope(principal.User),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := dErrors.ToHTTPStatus(err)
	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
