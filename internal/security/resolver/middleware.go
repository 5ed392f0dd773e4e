package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/requestcontext"
)

type principalKey struct{}

// PrincipalFrom retrieves the authenticated principal stored by
// RequireSession. Nil outside a protected route.
func PrincipalFrom(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// RequireSession guards a route with the given resolution strategy.
// Classified errors keep their status (a provider outage stays 503); raw
// faults collapse into a generic 401 so nothing internal leaks.
func RequireSession(strategy Strategy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, err := strategy.Resolve(ctx, r.Header.Get("Authorization"))
			if err != nil {
				status := http.StatusUnauthorized
				message := "wrong credentials"
				var de *dErrors.Error
				if errors.As(err, &de) {
					status = dErrors.ToHTTPStatus(err)
					message = de.Message
				}
				logger.WarnContext(ctx, "session resolution failed",
					slog.String("error", err.Error()),
					slog.Int("status", status),
					slog.String("request_id", requestcontext.RequestID(ctx)),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, principal)))
		})
	}
}
