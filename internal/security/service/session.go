package service

import (
	"context"
	"errors"
	"strings"

	"gatekey/internal/security/models"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/audit"
	"gatekey/pkg/platform/sentinel"
)

// Token resolves an Authorization header to the session and user behind it.
// Anything short of a resolvable "Bearer <value>" header is wrong
// credentials.
func (s *Service) Token(ctx context.Context, authorization string) (*models.TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "security.Token")
	defer span.End()

	token, user, err := s.resolveBearer(ctx, authorization)
	if err != nil {
		return nil, err
	}
	return &models.TokenResult{Token: token, User: user}, nil
}

// Logout revokes the session named by the Authorization header. Revocation is
// exactly-once: of two concurrent logouts with one token, one succeeds and
// the other reads as wrong credentials.
func (s *Service) Logout(ctx context.Context, authorization string) (*models.TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "security.Logout")
	defer span.End()

	token, user, err := s.resolveBearer(ctx, authorization)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Delete(ctx, token.Value); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Lost the race with another revocation of the same token.
			s.authFailure(ctx, "logout", "already_revoked")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}

	if s.metrics != nil {
		s.metrics.IncrementSessionsEnded()
	}
	s.logAudit(ctx, string(audit.EventSessionRevoked), "user_id", user.ID.String())

	return &models.TokenResult{Token: token, User: user}, nil
}

func (s *Service) resolveBearer(ctx context.Context, authorization string) (*models.Token, *models.User, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		s.authFailure(ctx, "session", "malformed_header")
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
	}

	token, err := s.tokens.Find(ctx, strings.TrimPrefix(authorization, bearerPrefix))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.authFailure(ctx, "session", "unknown_token")
			return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve token")
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.authFailure(ctx, "session", "missing_user")
			return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session user")
	}

	return token, user, nil
}
