package service

import (
	"context"
	"errors"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/email"
	"gatekey/pkg/platform/sentinel"
)

type LoginParams struct {
	Email    string
	Password string
}

// Login exchanges email and password for a session token. Unknown address,
// unconfirmed account, and bad password all collapse into one
// wrong-credentials answer so the response does not reveal which part failed.
func (s *Service) Login(ctx context.Context, params LoginParams) (*models.TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "security.Login")
	defer span.End()

	user, err := s.users.FindByEmail(ctx, email.Normalize(params.Email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.authFailure(ctx, "login", "unknown_email")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.IsConfirmed {
		s.authFailure(ctx, "login", "unconfirmed_account")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
	}
	if err := secrets.Verify(params.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.authFailure(ctx, "login", "wrong_password")
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	token, err := s.issueToken(ctx, user, "login")
	if err != nil {
		return nil, err
	}

	return &models.TokenResult{Token: token, User: user}, nil
}
