package service

import (
	"context"
	"errors"

	"gatekey/internal/notification"
	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/email"
	"gatekey/pkg/platform/audit"
	"gatekey/pkg/platform/sentinel"
)

type SignupParams struct {
	Name     string
	Email    string
	Password string
	// Origin is the base URL the confirmation link lands on. Must match the
	// accepted origin allow-list.
	Origin string
}

// Signup registers an unconfirmed user and emails a single-use confirmation
// link. The account cannot log in until the link is followed.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "security.Signup")
	defer span.End()

	if err := s.checkOrigin(params.Origin); err != nil {
		return nil, err
	}
	if params.Email == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}

	hash, err := secrets.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	name := params.Name
	if name == "" {
		name = email.DeriveName(params.Email)
	}

	user := &models.User{
		ID:           id.NewUserID(),
		Email:        email.Normalize(params.Email),
		Name:         name,
		PasswordHash: hash,
		IsConfirmed:  false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	check, err := s.checks.Create(ctx, user.ID, models.CheckConfirm)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create confirmation check")
	}

	msg, err := notification.ConfirmMessage(params.Origin, user.Email, check.Code)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
	s.logAudit(ctx, string(audit.EventUserSignedUp), "user_id", user.ID.String())

	return user, nil
}
