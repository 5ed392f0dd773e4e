package service

import (
	"context"
	"errors"

	"gatekey/internal/notification"
	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/email"
	"gatekey/pkg/platform/audit"
	"gatekey/pkg/platform/sentinel"
)

type ForgotParams struct {
	Email  string
	Origin string
}

// Forgot starts password recovery by emailing a single-use recover link.
// An unknown address reads as not found, which leaks account existence; the
// behavior is kept for compatibility with the clients this service serves.
func (s *Service) Forgot(ctx context.Context, params ForgotParams) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "security.Forgot")
	defer span.End()

	if err := s.checkOrigin(params.Origin); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email.Normalize(params.Email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	check, err := s.checks.Create(ctx, user.ID, models.CheckRecover)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create recovery check")
	}

	msg, err := notification.RecoverMessage(params.Origin, user.Email, check.Code)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventRecoveryRequested), "user_id", user.ID.String())

	return user, nil
}

// Recover consumes a recover check, confirms the account, and issues both a
// session token and a successor recover check. The successor is the
// credential the client must present to Passwd, so an emailed link is good
// for exactly one password change.
func (s *Service) Recover(ctx context.Context, code string) (*models.RecoverResult, error) {
	ctx, span := s.tracer.Start(ctx, "security.Recover")
	defer span.End()

	check, err := s.consumeCheck(ctx, code, models.CheckRecover)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, check.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "security check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	// Following a recovery link proves control of the mailbox, which is the
	// same proof confirmation asks for.
	user.IsConfirmed = true
	if err := s.users.Save(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to confirm user")
	}

	successor, err := s.checks.Create(ctx, user.ID, models.CheckRecover)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create successor check")
	}

	token, err := s.issueToken(ctx, user, "recover")
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventAccountRecovered), "user_id", user.ID.String())

	return &models.RecoverResult{Token: token, Check: successor, User: user}, nil
}

// RecoverPasswd consumes a confirmation check and sets the password in the
// same step, confirming the account and issuing a session token. This backs
// the one-shot recovery form where the user lands from an emailed link and
// submits a new password immediately.
func (s *Service) RecoverPasswd(ctx context.Context, code, password string) (*models.TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "security.RecoverPasswd")
	defer span.End()

	hash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}

	check, err := s.consumeCheck(ctx, code, models.CheckConfirm)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, check.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "security check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	user.IsConfirmed = true
	user.PasswordHash = hash
	if err := s.users.Save(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	token, err := s.issueToken(ctx, user, "recover")
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventPasswordChanged), "user_id", user.ID.String())

	return &models.TokenResult{Token: token, User: user}, nil
}

type PasswdParams struct {
	Check    string
	Password string
}

// Passwd consumes a recover check and replaces the user's password.
func (s *Service) Passwd(ctx context.Context, params PasswdParams) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "security.Passwd")
	defer span.End()

	hash, err := secrets.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	check, err := s.consumeCheck(ctx, params.Check, models.CheckRecover)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, check.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "security check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	user.PasswordHash = hash
	if err := s.users.Save(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	s.logAudit(ctx, string(audit.EventPasswordChanged), "user_id", user.ID.String())

	return user, nil
}
