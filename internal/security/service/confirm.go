package service

import (
	"context"
	"errors"

	"gatekey/internal/security/models"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/audit"
	"gatekey/pkg/platform/sentinel"
)

// Confirm consumes a confirmation check, marks the account confirmed, and
// issues a session token so the user lands logged in. A consumed, expired, or
// never-issued check reads as not found; concurrent attempts on one code
// yield exactly one winner.
func (s *Service) Confirm(ctx context.Context, code string) (*models.TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "security.Confirm")
	defer span.End()

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
	if err := s.users.Save(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to confirm user")
	}

	token, err := s.issueToken(ctx, user, "confirm")
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventAccountConfirmed), "user_id", user.ID.String())

	return &models.TokenResult{Token: token, User: user}, nil
}

// consumeCheck translates store sentinels into the taxonomy. Expiry is
// indistinguishable from absence to the caller.
func (s *Service) consumeCheck(ctx context.Context, code string, typ models.CheckType) (*models.Check, error) {
	check, err := s.checks.Consume(ctx, code, typ)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeNotFound, "security check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume security check")
	}
	if s.metrics != nil {
		s.metrics.IncrementChecksConsumed(string(typ))
	}
	return check, nil
}
