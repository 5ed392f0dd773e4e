package service

import (
	"context"
	"errors"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/audit"
	"gatekey/pkg/platform/sentinel"
)

type ClientParams struct {
	ClientID     string
	ClientSecret string
	// UserID optionally names the user the token is minted for. Honored only
	// when the client's owner is an admin; silently ignored otherwise.
	UserID string
}

// Client exchanges a client id/secret pair for a session token. The token
// belongs to the client's owner, or to UserID when an admin-owned client
// impersonates another user. Bad id, bad secret, and unconfirmed owner all
// collapse into wrong credentials.
func (s *Service) Client(ctx context.Context, params ClientParams) (*models.TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "security.Client")
	defer span.End()

	clientID, err := id.ParseClientID(params.ClientID)
	if err != nil {
		s.authFailure(ctx, "client", "malformed_client_id")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
	}

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.authFailure(ctx, "client", "unknown_client")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if err := secrets.Verify(params.ClientSecret, client.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.authFailure(ctx, "client", "wrong_secret")
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify client secret")
	}

	owner, err := s.users.FindByID(ctx, client.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.authFailure(ctx, "client", "missing_owner")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client owner")
	}
	if !owner.IsConfirmed {
		s.authFailure(ctx, "client", "unconfirmed_owner")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong credentials")
	}

	target := owner
	if params.UserID != "" && owner.IsAdmin {
		targetID, err := id.ParseUserID(params.UserID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
		}
		target, err = s.users.FindByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load target user")
		}
		s.logAudit(ctx, string(audit.EventImpersonation),
			"user_id", target.ID.String(),
			"actor_id", owner.ID.String(),
			"client_id", client.ID.String(),
		)
	}

	token, err := s.issueToken(ctx, target, "client")
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventClientExchange),
		"user_id", target.ID.String(),
		"client_id", client.ID.String(),
	)

	return &models.TokenResult{Token: token, User: target}, nil
}
