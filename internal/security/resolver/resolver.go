// Package resolver turns Authorization headers into authenticated principals.
// Two strategies exist: local lookup against the session token store, and
// delegated validation against the external identity provider. The transport
// picks one at wiring time; handlers only see the Principal.
package resolver

import (
	"context"

	"gatekey/internal/provider"
	"gatekey/internal/security/models"
)

// Principal is an authenticated session: the token that proved it and the
// user behind it.
type Principal struct {
	Token string
	User  *models.User
}

// Strategy resolves a raw Authorization header value to a principal.
type Strategy interface {
	Resolve(ctx context.Context, authorization string) (*Principal, error)
}

// SessionService is the slice of the security service the local strategy
// needs.
type SessionService interface {
	Token(ctx context.Context, authorization string) (*models.TokenResult, error)
}

// Local resolves sessions against the locally issued token store.
type Local struct {
	sessions SessionService
}

func NewLocal(sessions SessionService) *Local {
	return &Local{sessions: sessions}
}

func (l *Local) Resolve(ctx context.Context, authorization string) (*Principal, error) {
	result, err := l.sessions.Token(ctx, authorization)
	if err != nil {
		return nil, err
	}
	return &Principal{Token: result.Token.Value, User: result.User}, nil
}

// ProviderClient is the slice of the identity provider client the delegated
// strategy needs.
type ProviderClient interface {
	Resolve(ctx context.Context, authorization string) (*provider.Resolution, error)
}

// Delegated validates bearer values against the external identity provider
// and serves the synchronized local user.
type Delegated struct {
	provider ProviderClient
}

func NewDelegated(p ProviderClient) *Delegated {
	return &Delegated{provider: p}
}

func (d *Delegated) Resolve(ctx context.Context, authorization string) (*Principal, error) {
	res, err := d.provider.Resolve(ctx, authorization)
	if err != nil {
		return nil, err
	}
	return &Principal{Token: res.Token, User: res.User}, nil
}
