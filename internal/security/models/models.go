package models

import (
	"time"

	id "gatekey/pkg/domain"
)

// User is the identity record tracked by the security service. Created
// unconfirmed at signup; confirmed by the confirm or recover flows; never
// deleted by this service.
type User struct {
	ID           id.UserID
	Email        string
	Name         string
	PasswordHash string
	IsConfirmed  bool
	IsAdmin      bool
	// UpstreamID keys the idempotent upsert performed when a delegated
	// session is validated against the external identity provider. Empty for
	// users created through local signup.
	UpstreamID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CheckType discriminates the two security-check workflows.
type CheckType string

const (
	CheckConfirm CheckType = "confirm"
	CheckRecover CheckType = "recover"
)

func (t CheckType) IsValid() bool {
	return t == CheckConfirm || t == CheckRecover
}

// Check is a single-use verification code bound to a user. A check is live
// from creation until it is consumed or outlives the store's TTL; consumption
// is atomic, so concurrent attempts yield exactly one winner.
type Check struct {
	Code      string
	Type      CheckType
	UserID    id.UserID
	CreatedAt time.Time
}

// Token is an opaque session credential, presented verbatim in an
// "Authorization: Bearer <value>" header. Valid until explicitly revoked by
// logout; no expiry is modeled.
type Token struct {
	Value     string
	UserID    id.UserID
	Device    string
	CreatedAt time.Time
}

// Client is a service principal acting as (or, for admin-backed clients,
// on behalf of) a user. Read-only to this service.
type Client struct {
	ID         id.ClientID
	SecretHash string
	UserID     id.UserID
	Name       string
	CreatedAt  time.Time
}

// Profile is the raw user payload returned by the external identity
// provider's who-am-I endpoint.
type Profile struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenResult joins an issued token with its owning user; every token-issuing
// operation returns this pair.
type TokenResult struct {
	Token *Token
	User  *User
}

// RecoverResult carries the successor recover check alongside the issued
// token. The new check is the credential the client must present to Passwd.
type RecoverResult struct {
	Token *Token
	Check *Check
	User  *User
}
