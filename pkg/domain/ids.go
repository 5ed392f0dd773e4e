// Package domain holds the typed identifiers shared across packages. Wrapping
// uuid.UUID in distinct named types makes cross-assignment a compile error, so
// a ClientID can never silently stand in for a UserID.
package domain

import (
	"github.com/google/uuid"

	dErrors "gatekey/pkg/domain-errors"
)

type (
	// UserID identifies a security user.
	UserID uuid.UUID
	// ClientID identifies a service client principal.
	ClientID uuid.UUID
)

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id ClientID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID allocates a fresh user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewClientID allocates a fresh client id.
func NewClientID() ClientID { return ClientID(uuid.New()) }

// ParseUserID validates and parses a user id from its string form. IDs must
// be valid, non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s)
	return UserID(u), err
}

// ParseClientID validates and parses a client id from its string form.
func ParseClientID(s string) (ClientID, error) {
	u, err := parse(s)
	return ClientID(u), err
}

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
