package audit

import (
	"time"

	id "gatekey/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Examples: account creation, password changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: failed logins, session revocations, impersonation.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for operational visibility.
	// Examples: routine session creation, delegated lookups.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Reason    string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
	// ActorID tracks who performed the action when different from UserID,
	// e.g. a client owner minting a token for another user.
	ActorID string
	// ClientIP is the remote address the triggering request came from.
	ClientIP string
}

type AuditEvent string

const (
	EventUserSignedUp      AuditEvent = "user_signed_up"
	EventAccountConfirmed  AuditEvent = "account_confirmed"
	EventRecoveryRequested AuditEvent = "recovery_requested"
	EventAccountRecovered  AuditEvent = "account_recovered"
	EventPasswordChanged   AuditEvent = "password_changed"
	EventSessionCreated    AuditEvent = "session_created"
	EventSessionRevoked    AuditEvent = "session_revoked"
	EventAuthFailed        AuditEvent = "auth_failed"
	EventClientExchange    AuditEvent = "client_exchange"
	EventImpersonation     AuditEvent = "impersonation"
	EventDelegatedSession  AuditEvent = "delegated_session"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserSignedUp:     CategoryCompliance,
	EventAccountRecovered: CategoryCompliance,
	EventPasswordChanged:  CategoryCompliance,

	EventAuthFailed:        CategorySecurity,
	EventSessionRevoked:    CategorySecurity,
	EventImpersonation:     CategorySecurity,
	EventRecoveryRequested: CategorySecurity,

	EventAccountConfirmed: CategoryOperations,
	EventSessionCreated:   CategoryOperations,
	EventClientExchange:   CategoryOperations,
	EventDelegatedSession: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
