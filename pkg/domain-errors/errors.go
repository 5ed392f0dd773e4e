// Package domainerrors defines the error taxonomy shared by every service in
// the repository. Services classify failures into one of the codes below at
// their boundary; transport layers translate codes to HTTP statuses. Nothing
// leaves a public operation unclassified.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code tags an error with its place in the taxonomy.
type Code string

const (
	// CodeInvalidInput covers malformed request payloads and failed field
	// validation.
	CodeInvalidInput Code = "invalid_input"
	// CodePolicyRejected covers inputs that parse fine but violate a policy,
	// such as an origin URL outside the accepted allow-list.
	CodePolicyRejected Code = "policy_rejected"
	// CodeUnauthorized covers wrong credentials of any kind: bad passwords,
	// unknown or unconfirmed users at login, bad client id/secret pairs,
	// unresolvable bearer tokens, and missing/malformed Authorization headers.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers authenticated callers acting outside their rights.
	CodeForbidden Code = "forbidden"
	// CodeNotFound covers lookups that legitimately miss: unknown users on
	// forgot, consumed or never-issued security checks.
	CodeNotFound Code = "not_found"
	// CodeConflict covers unique-key violations, e.g. an already registered
	// email. Surfaces as 400 to match the original duplicate-key mapping.
	CodeConflict Code = "conflict"
	// CodeUnavailable covers an unreachable upstream identity provider.
	CodeUnavailable Code = "unavailable"
	// CodeUpstreamError covers a 500 from the identity provider. The detail is
	// logged and withheld from the caller.
	CodeUpstreamError Code = "upstream_error"
	// CodeInternal is the fallback for unclassified faults.
	CodeInternal Code = "internal"
)

// Error is the code-tagged error type used across service boundaries.
type Error struct {
	Code    Code
	Message string
	// Status, when non-zero, overrides the default HTTP status for the code.
	// Used on the delegated path where the provider's rejection status is
	// echoed verbatim.
	Status int
	// Err is the wrapped cause, if any. Never shown to callers.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a classified error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying fault. If err is already classified it is
// returned unchanged so codes assigned close to the failure survive the trip
// up the stack.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Code: code, Message: message, Err: err}
}

// WithStatus sets an explicit HTTP status on a classified error, for the
// provider-echo case where the upstream rejection status is preserved.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from a classified error, defaulting to
// CodeInternal for raw faults.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps an error to the status the transport layer should write.
// Conflicts surface as 400, matching the behavior this service replaces.
func ToHTTPStatus(err error) int {
	var de *Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	if de.Status != 0 {
		return de.Status
	}
	switch de.Code {
	case CodeInvalidInput, CodePolicyRejected, CodeConflict:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstreamError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
