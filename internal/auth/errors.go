package auth

import (
	"errors"
	"net/http"
)

// Kind is a stable machine-readable error category.
type Kind string

// Error kinds surfaced by the service and the auth gate.
const (
	KindValidation            Kind = "validation_error"
	KindConflict              Kind = "conflict"
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindAccountLocked         Kind = "account_locked"
	KindBadRequest            Kind = "bad_request"
	KindInvalidOrExpiredToken Kind = "invalid_or_expired_token"
	KindTokenReuseDetected    Kind = "token_reuse_detected"
	KindUnauthorized          Kind = "unauthorized"
	KindTokenExpired          Kind = "token_expired"
	KindInvalidToken          Kind = "invalid_token"
	KindForbidden             Kind = "forbidden"
	KindNotFound              Kind = "not_found"
	KindRegistrationDisabled  Kind = "registration_disabled"
)

// Error is a classified authentication failure.
type Error struct {
	Kind    Kind
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can test against the
// exported sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	return StatusFor(e.Kind)
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation            = &Error{Kind: KindValidation, Message: "Validation failed"}
	ErrConflict              = &Error{Kind: KindConflict, Message: "Admin with this email or username already exists"}
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password"}
	ErrAccountLocked         = &Error{Kind: KindAccountLocked, Message: "Account is locked"}
	ErrBadRequest            = &Error{Kind: KindBadRequest, Message: "Refresh token is required"}
	ErrInvalidBody           = &Error{Kind: KindBadRequest, Message: "Invalid request body"}
	ErrInvalidOrExpiredToken = &Error{Kind: KindInvalidOrExpiredToken, Message: "Invalid or expired refresh token"}
	ErrTokenReuseDetected    = &Error{Kind: KindTokenReuseDetected, Message: "Token reuse detected. All sessions revoked. Please login again."}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized, Message: "No authorization token provided"}
	ErrTokenExpired          = &Error{Kind: KindTokenExpired, Message: "Access token expired"}
	ErrInvalidToken          = &Error{Kind: KindInvalidToken, Message: "Invalid token"}
	ErrForbidden             = &Error{Kind: KindForbidden, Message: "Insufficient permissions"}
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "Admin not found"}
	ErrRegistrationDisabled  = &Error{Kind: KindRegistrationDisabled, Message: "Registration is disabled"}
)

func newError(kind Kind, message string, details ...string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindInvalidCredentials, KindInvalidOrExpiredToken, KindTokenReuseDetected,
		KindUnauthorized, KindTokenExpired, KindInvalidToken:
		return http.StatusUnauthorized
	case KindAccountLocked:
		return http.StatusLocked
	case KindForbidden, KindRegistrationDisabled:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
