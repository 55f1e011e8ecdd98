// Package common defines shared constants and sentinel errors used across
// the server and client layers of sessionkeeper. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorInvalidArgument = errors.New("invalid argument")

	// ErrorUnavailable marks failures of the pool, the store or a downstream
	// collaborator. It never implies the credential was invalid.
	ErrorUnavailable = errors.New("unavailable")

	// ErrorExternal marks a failed call to an identity provider.
	ErrorExternal = errors.New("external dependency failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenConflict = errors.New("token conflict")
	ErrUserDeleted   = errors.New("user deleted")

	// OAuth errors.
	ErrUnknownProvider = errors.New("unknown provider")
)

// IsAuthFailure reports whether err belongs to the identity/token layer and
// should be reported to clients as a plain authentication failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrorNotFound) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenConflict) ||
		errors.Is(err, ErrUserDeleted) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrorUnauthorized)
}
