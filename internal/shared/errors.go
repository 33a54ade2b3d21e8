package shared

import "errors"

var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrPermissionDenied indicates a policy predicate evaluated to false.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound indicates the resource is absent or filtered out by policy.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a decision attempted outside the pending state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict indicates a concurrent transition won the race.
	ErrConflict = errors.New("conflicting concurrent update")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
