package store

import (
	"errors"
	"fmt"
)

// ErrNoAnalysisLeft is returned when a non-VIP user has exhausted their free
// analyses; the backend is never called in that case.
var ErrNoAnalysisLeft = errors.New("no analysis credits remaining")

// AuthError means the login code exchange failed; session state is left
// untouched.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports a missing or malformed input field, checked before
// any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
