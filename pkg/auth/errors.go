package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("auth: unauthorized")

	// ErrNoToken indicates a call that needs an access token was made
	// without one.
	ErrNoToken = errors.New("auth: no access token")
)

// APIError represents an error response from the auth backend.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("auth API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is likely transient.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Unauthorized reports whether err is a 401 response from the backend.
func Unauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}
