package channel

import (
	"errors"
	"fmt"
)

// Sentinel errors for the channel package.
var (
	// ErrNotConnected indicates the channel has no open transport.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrAlreadyConnected indicates Connect was called on an open channel.
	ErrAlreadyConnected = errors.New("channel: already connected")

	// ErrReconnectExhausted indicates all reconnect attempts were used.
	ErrReconnectExhausted = errors.New("channel: reconnect attempts exhausted")
)

// ConnectionError wraps a transport failure with reconnection context.
type ConnectionError struct {
	// Reason describes what failed.
	Reason string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if reconnection should be attempted.
	Retryable bool
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("channel: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("channel: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if reconnection should be attempted.
func (e *ConnectionError) IsRetryable() bool {
	return e.Retryable
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(reason string, cause error, retryable bool) *ConnectionError {
	return &ConnectionError{Reason: reason, Cause: cause, Retryable: retryable}
}

// IsRetryable returns true if the error permits another attempt.
func IsRetryable(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.IsRetryable()
	}
	return false
}
