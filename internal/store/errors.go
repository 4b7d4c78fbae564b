package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrIO is returned when a queue cannot be read or written for any
	// reason other than the queue not existing yet.
	ErrIO = errors.New("queue store I/O failed")

	// ErrCorrupt is returned when a stored queue cannot be decoded.
	// It wraps ErrIO, so callers that only care about I/O failures can
	// check for ErrIO alone.
	ErrCorrupt = fmt.Errorf("%w: corrupt queue data", ErrIO)

	// ErrInvalidKey is returned when a key has an empty name or fingerprint.
	ErrInvalidKey = errors.New("invalid queue key")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")
)

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Key       string // The queue key the operation was working on
	Operation string // The operation that failed (e.g., "read", "write")
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError. The wrapped error always matches
// ErrIO, whatever the underlying cause.
func NewStoreError(key, operation string, err error) *StoreError {
	if !errors.Is(err, ErrIO) {
		err = fmt.Errorf("%w: %w", ErrIO, err)
	}
	return &StoreError{Key: key, Operation: operation, Err: err}
}
