package database

import (
	"errors"
	"fmt"

	"github.com/nfrund/causal/internal/domain"
)

// Common database errors that can be checked using errors.Is().
var (
	// ErrNotConnected is returned when an operation runs without a live connection.
	ErrNotConnected = errors.New("database not connected")

	// ErrUnsupportedScheme is returned for a DATABASE_URL no backend understands.
	ErrUnsupportedScheme = errors.New("unsupported database url scheme")
)

// DBError represents a database error with additional context.
type DBError struct {
	// The underlying error that was returned by the database driver.
	err error

	// kind is the domain sentinel the error maps to.
	kind error

	// Backend name, e.g. "badger" or "gorm".
	backend string

	// Operation that failed, e.g. "list topics".
	op string
}

// NewDBError creates a DBError classified as domain.ErrStorageUnavailable.
func NewDBError(backend, op string, err error) *DBError {
	return &DBError{err: err, kind: domain.ErrStorageUnavailable, backend: backend, op: op}
}

// Op returns the operation that failed.
func (e *DBError) Op() string { return e.op }

// Backend returns the backend that produced the error.
func (e *DBError) Backend() string { return e.backend }

// Error returns the error message.
func (e *DBError) Error() string {
	msg := fmt.Sprintf("%s: %s failed", e.backend, e.op)
	if e.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

// Unwrap exposes both the driver error and the domain classification.
func (e *DBError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// storageError wraps err as a storage failure unless it is already classified.
func storageError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return NewDBError(backend, op, err)
}
