package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer. Every error returned by the service
// matches exactly one of these with errors.Is.
var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrMalformedRequest   = errors.New("malformed request")
	ErrStorageUnavailable = errors.New("storage is unavailable")
)

// RequestError describes why a request body was rejected.
type RequestError struct {
	Message string
}

// NewMalformedRequest builds a RequestError that matches ErrMalformedRequest.
func NewMalformedRequest(format string, args ...any) *RequestError {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedRequest, e.Message)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrMalformedRequest
}

// NotFoundError reports a missing Topic id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("topic %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
