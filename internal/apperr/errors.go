package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %q", e.Message, e.Value)
	}
	return e.Message
}

// NotFoundError reports an unknown conversation, lead record or order.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamError wraps a failure of an external service (LLM provider, webhook).
// StatusCode is the upstream HTTP status, or 0 when no response was received.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError wraps a datastore failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ParseError reports model output that was not the JSON we asked for.
// Raw keeps the original text for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Validation builds a ValidationError.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFound builds a NotFoundError.
func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Storage wraps err as a StorageError unless it is already classified.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Classified reports whether err already carries one of the taxonomy types.
func Classified(err error) bool {
	var (
		v *ValidationError
		n *NotFoundError
		u *UpstreamError
		s *StorageError
		p *ParseError
	)
	return errors.As(err, &v) || errors.As(err, &n) || errors.As(err, &u) || errors.As(err, &s) || errors.As(err, &p)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// UpstreamStatus returns the upstream HTTP status carried by err, if any.
func UpstreamStatus(err error) int {
	var u *UpstreamError
	if errors.As(err, &u) {
		return u.StatusCode
	}
	return 0
}

// HTTPStatus maps an error to the status code returned to API clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
