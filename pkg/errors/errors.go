package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT and tokens
	ErrInvalidSigningMethod = errors.New("invalid token signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenIsNotRefresh    = errors.New("token is not a refresh token")
	ErrTokenIsNotAccess     = errors.New("token is not an access token")

	// Authorization
	ErrEmptyAuthHeader    = errors.New("authorization header is missing")
	ErrInvalidAuthHeader  = errors.New("malformed authorization header")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrForbidden          = errors.New("access denied")

	// Context
	ErrUserIDNotFoundInContext = errors.New("user id not found in request context")
)

// ValidationError reports malformed or missing input. The caller fixes the
// input; it is never retried automatically.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NewFieldValidationError(fields map[string]string) error {
	return &ValidationError{Message: "validation failed", Fields: fields}
}

// NotFoundError reports a missing entity, or a missing open assignment where
// one was expected.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	if e.Entity == "" {
		return "record not found"
	}
	return e.Entity + " not found"
}

func NewNotFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

// ConflictError reports that a concurrent mutation invalidated the
// precondition of the current operation. The caller may re-read and retry;
// the core never retries internally.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps an opaque storage-layer failure. Nothing is suppressed:
// a write either fully commits or surfaces here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// HttpError is the controller-facing shape; services never construct it.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// HttpStatusFor maps the service-level taxonomy onto HTTP status codes.
func HttpStatusFor(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConflictError
		he *HttpError
	)
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrEmptyAuthHeader),
		errors.Is(err, ErrInvalidAuthHeader),
		errors.Is(err, ErrTokenIsNotAccess),
		errors.Is(err, ErrTokenIsNotRefresh):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrAccountNotActive):
		return http.StatusForbidden
	case errors.Is(err, ErrAccountLocked):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
