package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for the storefront error taxonomy.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
	ErrServiceUnavail  = errors.New("service unavailable")
	ErrTransport       = errors.New("transport error")
	ErrInvalidResponse = errors.New("invalid response")
	ErrBusy            = errors.New("mutation in flight")
	ErrEmptyCatalog    = errors.New("empty catalog")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Transport creates a 502 error for network failures, timeouts and missing
// backend configuration. cause may be nil.
func Transport(message string, cause error) *AppError {
	err := ErrTransport
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrTransport, cause)
	}
	return &AppError{
		Code:    "TRANSPORT_ERROR",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// InvalidResponse creates a 502 error for malformed or incomplete backend payloads.
func InvalidResponse(message string) *AppError {
	return &AppError{
		Code:    "INVALID_RESPONSE",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     ErrInvalidResponse,
	}
}

// Busy creates a 409 error for a duplicate submission on a mutation key that
// is already in flight.
func Busy(key string) *AppError {
	return &AppError{
		Code:    "BUSY",
		Message: fmt.Sprintf("a mutation on %q is already in flight", key),
		Status:  http.StatusConflict,
		Err:     ErrBusy,
	}
}

// EmptyCatalog creates the error returned when variant matching runs against
// a product without variants. It signals a broken caller contract.
func EmptyCatalog() *AppError {
	return &AppError{
		Code:    "EMPTY_CATALOG",
		Message: "variant list is empty",
		Status:  http.StatusInternalServerError,
		Err:     ErrEmptyCatalog,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTransport), errors.Is(err, ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns the taxonomy code of err, or "INTERNAL_ERROR" when err carries
// none of the known sentinels.
func Kind(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrTransport):
		return "TRANSPORT_ERROR"
	case errors.Is(err, ErrInvalidResponse):
		return "INVALID_RESPONSE"
	case errors.Is(err, ErrBusy):
		return "BUSY"
	case errors.Is(err, ErrEmptyCatalog):
		return "EMPTY_CATALOG"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	default:
		return "INTERNAL_ERROR"
	}
}
