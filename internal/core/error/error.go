package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a key does not exist.
	RedisNotFoundMessage = "redis key not found"
	// DatabaseErrorMessage describes catalog database failures.
	DatabaseErrorMessage = "database operation failed"
	// NotFoundMessage is used when a catalog record does not exist.
	NotFoundMessage = "record not found"
	// UpstreamErrorMessage describes failures of model or vector providers.
	UpstreamErrorMessage = "upstream service unavailable"
)

// Kind classifies failures of the advisory pipeline.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindBlockedContent      Kind = "blocked_content"
	KindHallucination       Kind = "hallucination"
	KindRetrievalEmpty      Kind = "retrieval_empty"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
	Kind    Kind
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WithKind tags the error with a pipeline kind and returns it.
func (e *AppError) WithKind(k Kind) *AppError {
	e.Kind = k
	return e
}

// InvalidInput reports a request the pipeline refuses to process.
func InvalidInput(message string) *AppError {
	return New(nil, http.StatusBadRequest, message).WithKind(KindInvalidInput)
}

// Upstream wraps a model, embedding or vector store failure.
func Upstream(err error, message string) *AppError {
	if message == "" {
		message = UpstreamErrorMessage
	}
	return New(err, http.StatusBadGateway, message).WithKind(KindUpstreamUnavailable)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// KindOf returns the pipeline kind carried in err's chain, if any.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried in err's chain, or 500.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
