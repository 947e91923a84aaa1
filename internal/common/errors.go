package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. Every failure a document can hit maps onto one of
// these sentinels; callers branch with errors.Is.
var (
	// ErrUnreadableDocument - the parsing library could not open or read the input.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrEmptyDocument - the input parsed but yielded no text or rows.
	ErrEmptyDocument = errors.New("no extractable content")
	// ErrMalformedResponse - the model reply was not valid JSON of the expected shape.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrServiceFailure - transport, auth, or quota failure talking to the model.
	ErrServiceFailure = errors.New("model service failure")
	// ErrOutputWrite - persisting an extraction result to disk failed.
	ErrOutputWrite = errors.New("output write failed")

	ErrInvalidInput = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// FailureReason flattens a pipeline error into the short label recorded in
// bulk summaries and run history.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnreadableDocument):
		return "unreadable document"
	case errors.Is(err, ErrEmptyDocument):
		return "no extractable content"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed model response"
	case errors.Is(err, ErrServiceFailure):
		return "model service failure"
	case errors.Is(err, ErrOutputWrite):
		return "output write failed"
	default:
		return "error"
	}
}
