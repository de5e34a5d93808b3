package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure
type Kind string

const (
	// KindFileValidation is caller-caused; no forwarding was attempted
	KindFileValidation Kind = "FILE_VALIDATION_ERROR"
	// KindServiceUnavailable means the backend could not be reached
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	// KindServiceError means the backend replied with a 4xx/5xx status
	KindServiceError Kind = "TRANSCRIPTION_SERVICE_ERROR"
	// KindProcessing covers unusable replies and unexpected internal failures
	KindProcessing Kind = "TRANSCRIPTION_PROCESSING_ERROR"
)

// Error is returned by Validate and Transcribe. Message is safe to show to
// callers; Err keeps the original cause for diagnostics.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Errors that did not come from the gateway are Processing.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindProcessing
}

// IsKind reports whether err is a gateway error of the given kind
func IsKind(err error, kind Kind) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == kind
}

func validationError(msg string) *Error {
	return &Error{Kind: KindFileValidation, Message: msg}
}

func unavailableError(cause error) *Error {
	return &Error{
		Kind:    KindServiceUnavailable,
		Message: "Transcription service is unavailable. Please try again later.",
		Err:     cause,
	}
}

func serviceError(statusCode int, cause error) *Error {
	return &Error{
		Kind:       KindServiceError,
		Message:    fmt.Sprintf("Transcription service returned an error (status %d)", statusCode),
		StatusCode: statusCode,
		Err:        cause,
	}
}

func processingError(msg string, cause error) *Error {
	return &Error{Kind: KindProcessing, Message: msg, Err: cause}
}
