package stt

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResponse marks a reply that arrived but cannot be used
var ErrUnexpectedResponse = errors.New("transcription service returned unexpected response")

// TransportError reports that the backend could not be reached
// (connection refused, DNS failure, timeout, cancelled request).
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s backend unreachable: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports that the backend replied with a client or server error status
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s backend returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s backend returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
