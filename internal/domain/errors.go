package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports an upload rejected locally, before any network
// call was made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// InferenceUnavailableError reports a failed call to the inference service.
// The user may retry by resubmitting; there is no automatic retry.
type InferenceUnavailableError struct {
	StatusCode int
	Detail     string
}

func (e *InferenceUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference service unavailable: status %d: %s", e.StatusCode, e.Detail)
	}
	return "inference service unavailable: " + e.Detail
}

// MalformedResponseError reports an inference response that could not be
// used, typically because required numeric fields were absent.
type MalformedResponseError struct {
	Detail  string
	Missing []string
}

func (e *MalformedResponseError) Error() string {
	if len(e.Missing) > 0 {
		return "malformed inference response: missing " + strings.Join(e.Missing, ", ")
	}
	return "malformed inference response: " + e.Detail
}

var (
	// ErrChatUnavailable marks a chat collaborator failure. Callers degrade
	// gracefully; it never aborts the surrounding flow.
	ErrChatUnavailable = errors.New("chat service unavailable")

	ErrSessionNotFound    = errors.New("session not found")
	ErrPredictionInFlight = errors.New("a prediction is already in flight")
	ErrTurnInFlight       = errors.New("a chat turn is already in flight")
)
