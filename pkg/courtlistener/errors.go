package courtlistener

import (
	"errors"
	"fmt"
)

// ErrorClass is a classification of transport failures.
type ErrorClass string

const (
	// ErrorClassAuth represents 401 responses. Fatal: the token is invalid
	// and every subsequent request would fail the same way.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassClient represents other non-retryable 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network and timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Sentinel errors returned by the client.
var (
	// ErrNotFound is returned for 404 responses. Not a transport failure:
	// the service answered and the record does not exist. Callers must not
	// retry it and must not count it among transient failures.
	ErrNotFound = errors.New("record not found")

	// ErrContextCancelled is returned when the context is cancelled while
	// waiting at the rate gate or during a backoff sleep.
	ErrContextCancelled = errors.New("context cancelled")
)

// AuthError indicates the API token was rejected. It is operator-actionable
// and aborts the whole resolution batch.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d): %s", e.StatusCode, e.Message)
}

// TransientError indicates a retryable condition persisted through every
// allowed attempt. The affected case is unresolved for this run only; the
// result must never be cached or logged as a confirmed non-match.
type TransientError struct {
	Attempts int
	Class    ErrorClass
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("request failed after %d attempts (%s): %v", e.Attempts, e.Class, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// StatusError carries an HTTP failure status with its classification.
type StatusError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Class, e.StatusCode, e.Message)
}

// classifyStatus maps an HTTP status code to an error class. Statuses that
// are not errors (2xx) and the distinguished 401/404 cases are handled by
// the caller before classification.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == 429:
		return ErrorClassRateLimit
	case statusCode >= 500:
		return ErrorClassServer
	case statusCode == 401:
		return ErrorClassAuth
	default:
		return ErrorClassClient
	}
}

// shouldRetry reports whether an error class is worth another attempt.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// Auth and other client errors repeat deterministically.
		return false
	}
}
