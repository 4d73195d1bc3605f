package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeInitFailed      = "INIT_FAILED"      // durable backend unavailable at open
	CodeCryptoFailed    = "CRYPTO_FAILED"    // key mismatch or malformed ciphertext
	CodeTransportFailed = "TRANSPORT_FAILED" // per-channel failure, consumed by fallback
	CodePersistDegraded = "PERSIST_DEGRADED" // durable mirroring exhausted retries
	CodeMalformedInput  = "MALFORMED_INPUT"  // caller passed an invalid message
	CodeSessionClosed   = "SESSION_CLOSED"   // operation after Close
	CodeConfigInvalid   = "CONFIG_INVALID"
)

// HavenError is a structured error with a code and actionable suggestion.
type HavenError struct {
	Code       string // machine-readable code (e.g. MALFORMED_INPUT)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *HavenError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *HavenError) Unwrap() error {
	return e.Err
}

// New creates a HavenError with the given code and message.
func New(code, message string) *HavenError {
	return &HavenError{Code: code, Message: message}
}

// Wrap creates a HavenError wrapping an existing error.
func Wrap(code, message string, err error) *HavenError {
	return &HavenError{Code: code, Message: message, Err: err}
}

// WithSuggestion returns the error with the suggestion set.
func (e *HavenError) WithSuggestion(suggestion string) *HavenError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *HavenError) Is(target error) bool {
	var he *HavenError
	if errors.As(target, &he) {
		return e.Code == he.Code
	}
	return false
}

// AsCode extracts the HavenError code from an error, or "" if not a HavenError.
func AsCode(err error) string {
	var he *HavenError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not a HavenError.
func Suggestion(err error) string {
	var he *HavenError
	if errors.As(err, &he) {
		return he.Suggestion
	}
	return ""
}
