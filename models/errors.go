package models

import (
	"errors"
	"fmt"
)

// Error codes carried by ScrapeError. The orchestrator maps these to
// "fatal to this run" vs. "recoverable"; lower layers only classify.
const (
	// ErrCodeTransport is an HTTP-layer failure: network error or a
	// non-2xx status. Fatal for the page being fetched, not for pages
	// already fetched.
	ErrCodeTransport = "TRANSPORT_FAILED"

	// ErrCodeNavigation is a browser page-load failure.
	ErrCodeNavigation = "NAVIGATION_FAILED"

	// ErrCodeDriver is a session-layer failure: browser crash, lost
	// connection, or a retry budget exhausted. Fatal for the feed run.
	ErrCodeDriver = "DRIVER_FAILURE"

	// ErrCodeInteraction is a stale or detached control. Retried once
	// from a fresh lookup; a second consecutive failure escalates to
	// ErrCodeDriver.
	ErrCodeInteraction = "INTERACTION_FAILED"

	// ErrCodeSpec is a malformed RecordSpec: a configuration error,
	// always fatal and never retried.
	ErrCodeSpec = "SPEC_INVALID"

	// ErrCodeTimeout is a deadline or cancellation.
	ErrCodeTimeout = "SCRAPE_TIMEOUT"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ErrorCode returns the ScrapeError code anywhere in err's chain, or
// "INTERNAL_ERROR" when err carries no code.
func ErrorCode(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return "INTERNAL_ERROR"
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}
