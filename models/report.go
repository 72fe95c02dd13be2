package models

import "time"

// Report is the outcome of one feed run. Partial results are preserved:
// Records holds everything extracted before a failure, and Err (when
// non-nil) says what kind of failure ended the run.
type Report struct {
	// Feed is the feed name ("products", "testimonials", "reviews").
	Feed string

	// Records are the extracted records, in document order.
	Records []Record

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Err is the fatal error that ended the run, nil on success.
	Err error
}

// Failed reports whether the run ended with an error.
func (r Report) Failed() bool {
	return r.Err != nil
}

// ErrorKind returns the error code of a failed run, or "" on success.
func (r Report) ErrorKind() string {
	if r.Err == nil {
		return ""
	}
	return ErrorCode(r.Err)
}
