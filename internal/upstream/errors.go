package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout marks an attempt that exceeded the per-call timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrEmbedded marks a 2xx payload that carried an "errors" member.
	ErrEmbedded = errors.New("API error")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request failed: %s", e.Status)
	}
	return fmt.Sprintf("API request failed: %s: %s", e.Status, e.Body)
}

// Error is returned once every attempt has failed. It wraps the last
// attempt's error.
type Error struct {
	Host     string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Host, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
