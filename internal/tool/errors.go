package tool

import (
	"errors"
	"fmt"
)

var (
	ErrToolNotFound = errors.New("tool not found")
	ErrValidation   = errors.New("validation failed")
)

// ClientError is reported back to the model so it can correct its call.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

func (e *ClientError) Unwrap() error { return e.Err }

// Invalid returns a validation ClientError.
func Invalid(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...), Err: ErrValidation}
}

// IsClientError reports whether err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}
