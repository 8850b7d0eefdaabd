package results

import (
	"errors"
	"fmt"
)

// DecodeError reports a response that does not have the expected shape.
//
// A DecodeError always means the whole response is rejected; callers treat
// it as a failed query, never as an empty result.
type DecodeError struct {
	// Reason is a human-readable description of the mismatch.
	Reason string

	// Row is the zero-based row index, or -1 when the error is not tied
	// to a row.
	Row int

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := "decode results: " + e.Reason
	if e.Row >= 0 {
		msg = fmt.Sprintf("%s (row %d)", msg, e.Row)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying parse error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
