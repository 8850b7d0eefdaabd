package executor

import (
	"errors"
	"fmt"
)

// ExecutionError reports a failed round trip to the SPARQL endpoint.
//
// Execution errors are terminal for the request that issued the query.
// The executor never retries; callers that want retries wrap the Client.
type ExecutionError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Endpoint is the URL the query was sent to.
	Endpoint string

	// StatusCode is the HTTP status for ErrCodeStatus, zero otherwise.
	StatusCode int

	// Body holds the start of a non-success response body, for diagnostics.
	Body string

	// Err is the underlying transport error, if any.
	Err error
}

// ErrorCode categorizes execution errors.
type ErrorCode string

const (
	// ErrCodeUnreachable indicates the request could not be completed:
	// connection failure, timeout, cancellation, or a truncated body.
	ErrCodeUnreachable ErrorCode = "UNREACHABLE"

	// ErrCodeStatus indicates the endpoint answered with a non-2xx status.
	ErrCodeStatus ErrorCode = "STATUS"

	// ErrCodeEmptyResponse indicates a 2xx answer with an empty body.
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"
)

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	switch {
	case e.Code == ErrCodeStatus:
		return fmt.Sprintf("%s: endpoint %s returned %d", e.Code, e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: endpoint %s: %v", e.Code, e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("%s: endpoint %s", e.Code, e.Endpoint)
	}
}

// Unwrap returns the underlying transport error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsExecutionError returns true if err is or wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// ErrorCodeOf returns the code of the wrapped *ExecutionError, or "".
func ErrorCodeOf(err error) ErrorCode {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
