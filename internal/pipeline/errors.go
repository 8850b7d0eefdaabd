package pipeline

import (
	"errors"
	"fmt"
)

// ErrCompositionConflict is returned by Visit on a strict pipeline when
// extensions made conflicting contributions.
var ErrCompositionConflict = errors.New("composition conflict")

// ConfigError rejects a request before any query is built or sent.
//
// Config errors cover missing or invalid request parameters and references
// to unknown extensions or query methods. They are never retried.
type ConfigError struct {
	// Code identifies the error category. Always ErrCodeConfig.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Param names the offending request parameter, if any.
	Param string

	// Extension names the extension involved, if any.
	Extension string

	// Method names the query method involved, if any.
	Method string
}

// ErrorCode categorizes pipeline errors.
type ErrorCode string

// ErrCodeConfig marks a configuration error.
const ErrCodeConfig ErrorCode = "CONFIG"

// Error implements the error interface.
func (e *ConfigError) Error() string {
	switch {
	case e.Param != "":
		return fmt.Sprintf("%s: %s (param=%s)", e.Code, e.Message, e.Param)
	case e.Extension != "" && e.Method != "":
		return fmt.Sprintf("%s: %s (extension=%s, method=%s)", e.Code, e.Message, e.Extension, e.Method)
	case e.Extension != "":
		return fmt.Sprintf("%s: %s (extension=%s)", e.Code, e.Message, e.Extension)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func missingParam(name string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeConfig,
		Message: fmt.Sprintf("required parameter %q is missing", name),
		Param:   name,
	}
}
