package pipeline

import (
	"log/slog"
	"maps"
	"strings"
)

// Request is the per-request context handed to extensions.
// Parameters are read-only after creation.
type Request struct {
	id     string
	params map[string]string
	logger *slog.Logger
	clock  *Clock
}

// NewRequest creates a request. params is copied. A nil logger uses
// slog.Default(); either way the request logger carries request_id.
func NewRequest(id string, params map[string]string, logger *slog.Logger) *Request {
	if logger == nil {
		logger = slog.Default()
	}
	p := make(map[string]string, len(params))
	maps.Copy(p, params)
	return &Request{
		id:     id,
		params: p,
		logger: logger.With("request_id", id),
		clock:  NewClock(),
	}
}

// ID returns the request id.
func (r *Request) ID() string { return r.id }

// Logger returns the request-scoped logger.
func (r *Request) Logger() *slog.Logger { return r.logger }

// Param returns a parameter and whether it was supplied.
func (r *Request) Param(name string) (string, bool) {
	v, ok := r.params[name]
	return v, ok
}

// RequireParam returns a parameter that must be present and non-blank.
// A missing or blank parameter yields a *ConfigError naming it.
func (r *Request) RequireParam(name string) (string, error) {
	v, ok := r.params[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", missingParam(name)
	}
	return v, nil
}

// Params returns a copy of all parameters.
func (r *Request) Params() map[string]string {
	return maps.Clone(r.params)
}

// NextSeq returns the next execution sequence number for this request.
func (r *Request) NextSeq() int64 {
	return r.clock.Next()
}
