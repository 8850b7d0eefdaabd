package pipeline

import (
	"context"

	"github.com/roach88/semanteco/internal/domain"
	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/results"
)

// Extension contributes graph patterns to the shared per-request query.
type Extension interface {
	// Name identifies the extension in configuration, logs and Invoke.
	Name() string

	// VisitQuery inspects and additively extends q.
	VisitQuery(ctx context.Context, q queryir.Query, req *Request) error
}

// DomainProvider is implemented by extensions that describe data domains.
type DomainProvider interface {
	Domains(ctx context.Context, req *Request) ([]*domain.Domain, error)
}

// QueryMethod is a named operation an extension exposes to the host,
// typically building and executing its own query.
//
// Execution and decode failures are reported as results.Failure() with a
// nil error. A non-nil error means the request itself was rejected, for
// example a *ConfigError for a missing parameter.
type QueryMethod func(ctx context.Context, req *Request) (*results.Response, error)

// QueryMethodProvider is implemented by extensions that expose query methods.
type QueryMethodProvider interface {
	QueryMethods() map[string]QueryMethod
}
