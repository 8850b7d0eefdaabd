package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/semanteco/internal/domain"
	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/results"
)

// Pipeline runs an ordered list of extensions over per-request queries.
//
// Thread-safety model:
//   - The extension list is fixed at construction and never mutated.
//   - Visit, Compose, Domains and Invoke are safe from any goroutine as
//     long as each call uses its own query and request.
//
// INVARIANTS:
//   - Extension order never changes after construction
//   - Extension names are unique
//   - Visit calls each extension at most once per query
type Pipeline struct {
	extensions []Extension
	byName     map[string]Extension
	logger     *slog.Logger
	ids        RequestIDGenerator
	strict     bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStrictComposition makes Visit fail with ErrCompositionConflict when
// extensions make conflicting contributions, instead of logging them.
func WithStrictComposition() Option {
	return func(p *Pipeline) {
		p.strict = true
	}
}

// WithLogger sets the logger used for new requests.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRequestIDGenerator sets how NewRequest assigns ids.
// Default: UUIDv7Generator.
func WithRequestIDGenerator(gen RequestIDGenerator) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.ids = gen
		}
	}
}

// New creates a Pipeline over extensions in registration order.
//
// The slice is copied so later mutation by the caller cannot reorder it.
// Nil extensions and duplicate names are rejected with a *ConfigError.
func New(extensions []Extension, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		extensions: make([]Extension, 0, len(extensions)),
		byName:     make(map[string]Extension, len(extensions)),
		logger:     slog.Default(),
		ids:        UUIDv7Generator{},
	}

	for i, ext := range extensions {
		if ext == nil {
			return nil, &ConfigError{
				Code:    ErrCodeConfig,
				Message: fmt.Sprintf("extension %d is nil", i),
			}
		}
		name := ext.Name()
		if _, dup := p.byName[name]; dup {
			return nil, &ConfigError{
				Code:      ErrCodeConfig,
				Message:   "duplicate extension name",
				Extension: name,
			}
		}
		p.byName[name] = ext
		p.extensions = append(p.extensions, ext)
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Extensions returns the registered extensions in order.
func (p *Pipeline) Extensions() []Extension {
	return slices.Clone(p.extensions)
}

// Extension looks up an extension by name.
func (p *Pipeline) Extension(name string) (Extension, bool) {
	ext, ok := p.byName[name]
	return ext, ok
}

// NewRequest creates a request with a fresh id and the pipeline's logger.
func (p *Pipeline) NewRequest(params map[string]string) *Request {
	return NewRequest(p.ids.Generate(), params, p.logger)
}

// Visit hands q to every extension in registration order.
//
// Cancellation is checked before each extension; a cancelled context stops
// the walk with ctx.Err() and leaves q partially composed. The first
// extension error stops the walk and is returned wrapped with the
// extension's name.
//
// Conflicts raised while an extension runs are attributed to it. They are
// logged at warn level, or on a strict pipeline returned as
// ErrCompositionConflict once every extension has run.
func (p *Pipeline) Visit(ctx context.Context, q queryir.Query, req *Request) error {
	if q == nil {
		return errors.New("visit: nil query")
	}
	if req == nil {
		return errors.New("visit: nil request")
	}

	var conflicts []string
	for _, ext := range p.extensions {
		if err := ctx.Err(); err != nil {
			return err
		}

		before := len(q.Conflicts())
		req.Logger().Debug("visiting query",
			"extension", ext.Name(),
			"kind", q.Kind().String(),
		)
		if err := ext.VisitQuery(ctx, q, req); err != nil {
			return fmt.Errorf("extension %s: %w", ext.Name(), err)
		}

		for _, c := range q.Conflicts()[before:] {
			if p.strict {
				conflicts = append(conflicts, ext.Name()+": "+c.String())
				continue
			}
			req.Logger().Warn("composition conflict",
				"extension", ext.Name(),
				"kind", string(c.Kind),
				"key", c.Key,
				"previous", c.Previous,
				"current", c.Current,
			)
		}
	}

	if len(conflicts) > 0 {
		return fmt.Errorf("%w: %s", ErrCompositionConflict, strings.Join(conflicts, "; "))
	}
	return nil
}

// Compose creates a fresh SELECT query and runs Visit over it.
func (p *Pipeline) Compose(ctx context.Context, req *Request) (*queryir.Select, error) {
	q := queryir.NewSelect()
	if err := p.Visit(ctx, q, req); err != nil {
		return nil, err
	}
	return q, nil
}

// Domains collects domain descriptions from every DomainProvider in
// registration order and merges entries sharing a URI. Queries a provider
// executes are attributed to it in the execution log.
func (p *Pipeline) Domains(ctx context.Context, req *Request) ([]*domain.Domain, error) {
	if req == nil {
		return nil, errors.New("domains: nil request")
	}

	var all []*domain.Domain
	for _, ext := range p.extensions {
		provider, ok := ext.(DomainProvider)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := provider.Domains(withOrigin(ctx, req, ext.Name()), req)
		if err != nil {
			return nil, fmt.Errorf("extension %s: domains: %w", ext.Name(), err)
		}
		all = append(all, ds...)
	}
	return domain.Merge(all), nil
}

// Methods lists the query methods of every extension, keyed by extension
// name. Method names are sorted.
func (p *Pipeline) Methods() map[string][]string {
	out := make(map[string][]string)
	for _, ext := range p.extensions {
		provider, ok := ext.(QueryMethodProvider)
		if !ok {
			continue
		}
		names := make([]string, 0)
		for name := range provider.QueryMethods() {
			names = append(names, name)
		}
		sort.Strings(names)
		out[ext.Name()] = names
	}
	return out
}

// Invoke runs a named query method of a named extension.
//
// Queries the method executes are attributed to the request and extension
// in the execution log, numbered by the request's clock.
func (p *Pipeline) Invoke(ctx context.Context, extension, method string, req *Request) (*results.Response, error) {
	if req == nil {
		return nil, errors.New("invoke: nil request")
	}

	ext, ok := p.byName[extension]
	if !ok {
		return nil, &ConfigError{
			Code:      ErrCodeConfig,
			Message:   "unknown extension",
			Extension: extension,
		}
	}
	provider, ok := ext.(QueryMethodProvider)
	if !ok {
		return nil, &ConfigError{
			Code:      ErrCodeConfig,
			Message:   "extension has no query methods",
			Extension: extension,
		}
	}
	fn, ok := provider.QueryMethods()[method]
	if !ok {
		return nil, &ConfigError{
			Code:      ErrCodeConfig,
			Message:   "unknown query method",
			Extension: extension,
			Method:    method,
		}
	}

	req.Logger().Debug("invoking query method", "extension", extension, "method", method)
	resp, err := fn(withOrigin(ctx, req, extension), req)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", extension, method, err)
	}
	if resp == nil {
		return results.Failure(), nil
	}
	return resp, nil
}

// withOrigin attributes queries executed under ctx to req and extension,
// numbered by the request's clock.
func withOrigin(ctx context.Context, req *Request, extension string) context.Context {
	return executor.WithOrigin(ctx, executor.Origin{
		RequestID: req.ID(),
		Extension: extension,
		Seq:       req.NextSeq,
	})
}
