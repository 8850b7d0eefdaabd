package config

import (
	"fmt"
	"sort"

	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/extensions/air"
	"github.com/roach88/semanteco/internal/extensions/sites"
	"github.com/roach88/semanteco/internal/extensions/water"
	"github.com/roach88/semanteco/internal/pipeline"
)

// Deps are the shared services handed to extension constructors.
type Deps struct {
	Executor executor.Executor
}

// Constructor builds one extension.
type Constructor func(Deps) (pipeline.Extension, error)

// Registry maps extension names to constructors.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// DefaultRegistry knows the built-in extensions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(sites.Name, func(d Deps) (pipeline.Extension, error) { return sites.New(d.Executor), nil })
	r.MustRegister(water.Name, func(d Deps) (pipeline.Extension, error) { return water.New(d.Executor), nil })
	r.MustRegister(air.Name, func(d Deps) (pipeline.Extension, error) { return air.New(d.Executor), nil })
	return r
}

// Register adds a constructor. Names must be unique.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("register extension: name and constructor are required")
	}
	if _, dup := r.ctors[name]; dup {
		return fmt.Errorf("register extension: %q already registered", name)
	}
	r.ctors[name] = ctor
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check reports the first name that is not registered.
func (r *Registry) Check(names []string) error {
	for _, name := range names {
		if _, ok := r.ctors[name]; !ok {
			return &LoadError{
				Code:    ErrCodeUnknownExtension,
				Message: fmt.Sprintf("unknown extension %q (known: %v)", name, r.Names()),
			}
		}
	}
	return nil
}

// Build instantiates the named extensions in order.
func (r *Registry) Build(names []string, deps Deps) ([]pipeline.Extension, error) {
	if err := r.Check(names); err != nil {
		return nil, err
	}

	exts := make([]pipeline.Extension, 0, len(names))
	for _, name := range names {
		ext, err := r.ctors[name](deps)
		if err != nil {
			return nil, fmt.Errorf("build extension %s: %w", name, err)
		}
		exts = append(exts, ext)
	}
	return exts, nil
}
