package queryir

import (
	"errors"
	"fmt"
)

// Errors returned by Group mutation.
var (
	// ErrNilTerm is returned when a pattern position is nil.
	ErrNilTerm = errors.New("pattern term must not be nil")

	// ErrNilComponent is returned when attaching a nil component.
	ErrNilComponent = errors.New("component must not be nil")

	// ErrComponentCycle is returned when a component would contain itself.
	ErrComponentCycle = errors.New("component would contain itself")

	// ErrComponentAttached is returned when a named graph or optional that
	// already has a parent is attached again.
	ErrComponentAttached = errors.New("component is already attached")
)

// Component is one entry of a Group.
//
// This is a sealed interface - only types in this package implement it:
//   - *Pattern: a basic triple pattern
//   - *NamedGraph: patterns scoped to a named graph
//   - *Optional: patterns that are not required to match
type Component interface {
	componentNode() // Marker method - seals interface to this package
}

// Pattern is a basic triple pattern with an optional graph qualifier.
//
// When Graph is non-nil the pattern only matches inside that graph and is
// serialized as GRAPH <g> { s p o . }.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term // nil = enclosing graph
}

func (*Pattern) componentNode() {}

// Matches reports whether the pattern matches the given triple.
// A nil argument is a wildcard.
func (p *Pattern) Matches(subject, predicate, object Term) bool {
	if !isNil(subject) && !termsEqual(p.Subject, subject) {
		return false
	}
	if !isNil(predicate) && !termsEqual(p.Predicate, predicate) {
		return false
	}
	if !isNil(object) && !termsEqual(p.Object, object) {
		return false
	}
	return true
}

func (p *Pattern) String() string {
	return fmt.Sprintf("(%s %s %s)", describeTerm(p.Subject), describeTerm(p.Predicate), describeTerm(p.Object))
}

// Collection is anything that holds graph components
// (GraphComponentCollection): *Group, *NamedGraph and *Optional.
//
// The unexported group method seals the interface.
type Collection interface {
	AddPattern(subject, predicate, object Term, graph ...Term) error
	AddComponent(c Component) error
	Components() []Component
	group() *Group
}

// Group is an ordered sequence of graph components.
// The zero value is an empty, usable group.
type Group struct {
	components []Component
}

func (g *Group) group() *Group { return g }

// AddPattern appends a basic pattern.
// All terms must be non-nil and none may be an expression variable, which
// is computed in the projection and cannot also be bound by a pattern. At
// most one graph qualifier may be given.
func (g *Group) AddPattern(subject, predicate, object Term, graph ...Term) error {
	if isNil(subject) || isNil(predicate) || isNil(object) {
		return fmt.Errorf("add pattern (%s %s %s): %w",
			describeTerm(subject), describeTerm(predicate), describeTerm(object), ErrNilTerm)
	}
	if len(graph) > 1 {
		return fmt.Errorf("add pattern: at most one graph qualifier allowed, got %d", len(graph))
	}

	p := &Pattern{Subject: subject, Predicate: predicate, Object: object}
	if len(graph) == 1 && !isNil(graph[0]) {
		p.Graph = graph[0]
	}
	if err := checkPatternTerms(p); err != nil {
		return err
	}
	g.components = append(g.components, p)
	return nil
}

// checkPatternTerms rejects expression variables in any pattern position.
func checkPatternTerms(p *Pattern) error {
	for _, t := range []Term{p.Subject, p.Predicate, p.Object, p.Graph} {
		if v, ok := t.(*Variable); ok && v != nil && v.IsExpression() {
			return fmt.Errorf("add pattern %s: %s is an expression variable: %w", p, v, ErrVariableKindConflict)
		}
	}
	return nil
}

// AddComponent appends an existing component, typically an *Optional
// returned by Query.CreateOptional. A named graph or optional has at most
// one parent: attaching it a second time fails with ErrComponentAttached.
func (g *Group) AddComponent(c Component) error {
	switch v := c.(type) {
	case nil:
		return ErrNilComponent
	case *Pattern:
		if v == nil {
			return ErrNilComponent
		}
		if err := checkPatternTerms(v); err != nil {
			return err
		}
	case *NamedGraph:
		if v == nil {
			return ErrNilComponent
		}
		if err := g.adopt(&v.Group, &v.attached); err != nil {
			return fmt.Errorf("attach named graph <%s>: %w", v.uri, err)
		}
	case *Optional:
		if v == nil {
			return ErrNilComponent
		}
		if err := g.adopt(&v.Group, &v.attached); err != nil {
			return fmt.Errorf("attach optional: %w", err)
		}
	}
	g.components = append(g.components, c)
	return nil
}

// adopt marks child as attached under g.
func (g *Group) adopt(child *Group, attached *bool) error {
	if child == g || contains(child, g) {
		return ErrComponentCycle
	}
	if *attached {
		return ErrComponentAttached
	}
	*attached = true
	return nil
}

// Components returns a copy of the components in insertion order.
func (g *Group) Components() []Component {
	out := make([]Component, len(g.components))
	copy(out, g.components)
	return out
}

// Len returns the number of direct components.
func (g *Group) Len() int {
	return len(g.components)
}

// contains reports whether target is nested anywhere inside root.
func contains(root, target *Group) bool {
	for _, c := range root.components {
		var child *Group
		switch v := c.(type) {
		case *NamedGraph:
			child = v.group()
		case *Optional:
			child = v.group()
		default:
			continue
		}
		if child == target || contains(child, target) {
			return true
		}
	}
	return false
}

// NamedGraph scopes its patterns to one graph IRI.
// Obtain one through Query.GetNamedGraph so repeated lookups share it.
type NamedGraph struct {
	Group
	uri      string
	attached bool
}

func (*NamedGraph) componentNode() {}

// URI returns the graph IRI.
func (n *NamedGraph) URI() string { return n.uri }

// Optional marks its patterns as not required to match.
// Rows where the optional part fails carry absent bindings.
type Optional struct {
	Group
	attached bool
}

func (*Optional) componentNode() {}
