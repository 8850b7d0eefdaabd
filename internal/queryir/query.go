package queryir

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies the query form. It is fixed when the query is created.
type Kind int

const (
	// KindSelect produces a table of variable bindings.
	KindSelect Kind = iota
	// KindConstruct produces a graph from a template.
	KindConstruct
)

// String returns the SPARQL keyword for the kind.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindConstruct:
		return "CONSTRUCT"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ErrVariableKindConflict is returned when a plain variable and an
// expression variable would share one identity.
var ErrVariableKindConflict = errors.New("variable identity already used by a different variable kind")

// Query is one SPARQL query under composition.
//
// This is a sealed interface - only *Select and *Construct implement it.
// Kind-specific operations live on those types; callers type-switch to
// reach them.
type Query interface {
	// Kind returns the query form.
	Kind() Kind

	// GetVariable returns the interned variable for id, creating it if
	// absent. id is a full identifier; the local name after the last '#'
	// or '/' is the SPARQL variable name.
	GetVariable(id string) *Variable

	// CreateVariable is GetVariable under the name extensions use when
	// introducing a variable. It interns the same way.
	CreateVariable(id string) *Variable

	// GetResource returns the interned resource for iri.
	GetResource(iri string) *Resource

	// CreateBlankNode always returns a fresh node.
	CreateBlankNode() *BlankNode

	// GetNamedGraph returns the top-level named graph for uri, creating
	// and appending it to the body if absent.
	GetNamedGraph(uri string) *NamedGraph

	// CreateOptional returns a new optional that is not yet attached.
	CreateOptional() *Optional

	// SetNamespace binds prefix to uri. Rebinding to a different uri
	// overwrites and records a Conflict.
	SetNamespace(prefix, uri string)

	// Namespace returns the uri bound to prefix.
	Namespace(prefix string) (string, bool)

	// Namespaces returns all bindings sorted by prefix.
	Namespaces() []Namespace

	// Where returns the top-level body.
	Where() *Group

	// FindGraphComponentsWithPattern returns every collection in the body,
	// at any depth, that directly contains a pattern matching the triple.
	// nil arguments are wildcards.
	FindGraphComponentsWithPattern(subject, predicate, object Term) []Collection

	// Conflicts returns the composition conflicts recorded so far.
	Conflicts() []Conflict

	queryNode() // Marker method - seals interface to this package
}

// Namespace is one prefix binding.
type Namespace struct {
	Prefix string
	URI    string
}

// core holds the state shared by every query kind.
type core struct {
	variables  map[string]*Variable
	resources  map[string]*Resource
	namespaces map[string]string
	where      Group
	blankSeq   int
	conflicts  []Conflict
}

func newCore() core {
	return core{
		variables:  make(map[string]*Variable),
		resources:  make(map[string]*Resource),
		namespaces: make(map[string]string),
	}
}

func (c *core) GetVariable(id string) *Variable {
	if v, ok := c.variables[id]; ok {
		return v
	}
	ns, name := splitIRI(id)
	v := &Variable{namespace: ns, name: name}
	c.variables[id] = v
	return v
}

func (c *core) CreateVariable(id string) *Variable {
	return c.GetVariable(id)
}

func (c *core) GetResource(iri string) *Resource {
	if r, ok := c.resources[iri]; ok {
		return r
	}
	ns, local := splitIRI(iri)
	r := &Resource{iri: iri, namespace: ns, local: local}
	c.resources[iri] = r
	return r
}

func (c *core) CreateBlankNode() *BlankNode {
	b := &BlankNode{label: "b" + strconv.Itoa(c.blankSeq)}
	c.blankSeq++
	return b
}

func (c *core) GetNamedGraph(uri string) *NamedGraph {
	for _, comp := range c.where.components {
		if ng, ok := comp.(*NamedGraph); ok && ng.uri == uri {
			return ng
		}
	}
	ng := &NamedGraph{uri: uri, attached: true}
	c.where.components = append(c.where.components, ng)
	return ng
}

func (c *core) CreateOptional() *Optional {
	return &Optional{}
}

func (c *core) SetNamespace(prefix, uri string) {
	if prev, ok := c.namespaces[prefix]; ok && prev != uri {
		c.conflicts = append(c.conflicts, Conflict{
			Kind:     ConflictNamespace,
			Key:      prefix,
			Previous: prev,
			Current:  uri,
		})
	}
	c.namespaces[prefix] = uri
}

func (c *core) Namespace(prefix string) (string, bool) {
	uri, ok := c.namespaces[prefix]
	return uri, ok
}

func (c *core) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(c.namespaces))
	for p, u := range c.namespaces {
		out = append(out, Namespace{Prefix: p, URI: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

func (c *core) Where() *Group {
	return &c.where
}

func (c *core) FindGraphComponentsWithPattern(subject, predicate, object Term) []Collection {
	return FindPatterns(&c.where, subject, predicate, object)
}

func (c *core) Conflicts() []Conflict {
	out := make([]Conflict, len(c.conflicts))
	copy(out, c.conflicts)
	return out
}

// Select is a SELECT query: a projection over the body.
type Select struct {
	core
	distinct bool
	vars     []*Variable
}

func (*Select) queryNode() {}

// NewSelect creates an empty SELECT query.
func NewSelect() *Select {
	return &Select{core: newCore()}
}

// Kind returns KindSelect.
func (*Select) Kind() Kind { return KindSelect }

// Distinct reports whether DISTINCT is set.
func (s *Select) Distinct() bool { return s.distinct }

// SetDistinct sets or clears DISTINCT.
func (s *Select) SetDistinct(distinct bool) { s.distinct = distinct }

// Variables returns the projection in insertion order.
// An empty projection serializes as SELECT *.
func (s *Select) Variables() []*Variable {
	out := make([]*Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

// SetVariables replaces the projection. nil entries are skipped and
// duplicates (by identifier) keep their first position.
func (s *Select) SetVariables(vars []*Variable) {
	s.vars = s.vars[:0]
	for _, v := range vars {
		s.AddVariable(v)
	}
}

// AddVariable appends v to the projection unless a variable with the same
// identifier is already projected. Reports whether v was added.
func (s *Select) AddVariable(v *Variable) bool {
	if v == nil {
		return false
	}
	v = s.intern(v)
	for _, existing := range s.vars {
		if existing.ID() == v.ID() {
			return false
		}
	}
	s.vars = append(s.vars, v)
	return true
}

// intern resolves v by identifier in this query's registry. A variable
// from another query is never stored: when the identity is new here, a
// copy of the same kind is interned instead, and when it exists the local
// instance wins.
func (s *Select) intern(v *Variable) *Variable {
	if existing, ok := s.variables[v.ID()]; ok {
		return existing
	}
	local := &Variable{namespace: v.namespace, name: v.name, expr: v.expr}
	s.variables[v.ID()] = local
	return local
}

// CreateVariableExpression creates a variable bound to a computed
// expression (for example an EXISTS check) rather than to patterns.
// It is serialized in the projection as (expr AS ?name).
//
// The variable is not added to the projection; call AddVariable.
//
// Redeclaring the same identity with the same expression returns the
// existing variable. A different expression overwrites it and records a
// Conflict. An identity already used by a plain variable fails with
// ErrVariableKindConflict.
func (s *Select) CreateVariableExpression(id, expr string) (*Variable, error) {
	if expr == "" {
		return nil, fmt.Errorf("variable expression %q: expression must not be empty", id)
	}
	if v, ok := s.variables[id]; ok {
		if !v.IsExpression() {
			return nil, fmt.Errorf("variable expression %q: %w", id, ErrVariableKindConflict)
		}
		if v.expr != expr {
			s.conflicts = append(s.conflicts, Conflict{
				Kind:     ConflictExpression,
				Key:      id,
				Previous: v.expr,
				Current:  expr,
			})
			v.expr = expr
		}
		return v, nil
	}
	ns, name := splitIRI(id)
	v := &Variable{namespace: ns, name: name, expr: expr}
	s.variables[id] = v
	return v, nil
}

// Construct is a CONSTRUCT query: a template instantiated per body match.
type Construct struct {
	core
	template Group
}

func (*Construct) queryNode() {}

// NewConstruct creates an empty CONSTRUCT query.
func NewConstruct() *Construct {
	return &Construct{core: newCore()}
}

// Kind returns KindConstruct.
func (*Construct) Kind() Kind { return KindConstruct }

// Template returns the construct template. Only patterns are valid in a
// template; other components are reported by Validate and rejected by the
// serializer.
func (c *Construct) Template() *Group {
	return &c.template
}

// New creates an empty query of the given kind.
// Unknown kinds panic - they indicate a programming error.
func New(kind Kind) Query {
	switch kind {
	case KindSelect:
		return NewSelect()
	case KindConstruct:
		return NewConstruct()
	default:
		panic(fmt.Sprintf("queryir.New: unknown kind %v", kind))
	}
}
