package queryir

import (
	"fmt"
	"strings"
)

// Well-known namespaces.
const (
	RDFNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNS = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNS  = "http://www.w3.org/2001/XMLSchema#"
	DCNS   = "http://purl.org/dc/terms/"

	// VarNS is the namespace used for query variables that do not belong
	// to a domain vocabulary.
	VarNS = "http://aquarius.tw.rpi.edu/projects/semantaqua/data-source/query-variable/"
)

// Term is anything that can appear in a pattern position.
//
// This is a sealed interface - only types in this package implement it:
//   - *Variable: a named placeholder (?name)
//   - *Resource: a fixed IRI
//   - *BlankNode: a query-local anonymous node
//   - String, Int, Bool, TypedLiteral: literal values
//
// There is deliberately no float literal. Decimal values use TypedLiteral
// with an xsd:decimal datatype so the serialized text is exact.
type Term interface {
	termNode() // Marker method - seals interface to this package
}

// Variable is a named placeholder bound to namespace + local name.
//
// A Variable is either plain (bound by patterns) or an expression variable
// (a computed projection such as an EXISTS check). The two kinds never share
// an identity within one query.
//
// Variables are created only through a Query, which interns them.
type Variable struct {
	namespace string
	name      string
	expr      string
}

func (*Variable) termNode() {}

// Namespace returns the namespace part of the identifier.
func (v *Variable) Namespace() string { return v.namespace }

// Name returns the local name, used as the SPARQL variable name.
func (v *Variable) Name() string { return v.name }

// ID returns the full identifier (namespace + name).
func (v *Variable) ID() string { return v.namespace + v.name }

// Expression returns the computed expression, or "" for a plain variable.
func (v *Variable) Expression() string { return v.expr }

// IsExpression reports whether v is a computed projection.
func (v *Variable) IsExpression() bool { return v.expr != "" }

func (v *Variable) String() string { return "?" + v.name }

// Resource is a fixed IRI reference (QueryResource).
type Resource struct {
	iri       string
	namespace string
	local     string
}

func (*Resource) termNode() {}

// IRI returns the full IRI.
func (r *Resource) IRI() string { return r.iri }

// Namespace returns the IRI up to and including the last '#' or '/'.
func (r *Resource) Namespace() string { return r.namespace }

// LocalName returns the IRI after the last '#' or '/'.
func (r *Resource) LocalName() string { return r.local }

func (r *Resource) String() string { return "<" + r.iri + ">" }

// BlankNode is an anonymous node local to one query.
// Blank nodes are compared by identity, never by label.
type BlankNode struct {
	label string
}

func (*BlankNode) termNode() {}

// Label returns the query-local label (without the "_:" prefix).
func (b *BlankNode) Label() string { return b.label }

func (b *BlankNode) String() string { return "_:" + b.label }

// String is a plain string literal.
type String string

func (String) termNode() {}

// Int is an integer literal.
type Int int64

func (Int) termNode() {}

// Bool is a boolean literal.
type Bool bool

func (Bool) termNode() {}

// TypedLiteral is a literal with an explicit datatype IRI.
type TypedLiteral struct {
	Lexical  string
	Datatype string
}

func (TypedLiteral) termNode() {}

// Decimal returns an xsd:decimal literal for the given lexical form.
func Decimal(lexical string) TypedLiteral {
	return TypedLiteral{Lexical: lexical, Datatype: XSDNS + "decimal"}
}

// splitIRI splits an identifier at the last '#' or '/'.
// An identifier without either separator is all local name.
func splitIRI(id string) (namespace, local string) {
	idx := strings.LastIndexAny(id, "#/")
	if idx < 0 {
		return "", id
	}
	return id[:idx+1], id[idx+1:]
}

// isNil reports whether t is nil or a typed nil pointer.
func isNil(t Term) bool {
	switch v := t.(type) {
	case nil:
		return true
	case *Variable:
		return v == nil
	case *Resource:
		return v == nil
	case *BlankNode:
		return v == nil
	}
	return false
}

// termsEqual compares two terms for pattern matching.
// Variables and resources match by identifier, blank nodes by identity,
// literals by value.
func termsEqual(a, b Term) bool {
	switch x := a.(type) {
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.ID() == y.ID()
	case *Resource:
		y, ok := b.(*Resource)
		return ok && x.iri == y.iri
	case *BlankNode:
		y, ok := b.(*BlankNode)
		return ok && x == y
	case String, Int, Bool, TypedLiteral:
		return a == b
	default:
		return false
	}
}

// describeTerm renders a term for warnings and conflict messages.
func describeTerm(t Term) string {
	if isNil(t) {
		return "<nil>"
	}
	switch v := t.(type) {
	case *Variable:
		return v.String()
	case *Resource:
		return v.String()
	case *BlankNode:
		return v.String()
	case String:
		return fmt.Sprintf("%q", string(v))
	case Int:
		return fmt.Sprintf("%d", int64(v))
	case Bool:
		return fmt.Sprintf("%t", bool(v))
	case TypedLiteral:
		return fmt.Sprintf("%q^^<%s>", v.Lexical, v.Datatype)
	default:
		return fmt.Sprintf("%T", t)
	}
}
