// Package querysparql serializes the query model to SPARQL 1.1 text.
//
// Output is deterministic: the same model always produces byte-identical
// text. Prefixes are sorted, projection and body keep insertion order, and
// string literals are NFC-normalized before escaping.
package querysparql

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/semanteco/internal/queryir"
)

// SPARQLCompiler compiles the query model to SPARQL text.
type SPARQLCompiler struct {
	// Indent is written once per nesting level. Defaults to two spaces.
	Indent string
}

// NewSPARQLCompiler creates a compiler with default settings.
func NewSPARQLCompiler() *SPARQLCompiler {
	return &SPARQLCompiler{Indent: "  "}
}

// Compile is a convenience wrapper around NewSPARQLCompiler().Compile.
func Compile(q queryir.Query) (string, error) {
	return NewSPARQLCompiler().Compile(q)
}

// Compile converts a query to SPARQL text.
//
// SELECT queries render DISTINCT when set, then the projection in
// insertion order (plain variables as ?name, expression variables as
// (expr AS ?name), * when empty), then the body. CONSTRUCT queries render
// the template followed by the body.
func (c *SPARQLCompiler) Compile(q queryir.Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("cannot compile nil query")
	}

	w := &writer{indent: c.Indent, namespaces: q.Namespaces()}
	if w.indent == "" {
		w.indent = "  "
	}
	if err := w.writePrefixes(); err != nil {
		return "", err
	}

	switch query := q.(type) {
	case *queryir.Select:
		if err := w.writeSelect(query); err != nil {
			return "", err
		}
	case *queryir.Construct:
		if err := w.writeConstruct(query); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported query type: %T", q)
	}

	return w.b.String(), nil
}

// writer accumulates output for one Compile call.
type writer struct {
	b          strings.Builder
	indent     string
	namespaces []queryir.Namespace
}

func (w *writer) line(depth int, s string) {
	for i := 0; i < depth; i++ {
		w.b.WriteString(w.indent)
	}
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) writePrefixes() error {
	for _, ns := range w.namespaces {
		if !validPrefix(ns.Prefix) {
			return fmt.Errorf("namespace prefix %q is not a valid PN_PREFIX", ns.Prefix)
		}
		if err := checkIRI(ns.URI); err != nil {
			return fmt.Errorf("namespace %s: %w", ns.Prefix, err)
		}
		w.line(0, fmt.Sprintf("PREFIX %s: <%s>", ns.Prefix, ns.URI))
	}
	return nil
}

func (w *writer) writeSelect(q *queryir.Select) error {
	head := "SELECT"
	if q.Distinct() {
		head += " DISTINCT"
	}

	proj, err := projection(q.Variables())
	if err != nil {
		return err
	}
	w.line(0, head+" "+proj)

	w.line(0, "WHERE {")
	if err := w.writeGroup(q.Where(), 1); err != nil {
		return fmt.Errorf("compile WHERE: %w", err)
	}
	w.line(0, "}")
	return nil
}

func (w *writer) writeConstruct(q *queryir.Construct) error {
	w.line(0, "CONSTRUCT {")
	for i, comp := range q.Template().Components() {
		p, ok := comp.(*queryir.Pattern)
		if !ok {
			return fmt.Errorf("compile CONSTRUCT template: component %d is %T, only patterns are allowed", i, comp)
		}
		if p.Graph != nil {
			return fmt.Errorf("compile CONSTRUCT template: pattern %d has a graph qualifier", i)
		}
		triple, err := w.triple(p)
		if err != nil {
			return fmt.Errorf("compile CONSTRUCT template: %w", err)
		}
		w.line(1, triple)
	}
	w.line(0, "}")

	w.line(0, "WHERE {")
	if err := w.writeGroup(q.Where(), 1); err != nil {
		return fmt.Errorf("compile WHERE: %w", err)
	}
	w.line(0, "}")
	return nil
}

// projection renders the SELECT clause variable list.
func projection(vars []*queryir.Variable) (string, error) {
	if len(vars) == 0 {
		return "*", nil
	}

	parts := make([]string, 0, len(vars))
	for _, v := range vars {
		name, err := varName(v)
		if err != nil {
			return "", err
		}
		if v.IsExpression() {
			parts = append(parts, fmt.Sprintf("(%s AS %s)", v.Expression(), name))
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " "), nil
}

func (w *writer) writeGroup(g *queryir.Group, depth int) error {
	for _, comp := range g.Components() {
		switch c := comp.(type) {
		case *queryir.Pattern:
			triple, err := w.triple(c)
			if err != nil {
				return err
			}
			if c.Graph != nil {
				graph, err := w.term(c.Graph, false)
				if err != nil {
					return fmt.Errorf("graph qualifier: %w", err)
				}
				w.line(depth, fmt.Sprintf("GRAPH %s { %s }", graph, triple))
				continue
			}
			w.line(depth, triple)
		case *queryir.NamedGraph:
			iri, err := w.iri(c.URI())
			if err != nil {
				return fmt.Errorf("named graph: %w", err)
			}
			w.line(depth, "GRAPH "+iri+" {")
			if err := w.writeGroup(&c.Group, depth+1); err != nil {
				return err
			}
			w.line(depth, "}")
		case *queryir.Optional:
			w.line(depth, "OPTIONAL {")
			if err := w.writeGroup(&c.Group, depth+1); err != nil {
				return err
			}
			w.line(depth, "}")
		default:
			return fmt.Errorf("unsupported component type: %T", comp)
		}
	}
	return nil
}

func (w *writer) triple(p *queryir.Pattern) (string, error) {
	s, err := w.term(p.Subject, false)
	if err != nil {
		return "", fmt.Errorf("subject: %w", err)
	}
	pr, err := w.term(p.Predicate, true)
	if err != nil {
		return "", fmt.Errorf("predicate: %w", err)
	}
	o, err := w.term(p.Object, false)
	if err != nil {
		return "", fmt.Errorf("object: %w", err)
	}
	return s + " " + pr + " " + o + " .", nil
}

// term renders one pattern position. rdf:type in predicate position
// renders as the keyword "a".
func (w *writer) term(t queryir.Term, predicate bool) (string, error) {
	switch v := t.(type) {
	case *queryir.Variable:
		return varName(v)
	case *queryir.Resource:
		if predicate && v.IRI() == queryir.RDFNS+"type" {
			return "a", nil
		}
		return w.iri(v.IRI())
	case *queryir.BlankNode:
		return "_:" + v.Label(), nil
	case queryir.String:
		return quote(string(v)), nil
	case queryir.Int:
		return strconv.FormatInt(int64(v), 10), nil
	case queryir.Bool:
		return strconv.FormatBool(bool(v)), nil
	case queryir.TypedLiteral:
		dt, err := w.iri(v.Datatype)
		if err != nil {
			return "", fmt.Errorf("datatype: %w", err)
		}
		return quote(v.Lexical) + "^^" + dt, nil
	case nil:
		return "", fmt.Errorf("nil term")
	default:
		return "", fmt.Errorf("unsupported term type: %T", t)
	}
}

// iri renders an IRI as a prefixed name when a bound namespace covers it
// and the remainder is a safe local name, otherwise as <iri>. The longest
// matching namespace wins; ties go to the lexically first prefix.
func (w *writer) iri(iri string) (string, error) {
	best := -1
	for i, ns := range w.namespaces {
		if ns.URI == "" || !strings.HasPrefix(iri, ns.URI) {
			continue
		}
		if !safeLocalName(iri[len(ns.URI):]) {
			continue
		}
		if best < 0 || len(ns.URI) > len(w.namespaces[best].URI) {
			best = i
		}
	}
	if best >= 0 {
		ns := w.namespaces[best]
		return ns.Prefix + ":" + iri[len(ns.URI):], nil
	}

	if err := checkIRI(iri); err != nil {
		return "", err
	}
	return "<" + iri + ">", nil
}

// checkIRI rejects text that cannot appear between < and >.
func checkIRI(iri string) error {
	if iri == "" {
		return fmt.Errorf("empty IRI")
	}
	for _, r := range iri {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return fmt.Errorf("IRI %q contains illegal character %q", iri, r)
		}
	}
	return nil
}

// validPrefix accepts the empty prefix and a conservative PN_PREFIX: a
// letter, then letters, digits, '_', '-' or '.', not ending with '.'.
func validPrefix(p string) bool {
	for i, r := range p {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (r == '_' || r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return !strings.HasSuffix(p, ".")
}

// safeLocalName accepts a conservative subset of PN_LOCAL: letters,
// digits, '_' and '-', not starting with '-'.
func safeLocalName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		case r == '-' && i > 0:
		default:
			return false
		}
	}
	return true
}

func varName(v *queryir.Variable) (string, error) {
	name := v.Name()
	if name == "" {
		return "", fmt.Errorf("variable %q has an empty name", v.ID())
	}
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", fmt.Errorf("variable %q: illegal character %q in name", v.ID(), r)
		}
	}
	return "?" + name, nil
}

// quote renders a SPARQL string literal. Input is NFC-normalized first so
// canonically equivalent strings compile to the same text.
func quote(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
