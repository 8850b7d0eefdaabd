package queryir

import (
	"fmt"
	"sort"
)

// ValidationResult contains the findings of a structural check.
//
// Warnings do not stop a query from being serialized; they point at
// compositions that are legal but almost certainly not what the
// contributing extensions intended.
type ValidationResult struct {
	// Clean is true when no warnings were produced.
	Clean bool

	// Warnings lists the findings in traversal order.
	Warnings []string
}

// Validate checks a composed query for suspicious structure:
//  1. An empty body (the query matches everything or nothing)
//  2. Projected plain variables that no pattern binds
//  3. Two variable identities sharing one SPARQL name
//  4. CONSTRUCT templates holding anything but patterns
//  5. Expression variables that a body pattern also binds
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addWarning("nil query")
		return
	}

	switch query := q.(type) {
	case *Select:
		v.validateBody(&query.core)
		v.validateProjection(query)
		v.validateExpressionBindings(query)
		v.validateNames(&query.core)
	case *Construct:
		v.validateBody(&query.core)
		v.validateTemplate(query)
		v.validateNames(&query.core)
	default:
		v.addWarning("unknown query type: %T", q)
	}
}

func (v *validator) validateBody(c *core) {
	if c.where.Len() == 0 {
		v.addWarning("empty WHERE body")
	}
}

// validateProjection flags projected plain variables that never occur in
// the body. Expression variables are computed and exempt.
func (v *validator) validateProjection(s *Select) {
	bound := make(map[string]bool)
	collectVariables(&s.where, bound)
	for _, pv := range s.vars {
		if pv.IsExpression() {
			continue
		}
		if !bound[pv.ID()] {
			v.addWarning("projected variable %s is not bound by any pattern", pv)
		}
	}
}

// validateExpressionBindings flags expression identities that also occur
// in a body pattern. Such a query projects (expr AS ?x) while binding ?x,
// which SPARQL rejects.
func (v *validator) validateExpressionBindings(s *Select) {
	bound := make(map[string]bool)
	collectVariables(&s.where, bound)
	for _, id := range sortedKeys(s.variables) {
		ev := s.variables[id]
		if ev.IsExpression() && bound[id] {
			v.addWarning("expression variable %s is also bound by a pattern", ev)
		}
	}
}

// validateNames flags distinct identities that serialize to the same name.
func (v *validator) validateNames(c *core) {
	seen := make(map[string]string)
	for _, id := range sortedKeys(c.variables) {
		name := c.variables[id].Name()
		if other, ok := seen[name]; ok {
			v.addWarning("variables %q and %q both serialize as ?%s", other, id, name)
			continue
		}
		seen[name] = id
	}
}

func (v *validator) validateTemplate(c *Construct) {
	if c.template.Len() == 0 {
		v.addWarning("empty CONSTRUCT template")
	}
	for i, comp := range c.template.components {
		if _, ok := comp.(*Pattern); !ok {
			v.addWarning("CONSTRUCT template component %d is %T; only patterns are allowed", i, comp)
			continue
		}
		if comp.(*Pattern).Graph != nil {
			v.addWarning("CONSTRUCT template pattern %d has a graph qualifier", i)
		}
	}
}

// collectVariables records every variable identity used in g.
func collectVariables(g *Group, into map[string]bool) {
	for _, comp := range g.components {
		switch c := comp.(type) {
		case *Pattern:
			for _, t := range []Term{c.Subject, c.Predicate, c.Object, c.Graph} {
				if tv, ok := t.(*Variable); ok {
					into[tv.ID()] = true
				}
			}
		case *NamedGraph:
			collectVariables(&c.Group, into)
		case *Optional:
			collectVariables(&c.Group, into)
		}
	}
}

func sortedKeys(m map[string]*Variable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
