// Package queryir provides the in-memory SPARQL query model that domain
// extensions compose before a query is sent to a remote endpoint.
//
// ARCHITECTURE:
//
// One Query is created per request, visited by every registered extension
// in order, serialized exactly once by package querysparql, and discarded:
//
//	[extension 1] ─┐
//	[extension 2] ─┼─→ [Query IR] → [querysparql.Compile] → [executor]
//	[extension N] ─┘
//
// The model never parses query text. It only builds it.
//
// QUERY KINDS:
//
// Query is a sealed interface implemented by *Select and *Construct. The
// kind is fixed at creation. Operations that only make sense for one kind
// live on that concrete type, so an extension must type-switch before it
// touches them:
//
//	switch q := query.(type) {
//	case *queryir.Select:
//	    q.AddVariable(v) // projection exists only on SELECT
//	case *queryir.Construct:
//	    q.Template().AddPattern(s, p, o)
//	}
//
// INTERNING:
//
// Variables and resources are interned by identifier inside one Query.
// Two extensions asking for the same identifier get the same *Variable, so
// fragments authored independently join on the same SPARQL variable
// without any coordination. The Query is the only registry; callers must
// not keep their own copies across queries.
//
// GRAPH COMPONENTS:
//
// The body of a query is a Group: an ordered list of components. A
// component is a *Pattern (one triple with an optional graph qualifier), a
// *NamedGraph (patterns scoped to one graph IRI) or an *Optional (patterns
// that may fail to match). Components nest to any depth. Order matters for
// the serialized text only.
//
// DISCOVERING PRIOR CONTRIBUTIONS:
//
// FindGraphComponentsWithPattern is the only sanctioned way for a later
// extension to detect what an earlier one added. Composition is additive:
// an extension never removes or rewrites components it did not add.
//
// CONFLICTS:
//
// Setting a namespace prefix that is already bound to a different URI, or
// redefining an expression variable with different text, overwrites the
// old value (last writer wins) and appends a Conflict. The pipeline decides
// whether conflicts are logged or fatal.
package queryir
