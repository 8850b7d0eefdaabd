// Package pipeline composes one SPARQL query per request from independently
// developed extensions.
//
// ARCHITECTURE:
//
// A Pipeline holds an ordered list of extensions fixed at construction.
// For each request the host creates a fresh query and calls Visit, which
// hands that query to every extension exactly once, in registration order.
// Extensions run sequentially on the caller's goroutine; no two extensions
// ever touch the same query concurrently.
//
// EXTENSION CONTRACT:
//
// Extensions are additive. An extension may add variables, patterns and
// namespaces, and may inspect what earlier extensions contributed through
// Query.FindGraphComponentsWithPattern. It must not remove or rewrite
// components it did not add. An extension that only applies to one query
// kind type-switches on the query and returns early otherwise:
//
//	func (e *Ext) VisitQuery(ctx context.Context, q queryir.Query, req *pipeline.Request) error {
//	    sel, ok := q.(*queryir.Select)
//	    if !ok {
//	        return nil
//	    }
//	    ...
//	}
//
// When one extension depends on another's contribution, the dependency is
// expressed by registration order: the contributor is registered first.
//
// CONFLICTS:
//
// Two extensions binding the same namespace prefix to different URIs, or
// defining the same expression variable differently, resolve last writer
// wins. Visit attributes each new conflict to the extension that caused it
// and logs it at warn level. Pipelines built WithStrictComposition fail the
// request with ErrCompositionConflict instead.
//
// REQUESTS:
//
// A Request carries the request id, read-only parameters and a logger
// tagged with request_id. Extensions validate required parameters with
// RequireParam, which fails with a *ConfigError rather than defaulting.
package pipeline
