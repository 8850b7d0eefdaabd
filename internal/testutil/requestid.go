// Package testutil provides deterministic request ids and a fake SPARQL
// endpoint for tests.
package testutil

// FixedRequestIDGenerator returns the same request id every time, so a
// scenario run twice produces identical execution logs and log output.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedRequestIDGenerator struct {
	id string
}

// NewFixedRequestIDGenerator creates a generator for id. An empty id
// becomes "test-request-default".
func NewFixedRequestIDGenerator(id string) *FixedRequestIDGenerator {
	if id == "" {
		id = "test-request-default"
	}
	return &FixedRequestIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements pipeline.RequestIDGenerator.
func (g *FixedRequestIDGenerator) Generate() string {
	return g.id
}
