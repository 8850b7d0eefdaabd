// Package results decodes tabular SPARQL JSON answers into typed rows.
//
// DECODING
//
// Decode accepts the standard SPARQL 1.1 JSON results shape:
//
//	{"head": {"vars": [...]}, "results": {"bindings": [{"v": {"type": "uri", "value": "..."}}]}}
//
// The "results" object and its "bindings" array are required. Anything else
// (malformed JSON, a missing key, a binding without a string "value") is a
// single *DecodeError. Decode never returns a partially filled result.
//
// OPTIONAL BINDINGS
//
// A variable that an OPTIONAL pattern left unbound is simply missing from
// its row. Row.Value returns an Optional that reports Present() == false for
// such variables instead of an empty string.
//
// OUTPUT ENVELOPE
//
// Query methods report to callers through Response, which marshals as
// {"success": true, "data": [...]}. Failure() marshals as exactly
// {"success": false}.
package results
