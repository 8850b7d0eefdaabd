// Package harness runs end-to-end scenarios against the extension pipeline.
//
// A scenario registers extensions, scripts the answers of an in-process
// SPARQL endpoint, runs a flow of compose, invoke and domains steps, and
// asserts on the composed queries and the execution log.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: colorado_air
//	description: "Air measurements for one county"
//	extensions: [sites, water, air]
//	request_id: test-request-co
//	params: { state: CO, county: "001", stateCode: "08" }
//	responses:
//	  - contains: "dc:source"
//	    body: '{"results":{"bindings":[]}}'
//	flow:
//	  - compose: true
//	    expect:
//	      contains: ["AS ?isWater)"]
//	  - invoke: air.queryForMeasurements
//	    expect:
//	      success: true
//	assertions:
//	  - type: projection
//	    vars: [site, isWater, isAir]
//	  - type: execution_count
//	    count: 1
//
// A response without contains is the default answer. Status defaults
// to 200.
//
// # Assertion Types
//
//   - query_contains: a composed query contains the text
//   - projection: the last composed query projects exactly vars, in order
//   - execution_count: the execution log holds exactly count entries
//   - execution_outcome: the execution with seq has the given outcome
//
// # Deterministic Testing
//
// Every run uses a fixed request id, an in-memory SQLite execution log and
// a fresh endpoint, so the same scenario always produces the same trace.
// RunWithGolden compares that trace, rendered as canonical JSON, with
// testdata/golden/{name}.golden.
package harness
