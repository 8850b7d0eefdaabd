package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semanteco/internal/store"
)

func sampleResult() *Result {
	r := NewResult()
	r.AddEvent(TraceEvent{Type: EventCompose, Seq: 1, Query: "SELECT ?site\nWHERE {\n  ?site a pol:MeasurementSite .\n}\n"})
	r.AddEvent(TraceEvent{Type: EventInvoke, Step: "sites.siteCounts", Seq: 2, Error: "STATUS"})
	r.lastProjection = []string{"site", "isWater"}
	r.Executions = []store.Execution{
		{Seq: 1, Extension: "sites", Outcome: "status", ErrorCode: "STATUS"},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	msgs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertQueryContains, Text: "pol:MeasurementSite"},
		{Type: AssertProjection, Vars: []string{"site", "isWater"}},
		{Type: AssertExecutionCount, Count: 1},
		{Type: AssertExecutionOutcome, Seq: 1, Outcome: "status"},
	})
	assert.Empty(t, msgs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"query text", Assertion{Type: AssertQueryContains, Text: "air:AirSite"}, `containing "air:AirSite"`},
		{"projection order", Assertion{Type: AssertProjection, Vars: []string{"isWater", "site"}}, "[isWater site]"},
		{"execution count", Assertion{Type: AssertExecutionCount, Count: 2}, "Actual: 1 executions"},
		{"outcome", Assertion{Type: AssertExecutionOutcome, Seq: 1, Outcome: "ok"}, "outcome status (extension sites)"},
		{"missing seq", Assertion{Type: AssertExecutionOutcome, Seq: 4, Outcome: "ok"}, "no execution with that seq"},
		{"unknown type", Assertion{Type: "trace_order"}, `unknown assertion type "trace_order"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, msgs, 1)
			assert.Contains(t, msgs[0], "assertions[0]")
			assert.Contains(t, msgs[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_InvokeQueriesIgnored(t *testing.T) {
	r := NewResult()
	r.AddEvent(TraceEvent{Type: EventInvoke, Step: "sites.siteCounts", Query: "COUNT"})

	msgs := EvaluateAssertions(r, []Assertion{{Type: AssertQueryContains, Text: "COUNT"}})
	assert.Len(t, msgs, 1, "only composed queries are searched")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertExecutionCount,
		Expected: "2 executions",
		Actual:   "1 executions",
		Trace:    sampleResult().Trace,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: execution_count")
	assert.Contains(t, msg, "Expected: 2 executions")
	assert.Contains(t, msg, "[1] compose")
	assert.Contains(t, msg, "[2] invoke sites.siteCounts error=STATUS")
}
