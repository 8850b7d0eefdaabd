package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semanteco/internal/config"
	"github.com/roach88/semanteco/internal/ir"
	"github.com/roach88/semanteco/internal/pipeline"
	"github.com/roach88/semanteco/internal/queryir"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"sites_compose", "colorado_air", "missing_county", "site_counts"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadScenario(t, name))
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_ColoradoAirTrace(t *testing.T) {
	result, err := Run(loadScenario(t, "colorado_air"))
	require.NoError(t, err)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, EventCompose, result.Trace[0].Type)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, EventInvoke, result.Trace[1].Type)
	assert.Equal(t, "air.queryForMeasurements", result.Trace[1].Step)
	assert.Equal(t, int64(2), result.Trace[1].Seq)

	require.Len(t, result.Executions, 1)
	exec := result.Executions[0]
	assert.Equal(t, "test-request-co", exec.RequestID)
	assert.Equal(t, "air", exec.Extension)
	assert.Equal(t, "text/turtle", exec.Accept)
	assert.Contains(t, exec.QueryText, `pol:hasCounty "001"`)
	assert.Contains(t, exec.QueryText, `pol:hasState "08"`)
}

func TestRun_SiteCountsOutcomes(t *testing.T) {
	result, err := Run(loadScenario(t, "site_counts"))
	require.NoError(t, err)

	require.Len(t, result.Executions, 3)
	assert.Equal(t, "sites", result.Executions[0].Extension)
	assert.Equal(t, "water", result.Executions[1].Extension)
	assert.Equal(t, "STATUS", result.Executions[1].ErrorCode)
	assert.Equal(t, "water", result.Executions[2].Extension, "domains attributes executions to the provider")
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	success := false
	scenario := &Scenario{
		Name:        "wrong_expectation",
		Description: "Expects failure from a working endpoint",
		Extensions:  []string{"sites"},
		Responses: []CannedResponse{{
			Body: `{"head":{"vars":["sites","facilities"]},"results":{"bindings":[{"sites":{"type":"literal","value":"1"},"facilities":{"type":"literal","value":"0"}}]}}`,
		}},
		Flow: []FlowStep{{
			Invoke: "sites.siteCounts",
			Expect: &ExpectClause{Success: &success},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[0] sites.siteCounts")
	assert.Contains(t, result.Errors[0], "expected success=false, got true")
}

func TestRun_UnexpectedStepError(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_params",
		Description: "Invoke without required params",
		Extensions:  []string{"air"},
		Flow:        []FlowStep{{Invoke: "air.queryForMeasurements"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, ErrorConfig, result.Trace[0].Error)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_error",
		Description: "Compose succeeds although an error is expected",
		Extensions:  []string{"sites"},
		Flow:        []FlowStep{{Compose: true, Expect: &ExpectClause{Error: ErrorConfig}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error CONFIG, step succeeded")
}

func TestRun_DataMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "data_mismatch",
		Description: "Empty data source listing compared with one source",
		Extensions:  []string{"water"},
		Flow: []FlowStep{{
			Invoke: "water.queryForDataSources",
			Expect: &ExpectClause{Data: []any{map[string]any{"uri": "http://x/epa-gov", "label": "epa.gov"}}},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "data mismatch")
}

func TestRun_UnknownExtension(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown",
		Description: "Unregistered extension",
		Extensions:  []string{"soil"},
		Flow:        []FlowStep{{Compose: true}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build extensions")
}

// conflictExtension binds the pol prefix to a different namespace.
type conflictExtension struct{}

func (conflictExtension) Name() string { return "conflict" }

func (conflictExtension) VisitQuery(_ context.Context, q queryir.Query, _ *pipeline.Request) error {
	q.SetNamespace("pol", "http://example.org/other#")
	return nil
}

func TestRunWithRegistry_StrictConflict(t *testing.T) {
	registry := config.DefaultRegistry()
	registry.MustRegister("conflict", func(config.Deps) (pipeline.Extension, error) {
		return conflictExtension{}, nil
	})

	scenario := &Scenario{
		Name:        "strict_conflict",
		Description: "A later extension rebinds a prefix",
		Extensions:  []string{"sites", "conflict"},
		Strict:      true,
		Flow: []FlowStep{{
			Compose: true,
			Expect:  &ExpectClause{Error: ErrorConflict},
		}},
	}

	result, err := RunWithRegistry(scenario, registry)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, ErrorConflict, result.Trace[0].Error)

	scenario.Strict = false
	scenario.Flow[0].Expect = &ExpectClause{Contains: []string{"PREFIX pol: <http://example.org/other#>"}}

	result, err = RunWithRegistry(scenario, registry)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadScenario(t, "site_counts")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := NewSnapshot(scenario, first).MarshalCanonical()
	require.NoError(t, err)
	b, err := NewSnapshot(scenario, second).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func mustValue(t *testing.T, s string) ir.Value {
	t.Helper()
	v, err := ir.Parse([]byte(s))
	require.NoError(t, err)
	return v
}
