package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/semanteco/internal/ir"
)

// Snapshot captures what a scenario run produced, for golden comparison.
type Snapshot struct {
	ScenarioName string
	RequestID    string
	Trace        []TraceEvent
	Executions   []ExecutionSnapshot
}

// ExecutionSnapshot is the deterministic part of an execution record.
// The query text is represented by its hash.
type ExecutionSnapshot struct {
	Seq       int64
	Extension string
	QueryHash string
	Accept    string
	Outcome   string
	ErrorCode string
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(scenario *Scenario, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: scenario.Name,
		RequestID:    scenario.RequestID,
		Trace:        result.Trace,
		Executions:   make([]ExecutionSnapshot, 0, len(result.Executions)),
	}
	for _, e := range result.Executions {
		s.Executions = append(s.Executions, ExecutionSnapshot{
			Seq:       e.Seq,
			Extension: e.Extension,
			QueryHash: e.QueryHash,
			Accept:    e.Accept,
			Outcome:   e.Outcome,
			ErrorCode: e.ErrorCode,
		})
	}
	return s
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which
// only accepts ir values and plain maps, slices and scalars.
func (s Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		if event.Step != "" {
			m["step"] = event.Step
		}
		if event.Query != "" {
			m["query"] = event.Query
		}
		if event.Response != nil {
			m["response"] = event.Response
		}
		if event.Error != "" {
			m["error"] = event.Error
		}
		trace[i] = m
	}

	executions := make([]any, len(s.Executions))
	for i, e := range s.Executions {
		m := map[string]any{
			"seq":        e.Seq,
			"query_hash": e.QueryHash,
			"accept":     e.Accept,
			"outcome":    e.Outcome,
		}
		if e.Extension != "" {
			m["extension"] = e.Extension
		}
		if e.ErrorCode != "" {
			m["error_code"] = e.ErrorCode
		}
		executions[i] = m
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"executions":    executions,
	}
	if s.RequestID != "" {
		result["request_id"] = s.RequestID
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with the scenario's golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenario, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
