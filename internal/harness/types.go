package harness

import "github.com/roach88/semanteco/internal/store"

// Trace event types.
const (
	EventCompose = "compose"
	EventInvoke  = "invoke"
	EventDomains = "domains"
)

// TraceEvent is one flow step as observed by the harness.
type TraceEvent struct {
	Type  string `json:"type"`
	Step  string `json:"step,omitempty"`
	Query string `json:"query,omitempty"`

	// Response is the step output as decoded JSON (an ir.Value).
	Response any `json:"response,omitempty"`

	// Error is the error category when the step failed.
	Error string `json:"error,omitempty"`

	Seq int64 `json:"seq"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Executions is the execution log of the run's request.
	Executions []store.Execution `json:"executions"`

	// Errors holds failure messages. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// lastProjection holds the projected variable names of the most
	// recently composed query.
	lastProjection []string
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Trace:      []TraceEvent{},
		Executions: []store.Execution{},
		Errors:     []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends a trace event.
func (r *Result) AddEvent(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
