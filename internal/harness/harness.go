package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/roach88/semanteco/internal/config"
	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/ir"
	"github.com/roach88/semanteco/internal/pipeline"
	"github.com/roach88/semanteco/internal/querysparql"
	"github.com/roach88/semanteco/internal/store"
	"github.com/roach88/semanteco/internal/testutil"
)

// Error categories reported in traces and matched by expect.error.
const (
	ErrorConfig      = "CONFIG"
	ErrorConflict    = "COMPOSITION_CONFLICT"
	ErrorUnspecified = "ERROR"
)

// Harness executes one scenario.
type Harness struct {
	pipeline *pipeline.Pipeline
	store    *store.Store
	clock    *pipeline.Clock
	logger   *slog.Logger
}

// Run executes a scenario with the built-in extensions.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithRegistry(scenario, config.DefaultRegistry())
}

// RunWithRegistry executes a scenario, building its extensions from
// registry.
//
// Each run gets a fresh in-memory execution log and a fresh endpoint.
// A non-nil error means the scenario could not be set up; step and
// assertion failures are reported in the Result.
func RunWithRegistry(scenario *Scenario, registry *config.Registry) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	endpoint := testutil.StartFakeEndpoint()
	defer endpoint.Close()
	for _, r := range scenario.Responses {
		status := r.Status
		if status == 0 {
			status = http.StatusOK
		}
		if r.Contains == "" {
			endpoint.SetResponse(status, r.Body)
		} else {
			endpoint.RespondTo(r.Contains, status, r.Body)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := executor.New(endpoint.URL(),
		executor.WithRecorder(st),
		executor.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	exts, err := registry.Build(scenario.Extensions, config.Deps{Executor: client})
	if err != nil {
		return nil, fmt.Errorf("failed to build extensions: %w", err)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithRequestIDGenerator(testutil.NewFixedRequestIDGenerator(scenario.RequestID)),
	}
	if scenario.Strict {
		opts = append(opts, pipeline.WithStrictComposition())
	}
	p, err := pipeline.New(exts, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	h := &Harness{
		pipeline: p,
		store:    st,
		clock:    pipeline.NewClock(),
		logger:   logger,
	}

	ctx := context.Background()
	req := p.NewRequest(scenario.Params)
	result := NewResult()

	if err := h.executeFlow(ctx, req, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	executions, err := st.ReadExecutions(ctx, req.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to read executions: %w", err)
	}
	result.Executions = append(result.Executions, executions...)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeFlow runs every step against one request. Step failures are
// recorded in result; a returned error means the harness itself failed.
func (h *Harness) executeFlow(ctx context.Context, req *pipeline.Request, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		var (
			event   TraceEvent
			stepErr error
			err     error
		)

		switch {
		case step.Compose:
			event, stepErr, err = h.compose(ctx, req, result)
		case step.Invoke != "":
			event, stepErr, err = h.invoke(ctx, req, step.Invoke)
		case step.Domains:
			event, stepErr, err = h.domains(ctx, req)
		}
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		event.Seq = h.clock.Next()
		if stepErr != nil {
			event.Error = errorCategory(stepErr)
		}
		result.AddEvent(event)

		for _, msg := range checkExpect(step.Expect, event, stepErr) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, describeStep(step), msg))
		}

		h.logger.Info("flow step completed",
			"step", i,
			"type", event.Type,
			"error", event.Error,
		)
	}
	return nil
}

func (h *Harness) compose(ctx context.Context, req *pipeline.Request, result *Result) (event TraceEvent, stepErr, err error) {
	event = TraceEvent{Type: EventCompose}

	q, stepErr := h.pipeline.Compose(ctx, req)
	if stepErr != nil {
		return event, stepErr, nil
	}

	text, err := querysparql.Compile(q)
	if err != nil {
		return event, err, nil
	}
	event.Query = text

	result.lastProjection = result.lastProjection[:0]
	for _, v := range q.Variables() {
		result.lastProjection = append(result.lastProjection, v.Name())
	}
	return event, nil, nil
}

func (h *Harness) invoke(ctx context.Context, req *pipeline.Request, target string) (event TraceEvent, stepErr, err error) {
	event = TraceEvent{Type: EventInvoke, Step: target}
	extension, method, _ := splitInvoke(target)

	resp, stepErr := h.pipeline.Invoke(ctx, extension, method, req)
	if stepErr != nil {
		return event, stepErr, nil
	}

	v, err := toValue(resp)
	if err != nil {
		return event, nil, fmt.Errorf("convert response: %w", err)
	}
	event.Response = v
	return event, nil, nil
}

func (h *Harness) domains(ctx context.Context, req *pipeline.Request) (event TraceEvent, stepErr, err error) {
	event = TraceEvent{Type: EventDomains}

	ds, stepErr := h.pipeline.Domains(ctx, req)
	if stepErr != nil {
		return event, stepErr, nil
	}

	v, err := toValue(ds)
	if err != nil {
		return event, nil, fmt.Errorf("convert domains: %w", err)
	}
	event.Response = v
	return event, nil, nil
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(expect *ExpectClause, event TraceEvent, stepErr error) []string {
	if expect == nil {
		if stepErr != nil {
			return []string{fmt.Sprintf("unexpected error: %v", stepErr)}
		}
		return nil
	}

	if expect.Error != "" {
		if stepErr == nil {
			return []string{fmt.Sprintf("expected error %s, step succeeded", expect.Error)}
		}
		if event.Error != expect.Error {
			return []string{fmt.Sprintf("expected error %s, got %s (%v)", expect.Error, event.Error, stepErr)}
		}
		return nil
	}
	if stepErr != nil {
		return []string{fmt.Sprintf("unexpected error: %v", stepErr)}
	}

	var msgs []string
	for _, want := range expect.Contains {
		if !strings.Contains(event.Query, want) {
			msgs = append(msgs, fmt.Sprintf("query does not contain %q", want))
		}
	}

	response, _ := event.Response.(ir.Object)
	if expect.Success != nil {
		got, _ := response["success"].(ir.Bool)
		if bool(got) != *expect.Success {
			msgs = append(msgs, fmt.Sprintf("expected success=%t, got %t", *expect.Success, bool(got)))
		}
	}

	if expect.Data != nil {
		var actual ir.Value = response["data"]
		if event.Type == EventDomains {
			actual, _ = event.Response.(ir.Value)
		}
		if msg := compareData(expect.Data, actual); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// compareData compares expected YAML data with an actual value through
// their canonical JSON forms.
func compareData(expected any, actual ir.Value) string {
	want, err := ir.MarshalCanonical(expected)
	if err != nil {
		return fmt.Sprintf("expected data is not representable: %v", err)
	}
	if actual == nil {
		return fmt.Sprintf("expected data %s, response has none", want)
	}
	got, err := ir.MarshalCanonical(actual)
	if err != nil {
		return fmt.Sprintf("response data is not representable: %v", err)
	}
	if string(want) != string(got) {
		return fmt.Sprintf("data mismatch:\n  expected: %s\n  actual:   %s", want, got)
	}
	return ""
}

// toValue converts any JSON-marshalable value to an ir.Value.
func toValue(v any) (ir.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return ir.Parse(data)
}

// errorCategory maps a step error to the category used in traces.
func errorCategory(err error) string {
	switch {
	case pipeline.IsConfigError(err):
		return ErrorConfig
	case errors.Is(err, pipeline.ErrCompositionConflict):
		return ErrorConflict
	case executor.IsExecutionError(err):
		return string(executor.ErrorCodeOf(err))
	default:
		return ErrorUnspecified
	}
}

func describeStep(step FlowStep) string {
	switch {
	case step.Compose:
		return EventCompose
	case step.Domains:
		return EventDomains
	default:
		return step.Invoke
	}
}
