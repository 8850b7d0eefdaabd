package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		label := event.Type
		if event.Step != "" {
			label += " " + event.Step
		}
		if event.Error != "" {
			label += " error=" + event.Error
		}
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, label)
	}

	return buf.String()
}

// EvaluateAssertions checks all assertions and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertQueryContains:
		return assertQueryContains(result, a)
	case AssertProjection:
		return assertProjection(result, a)
	case AssertExecutionCount:
		return assertExecutionCount(result, a)
	case AssertExecutionOutcome:
		return assertExecutionOutcome(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertQueryContains checks that some composed query contains the text.
func assertQueryContains(result *Result, a Assertion) error {
	for _, event := range result.Trace {
		if event.Type == EventCompose && strings.Contains(event.Query, a.Text) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertQueryContains,
		Expected: fmt.Sprintf("a composed query containing %q", a.Text),
		Actual:   "not found",
		Trace:    result.Trace,
	}
}

// assertProjection checks the projection of the last composed query.
func assertProjection(result *Result, a Assertion) error {
	if slices.Equal(result.lastProjection, a.Vars) {
		return nil
	}
	return &AssertionError{
		Type:     AssertProjection,
		Expected: fmt.Sprintf("%v", a.Vars),
		Actual:   fmt.Sprintf("%v", result.lastProjection),
		Trace:    result.Trace,
	}
}

// assertExecutionCount checks the number of logged executions.
func assertExecutionCount(result *Result, a Assertion) error {
	if len(result.Executions) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertExecutionCount,
		Expected: fmt.Sprintf("%d executions", a.Count),
		Actual:   fmt.Sprintf("%d executions", len(result.Executions)),
		Trace:    result.Trace,
	}
}

// assertExecutionOutcome checks the outcome of the execution with seq.
func assertExecutionOutcome(result *Result, a Assertion) error {
	for _, e := range result.Executions {
		if e.Seq != a.Seq {
			continue
		}
		if e.Outcome == a.Outcome {
			return nil
		}
		return &AssertionError{
			Type:     AssertExecutionOutcome,
			Expected: fmt.Sprintf("execution %d outcome %s", a.Seq, a.Outcome),
			Actual:   fmt.Sprintf("outcome %s (extension %s)", e.Outcome, e.Extension),
			Trace:    result.Trace,
		}
	}
	return &AssertionError{
		Type:     AssertExecutionOutcome,
		Expected: fmt.Sprintf("execution %d outcome %s", a.Seq, a.Outcome),
		Actual:   "no execution with that seq",
		Trace:    result.Trace,
	}
}
