package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Extensions are registered in this order.
	Extensions []string `yaml:"extensions"`

	// RequestID is the fixed request id. Defaults to
	// "test-request-default".
	RequestID string `yaml:"request_id,omitempty"`

	// Params are the request parameters shared by every step.
	Params map[string]string `yaml:"params,omitempty"`

	// Strict makes composition conflicts fail the compose step.
	Strict bool `yaml:"strict,omitempty"`

	// Responses script the endpoint.
	Responses []CannedResponse `yaml:"responses,omitempty"`

	// Flow is executed in order against one request.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the trace and the execution log.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CannedResponse is one scripted endpoint answer.
type CannedResponse struct {
	// Contains selects queries by substring. Empty sets the default.
	Contains string `yaml:"contains,omitempty"`
	Status   int    `yaml:"status,omitempty"`
	Body     string `yaml:"body"`
}

// FlowStep is one step. Exactly one of Compose, Invoke and Domains is set.
type FlowStep struct {
	// Compose runs the pipeline over a fresh SELECT query.
	Compose bool `yaml:"compose,omitempty"`

	// Invoke names a query method as "extension.method".
	Invoke string `yaml:"invoke,omitempty"`

	// Domains collects the merged domain descriptions.
	Domains bool `yaml:"domains,omitempty"`

	// Expect validates the step outcome. Nil means the step must not fail.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected step outcome.
type ExpectClause struct {
	// Error is the expected error category, e.g. "CONFIG". Empty means
	// the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Success is the expected response success flag (invoke only).
	Success *bool `yaml:"success,omitempty"`

	// Data must equal the response data exactly (invoke and domains).
	Data any `yaml:"data,omitempty"`

	// Contains lists substrings of the composed SPARQL (compose only).
	Contains []string `yaml:"contains,omitempty"`
}

// Assertion validates the run as a whole.
type Assertion struct {
	Type string `yaml:"type"`

	// Text is used by query_contains.
	Text string `yaml:"text,omitempty"`

	// Vars is used by projection.
	Vars []string `yaml:"vars,omitempty"`

	// Count is used by execution_count.
	Count int `yaml:"count,omitempty"`

	// Seq and Outcome are used by execution_outcome.
	Seq     int64  `yaml:"seq,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`
}

// Assertion type constants.
const (
	AssertQueryContains    = "query_contains"
	AssertProjection       = "projection"
	AssertExecutionCount   = "execution_count"
	AssertExecutionOutcome = "execution_outcome"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, r := range s.Responses {
		if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
			return fmt.Errorf("responses[%d]: status %d is not an HTTP status", i, r.Status)
		}
	}

	for i, step := range s.Flow {
		kinds := 0
		if step.Compose {
			kinds++
		}
		if step.Invoke != "" {
			kinds++
			if _, _, ok := splitInvoke(step.Invoke); !ok {
				return fmt.Errorf("flow[%d]: invoke must be extension.method, got %q", i, step.Invoke)
			}
		}
		if step.Domains {
			kinds++
		}
		if kinds != 1 {
			return fmt.Errorf("flow[%d]: exactly one of compose, invoke or domains is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" && (step.Expect.Success != nil || step.Expect.Data != nil) {
			return fmt.Errorf("flow[%d].expect: error excludes success and data", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertQueryContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for query_contains", index)
		}
	case AssertProjection:
		if len(a.Vars) == 0 {
			return fmt.Errorf("assertions[%d]: vars list is required for projection", index)
		}
	case AssertExecutionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for execution_count", index)
		}
	case AssertExecutionOutcome:
		if a.Seq <= 0 || a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: seq and outcome are required for execution_outcome", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// splitInvoke splits "extension.method".
func splitInvoke(s string) (extension, method string, ok bool) {
	extension, method, ok = strings.Cut(s, ".")
	return extension, method, ok && extension != "" && method != ""
}
