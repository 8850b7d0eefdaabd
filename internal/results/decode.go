package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ResultSet is a decoded tabular answer.
type ResultSet struct {
	// Vars are the variable names from head.vars, in response order.
	// Empty when the response carried no head.
	Vars []string

	// Rows are the binding rows in response order.
	Rows []Row
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int { return len(rs.Rows) }

// Binding is one bound value within a row.
type Binding struct {
	Type     string // "uri", "literal", "bnode" or "typed-literal"
	Value    string
	Datatype string
	Lang     string
}

// Row maps variable names to their bound values. Unbound variables are
// absent from the map.
type Row struct {
	bindings map[string]Binding
}

// NewRow builds a row from plain values. Used by callers that assemble
// rows outside Decode, mostly tests.
func NewRow(values map[string]string) Row {
	r := Row{bindings: make(map[string]Binding, len(values))}
	for k, v := range values {
		r.bindings[k] = Binding{Type: "literal", Value: v}
	}
	return r
}

// Lookup returns the binding for name and whether it was bound.
func (r Row) Lookup(name string) (Binding, bool) {
	b, ok := r.bindings[name]
	return b, ok
}

// Value returns the bound value for name as an Optional.
func (r Row) Value(name string) Optional {
	b, ok := r.bindings[name]
	if !ok {
		return Absent()
	}
	return Some(b.Value)
}

// Names returns the bound variable names, sorted.
func (r Row) Names() []string {
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wire shapes. Pointers distinguish missing keys from zero values.
type wireResponse struct {
	Head    *wireHead       `json:"head"`
	Results json.RawMessage `json:"results"`
}

type wireHead struct {
	Vars []string `json:"vars"`
}

type wireResults struct {
	Bindings json.RawMessage `json:"bindings"`
}

type wireBinding struct {
	Type     string  `json:"type"`
	Value    *string `json:"value"`
	Datatype string  `json:"datatype"`
	Lang     string  `json:"xml:lang"`
}

// Decode parses a SPARQL JSON results document.
//
// Zero bindings decode to an empty ResultSet, not an error.
func Decode(raw []byte) (*ResultSet, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &DecodeError{Reason: "empty response body", Row: -1}
	}

	var resp wireResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Row: -1, Err: err}
	}

	if isMissing(resp.Results) {
		return nil, &DecodeError{Reason: `missing "results" object`, Row: -1}
	}
	var results wireResults
	if err := json.Unmarshal(resp.Results, &results); err != nil {
		return nil, &DecodeError{Reason: `"results" is not an object`, Row: -1, Err: err}
	}

	if isMissing(results.Bindings) {
		return nil, &DecodeError{Reason: `missing "results.bindings" array`, Row: -1}
	}
	var rows []map[string]wireBinding
	if err := json.Unmarshal(results.Bindings, &rows); err != nil {
		return nil, &DecodeError{Reason: `"results.bindings" is not an array of objects`, Row: -1, Err: err}
	}

	rs := &ResultSet{Rows: make([]Row, 0, len(rows))}
	if resp.Head != nil {
		rs.Vars = append(rs.Vars, resp.Head.Vars...)
	}

	for i, wire := range rows {
		if wire == nil {
			return nil, &DecodeError{Reason: "row is null", Row: i}
		}
		row := Row{bindings: make(map[string]Binding, len(wire))}
		for name, b := range wire {
			if b.Value == nil {
				return nil, &DecodeError{Reason: fmt.Sprintf("binding %q has no string value", name), Row: i}
			}
			row.bindings[name] = Binding{
				Type:     b.Type,
				Value:    *b.Value,
				Datatype: b.Datatype,
				Lang:     b.Lang,
			}
		}
		rs.Rows = append(rs.Rows, row)
	}

	return rs, nil
}

// isMissing reports whether a raw field was absent or JSON null.
func isMissing(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
