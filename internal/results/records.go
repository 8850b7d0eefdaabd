package results

import (
	"fmt"
	"strconv"
	"strings"
)

// Variable names used by the source listing use case.
const (
	SourceVar = "source"
	LabelVar  = "label"
)

// SourceRecord is one data source entry.
type SourceRecord struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// CountRecord is one aggregate count entry.
type CountRecord struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// DeriveLabel builds a display label from the last path segment of uri,
// replacing hyphens with periods:
//
//	DeriveLabel("http://x/source/epa-gov") == "epa.gov"
//
// A uri without '/' is used whole.
func DeriveLabel(uri string) string {
	segment := uri[strings.LastIndex(uri, "/")+1:]
	return strings.ReplaceAll(segment, "-", ".")
}

// SourceRecords converts rows binding ?source and optionally ?label.
//
// The source binding is required; a row without it fails the whole
// conversion. A missing label falls back to DeriveLabel(source).
func SourceRecords(rs *ResultSet) ([]SourceRecord, error) {
	records := make([]SourceRecord, 0, rs.Len())
	for i, row := range rs.Rows {
		source, ok := row.Value(SourceVar).Get()
		if !ok {
			return nil, &DecodeError{Reason: fmt.Sprintf("required variable %q is unbound", SourceVar), Row: i}
		}
		records = append(records, SourceRecord{
			URI:   source,
			Label: row.Value(LabelVar).OrElse(DeriveLabel(source)),
		})
	}
	return records, nil
}

// Int extracts an integer binding, as produced by COUNT projections.
func Int(row Row, name string) (int64, error) {
	v, ok := row.Value(name).Get()
	if !ok {
		return 0, &DecodeError{Reason: fmt.Sprintf("required variable %q is unbound", name), Row: -1}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, &DecodeError{Reason: fmt.Sprintf("variable %q is not an integer", name), Row: -1, Err: err}
	}
	return n, nil
}
