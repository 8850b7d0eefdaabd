package results

import (
	"encoding/json"
	"reflect"
)

// Response is the output envelope returned by query methods.
type Response struct {
	Success bool
	Data    any
}

// OK returns a successful response carrying data.
func OK(data any) *Response {
	return &Response{Success: true, Data: data}
}

// Failure returns the failure response. It marshals as exactly
// {"success":false}.
func Failure() *Response {
	return &Response{Success: false}
}

// MarshalJSON renders {"success":true,"data":[...]} or {"success":false}.
// A successful response with nil data renders "data":[].
func (r *Response) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return []byte(`{"success":false}`), nil
	}

	data := r.Data
	if isNilData(data) {
		data = []any{}
	}
	return json.Marshal(struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{true, data})
}

func isNilData(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}
