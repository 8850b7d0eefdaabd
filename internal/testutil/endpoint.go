package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// EmptyResults is a SPARQL JSON answer with zero rows.
const EmptyResults = `{"head":{"vars":[]},"results":{"bindings":[]}}`

// RecordedQuery is one request received by a FakeEndpoint.
type RecordedQuery struct {
	Method      string
	Query       string
	Accept      string
	ContentType string
}

// FakeEndpoint is an in-process SPARQL endpoint. It records every query
// and answers with canned responses.
//
// Responses are chosen by the first rule whose substring occurs in the
// query text, falling back to the default response (200 with
// EmptyResults until SetResponse changes it).
type FakeEndpoint struct {
	server *httptest.Server

	mu       sync.Mutex
	queries  []RecordedQuery
	rules    []responseRule
	fallback cannedResponse
}

type cannedResponse struct {
	status int
	body   string
}

type responseRule struct {
	contains string
	resp     cannedResponse
}

// NewFakeEndpoint starts a fake endpoint that is closed when the test ends.
func NewFakeEndpoint(t *testing.T) *FakeEndpoint {
	t.Helper()
	f := StartFakeEndpoint()
	t.Cleanup(f.Close)
	return f
}

// StartFakeEndpoint starts a fake endpoint outside a test. The caller
// must Close it.
func StartFakeEndpoint() *FakeEndpoint {
	f := &FakeEndpoint{
		fallback: cannedResponse{status: http.StatusOK, body: EmptyResults},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// Close shuts the endpoint down.
func (f *FakeEndpoint) Close() {
	f.server.Close()
}

// URL returns the endpoint URL.
func (f *FakeEndpoint) URL() string {
	return f.server.URL + "/sparql"
}

// SetResponse sets the default response.
func (f *FakeEndpoint) SetResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = cannedResponse{status: status, body: body}
}

// RespondTo answers queries containing substr with status and body.
// Rules are checked in the order they were added.
func (f *FakeEndpoint) RespondTo(substr string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, responseRule{contains: substr, resp: cannedResponse{status: status, body: body}})
}

// Queries returns a copy of the recorded queries in arrival order.
func (f *FakeEndpoint) Queries() []RecordedQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedQuery, len(f.queries))
	copy(out, f.queries)
	return out
}

// LastQuery returns the most recent query, or a zero value if none.
func (f *FakeEndpoint) LastQuery() RecordedQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return RecordedQuery{}
	}
	return f.queries[len(f.queries)-1]
}

func (f *FakeEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	rec := RecordedQuery{
		Method:      r.Method,
		Query:       r.FormValue("query"),
		Accept:      r.Header.Get("Accept"),
		ContentType: r.Header.Get("Content-Type"),
	}

	f.mu.Lock()
	f.queries = append(f.queries, rec)
	resp := f.fallback
	for _, rule := range f.rules {
		if strings.Contains(rec.Query, rule.contains) {
			resp = rule.resp
			break
		}
	}
	f.mu.Unlock()

	if rec.Accept != "" {
		w.Header().Set("Content-Type", rec.Accept)
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}
