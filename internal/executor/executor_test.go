package executor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/store"
	"github.com/roach88/semanteco/internal/testutil"
)

func sourceQuery(t *testing.T) *queryir.Select {
	t.Helper()
	q := queryir.NewSelect()
	q.SetNamespace("dc", queryir.DCNS)
	source := q.CreateVariable(queryir.VarNS + "source")
	require.NoError(t, q.Where().AddPattern(q.CreateBlankNode(), q.GetResource(queryir.DCNS+"source"), source))
	q.AddVariable(source)
	return q
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []store.Execution
	err     error
}

func (r *fakeRecorder) RecordExecution(_ context.Context, e store.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, e)
	return r.err
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		opts     []Option
	}{
		{"bad scheme", "ftp://example.org/sparql", nil},
		{"no host", "http:///sparql", nil},
		{"unparsable", "http://[::1", nil},
		{"unsupported method", "http://example.org/sparql", []Option{WithMethod(http.MethodPut)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.endpoint, tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestExecute_PostForm(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	endpoint.SetResponse(http.StatusOK, `{"results":{"bindings":[{"source":{"value":"http://x/source/epa-gov"}}]}}`)

	c, err := New(endpoint.URL())
	require.NoError(t, err)

	body, err := c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	require.NoError(t, err)
	assert.Contains(t, string(body), "epa-gov")

	q := endpoint.LastQuery()
	assert.Equal(t, http.MethodPost, q.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", q.ContentType)
	assert.Equal(t, MediaSPARQLResultsJSON, q.Accept)
	assert.Contains(t, q.Query, "SELECT ?source")
	assert.Contains(t, q.Query, "_:b0 dc:source ?source .")
}

func TestExecute_Get(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)

	c, err := New(endpoint.URL(), WithMethod(http.MethodGet))
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), sourceQuery(t), MediaJSON)
	require.NoError(t, err)

	q := endpoint.LastQuery()
	assert.Equal(t, http.MethodGet, q.Method)
	assert.Contains(t, q.Query, "SELECT ?source")
	assert.Equal(t, MediaJSON, q.Accept)
}

func TestExecute_StatusError(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	endpoint.SetResponse(http.StatusBadRequest, "Parse error: line 1")

	c, err := New(endpoint.URL())
	require.NoError(t, err)

	body, err := c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	require.Error(t, err)
	assert.Nil(t, body)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeStatus, ee.Code)
	assert.Equal(t, http.StatusBadRequest, ee.StatusCode)
	assert.Equal(t, "Parse error: line 1", ee.Body)
	assert.Contains(t, err.Error(), "400")
}

func TestExecute_EmptyResponse(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	endpoint.SetResponse(http.StatusOK, "  \n")

	c, err := New(endpoint.URL())
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	assert.Equal(t, ErrCodeEmptyResponse, ErrorCodeOf(err))
}

func TestExecute_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	assert.True(t, IsExecutionError(err))
	assert.Equal(t, ErrCodeUnreachable, ErrorCodeOf(err))
}

func TestExecute_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	assert.Equal(t, ErrCodeUnreachable, ErrorCodeOf(err))
}

func TestExecute_ContextCancelled(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	c, err := New(endpoint.URL())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Execute(ctx, sourceQuery(t), MediaSPARQLResultsJSON)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, endpoint.Queries())
}

func TestExecute_CompileErrorNeverSent(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	c, err := New(endpoint.URL())
	require.NoError(t, err)

	q := queryir.NewConstruct()
	require.NoError(t, q.Template().AddComponent(q.CreateOptional()))

	_, err = c.Execute(context.Background(), q, MediaTurtle)
	require.Error(t, err)
	assert.False(t, IsExecutionError(err))
	assert.Empty(t, endpoint.Queries())
}

func TestExecute_Metrics(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	c, err := New(endpoint.URL(), WithMetrics(m))
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	require.NoError(t, err)

	endpoint.SetResponse(http.StatusBadGateway, "")
	_, err = c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	require.Error(t, err)

	assert.Equal(t, float64(1), promtest.ToFloat64(m.queriesTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.queriesTotal.WithLabelValues(OutcomeStatus)))
	assert.Equal(t, 1, promtest.CollectAndCount(m.queryDuration))

	count, err := promtest.GatherAndCount(reg, "semanteco_sparql_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExecute_RecordsOrigin(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	rec := &fakeRecorder{}

	c, err := New(endpoint.URL(), WithRecorder(rec))
	require.NoError(t, err)

	var seq int64
	ctx := WithOrigin(context.Background(), Origin{
		RequestID: "req-1",
		Extension: "water",
		Seq:       func() int64 { seq++; return seq },
	})

	_, err = c.Execute(ctx, sourceQuery(t), MediaSPARQLResultsJSON)
	require.NoError(t, err)

	endpoint.SetResponse(http.StatusServiceUnavailable, "down")
	_, err = c.Execute(ctx, sourceQuery(t), MediaSPARQLResultsJSON)
	require.Error(t, err)

	require.Len(t, rec.records, 2)
	assert.Equal(t, "req-1", rec.records[0].RequestID)
	assert.Equal(t, "water", rec.records[0].Extension)
	assert.Equal(t, int64(1), rec.records[0].Seq)
	assert.Equal(t, OutcomeOK, rec.records[0].Outcome)
	assert.Equal(t, int64(len(testutil.EmptyResults)), rec.records[0].ResponseBytes)
	assert.Contains(t, rec.records[0].QueryText, "SELECT ?source")

	assert.Equal(t, int64(2), rec.records[1].Seq)
	assert.Equal(t, OutcomeStatus, rec.records[1].Outcome)
	assert.Equal(t, string(ErrCodeStatus), rec.records[1].ErrorCode)
}

func TestExecute_RecorderFailureIgnored(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	rec := &fakeRecorder{err: errors.New("disk full")}

	c, err := New(endpoint.URL(), WithRecorder(rec))
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), sourceQuery(t), MediaSPARQLResultsJSON)
	assert.NoError(t, err)
	assert.Len(t, rec.records, 1)
}

func TestExecute_StoreRecorder(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	endpoint := testutil.NewFakeEndpoint(t)
	c, err := New(endpoint.URL(), WithRecorder(s))
	require.NoError(t, err)

	ctx := WithOrigin(context.Background(), Origin{RequestID: "req-9", Extension: "air"})
	_, err = c.Execute(ctx, sourceQuery(t), MediaSPARQLResultsJSON)
	require.NoError(t, err)

	got, err := s.ReadExecutions(context.Background(), "req-9")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "air", got[0].Extension)
	assert.Equal(t, endpoint.LastQuery().Query, got[0].QueryText)
}

func TestExecute_RepeatedQueryRecordedEachTime(t *testing.T) {
	tests := []struct {
		name      string
		ctx       func() context.Context
		requestID func(c *Client) string
	}{
		{
			name:      "no origin",
			ctx:       context.Background,
			requestID: func(c *Client) string { return c.SessionID() },
		},
		{
			name: "origin without sequence",
			ctx: func() context.Context {
				return WithOrigin(context.Background(), Origin{RequestID: "req-9", Extension: "air"})
			},
			requestID: func(*Client) string { return "req-9" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := store.Open(filepath.Join(t.TempDir(), "log.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })

			endpoint := testutil.NewFakeEndpoint(t)
			c, err := New(endpoint.URL(), WithRecorder(s))
			require.NoError(t, err)

			for i := 0; i < 2; i++ {
				_, err = c.Execute(tt.ctx(), sourceQuery(t), MediaSPARQLResultsJSON)
				require.NoError(t, err)
			}

			got, err := s.ReadExecutions(context.Background(), tt.requestID(c))
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, int64(1), got[0].Seq)
			assert.Equal(t, int64(2), got[1].Seq)
			assert.Equal(t, got[0].QueryHash, got[1].QueryHash)
			assert.NotEqual(t, got[0].ID, got[1].ID)
		})
	}
}

func TestClient_SessionIDUnique(t *testing.T) {
	a, err := New("http://localhost:3030/sparql")
	require.NoError(t, err)
	b, err := New("http://localhost:3030/sparql")
	require.NoError(t, err)

	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestExecute_ConcurrentUse(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	c, err := New(endpoint.URL())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := queryir.NewSelect()
			s := q.GetVariable(queryir.VarNS + "s")
			if err := q.Where().AddPattern(s, q.GetResource("http://example.org/p"), queryir.Int(1)); err != nil {
				t.Error(err)
				return
			}
			if _, err := c.Execute(context.Background(), q, MediaSPARQLResultsJSON); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, endpoint.Queries(), 10)
}
