// Package executor sends composed queries to a remote SPARQL endpoint.
//
// The Client serializes a query, submits it over HTTP as the
// application/x-www-form-urlencoded "query" parameter (POST by default,
// GET on request), negotiates the response media type with an Accept
// header, and returns the raw body. It does not retry. Every failure is an
// *ExecutionError carrying one of the UNREACHABLE, STATUS or
// EMPTY_RESPONSE codes.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/querysparql"
	"github.com/roach88/semanteco/internal/store"
)

// Response media types.
const (
	MediaSPARQLResultsJSON = "application/sparql-results+json"
	MediaJSON              = "application/json"
	MediaTurtle            = "text/turtle"
)

// maxErrorBodySize bounds how much of a non-success body is kept.
const maxErrorBodySize = 512

// Executor runs a composed query and returns the raw response body.
// Implemented by *Client; tests substitute fakes.
type Executor interface {
	Execute(ctx context.Context, q queryir.Query, accept string) ([]byte, error)
}

// Recorder receives one record per execution. Implemented by *store.Store.
type Recorder interface {
	RecordExecution(ctx context.Context, e store.Execution) error
}

// Client is an HTTP SPARQL protocol client.
// Configuration is immutable after New; the client is safe for concurrent
// use.
type Client struct {
	endpoint   string
	method     string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *Metrics
	recorder   Recorder
	logger     *slog.Logger

	// session attributes executions that carry no request id.
	session string
	// seq numbers executions whose origin supplies no sequence.
	seq atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithMethod selects http.MethodPost (default) or http.MethodGet.
func WithMethod(method string) Option {
	return func(c *Client) {
		c.method = method
	}
}

// WithTimeout bounds each round trip, including reading the body.
// Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRecorder enables the execution log.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the endpoint URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	c := &Client{
		endpoint: endpoint,
		method:   http.MethodPost,
		session:  "session-" + uuid.Must(uuid.NewV7()).String(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.method != http.MethodPost && c.method != http.MethodGet {
		return nil, fmt.Errorf("unsupported method %q: use POST or GET", c.method)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	switch {
	case c.httpClient == nil:
		c.httpClient = &http.Client{Timeout: c.timeout}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c, nil
}

// Endpoint returns the endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// SessionID is the request id recorded for executions whose context
// carries no origin request id. It is unique per Client.
func (c *Client) SessionID() string { return c.session }

// Execute compiles q, sends it, and returns the response body.
//
// Compile failures are returned wrapped and never reach the network.
// Transport failures, non-2xx statuses and empty bodies return an
// *ExecutionError. Cancelling ctx aborts the round trip.
func (c *Client) Execute(ctx context.Context, q queryir.Query, accept string) ([]byte, error) {
	start := time.Now()

	text, err := querysparql.Compile(q)
	if err != nil {
		c.metrics.observe(OutcomeCompileError, 0)
		return nil, fmt.Errorf("compile query: %w", err)
	}

	body, err := c.roundTrip(ctx, text, accept)
	outcome := outcomeOf(err)
	c.metrics.observe(outcome, time.Since(start))
	c.record(ctx, text, accept, outcome, err, len(body))

	if err != nil {
		c.logger.Debug("sparql query failed",
			"endpoint", c.endpoint,
			"outcome", outcome,
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("sparql query completed",
		"endpoint", c.endpoint,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, text, accept string) ([]byte, error) {
	req, err := c.newRequest(ctx, text)
	if err != nil {
		return nil, &ExecutionError{Code: ErrCodeUnreachable, Endpoint: c.endpoint, Err: err}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExecutionError{Code: ErrCodeUnreachable, Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &ExecutionError{
			Code:       ErrCodeStatus,
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExecutionError{Code: ErrCodeUnreachable, Endpoint: c.endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ExecutionError{Code: ErrCodeEmptyResponse, Endpoint: c.endpoint}
	}

	return body, nil
}

func (c *Client) newRequest(ctx context.Context, text string) (*http.Request, error) {
	form := url.Values{"query": {text}}

	if c.method == http.MethodGet {
		u, err := url.Parse(c.endpoint)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("query", text)
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// record writes the execution log entry. Recording failures are logged and
// never change the outcome of the query.
//
// Log ids are derived from (request id, seq, query hash), so every entry
// needs a distinct pair of request id and seq. Without an origin request
// id the client's session id is used, and without an origin sequence the
// client numbers executions itself.
func (c *Client) record(ctx context.Context, text, accept, outcome string, execErr error, size int) {
	if c.recorder == nil {
		return
	}

	e := store.Execution{
		QueryText:     text,
		Accept:        accept,
		Outcome:       outcome,
		ErrorCode:     string(ErrorCodeOf(execErr)),
		ResponseBytes: int64(size),
	}
	origin, _ := OriginFrom(ctx)
	e.RequestID = origin.RequestID
	e.Extension = origin.Extension
	if e.RequestID == "" {
		e.RequestID = c.session
	}
	if origin.Seq != nil {
		e.Seq = origin.Seq()
	} else {
		e.Seq = c.seq.Add(1)
	}

	// Record even when the request context is already cancelled.
	if err := c.recorder.RecordExecution(context.WithoutCancel(ctx), e); err != nil {
		c.logger.Warn("failed to record execution", "error", err, "request_id", e.RequestID)
	}
}

func outcomeOf(err error) string {
	switch ErrorCodeOf(err) {
	case "":
		if err != nil {
			return OutcomeUnreachable
		}
		return OutcomeOK
	case ErrCodeStatus:
		return OutcomeStatus
	case ErrCodeEmptyResponse:
		return OutcomeEmptyResponse
	default:
		return OutcomeUnreachable
	}
}
