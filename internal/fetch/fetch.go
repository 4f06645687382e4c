// Package fetch implements the rate-limited HTTP layer shared by all
// upstream API clients.
//
// Every request goes through a [Limiter] that bounds both the number of
// in-flight connections and the request throughput per interval, matching
// the budgets the upstream services publish. Responses are decoded
// defensively: a malformed JSON body on a successful response yields nil
// rather than an error, because the upstream services occasionally return
// truncated or otherwise broken payloads.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tivalu/xivmarket/internal/observe"
)

// DefaultTimeout is applied when a Request does not set its own.
const DefaultTimeout = 30 * time.Second

// APIError describes a failed upstream request. Status is the HTTP status
// code, or 0 for network-level failures (timeouts, connection errors).
type APIError struct {
	Status  int
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Query holds request query parameters. Multi-valued parameters are joined
// into a single value using a per-key joiner: the free-text "query" parameter
// uses a space (clause-level OR in the upstream search grammar), everything
// else uses a comma.
type Query map[string][]string

// Set assigns values for key, replacing any previous assignment.
// Empty value lists are dropped when the URL is built.
func (q Query) Set(key string, values ...string) {
	q[key] = values
}

// SetInt assigns a single integer value for key.
func (q Query) SetInt(key string, v int) {
	q[key] = []string{strconv.Itoa(v)}
}

// SetBool assigns a single boolean value for key.
func (q Query) SetBool(key string, v bool) {
	q[key] = []string{strconv.FormatBool(v)}
}

func joiner(key string) string {
	if key == "query" {
		return " "
	}
	return ","
}

// Request describes a single upstream HTTP call.
type Request struct {
	BaseURL string
	Path    string
	Method  string // defaults to GET
	Query   Query
	Headers map[string]string
	Body    any // JSON-encoded when non-nil
	Timeout time.Duration
	Limiter *Limiter
}

// Client issues requests against one upstream service. The zero value is not
// usable; construct instances with [NewClient].
type Client struct {
	hc        *http.Client
	service   string
	userAgent string
	metrics   *observe.Metrics
}

// NewClient returns a Client for the named service. metrics may be nil.
func NewClient(service, userAgent string, metrics *observe.Metrics) *Client {
	return &Client{
		hc:        &http.Client{},
		service:   service,
		userAgent: userAgent,
		metrics:   metrics,
	}
}

// JSON performs the request and returns the decoded body as raw JSON.
// A successful response whose body is not valid JSON yields nil.
func (c *Client) JSON(ctx context.Context, req Request) (json.RawMessage, error) {
	body, contentType, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(contentType, "application/json") {
		return nil, nil
	}
	return safeJSON(body), nil
}

// Text performs the request and returns the raw body text.
func (c *Client) Text(ctx context.Context, req Request) (string, error) {
	body, _, err := c.do(ctx, req, false)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, req Request, wantJSON bool) (body []byte, contentType string, err error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if req.Limiter != nil {
		if err := req.Limiter.Acquire(ctx); err != nil {
			return nil, "", &APIError{Status: 0, Message: err.Error()}
		}
		defer req.Limiter.Release()
	}

	start := time.Now()
	status := 0
	defer func() {
		c.metrics.RecordUpstream(ctx, c.service, status, time.Since(start))
	}()

	u, err := buildURL(req.BaseURL, req.Path, req.Query)
	if err != nil {
		return nil, "", &APIError{Status: 0, Message: err.Error()}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var payload io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", &APIError{Status: 0, Message: fmt.Sprintf("encode request body: %v", err)}
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return nil, "", &APIError{Status: 0, Message: err.Error()}
	}
	if wantJSON {
		httpReq.Header.Set("Accept", "application/json")
	} else {
		httpReq.Header.Set("Accept", "*/*")
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, "", &APIError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &APIError{Status: 0, Message: err.Error()}
	}

	contentType = resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", errorFromResponse(resp.StatusCode, contentType, raw)
	}
	return raw, contentType, nil
}

// errorFromResponse builds an APIError for a non-2xx response. The message
// prefers a "message" field from a JSON error body, then the raw body text,
// then a generic status string.
func errorFromResponse(status int, contentType string, body []byte) *APIError {
	var details any = string(body)
	message := ""
	if strings.Contains(contentType, "application/json") {
		if parsed := safeJSON(body); parsed != nil {
			var m map[string]any
			if json.Unmarshal(parsed, &m) == nil {
				details = m
				if s, ok := m["message"].(string); ok {
					message = s
				}
			}
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &APIError{Status: status, Message: message, Details: details}
}

func buildURL(baseURL, path string, query Query) (string, error) {
	raw := strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		params := url.Values{}
		for key, values := range query {
			if len(values) == 0 {
				continue
			}
			params.Set(key, strings.Join(values, joiner(key)))
		}
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

// safeJSON returns body if it is valid JSON, nil otherwise.
func safeJSON(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if !json.Valid(body) {
		return nil
	}
	return json.RawMessage(body)
}
