// Package saddlebag wraps the Saddlebag Exchange market-analytics service.
// All endpoints are JSON POSTs; request bodies are passed through untouched.
package saddlebag

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tivalu/xivmarket/internal/fetch"
	"github.com/tivalu/xivmarket/internal/observe"
)

// DefaultBaseURL is the public Saddlebag Exchange API endpoint.
const DefaultBaseURL = "http://api.saddlebagexchange.com/api"

// Options configures a [Client].
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Limiter   *fetch.Limiter
	UserAgent string
	Metrics   *observe.Metrics
}

// Client issues analytics requests against Saddlebag Exchange.
type Client struct {
	http    *fetch.Client
	baseURL string
	timeout time.Duration
	limiter *fetch.Limiter
}

// New creates a Client from opts.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    fetch.NewClient("saddlebag", opts.UserAgent, opts.Metrics),
		baseURL: baseURL,
		timeout: opts.Timeout,
		limiter: opts.Limiter,
	}
}

// Post sends body to path and returns the raw JSON response.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.http.JSON(ctx, fetch.Request{
		BaseURL: c.baseURL,
		Path:    path,
		Method:  http.MethodPost,
		Body:    body,
		Timeout: c.timeout,
		Limiter: c.limiter,
	})
}
