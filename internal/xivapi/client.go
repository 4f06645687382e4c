// Package xivapi wraps the XIVAPI v2 game-data service: name/attribute
// search, single item rows, and cursor-paged sheet rows.
package xivapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tivalu/xivmarket/internal/fetch"
	"github.com/tivalu/xivmarket/internal/observe"
)

// DefaultBaseURL is the public XIVAPI v2 endpoint.
const DefaultBaseURL = "https://v2.xivapi.com/api"

const (
	searchCacheSize = 200
	searchCacheTTL  = 15 * time.Minute
	itemCacheSize   = 500
	itemCacheTTL    = 24 * time.Hour
)

// SearchResult is one row returned by the search endpoint. Fields the
// upstream omits stay at their zero values.
type SearchResult struct {
	Score  float64        `json:"score"`
	Sheet  string         `json:"sheet,omitempty"`
	RowID  int            `json:"row_id"`
	Fields map[string]any `json:"fields"`
}

// Name returns the Name field of the result, or "" when absent or not a
// string.
func (r SearchResult) Name() string {
	name, _ := r.Fields["Name"].(string)
	return name
}

// SearchResponse is the decoded body of a search call.
type SearchResponse struct {
	Schema  string         `json:"schema,omitempty"`
	Results []SearchResult `json:"results"`
}

// SheetRow is one row of a paged sheet listing.
type SheetRow struct {
	RowID  int            `json:"row_id"`
	Fields map[string]any `json:"fields"`
}

// SheetPage is one page of sheet rows plus the game-data version tag.
type SheetPage struct {
	Rows    []SheetRow `json:"rows"`
	Version string     `json:"version,omitempty"`
}

// SearchParams describes one search call. Zero-valued fields are omitted
// from the request; Language and Version fall back to the client defaults.
type SearchParams struct {
	Query    string
	Sheets   string
	Limit    int
	Cursor   string
	Fields   string
	Language string
	Version  string
}

// RowParams describes field selection for single-row and sheet-row calls.
type RowParams struct {
	Fields   string
	Language string
	Version  string
}

// SheetRowsParams describes one page request against a sheet listing.
type SheetRowsParams struct {
	Limit  int
	After  int // cursor: last row id of the previous page; 0 means start
	Fields string
}

// Options configures a [Client].
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Limiter   *fetch.Limiter
	UserAgent string
	Language  string
	Version   string
	Metrics   *observe.Metrics
}

// Client is a rate-limited, response-caching XIVAPI client.
type Client struct {
	http     *fetch.Client
	baseURL  string
	timeout  time.Duration
	limiter  *fetch.Limiter
	language string
	version  string

	searchCache *fetch.Cache[*SearchResponse]
	itemCache   *fetch.Cache[json.RawMessage]
}

// New creates a Client from opts.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	language := opts.Language
	if language == "" {
		language = "en"
	}
	version := opts.Version
	if version == "" {
		version = "latest"
	}
	return &Client{
		http:        fetch.NewClient("xivapi", opts.UserAgent, opts.Metrics),
		baseURL:     baseURL,
		timeout:     opts.Timeout,
		limiter:     opts.Limiter,
		language:    language,
		version:     version,
		searchCache: fetch.NewCache[*SearchResponse](searchCacheSize, searchCacheTTL),
		itemCache:   fetch.NewCache[json.RawMessage](itemCacheSize, itemCacheTTL),
	}
}

// Search runs a sheet search. Identical searches within the cache TTL are
// served from memory.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	query := fetch.Query{}
	query.Set("query", p.Query)
	query.Set("sheets", p.Sheets)
	if p.Limit > 0 {
		query.SetInt("limit", p.Limit)
	}
	if p.Cursor != "" {
		query.Set("cursor", p.Cursor)
	}
	if p.Fields != "" {
		query.Set("fields", p.Fields)
	}
	query.Set("language", c.orDefault(p.Language, c.language))
	query.Set("version", c.orDefault(p.Version, c.version))

	key := cacheKey(query)
	if cached, ok := c.searchCache.Get(key); ok {
		return cached, nil
	}

	raw, err := c.http.JSON(ctx, fetch.Request{
		BaseURL: c.baseURL,
		Path:    "/search",
		Query:   query,
		Timeout: c.timeout,
		Limiter: c.limiter,
	})
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{}
	if raw != nil {
		// Tolerate partially-shaped payloads: a decode failure leaves an
		// empty result set rather than failing the call.
		_ = json.Unmarshal(raw, resp)
	}
	c.searchCache.Set(key, resp)
	return resp, nil
}

// ItemByID fetches a single item row, returned as raw JSON for pass-through.
func (c *Client) ItemByID(ctx context.Context, itemID int, p RowParams) (json.RawMessage, error) {
	query := fetch.Query{}
	if p.Fields != "" {
		query.Set("fields", p.Fields)
	}
	query.Set("language", c.orDefault(p.Language, c.language))
	query.Set("version", c.orDefault(p.Version, c.version))

	key := fmt.Sprintf("item:%d:%s", itemID, cacheKey(query))
	if cached, ok := c.itemCache.Get(key); ok {
		return cached, nil
	}

	raw, err := c.http.JSON(ctx, fetch.Request{
		BaseURL: c.baseURL,
		Path:    fmt.Sprintf("/sheet/Item/%d", itemID),
		Query:   query,
		Timeout: c.timeout,
		Limiter: c.limiter,
	})
	if err != nil {
		return nil, err
	}
	c.itemCache.Set(key, raw)
	return raw, nil
}

// SheetRows fetches one page of rows from the named sheet using cursor
// pagination. Pages are not cached.
func (c *Client) SheetRows(ctx context.Context, sheet string, p SheetRowsParams) (*SheetPage, error) {
	query := fetch.Query{}
	if p.Limit > 0 {
		query.SetInt("limit", p.Limit)
	}
	if p.After > 0 {
		query.SetInt("after", p.After)
	}
	if p.Fields != "" {
		query.Set("fields", p.Fields)
	}
	query.Set("language", c.language)
	query.Set("version", c.version)

	raw, err := c.http.JSON(ctx, fetch.Request{
		BaseURL: c.baseURL,
		Path:    "/sheet/" + sheet,
		Query:   query,
		Timeout: c.timeout,
		Limiter: c.limiter,
	})
	if err != nil {
		return nil, err
	}

	page := &SheetPage{}
	if raw != nil {
		_ = json.Unmarshal(raw, page)
	}
	return page, nil
}

func (c *Client) orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func cacheKey(q fetch.Query) string {
	data, _ := json.Marshal(q)
	return string(data)
}
