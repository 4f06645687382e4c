// Package universalis wraps the Universalis market-data service: aggregated
// prices, current listings, sales history, tax rates, reference lists, and
// the statistics endpoints.
package universalis

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tivalu/xivmarket/internal/fetch"
	"github.com/tivalu/xivmarket/internal/observe"
)

// DefaultBaseURL is the public Universalis v2 endpoint.
const DefaultBaseURL = "https://universalis.app/api/v2"

const (
	worldsCacheTTL     = time.Hour
	marketableCacheTTL = 6 * time.Hour
)

// MaxItemIDsPerRequest is the upstream cap on item ids per call.
const MaxItemIDsPerRequest = 100

// CurrentOptions narrows a current-listings call.
type CurrentOptions struct {
	Listings       *int
	Entries        *int
	HQ             *bool
	StatsWithinMS  *int
	EntriesWithinS *int
	Fields         string
}

// HistoryOptions narrows a sales-history call.
type HistoryOptions struct {
	EntriesToReturn *int
	StatsWithinMS   *int
	EntriesWithinS  *int
	EntriesUntil    *int
	MinSalePrice    *int
	MaxSalePrice    *int
}

// Options configures a [Client].
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Limiter   *fetch.Limiter
	UserAgent string
	Metrics   *observe.Metrics
}

// Client is a rate-limited Universalis client. Reference listings (worlds,
// data centers, marketable item ids) are cached in memory.
type Client struct {
	http    *fetch.Client
	baseURL string
	timeout time.Duration
	limiter *fetch.Limiter

	worldsCache      *fetch.Cache[[]World]
	dataCentersCache *fetch.Cache[[]DataCenter]
	marketableCache  *fetch.Cache[[]int]
}

// New creates a Client from opts.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:             fetch.NewClient("universalis", opts.UserAgent, opts.Metrics),
		baseURL:          baseURL,
		timeout:          opts.Timeout,
		limiter:          opts.Limiter,
		worldsCache:      fetch.NewCache[[]World](1, worldsCacheTTL),
		dataCentersCache: fetch.NewCache[[]DataCenter](1, worldsCacheTTL),
		marketableCache:  fetch.NewCache[[]int](1, marketableCacheTTL),
	}
}

func (c *Client) get(ctx context.Context, path string, query fetch.Query) (json.RawMessage, error) {
	return c.http.JSON(ctx, fetch.Request{
		BaseURL: c.baseURL,
		Path:    path,
		Query:   query,
		Timeout: c.timeout,
		Limiter: c.limiter,
	})
}

// Aggregated fetches aggregated market data for ids on a world, data center,
// or region.
func (c *Client) Aggregated(ctx context.Context, scope string, ids []int) (*AggregatedResponse, error) {
	path := "/aggregated/" + url.PathEscape(scope) + "/" + joinIDs(ids)
	raw, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	resp := &AggregatedResponse{Raw: raw}
	if raw != nil {
		_ = json.Unmarshal(raw, resp)
	}
	return resp, nil
}

// Current fetches current listings for ids. The decoded items map is keyed
// by item id regardless of whether the upstream used the single-item or the
// multi-item response shape.
func (c *Client) Current(ctx context.Context, scope string, ids []int, opts CurrentOptions) (*CurrentResponse, error) {
	query := fetch.Query{}
	setOptInt(query, "listings", opts.Listings)
	setOptInt(query, "entries", opts.Entries)
	if opts.HQ != nil {
		query.SetBool("hq", *opts.HQ)
	}
	setOptInt(query, "statsWithin", opts.StatsWithinMS)
	setOptInt(query, "entriesWithin", opts.EntriesWithinS)
	if opts.Fields != "" {
		query.Set("fields", strings.Split(opts.Fields, ",")...)
	}

	path := "/" + url.PathEscape(scope) + "/" + joinIDs(ids)
	raw, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return decodeCurrent(raw, ids), nil
}

// History fetches sales history for ids as raw JSON for pass-through.
func (c *Client) History(ctx context.Context, scope string, ids []int, opts HistoryOptions) (json.RawMessage, error) {
	query := fetch.Query{}
	setOptInt(query, "entriesToReturn", opts.EntriesToReturn)
	setOptInt(query, "statsWithin", opts.StatsWithinMS)
	setOptInt(query, "entriesWithin", opts.EntriesWithinS)
	setOptInt(query, "entriesUntil", opts.EntriesUntil)
	setOptInt(query, "minSalePrice", opts.MinSalePrice)
	setOptInt(query, "maxSalePrice", opts.MaxSalePrice)
	return c.get(ctx, "/history/"+url.PathEscape(scope)+"/"+joinIDs(ids), query)
}

// TaxRates fetches current market tax rates for a world.
func (c *Client) TaxRates(ctx context.Context, world string) (json.RawMessage, error) {
	query := fetch.Query{}
	query.Set("world", world)
	return c.get(ctx, "/tax-rates", query)
}

// Worlds lists all worlds, cached for an hour.
func (c *Client) Worlds(ctx context.Context) ([]World, error) {
	if cached, ok := c.worldsCache.Get("worlds"); ok {
		return cached, nil
	}
	raw, err := c.get(ctx, "/worlds", nil)
	if err != nil {
		return nil, err
	}
	var worlds []World
	if raw != nil {
		_ = json.Unmarshal(raw, &worlds)
	}
	c.worldsCache.Set("worlds", worlds)
	return worlds, nil
}

// DataCenters lists all data centers, cached for an hour.
func (c *Client) DataCenters(ctx context.Context) ([]DataCenter, error) {
	if cached, ok := c.dataCentersCache.Get("data-centers"); ok {
		return cached, nil
	}
	raw, err := c.get(ctx, "/data-centers", nil)
	if err != nil {
		return nil, err
	}
	var dcs []DataCenter
	if raw != nil {
		_ = json.Unmarshal(raw, &dcs)
	}
	c.dataCentersCache.Set("data-centers", dcs)
	return dcs, nil
}

// Marketable lists all marketable item ids, cached for six hours.
func (c *Client) Marketable(ctx context.Context) ([]int, error) {
	if cached, ok := c.marketableCache.Get("marketable"); ok {
		return cached, nil
	}
	raw, err := c.get(ctx, "/marketable", nil)
	if err != nil {
		return nil, err
	}
	var ids []int
	if raw != nil {
		_ = json.Unmarshal(raw, &ids)
	}
	c.marketableCache.Set("marketable", ids)
	return ids, nil
}

// MostRecentlyUpdated fetches the most recently updated items for a world or
// data center.
func (c *Client) MostRecentlyUpdated(ctx context.Context, world, dcName string, entries int) (json.RawMessage, error) {
	return c.get(ctx, "/extra/stats/most-recently-updated", statsQuery(world, dcName, entries))
}

// LeastRecentlyUpdated fetches the least recently updated items for a world
// or data center.
func (c *Client) LeastRecentlyUpdated(ctx context.Context, world, dcName string, entries int) (json.RawMessage, error) {
	return c.get(ctx, "/extra/stats/least-recently-updated", statsQuery(world, dcName, entries))
}

// RecentlyUpdated fetches the legacy recently-updated item list.
func (c *Client) RecentlyUpdated(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/extra/stats/recently-updated", nil)
}

// UploaderUploadCounts fetches upload counts per uploader source.
func (c *Client) UploaderUploadCounts(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/extra/stats/uploader-upload-counts", nil)
}

// WorldUploadCounts fetches upload counts per world.
func (c *Client) WorldUploadCounts(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/extra/stats/world-upload-counts", nil)
}

// UploadHistory fetches the daily upload count history.
func (c *Client) UploadHistory(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/extra/stats/upload-history", nil)
}

// List fetches a user-curated item list by id.
func (c *Client) List(ctx context.Context, listID string) (json.RawMessage, error) {
	return c.get(ctx, "/lists/"+url.PathEscape(listID), nil)
}

// Content fetches content metadata by id. The endpoint is best-effort
// upstream and may return an empty object.
func (c *Client) Content(ctx context.Context, contentID string) (json.RawMessage, error) {
	return c.get(ctx, "/extra/content/"+url.PathEscape(contentID), nil)
}

func decodeCurrent(raw json.RawMessage, ids []int) *CurrentResponse {
	resp := &CurrentResponse{Raw: raw, Items: map[string]CurrentItem{}}
	if raw == nil {
		return resp
	}
	if len(ids) == 1 {
		var item CurrentItem
		if json.Unmarshal(raw, &item) == nil {
			resp.Items[strconv.Itoa(ids[0])] = item
		}
		return resp
	}
	var multi struct {
		Items           map[string]CurrentItem `json:"items"`
		UnresolvedItems []int                  `json:"unresolvedItems"`
	}
	if json.Unmarshal(raw, &multi) == nil {
		if multi.Items != nil {
			resp.Items = multi.Items
		}
		resp.UnresolvedItems = multi.UnresolvedItems
	}
	return resp
}

func statsQuery(world, dcName string, entries int) fetch.Query {
	query := fetch.Query{}
	if world != "" {
		query.Set("world", world)
	}
	if dcName != "" {
		query.Set("dcName", dcName)
	}
	if entries > 0 {
		query.SetInt("entries", entries)
	}
	return query
}

func setOptInt(q fetch.Query, key string, v *int) {
	if v != nil {
		q.SetInt(key, *v)
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
