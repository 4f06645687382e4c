package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tivalu/xivmarket/internal/universalis"
)

type aggregatedPricesInput struct {
	Scope   string `json:"world_dc_region" jsonschema:"World, data center, or region. Example: 'Moogle' or 'Europe'."`
	ItemIDs []int  `json:"item_ids" jsonschema:"Item ids to fetch, at most 100 per call."`
	Format  Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type currentListingsInput struct {
	Scope          string `json:"world_dc_region" jsonschema:"World, data center, or region."`
	ItemIDs        []int  `json:"item_ids" jsonschema:"Item ids to fetch, at most 100 per call."`
	Listings       *int   `json:"listings,omitempty" jsonschema:"Listings to return per item (default: all)."`
	Entries        *int   `json:"entries,omitempty" jsonschema:"History entries to return per item (default: 5)."`
	HQ             *bool  `json:"hq,omitempty" jsonschema:"Filter for high-quality listings and entries."`
	StatsWithinMS  *int   `json:"stats_within_ms,omitempty" jsonschema:"Time window for stats in milliseconds (default: 7 days)."`
	EntriesWithinS *int   `json:"entries_within_seconds,omitempty" jsonschema:"Time window for entries in seconds."`
	Fields         string `json:"fields,omitempty" jsonschema:"Comma-separated field list. For multi-item queries prefix with items. (e.g. items.listings.pricePerUnit)."`
	Format         Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type salesHistoryInput struct {
	Scope           string `json:"world_dc_region" jsonschema:"World, data center, or region."`
	ItemIDs         []int  `json:"item_ids" jsonschema:"Item ids to fetch, at most 100 per call."`
	EntriesToReturn *int   `json:"entries_to_return,omitempty" jsonschema:"Sale entries to return per item (default: 1800)."`
	StatsWithinMS   *int   `json:"stats_within_ms,omitempty" jsonschema:"Time window for stats in milliseconds."`
	EntriesWithinS  *int   `json:"entries_within_seconds,omitempty" jsonschema:"Time window for entries in seconds."`
	EntriesUntil    *int   `json:"entries_until,omitempty" jsonschema:"Only return entries before this UNIX timestamp (seconds)."`
	MinSalePrice    *int   `json:"min_sale_price,omitempty" jsonschema:"Minimum unit sale price."`
	MaxSalePrice    *int   `json:"max_sale_price,omitempty" jsonschema:"Maximum unit sale price."`
	Format          Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

func validateItemIDs(ids []int) *mcp.CallToolResult {
	if len(ids) == 0 {
		return errorResult("item_ids must not be empty.")
	}
	if len(ids) > universalis.MaxItemIDsPerRequest {
		return errorResult(fmt.Sprintf("item_ids accepts at most %d ids per call, got %d.", universalis.MaxItemIDsPerRequest, len(ids)))
	}
	for _, id := range ids {
		if id < 1 {
			return errorResult(fmt.Sprintf("item id %d is invalid.", id))
		}
	}
	return nil
}

func registerMarketTools(server *mcp.Server, d *Deps) {
	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_aggregated_prices",
		Description: "Fetch aggregated market board data (min listing, average sale price, sale velocity) for up to 100 item ids on a world, data center, or region.",
		Annotations: readOnly("Universalis Aggregated Prices"),
	}, func(ctx context.Context, d *Deps, in aggregatedPricesInput) (*mcp.CallToolResult, error) {
		if res := validateItemIDs(in.ItemIDs); res != nil {
			return res, nil
		}
		resp, err := d.Universalis.Aggregated(ctx, in.Scope, in.ItemIDs)
		if err != nil {
			return nil, err
		}
		meta := map[string]any{
			"source":          "universalis",
			"endpoint":        "/aggregated/{worldDcRegion}/{itemIds}",
			"world_dc_region": in.Scope,
			"item_ids":        in.ItemIDs,
		}
		if len(resp.FailedItems) > 0 {
			meta["failed_items"] = resp.FailedItems
		}
		return Response{
			Title: "Aggregated Prices",
			Data:  resp.Raw,
			Meta:  meta,
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_current_listings",
		Description: "Fetch current market board listings and recent history for up to 100 item ids on a world, data center, or region.",
		Annotations: readOnly("Universalis Current Listings"),
	}, func(ctx context.Context, d *Deps, in currentListingsInput) (*mcp.CallToolResult, error) {
		if res := validateItemIDs(in.ItemIDs); res != nil {
			return res, nil
		}
		resp, err := d.Universalis.Current(ctx, in.Scope, in.ItemIDs, universalis.CurrentOptions{
			Listings:       in.Listings,
			Entries:        in.Entries,
			HQ:             in.HQ,
			StatsWithinMS:  in.StatsWithinMS,
			EntriesWithinS: in.EntriesWithinS,
			Fields:         in.Fields,
		})
		if err != nil {
			return nil, err
		}
		meta := map[string]any{
			"source":          "universalis",
			"endpoint":        "/{worldDcRegion}/{itemIds}",
			"world_dc_region": in.Scope,
			"item_ids":        in.ItemIDs,
		}
		if len(resp.UnresolvedItems) > 0 {
			meta["unresolved_items"] = resp.UnresolvedItems
		}
		return Response{
			Title: "Current Listings",
			Data:  resp.Raw,
			Meta:  meta,
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_sales_history",
		Description: "Fetch market board sales history for up to 100 item ids on a world, data center, or region.",
		Annotations: readOnly("Universalis Sales History"),
	}, func(ctx context.Context, d *Deps, in salesHistoryInput) (*mcp.CallToolResult, error) {
		if res := validateItemIDs(in.ItemIDs); res != nil {
			return res, nil
		}
		raw, err := d.Universalis.History(ctx, in.Scope, in.ItemIDs, universalis.HistoryOptions{
			EntriesToReturn: in.EntriesToReturn,
			StatsWithinMS:   in.StatsWithinMS,
			EntriesWithinS:  in.EntriesWithinS,
			EntriesUntil:    in.EntriesUntil,
			MinSalePrice:    in.MinSalePrice,
			MaxSalePrice:    in.MaxSalePrice,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Sales History",
			Data:  raw,
			Meta: map[string]any{
				"source":          "universalis",
				"endpoint":        "/history/{worldDcRegion}/{itemIds}",
				"world_dc_region": in.Scope,
				"item_ids":        in.ItemIDs,
			},
		}.Result(in.Format), nil
	})
}
