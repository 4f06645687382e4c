package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type marketShareInput struct {
	Server       string `json:"server" jsonschema:"Server name. Example: 'Moogle'."`
	TimePeriod   int    `json:"time_period" jsonschema:"Time period in hours."`
	SalesAmount  int    `json:"sales_amount" jsonschema:"Minimum sales amount."`
	AveragePrice int    `json:"average_price" jsonschema:"Minimum average price."`
	Filters      []int  `json:"filters" jsonschema:"Category filter ids; [0] for all categories."`
	SortBy       string `json:"sort_by" jsonschema:"Sort field: avg, marketValue, median, purchaseAmount, quantitySold, or percentChange."`
	Format       Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type shoppingListCraft struct {
	ItemID      int  `json:"itemID" jsonschema:"Item id to craft."`
	CraftAmount int  `json:"craft_amount" jsonschema:"Amount to craft."`
	HQ          bool `json:"hq" jsonschema:"True for high-quality crafting."`
	Job         int  `json:"job" jsonschema:"Job id; 0 for any job."`
}

type shoppingListInput struct {
	HomeServer       string              `json:"home_server" jsonschema:"Home server name."`
	ShoppingList     []shoppingListCraft `json:"shopping_list" jsonschema:"Up to 10 items to craft."`
	RegionWide       bool                `json:"region_wide" jsonschema:"Search all data centers in the home region."`
	IgnoreAfterHours int                 `json:"ignore_after_hours" jsonschema:"Ignore listings older than this many hours."`
	Format           Format              `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type craftsimInput struct {
	HomeServer        string `json:"home_server" jsonschema:"Home server name."`
	CostMetric        string `json:"cost_metric" jsonschema:"Cost metric: material_avg_cost, material_median_cost, or material_min_listing_cost."`
	RevenueMetric     string `json:"revenue_metric" jsonschema:"Revenue metric: revenue_avg, revenue_median, revenue_home_min_listing, or revenue_region_min_listing."`
	SalesPerWeek      int    `json:"sales_per_week" jsonschema:"Minimum sales per week."`
	MedianSalePrice   int    `json:"median_sale_price" jsonschema:"Minimum median sale price."`
	MaxMaterialCost   int    `json:"max_material_cost" jsonschema:"Maximum material cost."`
	Filters           []int  `json:"filters" jsonschema:"Category filter ids; [0] for all categories."`
	Jobs              []int  `json:"jobs" jsonschema:"Job ids to scan; [0] for all jobs."`
	Stars             int    `json:"stars" jsonschema:"Recipe stars required; -1 for any."`
	LvlLowerLimit     int    `json:"lvl_lower_limit" jsonschema:"Lower recipe level limit; -1 for none."`
	LvlUpperLimit     int    `json:"lvl_upper_limit" jsonschema:"Upper recipe level limit."`
	Yields            int    `json:"yields" jsonschema:"Yield amount; -1 for any."`
	HideExpertRecipes bool   `json:"hide_expert_recipes" jsonschema:"Hide expert recipes."`
	MaxResults        int    `json:"max_results,omitempty" jsonschema:"Limit number of recipes returned (default: 200, max 5000)."`
	Format            Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type itemDescriptionInput struct {
	ItemID int    `json:"item_id" jsonschema:"Item id."`
	Format Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type rawStatsInput struct {
	Region  string `json:"region" jsonschema:"Region name. Example: 'Europe'."`
	ItemIDs []int  `json:"item_ids" jsonschema:"Item ids; [-1] for all items (may be very large)."`
	Format  Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type listingMetricsInput struct {
	ItemID      int    `json:"item_id" jsonschema:"Item id."`
	HomeServer  string `json:"home_server" jsonschema:"Home server name."`
	InitialDays *int   `json:"initial_days,omitempty" jsonschema:"Deprecated age filter (days)."`
	EndDays     *int   `json:"end_days,omitempty" jsonschema:"Deprecated age filter (days)."`
	Format      Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type historyMetricsInput struct {
	ItemID      int    `json:"item_id" jsonschema:"Item id."`
	HomeServer  string `json:"home_server" jsonschema:"Home server name."`
	ItemType    string `json:"item_type,omitempty" jsonschema:"History type: hq_only, nq_only, or all."`
	InitialDays *int   `json:"initial_days,omitempty" jsonschema:"Deprecated age filter (days)."`
	EndDays     *int   `json:"end_days,omitempty" jsonschema:"Deprecated age filter (days)."`
	Format      Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type scripExchangeInput struct {
	HomeServer string `json:"home_server" jsonschema:"Home server name."`
	Color      string `json:"color" jsonschema:"Scrip category: Orange Gatherers, Purple Gatherers, Purple Crafters, or Orange Crafters."`
	Format     Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type exportPricesInput struct {
	HomeServer    string   `json:"home_server" jsonschema:"Home server name."`
	ExportServers []string `json:"export_servers" jsonschema:"Servers to compare against."`
	ItemIDs       []int    `json:"item_ids" jsonschema:"Item ids (max 100)."`
	HQOnly        bool     `json:"hq_only" jsonschema:"Include only high-quality prices."`
	Format        Format   `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type resellScanInput struct {
	PreferredROI       int    `json:"preferred_roi" jsonschema:"Preferred return on investment, percent."`
	MinProfitAmount    int    `json:"min_profit_amount" jsonschema:"Minimum profit per item."`
	MinDesiredAvgPPU   int    `json:"min_desired_avg_ppu" jsonschema:"Minimum average price per unit."`
	MinStackSize       int    `json:"min_stack_size" jsonschema:"Minimum stack size."`
	HoursAgo           int    `json:"hours_ago" jsonschema:"Sales window in hours."`
	MinSales           int    `json:"min_sales" jsonschema:"Minimum sales in the window."`
	HQ                 bool   `json:"hq" jsonschema:"High-quality items only."`
	HomeServer         string `json:"home_server" jsonschema:"Home server name."`
	Filters            []int  `json:"filters" jsonschema:"Category filter ids; [0] for all categories."`
	RegionWide         bool   `json:"region_wide" jsonschema:"Search region-wide."`
	IncludeVendor      bool   `json:"include_vendor" jsonschema:"Include vendor prices."`
	ShowOutStock       bool   `json:"show_out_stock" jsonschema:"Include out-of-stock items."`
	UniversalisListUID string `json:"universalis_list_uid,omitempty" jsonschema:"Universalis list UID (deprecated)."`
	Format             Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type priceGroup struct {
	Name       string `json:"name" jsonschema:"Name of the price group."`
	HQOnly     bool   `json:"hq_only" jsonschema:"Include only high-quality items in this group."`
	ItemIDs    []int  `json:"item_ids,omitempty" jsonschema:"Explicit item ids to include."`
	Categories []int  `json:"categories,omitempty" jsonschema:"Category ids to include."`
}

type weeklyDeltaInput struct {
	Region             string       `json:"region" jsonschema:"Region name. Example: 'Europe'."`
	StartYear          int          `json:"start_year" jsonschema:"Start year (2022 or later)."`
	StartMonth         int          `json:"start_month" jsonschema:"Start month (1-12)."`
	StartDay           int          `json:"start_day" jsonschema:"Start day (1-31)."`
	EndYear            int          `json:"end_year" jsonschema:"End year (2022 or later)."`
	EndMonth           int          `json:"end_month" jsonschema:"End month (1-12)."`
	EndDay             int          `json:"end_day" jsonschema:"End day (1-31)."`
	PriceGroups        []priceGroup `json:"price_groups" jsonschema:"Price groups to aggregate."`
	PriceSetting       string       `json:"price_setting" jsonschema:"Price metric: average or median."`
	QuantitySetting    string       `json:"quantity_setting" jsonschema:"Quantity metric: quantitySold or salesAmount."`
	MinimumMarketshare int          `json:"minimum_marketshare" jsonschema:"Minimum marketshare."`
	Format             Format       `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type priceAlert struct {
	ItemID       int    `json:"itemID" jsonschema:"Item id to monitor."`
	Price        int    `json:"price" jsonschema:"Target price per unit."`
	DesiredState string `json:"desired_state" jsonschema:"Desired state: above or below."`
	HQ           bool   `json:"hq" jsonschema:"High-quality items only."`
}

type quantityAlert struct {
	ItemID       int    `json:"itemID" jsonschema:"Item id to monitor."`
	Quantity     int    `json:"quantity" jsonschema:"Target quantity."`
	DesiredState string `json:"desired_state" jsonschema:"Desired state: above or below."`
	HQ           bool   `json:"hq" jsonschema:"High-quality items only."`
}

type priceCheckInput struct {
	HomeServer   string       `json:"home_server" jsonschema:"Home server name."`
	DCOnly       *bool        `json:"dc_only,omitempty" jsonschema:"Check the data center only."`
	UserAuctions []priceAlert `json:"user_auctions" jsonschema:"Price alerts to check."`
	Format       Format       `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type quantityCheckInput struct {
	HomeServer   string          `json:"home_server" jsonschema:"Home server name."`
	UserAuctions []quantityAlert `json:"user_auctions" jsonschema:"Quantity alerts to check."`
	Format       Format          `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type saleAlertInput struct {
	RetainerNames []string `json:"retainer_names" jsonschema:"Retainer names to track."`
	Server        string   `json:"server" jsonschema:"Server name."`
	ItemIDs       []int    `json:"item_ids" jsonschema:"Item ids (max 100)."`
	SellerID      string   `json:"seller_id,omitempty" jsonschema:"Seller id (deprecated)."`
	Format        Format   `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

const (
	maxShoppingListItems   = 10
	maxSaddlebagItemIDs    = 100
	defaultCraftsimResults = 200
	maxCraftsimResults     = 5000
)

// listingMetricsPayload mirrors the upstream contract: the deprecated age
// filters are sent only when the caller set them.
func listingMetricsPayload(in listingMetricsInput) map[string]any {
	payload := map[string]any{
		"item_id":     in.ItemID,
		"home_server": in.HomeServer,
	}
	if in.InitialDays != nil {
		payload["initial_days"] = *in.InitialDays
	}
	if in.EndDays != nil {
		payload["end_days"] = *in.EndDays
	}
	return payload
}

func historyMetricsPayload(in historyMetricsInput) map[string]any {
	payload := map[string]any{
		"item_id":     in.ItemID,
		"home_server": in.HomeServer,
	}
	if in.ItemType != "" {
		payload["item_type"] = in.ItemType
	}
	if in.InitialDays != nil {
		payload["initial_days"] = *in.InitialDays
	}
	if in.EndDays != nil {
		payload["end_days"] = *in.EndDays
	}
	return payload
}

func resellScanPayload(in resellScanInput) map[string]any {
	payload := map[string]any{
		"preferred_roi":       in.PreferredROI,
		"min_profit_amount":   in.MinProfitAmount,
		"min_desired_avg_ppu": in.MinDesiredAvgPPU,
		"min_stack_size":      in.MinStackSize,
		"hours_ago":           in.HoursAgo,
		"min_sales":           in.MinSales,
		"hq":                  in.HQ,
		"home_server":         in.HomeServer,
		"filters":             in.Filters,
		"region_wide":         in.RegionWide,
		"include_vendor":      in.IncludeVendor,
		"show_out_stock":      in.ShowOutStock,
	}
	if in.UniversalisListUID != "" {
		payload["universalis_list_uid"] = in.UniversalisListUID
	}
	return payload
}

func priceCheckPayload(in priceCheckInput) map[string]any {
	payload := map[string]any{
		"home_server":   in.HomeServer,
		"user_auctions": in.UserAuctions,
	}
	if in.DCOnly != nil {
		payload["dc_only"] = *in.DCOnly
	}
	return payload
}

func saleAlertPayload(in saleAlertInput) map[string]any {
	payload := map[string]any{
		"retainer_names": in.RetainerNames,
		"server":         in.Server,
		"item_ids":       in.ItemIDs,
	}
	if in.SellerID != "" {
		payload["seller_id"] = in.SellerID
	}
	return payload
}

// truncateCraftsimData caps the recipe list inside a craftsim response and
// reports the cut. Responses that do not carry a data array pass through
// untouched.
func truncateCraftsimData(raw json.RawMessage, max int) (any, []string) {
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return raw, nil
	}
	list, ok := decoded["data"].([]any)
	if !ok || len(list) <= max {
		return raw, nil
	}
	decoded["data"] = list[:max]
	return decoded, []string{fmt.Sprintf("Showing %d of %d recipes.", max, len(list))}
}

func registerSaddlebagTools(server *mcp.Server, d *Deps) {
	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_market_share",
		Description: "Fetch market-share leaderboard data for a server from Saddlebag Exchange.",
		Annotations: readOnly("Saddlebag Market Share"),
	}, func(ctx context.Context, d *Deps, in marketShareInput) (*mcp.CallToolResult, error) {
		if in.Server == "" {
			return errorResult("server is required."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/ffxivmarketshare", map[string]any{
			"server":        in.Server,
			"time_period":   in.TimePeriod,
			"sales_amount":  in.SalesAmount,
			"average_price": in.AveragePrice,
			"filters":       in.Filters,
			"sort_by":       in.SortBy,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Market Share",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/ffxivmarketshare", "server": in.Server},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_craftsim",
		Description: "Calculate profitable crafting recipes with Saddlebag Exchange's craft simulator. Results can be very large; max_results limits output size.",
		Annotations: readOnly("Saddlebag Craftsim"),
	}, func(ctx context.Context, d *Deps, in craftsimInput) (*mcp.CallToolResult, error) {
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		maxResults := in.MaxResults
		if maxResults <= 0 {
			maxResults = defaultCraftsimResults
		}
		if maxResults > maxCraftsimResults {
			maxResults = maxCraftsimResults
		}
		raw, err := d.Saddlebag.Post(ctx, "/v2/craftsim", map[string]any{
			"home_server":         in.HomeServer,
			"cost_metric":         in.CostMetric,
			"revenue_metric":      in.RevenueMetric,
			"sales_per_week":      in.SalesPerWeek,
			"median_sale_price":   in.MedianSalePrice,
			"max_material_cost":   in.MaxMaterialCost,
			"filters":             in.Filters,
			"jobs":                in.Jobs,
			"stars":               in.Stars,
			"lvl_lower_limit":     in.LvlLowerLimit,
			"lvl_upper_limit":     in.LvlUpperLimit,
			"yields":              in.Yields,
			"hide_expert_recipes": in.HideExpertRecipes,
		})
		if err != nil {
			return nil, err
		}
		data, summary := truncateCraftsimData(raw, maxResults)
		return Response{
			Title:   "Saddlebag Craftsim",
			Summary: summary,
			Data:    data,
			Meta:    map[string]any{"source": "saddlebag", "endpoint": "/v2/craftsim", "home_server": in.HomeServer, "max_results": maxResults},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_shopping_list",
		Description: "Build a cross-server crafting shopping list with Saddlebag Exchange.",
		Annotations: readOnly("Saddlebag Shopping List"),
	}, func(ctx context.Context, d *Deps, in shoppingListInput) (*mcp.CallToolResult, error) {
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		if len(in.ShoppingList) == 0 {
			return errorResult("shopping_list must not be empty."), nil
		}
		if len(in.ShoppingList) > maxShoppingListItems {
			return errorResult(fmt.Sprintf("shopping_list accepts at most %d items, got %d.", maxShoppingListItems, len(in.ShoppingList))), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/v2/shoppinglist", map[string]any{
			"home_server":        in.HomeServer,
			"shopping_list":      in.ShoppingList,
			"region_wide":        in.RegionWide,
			"ignore_after_hours": in.IgnoreAfterHours,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Shopping List",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/v2/shoppinglist", "home_server": in.HomeServer},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_item_description",
		Description: "Fetch the description text for an item id from Saddlebag Exchange.",
		Annotations: readOnly("Saddlebag Item Description"),
	}, func(ctx context.Context, d *Deps, in itemDescriptionInput) (*mcp.CallToolResult, error) {
		if in.ItemID <= 0 {
			return errorResult("item_id is required."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/ffxiv/blog", map[string]any{"item_id": in.ItemID})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Item Description",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/ffxiv/blog", "item_id": in.ItemID},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_raw_stats",
		Description: "Fetch daily snapshot stats (median, average, sales volume) for a list of item ids.",
		Annotations: readOnly("Saddlebag Raw Market Stats"),
	}, func(ctx context.Context, d *Deps, in rawStatsInput) (*mcp.CallToolResult, error) {
		if in.Region == "" {
			return errorResult("region is required."), nil
		}
		if len(in.ItemIDs) == 0 {
			return errorResult("item_ids must not be empty."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/ffxivrawstats", map[string]any{
			"region":   in.Region,
			"item_ids": in.ItemIDs,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Raw Market Stats",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/ffxivrawstats", "region": in.Region},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_listing_metrics",
		Description: "Fetch listing competition metrics and current listings for an item.",
		Annotations: readOnly("Saddlebag Listing Metrics"),
	}, func(ctx context.Context, d *Deps, in listingMetricsInput) (*mcp.CallToolResult, error) {
		if in.ItemID <= 0 {
			return errorResult("item_id is required."), nil
		}
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/ffxiv/v2/listing", listingMetricsPayload(in))
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Listing Metrics",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/ffxiv/v2/listing", "item_id": in.ItemID, "home_server": in.HomeServer},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_history_metrics",
		Description: "Fetch aggregated history metrics and price distributions for an item.",
		Annotations: readOnly("Saddlebag History Metrics"),
	}, func(ctx context.Context, d *Deps, in historyMetricsInput) (*mcp.CallToolResult, error) {
		if in.ItemID <= 0 {
			return errorResult("item_id is required."), nil
		}
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/ffxiv/v2/history", historyMetricsPayload(in))
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag History Metrics",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/ffxiv/v2/history", "item_id": in.ItemID, "home_server": in.HomeServer},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_scrip_exchange",
		Description: "Rank scrip exchange items by gil value per scrip.",
		Annotations: readOnly("Saddlebag Scrip Exchange"),
	}, func(ctx context.Context, d *Deps, in scripExchangeInput) (*mcp.CallToolResult, error) {
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		if in.Color == "" {
			return errorResult("color is required."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/ffxiv/scripexchange", map[string]any{
			"home_server": in.HomeServer,
			"color":       in.Color,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Scrip Exchange",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/ffxiv/scripexchange", "home_server": in.HomeServer, "color": in.Color},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_export_prices",
		Description: "Compare item prices across multiple servers for export trading.",
		Annotations: readOnly("Saddlebag Export Prices"),
	}, func(ctx context.Context, d *Deps, in exportPricesInput) (*mcp.CallToolResult, error) {
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		if len(in.ExportServers) == 0 {
			return errorResult("export_servers must not be empty."), nil
		}
		if len(in.ItemIDs) == 0 {
			return errorResult("item_ids must not be empty."), nil
		}
		if len(in.ItemIDs) > maxSaddlebagItemIDs {
			return errorResult(fmt.Sprintf("item_ids accepts at most %d ids, got %d.", maxSaddlebagItemIDs, len(in.ItemIDs))), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/export", map[string]any{
			"home_server":    in.HomeServer,
			"export_servers": in.ExportServers,
			"item_ids":       in.ItemIDs,
			"hq_only":        in.HQOnly,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Export Prices",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/export", "home_server": in.HomeServer},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_reselling_scan",
		Description: "Find reselling opportunities across servers or vendors.",
		Annotations: readOnly("Saddlebag Reselling Scan"),
	}, func(ctx context.Context, d *Deps, in resellScanInput) (*mcp.CallToolResult, error) {
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/scan", resellScanPayload(in))
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Reselling Scan",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/scan", "home_server": in.HomeServer},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_weekly_price_group_delta",
		Description: "Compute weekly price deltas for custom item groups.",
		Annotations: readOnly("Saddlebag Weekly Price Group Delta"),
	}, func(ctx context.Context, d *Deps, in weeklyDeltaInput) (*mcp.CallToolResult, error) {
		if in.Region == "" {
			return errorResult("region is required."), nil
		}
		if len(in.PriceGroups) == 0 {
			return errorResult("price_groups must not be empty."), nil
		}
		for _, group := range in.PriceGroups {
			if len(group.ItemIDs) == 0 && len(group.Categories) == 0 {
				return errorResult(fmt.Sprintf("price group %q needs item_ids or categories.", group.Name)), nil
			}
		}
		raw, err := d.Saddlebag.Post(ctx, "/ffxiv/weekly-price-group-delta", map[string]any{
			"region":              in.Region,
			"start_year":          in.StartYear,
			"start_month":         in.StartMonth,
			"start_day":           in.StartDay,
			"end_year":            in.EndYear,
			"end_month":           in.EndMonth,
			"end_day":             in.EndDay,
			"price_groups":        in.PriceGroups,
			"price_setting":       in.PriceSetting,
			"quantity_setting":    in.QuantitySetting,
			"minimum_marketshare": in.MinimumMarketshare,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Weekly Price Group Delta",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/ffxiv/weekly-price-group-delta", "region": in.Region},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_price_check",
		Description: "Check price alerts against current market listings.",
		Annotations: readOnly("Saddlebag Price Check"),
	}, func(ctx context.Context, d *Deps, in priceCheckInput) (*mcp.CallToolResult, error) {
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		if len(in.UserAuctions) == 0 {
			return errorResult("user_auctions must not be empty."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/pricecheck", priceCheckPayload(in))
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Price Check",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/pricecheck", "home_server": in.HomeServer},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_quantity_check",
		Description: "Check quantity alerts against current market listings.",
		Annotations: readOnly("Saddlebag Quantity Check"),
	}, func(ctx context.Context, d *Deps, in quantityCheckInput) (*mcp.CallToolResult, error) {
		if in.HomeServer == "" {
			return errorResult("home_server is required."), nil
		}
		if len(in.UserAuctions) == 0 {
			return errorResult("user_auctions must not be empty."), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/quantitycheck", map[string]any{
			"home_server":   in.HomeServer,
			"user_auctions": in.UserAuctions,
		})
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Quantity Check",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/quantitycheck", "home_server": in.HomeServer},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "saddlebag_sale_alert",
		Description: "Check whether tracked items have sold, based on retainer listings.",
		Annotations: readOnly("Saddlebag Sale Alerts"),
	}, func(ctx context.Context, d *Deps, in saleAlertInput) (*mcp.CallToolResult, error) {
		if len(in.RetainerNames) == 0 {
			return errorResult("retainer_names must not be empty."), nil
		}
		if in.Server == "" {
			return errorResult("server is required."), nil
		}
		if len(in.ItemIDs) == 0 {
			return errorResult("item_ids must not be empty."), nil
		}
		if len(in.ItemIDs) > maxSaddlebagItemIDs {
			return errorResult(fmt.Sprintf("item_ids accepts at most %d ids, got %d.", maxSaddlebagItemIDs, len(in.ItemIDs))), nil
		}
		raw, err := d.Saddlebag.Post(ctx, "/salealert", saleAlertPayload(in))
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Saddlebag Sale Alerts",
			Data:  raw,
			Meta:  map[string]any{"source": "saddlebag", "endpoint": "/salealert", "server": in.Server},
		}.Result(in.Format), nil
	})
}
