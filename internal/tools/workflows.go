package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tivalu/xivmarket/internal/rank"
	"github.com/tivalu/xivmarket/internal/resolve"
)

type costItem struct {
	Name     string  `json:"name" jsonschema:"Item name or materia category phrase."`
	Cost     float64 `json:"cost" jsonschema:"Cost to acquire one unit of the item."`
	CostUnit string  `json:"cost_unit,omitempty" jsonschema:"Cost unit label. Default: 'Bicolor Gemstone'."`
}

type rankInput struct {
	Scope           string     `json:"world_dc_region" jsonschema:"World, data center, or region to price against. Example: 'Moogle'."`
	Items           []costItem `json:"items" jsonschema:"Items to rank, each with its acquisition cost. At most 100."`
	MatchMode       string     `json:"match_mode,omitempty" jsonschema:"Match mode for direct names: exact (default) or partial."`
	PriceMetric     string     `json:"price_metric,omitempty" jsonschema:"Price metric: min_listing (default) or average_sale_price."`
	PriceVariant    string     `json:"price_variant,omitempty" jsonschema:"Quality variant: nq (default), hq, or best."`
	CheckMarketable bool       `json:"check_marketable,omitempty" jsonschema:"Exclude items missing from the marketable-items list before pricing."`
	IncludeSupply   bool       `json:"include_supply,omitempty" jsonschema:"Also fetch live units-for-sale and listing counts per item."`
	MinVelocity     *float64   `json:"min_velocity,omitempty" jsonschema:"Minimum daily sale velocity; slower items keep their data but rank unscored. Defaults to the server setting."`
	Language        string     `json:"language,omitempty" jsonschema:"XIVAPI language code for name resolution."`
	Format          Format     `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

const maxRankItems = 100

func registerWorkflowTools(server *mcp.Server, d *Deps) {
	addTool(server, d, &mcp.Tool{
		Name:        "universalis_rank_items_by_profitability",
		Description: "Resolve item names (materia phrases expand automatically), fetch aggregated market data, and rank items by gil returned per unit of acquisition cost, weighted by daily sale velocity.",
		Annotations: readOnly("Rank Items by Profitability"),
	}, func(ctx context.Context, d *Deps, in rankInput) (*mcp.CallToolResult, error) {
		if in.Scope == "" {
			return errorResult("world_dc_region is required."), nil
		}
		if len(in.Items) == 0 {
			return errorResult("items must not be empty."), nil
		}
		if len(in.Items) > maxRankItems {
			return errorResult(fmt.Sprintf("items accepts at most %d entries, got %d.", maxRankItems, len(in.Items))), nil
		}

		mode, err := parseMatchMode(in.MatchMode)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		metric := rank.Metric(in.PriceMetric)
		if metric == "" {
			metric = rank.MetricMinListing
		}
		if !metric.IsValid() {
			return errorResult(fmt.Sprintf("price_metric %q is invalid; valid values: min_listing, average_sale_price", in.PriceMetric)), nil
		}
		variant := rank.Variant(in.PriceVariant)
		if variant == "" {
			variant = rank.VariantNQ
		}
		if !variant.IsValid() {
			return errorResult(fmt.Sprintf("price_variant %q is invalid; valid values: nq, hq, best", in.PriceVariant)), nil
		}
		for i, item := range in.Items {
			if item.Name == "" {
				return errorResult(fmt.Sprintf("items[%d].name is required.", i)), nil
			}
			if item.Cost <= 0 {
				return errorResult(fmt.Sprintf("items[%d].cost must be positive.", i)), nil
			}
		}

		minVelocity := d.MinVelocity
		if in.MinVelocity != nil {
			minVelocity = *in.MinVelocity
		}

		inputs := make([]resolve.Input, len(in.Items))
		for i, item := range in.Items {
			inputs[i] = resolve.Input{Name: item.Name, Cost: item.Cost, CostUnit: item.CostUnit}
		}

		outcome, err := d.Ranker.Rank(ctx, rank.Params{
			Scope:           in.Scope,
			Items:           inputs,
			Mode:            mode,
			PriceMetric:     metric,
			PriceVariant:    variant,
			CheckMarketable: in.CheckMarketable,
			IncludeSupply:   in.IncludeSupply,
			MinVelocity:     minVelocity,
			Language:        in.Language,
		})
		if err != nil {
			return nil, err
		}

		meta := map[string]any{
			"source":          "universalis",
			"endpoint":        "/aggregated/{worldDcRegion}/{itemIds}",
			"world_dc_region": in.Scope,
			"price_metric":    string(metric),
			"price_variant":   string(variant),
		}
		if len(outcome.FailedItems) > 0 {
			meta["failed_items"] = outcome.FailedItems
		}

		return Response{
			Title:   "Profitability Ranking",
			Summary: outcome.Summary,
			Data:    outcome,
			Meta:    meta,
		}.Result(in.Format), nil
	})
}
