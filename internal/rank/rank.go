// Package rank implements the profitability-ranking workflow: resolved item
// ids are joined against aggregated market data and scored by how much gil a
// unit of acquisition cost returns per day.
package rank

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/tivalu/xivmarket/internal/match"
	"github.com/tivalu/xivmarket/internal/resolve"
	"github.com/tivalu/xivmarket/internal/universalis"
)

// Metric selects the price statistic used for scoring.
type Metric string

const (
	MetricMinListing       Metric = "min_listing"
	MetricAverageSalePrice Metric = "average_sale_price"
)

// IsValid reports whether m is a recognised price metric.
func (m Metric) IsValid() bool {
	return m == MetricMinListing || m == MetricAverageSalePrice
}

// Variant selects which quality variant is considered.
type Variant string

const (
	VariantNQ   Variant = "nq"
	VariantHQ   Variant = "hq"
	VariantBest Variant = "best"
)

// IsValid reports whether v is a recognised price variant.
func (v Variant) IsValid() bool {
	return v == VariantNQ || v == VariantHQ || v == VariantBest
}

// summaryTop is how many entries the human-readable summary names.
const summaryTop = 3

// Params describes one ranking request.
type Params struct {
	// Scope is the world, data center, or region prices are read from.
	Scope string

	// Items are the phrases to resolve and rank, each with its cost.
	Items []resolve.Input

	// Mode is the default match mode for direct (non-expanded) names.
	Mode match.Mode

	// PriceMetric and PriceVariant choose the price statistic.
	PriceMetric  Metric
	PriceVariant Variant

	// CheckMarketable excludes items missing from the upstream marketable
	// list before pricing.
	CheckMarketable bool

	// IncludeSupply also fetches live units-for-sale and listing counts.
	IncludeSupply bool

	// MinVelocity excludes entries selling slower than this many units per
	// day from the scored ranking. Zero disables the gate.
	MinVelocity float64

	// Language is the game-data search language.
	Language string
}

// Entry is one ranked item.
type Entry struct {
	resolve.Entry

	PriceVariant    Variant  `json:"price_variant,omitempty"`
	PriceMetric     Metric   `json:"price_metric,omitempty"`
	Price           *float64 `json:"price"`
	PriceScope      string   `json:"price_scope,omitempty"`
	DemandPerDay    *float64 `json:"demand_per_day"`
	DemandScope     string   `json:"demand_scope,omitempty"`
	SupplyUnits     *float64 `json:"supply_units,omitempty"`
	ListingsCount   *int     `json:"listings_count,omitempty"`
	SaturationRatio *float64 `json:"saturation_ratio,omitempty"`
	GilPerCost      *float64 `json:"gil_per_cost"`
	RankingScore    *float64 `json:"ranking_score"`
}

// Outcome is the full result of one ranking call.
type Outcome struct {
	Ranking           []Entry  `json:"ranking"`
	Unmatched         []string `json:"unmatched,omitempty"`
	UnmatchedExpanded []string `json:"unmatched_expanded,omitempty"`
	FailedItems       []int    `json:"failed_items,omitempty"`

	Summary []string `json:"-"`
}

// MarketData is the market-side dependency, implemented by
// [universalis.Client].
type MarketData interface {
	Aggregated(ctx context.Context, scope string, ids []int) (*universalis.AggregatedResponse, error)
	Current(ctx context.Context, scope string, ids []int, opts universalis.CurrentOptions) (*universalis.CurrentResponse, error)
	Marketable(ctx context.Context) ([]int, error)
}

// Resolver is the name-resolution dependency, implemented by
// [resolve.Pipeline].
type Resolver interface {
	Resolve(ctx context.Context, inputs []resolve.Input, mode match.Mode, language string) (*resolve.Result, error)
}

// Ranker joins resolution output with market data.
type Ranker struct {
	resolver Resolver
	market   MarketData
}

// New creates a Ranker.
func New(resolver Resolver, market MarketData) *Ranker {
	return &Ranker{resolver: resolver, market: market}
}

// Rank runs the full workflow. Resolution or market-data request failures
// abort the call; individual unresolved or unpriced items degrade to
// annotated entries instead.
func (r *Ranker) Rank(ctx context.Context, p Params) (*Outcome, error) {
	resolved, err := r.resolver.Resolve(ctx, p.Items, p.Mode, p.Language)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(resolved.Entries))
	for i, re := range resolved.Entries {
		entries[i] = Entry{Entry: re, PriceMetric: p.PriceMetric}
	}

	if p.CheckMarketable {
		if err := r.applyMarketableFilter(ctx, entries); err != nil {
			return nil, err
		}
	}

	ids := pricedIDs(entries)
	outcome := &Outcome{
		Unmatched:         resolved.Unmatched,
		UnmatchedExpanded: resolved.UnmatchedExpanded,
	}

	aggregated := map[int]universalis.AggregatedItem{}
	if len(ids) > 0 {
		var err error
		aggregated, outcome.FailedItems, err = r.fetchAggregated(ctx, p.Scope, ids)
		if err != nil {
			return nil, err
		}
	}

	supply := map[int]universalis.CurrentItem{}
	if p.IncludeSupply && len(ids) > 0 {
		supply = r.fetchSupply(ctx, p.Scope, ids)
	}

	for i := range entries {
		r.scoreEntry(&entries[i], p, aggregated, supply)
	}

	// Stable descending sort; entries without a score rank below every
	// scored entry.
	sort.SliceStable(entries, func(i, j int) bool {
		return scoreOrNeg(entries[i]) > scoreOrNeg(entries[j])
	})

	outcome.Ranking = entries
	outcome.Summary = buildSummary(entries)
	return outcome, nil
}

func (r *Ranker) applyMarketableFilter(ctx context.Context, entries []Entry) error {
	ids, err := r.market.Marketable(ctx)
	if err != nil {
		return err
	}
	marketable := make(map[int]bool, len(ids))
	for _, id := range ids {
		marketable[id] = true
	}
	for i := range entries {
		e := &entries[i]
		if e.ItemID == nil {
			continue
		}
		ok := marketable[*e.ItemID]
		e.Marketable = &ok
		if !ok {
			e.Notes = append(e.Notes, "Item is not marketable; excluded from pricing.")
		}
	}
	return nil
}

// pricedIDs returns the distinct resolved ids that survived the marketable
// filter, in entry order.
func pricedIDs(entries []Entry) []int {
	seen := map[int]bool{}
	var ids []int
	for _, e := range entries {
		if e.ItemID == nil || (e.Marketable != nil && !*e.Marketable) {
			continue
		}
		if !seen[*e.ItemID] {
			seen[*e.ItemID] = true
			ids = append(ids, *e.ItemID)
		}
	}
	return ids
}

// fetchAggregated pulls aggregated data for ids, chunked to the upstream
// per-request cap. Chunks are issued sequentially to respect the upstream
// rate budget.
func (r *Ranker) fetchAggregated(ctx context.Context, scope string, ids []int) (map[int]universalis.AggregatedItem, []int, error) {
	byID := map[int]universalis.AggregatedItem{}
	var failed []int
	for _, chunk := range chunkIDs(ids, universalis.MaxItemIDsPerRequest) {
		resp, err := r.market.Aggregated(ctx, scope, chunk)
		if err != nil {
			return nil, nil, err
		}
		for _, item := range resp.Results {
			byID[item.ItemID] = item
		}
		failed = append(failed, resp.FailedItems...)
	}
	return byID, failed, nil
}

// fetchSupply pulls live listing counts. Supply data is an enrichment:
// failures degrade to missing values instead of aborting the ranking. The
// upstream names fields differently for single-item and multi-item queries,
// so the field selection string branches on chunk size.
func (r *Ranker) fetchSupply(ctx context.Context, scope string, ids []int) map[int]universalis.CurrentItem {
	byID := map[int]universalis.CurrentItem{}
	for _, chunk := range chunkIDs(ids, universalis.MaxItemIDsPerRequest) {
		fields := "items.itemID,items.unitsForSale,items.listingsCount"
		if len(chunk) == 1 {
			fields = "itemID,unitsForSale,listingsCount"
		}
		zero := 0
		resp, err := r.market.Current(ctx, scope, chunk, universalis.CurrentOptions{
			Listings: &zero,
			Entries:  &zero,
			Fields:   fields,
		})
		if err != nil {
			continue
		}
		for key, item := range resp.Items {
			id, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			byID[id] = item
		}
	}
	return byID
}

// variantScore is one evaluated quality variant.
type variantScore struct {
	variant      Variant
	price        *float64
	priceScope   string
	demand       *float64
	demandScope  string
	gilPerCost   *float64
	rankingScore *float64
}

func (r *Ranker) scoreEntry(e *Entry, p Params, aggregated map[int]universalis.AggregatedItem, supply map[int]universalis.CurrentItem) {
	if e.ItemID == nil || (e.Marketable != nil && !*e.Marketable) {
		return
	}

	item, ok := aggregated[*e.ItemID]
	if !ok {
		e.Notes = append(e.Notes, "No aggregated market data available.")
		return
	}

	var candidates []variantScore
	if p.PriceVariant == VariantBest {
		candidates = []variantScore{
			evaluateVariant(item.NQ, VariantNQ, p.PriceMetric, e.Cost),
			evaluateVariant(item.HQ, VariantHQ, p.PriceMetric, e.Cost),
		}
	} else {
		variant := item.NQ
		if p.PriceVariant == VariantHQ {
			variant = item.HQ
		}
		candidates = []variantScore{evaluateVariant(variant, p.PriceVariant, p.PriceMetric, e.Cost)}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if scoreValue(c.rankingScore) > scoreValue(best.rankingScore) {
			best = c
		}
	}

	e.PriceVariant = best.variant
	e.Price = best.price
	e.PriceScope = best.priceScope
	e.DemandPerDay = best.demand
	e.DemandScope = best.demandScope
	e.GilPerCost = best.gilPerCost
	e.RankingScore = best.rankingScore

	if e.Price == nil {
		e.Notes = append(e.Notes, "No price data available.")
	}
	if e.DemandPerDay == nil {
		e.Notes = append(e.Notes, "No demand data available.")
	}

	if s, ok := supply[*e.ItemID]; ok {
		e.SupplyUnits = s.UnitsForSale
		e.ListingsCount = s.ListingsCount
		if s.UnitsForSale != nil && e.DemandPerDay != nil && *e.DemandPerDay > 0 {
			ratio := *s.UnitsForSale / *e.DemandPerDay
			e.SaturationRatio = &ratio
		}
	}

	// The minimum-demand gate nulls the score but keeps the computed
	// price and demand visible.
	if p.MinVelocity > 0 && e.RankingScore != nil {
		if e.DemandPerDay == nil || *e.DemandPerDay < p.MinVelocity {
			e.RankingScore = nil
			e.Notes = append(e.Notes,
				fmt.Sprintf("Below minimum demand threshold (%.1f/day required).", p.MinVelocity))
		}
	}
}

// evaluateVariant reads the price and velocity of one quality variant in
// scope preference order and scores it against cost.
func evaluateVariant(v *universalis.AggregatedVariant, variant Variant, metric Metric, cost float64) variantScore {
	vs := variantScore{variant: variant}
	if v == nil {
		return vs
	}

	priceNode := v.MinListing
	if metric == MetricAverageSalePrice {
		priceNode = v.AverageSalePrice
	}
	vs.price, vs.priceScope = priceNode.Pick(universalis.PriceOf)
	vs.demand, vs.demandScope = v.DailySaleVelocity.Pick(universalis.QuantityOf)

	if vs.price == nil || *vs.price == 0 || cost <= 0 {
		return vs
	}
	gilPerCost := *vs.price / cost
	vs.gilPerCost = &gilPerCost

	score := gilPerCost
	if vs.demand != nil && *vs.demand != 0 {
		score = gilPerCost * *vs.demand
	}
	vs.rankingScore = &score
	return vs
}

func buildSummary(entries []Entry) []string {
	var lines []string
	for _, e := range entries {
		if e.RankingScore == nil {
			continue
		}
		name := e.MatchedName
		if name == "" {
			name = e.InputName
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%.2f score)", len(lines)+1, name, *e.RankingScore))
		if len(lines) == summaryTop {
			break
		}
	}
	return lines
}

func scoreOrNeg(e Entry) float64 {
	return scoreValue(e.RankingScore)
}

func scoreValue(score *float64) float64 {
	if score == nil {
		return -1
	}
	return *score
}

func chunkIDs(ids []int, size int) [][]int {
	var chunks [][]int
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
