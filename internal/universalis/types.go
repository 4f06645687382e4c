package universalis

import "encoding/json"

// The aggregated-data payload is modelled as optional/partial structured
// types: every leaf is a pointer so that missing or wrong-typed upstream
// fields read as absent instead of failing the call.

// MetricPoint is one scoped price/quantity observation.
type MetricPoint struct {
	Price    *float64 `json:"price,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
}

// ScopedMetrics holds a metric at each aggregation scope. The preference
// order when reading is world, then dc, then region.
type ScopedMetrics struct {
	World  *MetricPoint `json:"world,omitempty"`
	DC     *MetricPoint `json:"dc,omitempty"`
	Region *MetricPoint `json:"region,omitempty"`
}

// Pick returns the first non-nil value of the named metric in scope
// preference order, together with the scope it came from.
func (s *ScopedMetrics) Pick(metric func(*MetricPoint) *float64) (value *float64, scope string) {
	if s == nil {
		return nil, ""
	}
	for _, candidate := range []struct {
		point *MetricPoint
		scope string
	}{
		{s.World, "world"},
		{s.DC, "dc"},
		{s.Region, "region"},
	} {
		if candidate.point == nil {
			continue
		}
		if v := metric(candidate.point); v != nil {
			return v, candidate.scope
		}
	}
	return nil, ""
}

// PriceOf reads the price of a metric point.
func PriceOf(p *MetricPoint) *float64 { return p.Price }

// QuantityOf reads the quantity of a metric point.
func QuantityOf(p *MetricPoint) *float64 { return p.Quantity }

// AggregatedVariant holds the aggregated metrics for one quality variant.
type AggregatedVariant struct {
	MinListing        *ScopedMetrics `json:"minListing,omitempty"`
	AverageSalePrice  *ScopedMetrics `json:"averageSalePrice,omitempty"`
	DailySaleVelocity *ScopedMetrics `json:"dailySaleVelocity,omitempty"`
}

// AggregatedItem is the aggregated market data for one item.
type AggregatedItem struct {
	ItemID int                `json:"itemId"`
	NQ     *AggregatedVariant `json:"nq,omitempty"`
	HQ     *AggregatedVariant `json:"hq,omitempty"`
}

// AggregatedResponse is the decoded aggregated-data payload. Raw carries the
// undecoded body for pass-through tools.
type AggregatedResponse struct {
	Results     []AggregatedItem `json:"results"`
	FailedItems []int            `json:"failedItems,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// CurrentItem is the subset of a current-listings entry the ranking
// workflow reads.
type CurrentItem struct {
	ItemID        *int     `json:"itemID,omitempty"`
	UnitsForSale  *float64 `json:"unitsForSale,omitempty"`
	ListingsCount *int     `json:"listingsCount,omitempty"`
}

// CurrentResponse is the decoded current-listings payload. Single-item
// requests return the item object at the top level; multi-item requests
// nest items under an id-keyed map. Both shapes are normalised into Items.
type CurrentResponse struct {
	Items           map[string]CurrentItem
	UnresolvedItems []int

	Raw json.RawMessage
}

// World is one world listed by the reference endpoint.
type World struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DataCenter is one data center listed by the reference endpoint.
type DataCenter struct {
	Name   string `json:"name,omitempty"`
	Region string `json:"region,omitempty"`
	Worlds []int  `json:"worlds,omitempty"`
}
