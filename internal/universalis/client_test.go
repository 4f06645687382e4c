package universalis_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/tivalu/xivmarket/internal/universalis"
)

func newTestClient(handler http.Handler) (*universalis.Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := universalis.New(universalis.Options{BaseURL: srv.URL})
	return client, srv
}

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
}

func TestCurrentSingleItemShape(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(jsonHandler(
		`{"itemID":5594,"unitsForSale":42,"listingsCount":7}`,
	))
	defer srv.Close()

	resp, err := client.Current(context.Background(), "Moogle", []int{5594}, universalis.CurrentOptions{})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	item, ok := resp.Items["5594"]
	if !ok {
		t.Fatalf("Items = %v, want key 5594", resp.Items)
	}
	if item.UnitsForSale == nil || *item.UnitsForSale != 42 {
		t.Errorf("UnitsForSale = %v, want 42", item.UnitsForSale)
	}
	if item.ListingsCount == nil || *item.ListingsCount != 7 {
		t.Errorf("ListingsCount = %v, want 7", item.ListingsCount)
	}
}

func TestCurrentMultiItemShape(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(jsonHandler(
		`{"items":{"5594":{"itemID":5594,"unitsForSale":3},"5595":{"itemID":5595,"unitsForSale":0}},"unresolvedItems":[99999]}`,
	))
	defer srv.Close()

	resp, err := client.Current(context.Background(), "Moogle", []int{5594, 5595, 99999}, universalis.CurrentOptions{})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(resp.Items))
	}
	if got := resp.UnresolvedItems; !reflect.DeepEqual(got, []int{99999}) {
		t.Errorf("UnresolvedItems = %v, want [99999]", got)
	}
}

func TestCurrentQueryOptions(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":{}}`))
	}))
	defer srv.Close()
	client := universalis.New(universalis.Options{BaseURL: srv.URL})

	listings, hq := 5, true
	_, err := client.Current(context.Background(), "Europe", []int{1, 2}, universalis.CurrentOptions{
		Listings: &listings,
		HQ:       &hq,
		Fields:   "items.itemID,items.unitsForSale",
	})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got := gotQuery["listings"]; len(got) != 1 || got[0] != "5" {
		t.Errorf("listings = %v, want [5]", got)
	}
	if got := gotQuery["hq"]; len(got) != 1 || got[0] != "true" {
		t.Errorf("hq = %v, want [true]", got)
	}
	if got := gotQuery["fields"]; len(got) != 1 || got[0] != "items.itemID,items.unitsForSale" {
		t.Errorf("fields = %v, want comma-joined field list", got)
	}
}

func TestAggregatedDecodesAndKeepsRaw(t *testing.T) {
	t.Parallel()

	body := `{"results":[{"itemId":5594,"nq":{"minListing":{"world":{"price":100},"dc":{"price":90}}}}],"failedItems":[12]}`
	client, srv := newTestClient(jsonHandler(body))
	defer srv.Close()

	resp, err := client.Aggregated(context.Background(), "Moogle", []int{5594, 12})
	if err != nil {
		t.Fatalf("Aggregated: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ItemID != 5594 {
		t.Fatalf("Results = %+v, want one result for item 5594", resp.Results)
	}
	if !reflect.DeepEqual(resp.FailedItems, []int{12}) {
		t.Errorf("FailedItems = %v, want [12]", resp.FailedItems)
	}
	if string(resp.Raw) != body {
		t.Errorf("Raw = %s, want the untouched body", resp.Raw)
	}

	price, scope := resp.Results[0].NQ.MinListing.Pick(universalis.PriceOf)
	if price == nil || *price != 100 || scope != "world" {
		t.Errorf("Pick = (%v, %q), want (100, world)", price, scope)
	}
}

func TestScopedMetricsPickOrder(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name      string
		metrics   *universalis.ScopedMetrics
		wantValue *float64
		wantScope string
	}{
		{
			name: "world wins",
			metrics: &universalis.ScopedMetrics{
				World:  &universalis.MetricPoint{Price: f(10)},
				DC:     &universalis.MetricPoint{Price: f(20)},
				Region: &universalis.MetricPoint{Price: f(30)},
			},
			wantValue: f(10),
			wantScope: "world",
		},
		{
			name: "dc when world metric missing",
			metrics: &universalis.ScopedMetrics{
				World:  &universalis.MetricPoint{},
				DC:     &universalis.MetricPoint{Price: f(20)},
				Region: &universalis.MetricPoint{Price: f(30)},
			},
			wantValue: f(20),
			wantScope: "dc",
		},
		{
			name: "region fallback",
			metrics: &universalis.ScopedMetrics{
				Region: &universalis.MetricPoint{Price: f(30)},
			},
			wantValue: f(30),
			wantScope: "region",
		},
		{name: "nil receiver", metrics: nil},
		{name: "all empty", metrics: &universalis.ScopedMetrics{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, scope := tt.metrics.Pick(universalis.PriceOf)
			if (value == nil) != (tt.wantValue == nil) {
				t.Fatalf("value = %v, want %v", value, tt.wantValue)
			}
			if value != nil && *value != *tt.wantValue {
				t.Errorf("value = %v, want %v", *value, *tt.wantValue)
			}
			if scope != tt.wantScope {
				t.Errorf("scope = %q, want %q", scope, tt.wantScope)
			}
		})
	}
}

func TestWorldsCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":71,"name":"Moogle"}]`))
	}))
	defer srv.Close()
	client := universalis.New(universalis.Options{BaseURL: srv.URL})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		worlds, err := client.Worlds(ctx)
		if err != nil {
			t.Fatalf("Worlds call %d: %v", i, err)
		}
		if len(worlds) != 1 || worlds[0].Name != "Moogle" {
			t.Fatalf("Worlds = %v, want [Moogle]", worlds)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream called %d times, want 1 (worlds list must be cached)", n)
	}
}

func TestMarketableCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[2,3,5,7]`))
	}))
	defer srv.Close()
	client := universalis.New(universalis.Options{BaseURL: srv.URL})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ids, err := client.Marketable(ctx)
		if err != nil {
			t.Fatalf("Marketable call %d: %v", i, err)
		}
		if !reflect.DeepEqual(ids, []int{2, 3, 5, 7}) {
			t.Fatalf("Marketable = %v, want [2 3 5 7]", ids)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream called %d times, want 1", n)
	}
}

func TestAggregatedPathJoinsIDs(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()
	client := universalis.New(universalis.Options{BaseURL: srv.URL})

	if _, err := client.Aggregated(context.Background(), "Moogle", []int{1, 2, 3}); err != nil {
		t.Fatalf("Aggregated: %v", err)
	}
	if want := "/aggregated/Moogle/1,2,3"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}
