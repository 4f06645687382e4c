package tools

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestListingMetricsPayloadOmitsUnsetAgeFilters(t *testing.T) {
	t.Parallel()

	payload := listingMetricsPayload(listingMetricsInput{ItemID: 5594, HomeServer: "Moogle"})
	want := map[string]any{"item_id": 5594, "home_server": "Moogle"}
	if !reflect.DeepEqual(payload, want) {
		t.Errorf("payload = %v, want %v", payload, want)
	}

	days := 7
	payload = listingMetricsPayload(listingMetricsInput{
		ItemID: 5594, HomeServer: "Moogle", InitialDays: &days,
	})
	if payload["initial_days"] != 7 {
		t.Errorf("initial_days = %v, want 7", payload["initial_days"])
	}
	if _, ok := payload["end_days"]; ok {
		t.Error("end_days present in payload, want omitted when unset")
	}
}

func TestHistoryMetricsPayloadOmitsEmptyItemType(t *testing.T) {
	t.Parallel()

	payload := historyMetricsPayload(historyMetricsInput{ItemID: 5594, HomeServer: "Moogle"})
	if _, ok := payload["item_type"]; ok {
		t.Error("item_type present in payload, want omitted when empty")
	}

	payload = historyMetricsPayload(historyMetricsInput{
		ItemID: 5594, HomeServer: "Moogle", ItemType: "hq_only",
	})
	if payload["item_type"] != "hq_only" {
		t.Errorf("item_type = %v, want hq_only", payload["item_type"])
	}
}

func TestResellScanPayloadOmitsEmptyListUID(t *testing.T) {
	t.Parallel()

	payload := resellScanPayload(resellScanInput{HomeServer: "Moogle", Filters: []int{0}})
	if _, ok := payload["universalis_list_uid"]; ok {
		t.Error("universalis_list_uid present in payload, want omitted when empty")
	}
	if payload["home_server"] != "Moogle" {
		t.Errorf("home_server = %v, want Moogle", payload["home_server"])
	}

	payload = resellScanPayload(resellScanInput{HomeServer: "Moogle", UniversalisListUID: "abc"})
	if payload["universalis_list_uid"] != "abc" {
		t.Errorf("universalis_list_uid = %v, want abc", payload["universalis_list_uid"])
	}
}

func TestPriceCheckPayloadSendsDCOnlyOnlyWhenSet(t *testing.T) {
	t.Parallel()

	alerts := []priceAlert{{ItemID: 5594, Price: 100, DesiredState: "below"}}
	payload := priceCheckPayload(priceCheckInput{HomeServer: "Moogle", UserAuctions: alerts})
	if _, ok := payload["dc_only"]; ok {
		t.Error("dc_only present in payload, want omitted when unset")
	}

	dcOnly := false
	payload = priceCheckPayload(priceCheckInput{
		HomeServer: "Moogle", UserAuctions: alerts, DCOnly: &dcOnly,
	})
	if v, ok := payload["dc_only"]; !ok || v != false {
		t.Errorf("dc_only = (%v, %v), want an explicit false", v, ok)
	}
}

func TestSaleAlertPayloadOmitsEmptySellerID(t *testing.T) {
	t.Parallel()

	payload := saleAlertPayload(saleAlertInput{
		RetainerNames: []string{"Retainer One"}, Server: "Moogle", ItemIDs: []int{5594},
	})
	if _, ok := payload["seller_id"]; ok {
		t.Error("seller_id present in payload, want omitted when empty")
	}
}

func TestTruncateCraftsimData(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`{"data": [1, 2, 3, 4, 5], "other": "kept"}`)

	data, summary := truncateCraftsimData(raw, 10)
	if !reflect.DeepEqual(data, any(raw)) {
		t.Errorf("short list was modified: %v", data)
	}
	if summary != nil {
		t.Errorf("summary = %v, want none for a short list", summary)
	}

	data, summary = truncateCraftsimData(raw, 2)
	decoded, ok := data.(map[string]any)
	if !ok {
		t.Fatalf("truncated data = %T, want map", data)
	}
	if list := decoded["data"].([]any); len(list) != 2 {
		t.Errorf("len(data) = %d, want 2", len(list))
	}
	if decoded["other"] != "kept" {
		t.Errorf("sibling field = %v, want kept", decoded["other"])
	}
	if len(summary) != 1 || summary[0] != "Showing 2 of 5 recipes." {
		t.Errorf("summary = %v, want the cut reported", summary)
	}

	// Non-object responses pass through untouched.
	scalar := json.RawMessage(`[1, 2, 3]`)
	if data, summary = truncateCraftsimData(scalar, 1); summary != nil {
		t.Errorf("summary = %v for a non-object response, want none", summary)
	}
}
