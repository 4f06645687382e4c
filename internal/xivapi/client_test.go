package xivapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tivalu/xivmarket/internal/xivapi"
)

func TestSearchDecodesAndCaches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"schema":"Item","results":[{"score":1,"sheet":"Item","row_id":5594,"fields":{"Name":"Dark Matter"}}]}`))
	}))
	defer srv.Close()
	client := xivapi.New(xivapi.Options{BaseURL: srv.URL})

	ctx := context.Background()
	params := xivapi.SearchParams{Query: `Name="Dark Matter"`, Sheets: "Item", Fields: "Name"}
	for i := 0; i < 3; i++ {
		resp, err := client.Search(ctx, params)
		if err != nil {
			t.Fatalf("Search call %d: %v", i, err)
		}
		if len(resp.Results) != 1 {
			t.Fatalf("Results = %v, want one row", resp.Results)
		}
		if got := resp.Results[0].Name(); got != "Dark Matter" {
			t.Errorf("Name() = %q, want Dark Matter", got)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream called %d times for identical searches, want 1", n)
	}
}

func TestSearchCacheKeyedOnParams(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()
	client := xivapi.New(xivapi.Options{BaseURL: srv.URL})

	ctx := context.Background()
	if _, err := client.Search(ctx, xivapi.SearchParams{Query: `Name="A"`, Sheets: "Item"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, err := client.Search(ctx, xivapi.SearchParams{Query: `Name="B"`, Sheets: "Item"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("upstream called %d times for distinct queries, want 2", n)
	}
}

func TestSearchDefaultsLanguageAndVersion(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()
	client := xivapi.New(xivapi.Options{BaseURL: srv.URL})

	if _, err := client.Search(context.Background(), xivapi.SearchParams{Query: `Name="X"`, Sheets: "Item"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := gotQuery["language"]; len(got) != 1 || got[0] != "en" {
		t.Errorf("language = %v, want [en]", got)
	}
	if got := gotQuery["version"]; len(got) != 1 || got[0] != "latest" {
		t.Errorf("version = %v, want [latest]", got)
	}
}

func TestItemByIDCachesPerFieldSelection(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/sheet/Item/5594" {
			t.Errorf("path = %q, want /sheet/Item/5594", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"row_id":5594,"fields":{"Name":"Dark Matter"}}`))
	}))
	defer srv.Close()
	client := xivapi.New(xivapi.Options{BaseURL: srv.URL})

	ctx := context.Background()
	if _, err := client.ItemByID(ctx, 5594, xivapi.RowParams{Fields: "Name"}); err != nil {
		t.Fatalf("ItemByID: %v", err)
	}
	if _, err := client.ItemByID(ctx, 5594, xivapi.RowParams{Fields: "Name"}); err != nil {
		t.Fatalf("ItemByID repeat: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("upstream called %d times for identical row requests, want 1", n)
	}

	// A different field selection is a different cache entry.
	if _, err := client.ItemByID(ctx, 5594, xivapi.RowParams{Fields: "Name,Icon"}); err != nil {
		t.Fatalf("ItemByID with wider fields: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("upstream called %d times after a wider field selection, want 2", n)
	}
}

func TestSheetRowsPagingParams(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		if r.URL.Path != "/sheet/Materia" {
			t.Errorf("path = %q, want /sheet/Materia", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version":"7.2","rows":[{"row_id":12,"fields":{}}]}`))
	}))
	defer srv.Close()
	client := xivapi.New(xivapi.Options{BaseURL: srv.URL})

	page, err := client.SheetRows(context.Background(), "Materia", xivapi.SheetRowsParams{
		Limit:  200,
		After:  12,
		Fields: "BaseParam.Name,Item[].Name",
	})
	if err != nil {
		t.Fatalf("SheetRows: %v", err)
	}
	if got := gotQuery["limit"]; len(got) != 1 || got[0] != "200" {
		t.Errorf("limit = %v, want [200]", got)
	}
	if got := gotQuery["after"]; len(got) != 1 || got[0] != "12" {
		t.Errorf("after = %v, want [12]", got)
	}
	if page.Version != "7.2" || len(page.Rows) != 1 || page.Rows[0].RowID != 12 {
		t.Errorf("page = %+v, want version 7.2 with row 12", page)
	}
}

func TestSheetRowsFirstPageOmitsAfter(t *testing.T) {
	t.Parallel()

	var hasAfter bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasAfter = r.URL.Query().Has("after")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer srv.Close()
	client := xivapi.New(xivapi.Options{BaseURL: srv.URL})

	if _, err := client.SheetRows(context.Background(), "Materia", xivapi.SheetRowsParams{Limit: 200}); err != nil {
		t.Fatalf("SheetRows: %v", err)
	}
	if hasAfter {
		t.Error("first page request carried an after cursor, want none")
	}
}
