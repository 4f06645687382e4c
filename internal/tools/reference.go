package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type formatInput struct {
	Format Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type taxRatesInput struct {
	World  string `json:"world" jsonschema:"World name. Example: 'Moogle'."`
	Format Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type marketableItemsInput struct {
	Offset int    `json:"offset,omitempty" jsonschema:"Pagination offset into the id list (default: 0)."`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum ids to return (default: 500)."`
	Format Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type listInput struct {
	ListID string `json:"list_id" jsonschema:"Universalis list id (UUID)."`
	Format Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type contentInput struct {
	ContentID string `json:"content_id" jsonschema:"Content id to look up."`
	Format    Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

const defaultMarketableLimit = 500

func registerReferenceTools(server *mcp.Server, d *Deps) {
	addTool(server, d, &mcp.Tool{
		Name:        "universalis_list_worlds",
		Description: "List all game worlds with their ids. Cached server-side for an hour.",
		Annotations: readOnly("Universalis Worlds"),
	}, func(ctx context.Context, d *Deps, in formatInput) (*mcp.CallToolResult, error) {
		worlds, err := d.Universalis.Worlds(ctx)
		if err != nil {
			return nil, err
		}
		return Response{
			Title:   "Worlds",
			Summary: []string{fmt.Sprintf("%d worlds.", len(worlds))},
			Data:    worlds,
			Meta:    map[string]any{"source": "universalis", "endpoint": "/worlds"},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_list_data_centers",
		Description: "List all data centers with their regions and member worlds. Cached server-side for an hour.",
		Annotations: readOnly("Universalis Data Centers"),
	}, func(ctx context.Context, d *Deps, in formatInput) (*mcp.CallToolResult, error) {
		dcs, err := d.Universalis.DataCenters(ctx)
		if err != nil {
			return nil, err
		}
		return Response{
			Title:   "Data Centers",
			Summary: []string{fmt.Sprintf("%d data centers.", len(dcs))},
			Data:    dcs,
			Meta:    map[string]any{"source": "universalis", "endpoint": "/data-centers"},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_tax_rates",
		Description: "Fetch current market tax rates for every city on a world.",
		Annotations: readOnly("Universalis Tax Rates"),
	}, func(ctx context.Context, d *Deps, in taxRatesInput) (*mcp.CallToolResult, error) {
		if in.World == "" {
			return errorResult("world is required."), nil
		}
		raw, err := d.Universalis.TaxRates(ctx, in.World)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Tax Rates",
			Data:  raw,
			Meta:  map[string]any{"source": "universalis", "endpoint": "/tax-rates", "world": in.World},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_list_marketable_items",
		Description: "List the ids of all marketable items. The full list is tens of thousands of ids; use offset and limit to page through it.",
		Annotations: readOnly("Universalis Marketable Items"),
	}, func(ctx context.Context, d *Deps, in marketableItemsInput) (*mcp.CallToolResult, error) {
		ids, err := d.Universalis.Marketable(ctx)
		if err != nil {
			return nil, err
		}
		limit := in.Limit
		if limit <= 0 {
			limit = defaultMarketableLimit
		}
		window, page := Paginate(ids, in.Offset, limit)
		return Response{
			Title:   "Marketable Items",
			Summary: []string{fmt.Sprintf("Showing %d of %d item ids (offset %d).", page.Count, page.Total, page.Offset)},
			Data:    window,
			Meta: map[string]any{
				"source":   "universalis",
				"endpoint": "/marketable",
				"page":     page,
			},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_list",
		Description: "Fetch a user-curated Universalis item list by id.",
		Annotations: readOnly("Universalis List"),
	}, func(ctx context.Context, d *Deps, in listInput) (*mcp.CallToolResult, error) {
		if in.ListID == "" {
			return errorResult("list_id is required."), nil
		}
		raw, err := d.Universalis.List(ctx, in.ListID)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Item List",
			Data:  raw,
			Meta:  map[string]any{"source": "universalis", "endpoint": "/lists/{listId}", "list_id": in.ListID},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_content",
		Description: "Fetch content metadata by content id. Best-effort upstream; may return an empty object.",
		Annotations: readOnly("Universalis Content"),
	}, func(ctx context.Context, d *Deps, in contentInput) (*mcp.CallToolResult, error) {
		if in.ContentID == "" {
			return errorResult("content_id is required."), nil
		}
		raw, err := d.Universalis.Content(ctx, in.ContentID)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Content",
			Data:  raw,
			Meta:  map[string]any{"source": "universalis", "endpoint": "/extra/content/{contentId}", "content_id": in.ContentID},
		}.Result(in.Format), nil
	})
}
