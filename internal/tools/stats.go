package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type recentUpdatesInput struct {
	World   string `json:"world,omitempty" jsonschema:"World name. Provide either world or dc_name."`
	DCName  string `json:"dc_name,omitempty" jsonschema:"Data center name. Provide either world or dc_name."`
	Entries int    `json:"entries,omitempty" jsonschema:"Number of entries to return (max 200, default 50)."`
	Format  Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

func registerStatsTools(server *mcp.Server, d *Deps) {
	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_most_recent_updates",
		Description: "Fetch the most recently updated market board items on a world or data center.",
		Annotations: readOnly("Universalis Most Recent Updates"),
	}, func(ctx context.Context, d *Deps, in recentUpdatesInput) (*mcp.CallToolResult, error) {
		if in.World == "" && in.DCName == "" {
			return errorResult("Provide either world or dc_name."), nil
		}
		raw, err := d.Universalis.MostRecentlyUpdated(ctx, in.World, in.DCName, in.Entries)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Most Recent Updates",
			Data:  raw,
			Meta:  statsMeta("/extra/stats/most-recently-updated", in.World, in.DCName),
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_least_recent_updates",
		Description: "Fetch the least recently updated market board items on a world or data center.",
		Annotations: readOnly("Universalis Least Recent Updates"),
	}, func(ctx context.Context, d *Deps, in recentUpdatesInput) (*mcp.CallToolResult, error) {
		if in.World == "" && in.DCName == "" {
			return errorResult("Provide either world or dc_name."), nil
		}
		raw, err := d.Universalis.LeastRecentlyUpdated(ctx, in.World, in.DCName, in.Entries)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Least Recent Updates",
			Data:  raw,
			Meta:  statsMeta("/extra/stats/least-recently-updated", in.World, in.DCName),
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_recent_updates",
		Description: "Fetch the legacy list of recently updated items across all worlds.",
		Annotations: readOnly("Universalis Recent Updates"),
	}, func(ctx context.Context, d *Deps, in formatInput) (*mcp.CallToolResult, error) {
		raw, err := d.Universalis.RecentlyUpdated(ctx)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Recent Updates",
			Data:  raw,
			Meta:  map[string]any{"source": "universalis", "endpoint": "/extra/stats/recently-updated"},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_upload_counts_by_source",
		Description: "Fetch upload counts grouped by client application source.",
		Annotations: readOnly("Universalis Upload Counts by Source"),
	}, func(ctx context.Context, d *Deps, in formatInput) (*mcp.CallToolResult, error) {
		raw, err := d.Universalis.UploaderUploadCounts(ctx)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Upload Counts by Source",
			Data:  raw,
			Meta:  map[string]any{"source": "universalis", "endpoint": "/extra/stats/uploader-upload-counts"},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_world_upload_counts",
		Description: "Fetch upload counts and proportions per world.",
		Annotations: readOnly("Universalis World Upload Counts"),
	}, func(ctx context.Context, d *Deps, in formatInput) (*mcp.CallToolResult, error) {
		raw, err := d.Universalis.WorldUploadCounts(ctx)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "World Upload Counts",
			Data:  raw,
			Meta:  map[string]any{"source": "universalis", "endpoint": "/extra/stats/world-upload-counts"},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_upload_history",
		Description: "Fetch the daily upload count history for the past month.",
		Annotations: readOnly("Universalis Upload History"),
	}, func(ctx context.Context, d *Deps, in formatInput) (*mcp.CallToolResult, error) {
		raw, err := d.Universalis.UploadHistory(ctx)
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Upload History",
			Data:  raw,
			Meta:  map[string]any{"source": "universalis", "endpoint": "/extra/stats/upload-history"},
		}.Result(in.Format), nil
	})
}

func statsMeta(endpoint, world, dcName string) map[string]any {
	meta := map[string]any{"source": "universalis", "endpoint": endpoint}
	if world != "" {
		meta["world"] = world
	}
	if dcName != "" {
		meta["dc_name"] = dcName
	}
	return meta
}
