// Package tools registers the MCP tool surface: market data, game-data
// reference, upload statistics, name resolution, the profitability-ranking
// workflow, and the Saddlebag analytics pass-throughs.
package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tivalu/xivmarket/internal/fetch"
	"github.com/tivalu/xivmarket/internal/materia"
	"github.com/tivalu/xivmarket/internal/observe"
	"github.com/tivalu/xivmarket/internal/rank"
	"github.com/tivalu/xivmarket/internal/resolve"
	"github.com/tivalu/xivmarket/internal/saddlebag"
	"github.com/tivalu/xivmarket/internal/universalis"
	"github.com/tivalu/xivmarket/internal/xivapi"
)

// Deps bundles everything the tool handlers need.
type Deps struct {
	Logger  *slog.Logger
	Metrics *observe.Metrics

	XIVAPI      *xivapi.Client
	Universalis *universalis.Client
	Saddlebag   *saddlebag.Client
	Materia     *materia.Cache
	Resolver    *resolve.Pipeline
	Ranker      *rank.Ranker

	// MinVelocity is the configured default for the ranking workflow's
	// minimum-demand gate.
	MinVelocity float64
}

// Instructions is the server usage text, also served by the
// universalis_usage_guide prompt.
const Instructions = `This server exposes FFXIV market-board data from Universalis, game data
from XIVAPI, and market analytics from Saddlebag Exchange.

Typical flows:
- Resolve item names to ids first with universalis_resolve_items_by_name.
  Materia category phrases like "Combat Materia IX" expand automatically
  into every matching materia item.
- Use universalis_get_aggregated_prices for price summaries (cached
  upstream, cheap), universalis_get_current_listings for live listings,
  and universalis_get_sales_history for raw sale records.
- universalis_rank_items_by_profitability combines resolution, aggregated
  prices, and demand into a cost-normalized ranking; give each item its
  acquisition cost (defaults to Bicolor Gemstones as the unit).
- Reference tools (worlds, data centers, tax rates, marketable items) are
  cached in the server; call them freely.

Scopes are a world name ("Moogle"), a data center ("Light"), or a region
("Europe"). Responses render as markdown by default; pass
response_format="json" for machine-readable output.`

// RegisterAll registers every tool and prompt on the server.
func RegisterAll(server *mcp.Server, d *Deps) {
	registerMarketTools(server, d)
	registerReferenceTools(server, d)
	registerStatsTools(server, d)
	registerLookupTools(server, d)
	registerWorkflowTools(server, d)
	registerSaddlebagTools(server, d)

	server.AddPrompt(&mcp.Prompt{
		Name:        "universalis_usage_guide",
		Description: "How to combine the market, reference, and workflow tools.",
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: "Usage guide for the xivmarket tool set.",
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: Instructions},
			}},
		}, nil
	})
}

// readOnly is the annotation set shared by every tool: they all query
// external services and mutate nothing.
func readOnly(title string) *mcp.ToolAnnotations {
	no := false
	yes := true
	return &mcp.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    true,
		DestructiveHint: &no,
		IdempotentHint:  true,
		OpenWorldHint:   &yes,
	}
}

// addTool registers a handler with metrics recording and uniform upstream
// error conversion: an APIError becomes an is-error tool result instead of a
// protocol failure, so agents can read the upstream message.
func addTool[In any](server *mcp.Server, d *Deps, tool *mcp.Tool, h func(ctx context.Context, d *Deps, in In) (*mcp.CallToolResult, error)) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		res, err := h(ctx, d, in)
		if err != nil {
			var apiErr *fetch.APIError
			if errors.As(err, &apiErr) {
				d.Logger.Warn("upstream request failed",
					"tool", tool.Name, "status", apiErr.Status, "err", apiErr.Message)
				res = errorResult("Upstream request failed: " + apiErr.Error())
				err = nil
			}
		}
		isError := err != nil || (res != nil && res.IsError)
		d.Metrics.RecordToolCall(ctx, tool.Name, isError, time.Since(start))
		return res, nil, err
	})
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}
