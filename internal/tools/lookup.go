package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tivalu/xivmarket/internal/match"
	"github.com/tivalu/xivmarket/internal/resolve"
	"github.com/tivalu/xivmarket/internal/xivapi"
)

// defaultItemFields is what single-item lookups select when the caller does
// not ask for specific fields.
const defaultItemFields = "Name,Icon,ItemSearchCategory,LevelItem"

func resolveRowParams(fields, language string) xivapi.RowParams {
	if fields == "" {
		fields = defaultItemFields
	}
	return xivapi.RowParams{Fields: fields, Language: language}
}

type resolveItemsInput struct {
	Names     []string `json:"names" jsonschema:"Item names or materia category phrases to resolve. Example: ['Dark Matter', 'Combat Materia IX']."`
	MatchMode string   `json:"match_mode,omitempty" jsonschema:"Match mode for direct names: exact (default) or partial."`
	Language  string   `json:"language,omitempty" jsonschema:"XIVAPI language code (en, ja, de, fr, ...)."`
	Format    Format   `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type itemByIDInput struct {
	ItemID   int    `json:"item_id" jsonschema:"Item id. Example: 5333."`
	Fields   string `json:"fields,omitempty" jsonschema:"Comma-separated XIVAPI fields to select."`
	Language string `json:"language,omitempty" jsonschema:"XIVAPI language code."`
	Format   Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

type expandMateriaInput struct {
	Phrase string `json:"phrase" jsonschema:"Materia category phrase. Example: 'Combat Materia IX' or 'crafting materia 10'."`
	Format Format `json:"response_format,omitempty" jsonschema:"Response format: markdown (default) or json."`
}

func parseMatchMode(raw string) (match.Mode, error) {
	if raw == "" {
		return match.ModeExact, nil
	}
	mode := match.Mode(raw)
	if !mode.IsValid() {
		return "", fmt.Errorf("match_mode %q is invalid; valid values: exact, partial", raw)
	}
	return mode, nil
}

func registerLookupTools(server *mcp.Server, d *Deps) {
	addTool(server, d, &mcp.Tool{
		Name:        "universalis_resolve_items_by_name",
		Description: "Resolve item names to canonical item ids. Materia category phrases like 'Combat Materia IX' expand into every matching materia item; direct exact-mode misses are retried once with partial matching.",
		Annotations: readOnly("Resolve Items by Name"),
	}, func(ctx context.Context, d *Deps, in resolveItemsInput) (*mcp.CallToolResult, error) {
		if len(in.Names) == 0 {
			return errorResult("names must not be empty."), nil
		}
		mode, err := parseMatchMode(in.MatchMode)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		inputs := make([]resolve.Input, len(in.Names))
		for i, name := range in.Names {
			inputs[i] = resolve.Input{Name: name}
		}
		result, err := d.Resolver.Resolve(ctx, inputs, mode, in.Language)
		if err != nil {
			return nil, err
		}

		resolved := 0
		for _, e := range result.Entries {
			if e.ItemID != nil {
				resolved++
			}
		}
		summary := []string{fmt.Sprintf("%d of %d names resolved.", resolved, len(result.Entries))}
		if len(result.Unmatched) > 0 {
			summary = append(summary, fmt.Sprintf("%d input phrases unmatched.", len(result.Unmatched)))
		}

		return Response{
			Title:   "Resolved Items",
			Summary: summary,
			Data: map[string]any{
				"entries":            result.Entries,
				"unmatched":          result.Unmatched,
				"unmatched_expanded": result.UnmatchedExpanded,
			},
			Meta: map[string]any{
				"source":     "xivapi",
				"endpoint":   "/search",
				"match_mode": string(mode),
			},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_get_item_by_id",
		Description: "Fetch a single item row from XIVAPI by item id.",
		Annotations: readOnly("Get Item by ID"),
	}, func(ctx context.Context, d *Deps, in itemByIDInput) (*mcp.CallToolResult, error) {
		if in.ItemID < 1 {
			return errorResult("item_id must be a positive integer."), nil
		}
		raw, err := d.XIVAPI.ItemByID(ctx, in.ItemID, resolveRowParams(in.Fields, in.Language))
		if err != nil {
			return nil, err
		}
		return Response{
			Title: "Item Details",
			Data:  raw,
			Meta: map[string]any{
				"source":   "xivapi",
				"endpoint": "/sheet/Item/{row}",
				"item_id":  in.ItemID,
			},
		}.Result(in.Format), nil
	})

	addTool(server, d, &mcp.Tool{
		Name:        "universalis_expand_materia_category",
		Description: "Expand a materia category phrase ('Combat Materia IX') into the concrete materia item names of that category and grade.",
		Annotations: readOnly("Expand Materia Category"),
	}, func(ctx context.Context, d *Deps, in expandMateriaInput) (*mcp.CallToolResult, error) {
		if in.Phrase == "" {
			return errorResult("phrase is required."), nil
		}
		exp, err := d.Materia.Expand(ctx, in.Phrase)
		if err != nil {
			return nil, err
		}
		if exp == nil {
			return Response{
				Title:   "Materia Expansion",
				Summary: []string{fmt.Sprintf("%q does not match any materia category phrase.", in.Phrase)},
				Data:    nil,
				Meta:    map[string]any{"phrase": in.Phrase},
			}.Result(in.Format), nil
		}

		var summary []string
		switch {
		case exp.Grade == "":
			summary = []string{fmt.Sprintf("Matched the %s materia category but no grade; specify I-XII to expand.", exp.Category)}
		case len(exp.ExpandedNames) == 0:
			summary = []string{fmt.Sprintf("No %s materia of grade %s found.", exp.Category, exp.Grade)}
		default:
			summary = []string{fmt.Sprintf("%d %s materia of grade %s.", len(exp.ExpandedNames), exp.Category, exp.Grade)}
		}
		return Response{
			Title:   "Materia Expansion",
			Summary: summary,
			Data:    exp,
			Meta:    map[string]any{"phrase": in.Phrase},
		}.Result(in.Format), nil
	})
}
