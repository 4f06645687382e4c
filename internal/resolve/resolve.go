// Package resolve turns fuzzy human item-name phrases into canonical item
// ids. Materia category phrases are expanded into concrete item names, all
// distinct names go out in one bulk search, and direct exact-mode misses get
// exactly one relaxed retry pass.
package resolve

import (
	"context"
	"fmt"

	"github.com/tivalu/xivmarket/internal/match"
	"github.com/tivalu/xivmarket/internal/materia"
	"github.com/tivalu/xivmarket/internal/xivapi"
)

// MatchType records how (or whether) an input resolved.
type MatchType string

const (
	MatchExact           MatchType = "exact"
	MatchPartial         MatchType = "partial"
	MatchExpanded        MatchType = "expanded"
	MatchFallbackPartial MatchType = "fallback_partial"
	MatchMissingGrade    MatchType = "missing_grade"
	MatchNone            MatchType = "none"
)

// DefaultCostUnit labels costs when the caller does not supply a unit.
const DefaultCostUnit = "Bicolor Gemstone"

const (
	searchLimitPerName = 5
	searchLimitMax     = 500
)

// Input is one caller-supplied phrase plus its acquisition cost.
type Input struct {
	Name     string
	Cost     float64
	CostUnit string
}

// Entry is the resolution outcome for one searchable name. ItemID is non-nil
// exactly when MatchType is neither "none" nor "missing_grade".
type Entry struct {
	InputName    string    `json:"input_name"`
	ExpandedName string    `json:"expanded_name,omitempty"`
	MatchedName  string    `json:"matched_name,omitempty"`
	ItemID       *int      `json:"item_id"`
	Score        *float64  `json:"score,omitempty"`
	MatchType    MatchType `json:"match_type"`
	Cost         float64   `json:"cost"`
	CostUnit     string    `json:"cost_unit"`
	Marketable   *bool     `json:"marketable,omitempty"`
	Notes        []string  `json:"notes,omitempty"`
}

// Result is the outcome of one batch resolution. Unmatched lists original
// input phrases that produced no resolved id at all; UnmatchedExpanded lists
// specific expanded names that failed even though their parent phrase
// expanded.
type Result struct {
	Entries           []Entry
	Unmatched         []string
	UnmatchedExpanded []string
}

// Searcher is the bulk name-search dependency, implemented by
// [xivapi.Client].
type Searcher interface {
	Search(ctx context.Context, p xivapi.SearchParams) (*xivapi.SearchResponse, error)
}

// Expander is the materia expansion dependency, implemented by
// [materia.Cache].
type Expander interface {
	Expand(ctx context.Context, phrase string) (*materia.Expansion, error)
}

// Pipeline resolves batches of input phrases.
type Pipeline struct {
	searcher Searcher
	expander Expander
}

// NewPipeline creates a Pipeline. expander may be nil to disable materia
// expansion.
func NewPipeline(searcher Searcher, expander Expander) *Pipeline {
	return &Pipeline{searcher: searcher, expander: expander}
}

// pending pairs a search target with the input it answers for and the
// position in the final entry list it will fill.
type pending struct {
	target match.Target
	input  Input
	slot   int
}

// Resolve resolves all inputs at the requested default match mode. A failed
// bulk search aborts the whole call; individual unresolved names are data,
// not errors.
func (p *Pipeline) Resolve(ctx context.Context, inputs []Input, mode match.Mode, language string) (*Result, error) {
	result := &Result{}
	var entries []Entry
	var work []pending

	// Step 1: expansion. A materia phrase with a grade becomes one
	// exact-mode target per expanded item name; without a grade it is
	// unresolvable and reported as missing_grade. Entries are laid out
	// in input order here; searchable slots are filled in later.
	for _, input := range inputs {
		exp, err := p.expand(ctx, input.Name)
		if err != nil {
			return nil, err
		}
		switch {
		case exp == nil:
			work = append(work, pending{
				target: match.Target{
					Name:        input.Name,
					SourceInput: input.Name,
					Mode:        mode,
					Origin:      match.OriginDirect,
				},
				input: input,
				slot:  len(entries),
			})
			entries = append(entries, Entry{})
		case exp.Grade == "":
			entry := newEntry(input)
			entry.MatchType = MatchMissingGrade
			entry.Notes = append(entry.Notes,
				fmt.Sprintf("%q matched the %s materia category but no grade; specify I-XII to expand.", input.Name, exp.Category))
			entries = append(entries, entry)
			result.Unmatched = append(result.Unmatched, input.Name)
		case len(exp.ExpandedNames) == 0:
			entry := newEntry(input)
			entry.MatchType = MatchNone
			entry.Notes = append(entry.Notes,
				fmt.Sprintf("No %s materia of grade %s found in the expansion index.", exp.Category, exp.Grade))
			entries = append(entries, entry)
			result.Unmatched = append(result.Unmatched, input.Name)
		default:
			for _, name := range exp.ExpandedNames {
				work = append(work, pending{
					target: match.Target{
						Name:        name,
						SourceInput: input.Name,
						Mode:        match.ModeExact,
						Origin:      match.OriginExpanded,
					},
					input: input,
					slot:  len(entries),
				})
				entries = append(entries, Entry{})
			}
		}
	}
	result.Entries = entries

	if len(work) == 0 {
		return result, nil
	}

	// Step 2: one bulk search covering all distinct names.
	targets := make([]match.Target, len(work))
	for i, w := range work {
		targets[i] = w.target
	}
	deduped := match.Dedupe(targets)
	candidates, err := p.search(ctx, deduped, language)
	if err != nil {
		return nil, err
	}

	// Step 3: best-candidate selection per target.
	var fallback []int
	for i, w := range work {
		entries[w.slot] = p.matchTarget(w, candidates)
		if entries[w.slot].ItemID == nil && entries[w.slot].MatchType == MatchNone &&
			w.target.Origin == match.OriginDirect && w.target.Mode == match.ModeExact {
			fallback = append(fallback, i)
		}
	}

	// Step 4: one relaxed retry pass for direct exact-mode misses.
	// Expanded names are authoritative and never retried.
	if len(fallback) > 0 {
		var retry []match.Target
		for _, i := range fallback {
			t := work[i].target
			t.Mode = match.ModePartial
			retry = append(retry, t)
		}
		fbCandidates, err := p.search(ctx, match.Dedupe(retry), language)
		if err != nil {
			return nil, err
		}
		for _, i := range fallback {
			if best, ok := match.SelectBest(fbCandidates, work[i].target.Name, match.ModePartial); ok {
				slot := work[i].slot
				entries[slot] = buildMatched(work[i], best, MatchFallbackPartial)
				entries[slot].Notes = append(entries[slot].Notes, "Exact match failed; resolved by fallback partial search.")
			}
		}
	}

	// Step 5: derived reporting lists. An input phrase is unmatched only
	// when none of its targets resolved.
	resolvedByInput := map[string]bool{}
	seenInput := map[string]bool{}
	var inputOrder []string
	for _, w := range work {
		key := w.target.SourceInput
		if !seenInput[key] {
			seenInput[key] = true
			inputOrder = append(inputOrder, key)
		}
		if entries[w.slot].ItemID != nil {
			resolvedByInput[key] = true
		} else if w.target.Origin == match.OriginExpanded {
			result.UnmatchedExpanded = append(result.UnmatchedExpanded, w.target.Name)
		}
	}
	for _, input := range inputOrder {
		if !resolvedByInput[input] {
			result.Unmatched = append(result.Unmatched, input)
		}
	}

	return result, nil
}

func (p *Pipeline) expand(ctx context.Context, phrase string) (*materia.Expansion, error) {
	if p.expander == nil {
		return nil, nil
	}
	return p.expander.Expand(ctx, phrase)
}

// search issues one batched search for all targets of each mode and merges
// the candidate lists. Exact and partial targets land in separate clauses of
// the same request when both are present.
func (p *Pipeline) search(ctx context.Context, targets []match.Target, language string) ([]match.Candidate, error) {
	var names []string
	byMode := map[match.Mode][]string{}
	for _, t := range targets {
		byMode[t.Mode] = append(byMode[t.Mode], t.Name)
		names = append(names, t.Name)
	}

	var clauses []string
	for _, mode := range []match.Mode{match.ModeExact, match.ModePartial} {
		if len(byMode[mode]) > 0 {
			clauses = append(clauses, match.BuildNameQuery(byMode[mode], mode))
		}
	}

	limit := len(names) * searchLimitPerName
	if limit > searchLimitMax {
		limit = searchLimitMax
	}

	resp, err := p.searcher.Search(ctx, xivapi.SearchParams{
		Query:    joinClauses(clauses),
		Sheets:   "Item",
		Limit:    limit,
		Fields:   "Name",
		Language: language,
	})
	if err != nil {
		return nil, err
	}

	var candidates []match.Candidate
	for _, r := range resp.Results {
		name := r.Name()
		if name == "" {
			continue
		}
		candidates = append(candidates, match.Candidate{
			Name:  name,
			RowID: r.RowID,
			Score: r.Score,
		})
	}
	return candidates, nil
}

func (p *Pipeline) matchTarget(w pending, candidates []match.Candidate) Entry {
	best, ok := match.SelectBest(candidates, w.target.Name, w.target.Mode)
	if !ok {
		entry := newEntry(w.input)
		entry.MatchType = MatchNone
		if w.target.Origin == match.OriginExpanded {
			entry.ExpandedName = w.target.Name
			entry.Notes = append(entry.Notes, fmt.Sprintf("Expanded name %q not found upstream.", w.target.Name))
		} else {
			entry.Notes = append(entry.Notes, "Unresolved item name.")
		}
		return entry
	}

	matchType := MatchType(w.target.Mode)
	if w.target.Origin == match.OriginExpanded {
		matchType = MatchExpanded
	}
	return buildMatched(w, best, matchType)
}

func buildMatched(w pending, best match.Candidate, matchType MatchType) Entry {
	entry := newEntry(w.input)
	entry.MatchedName = best.Name
	entry.ItemID = intPtr(best.RowID)
	entry.Score = floatPtr(best.Score)
	entry.MatchType = matchType
	if w.target.Origin == match.OriginExpanded {
		entry.ExpandedName = w.target.Name
	}
	return entry
}

func newEntry(input Input) Entry {
	unit := input.CostUnit
	if unit == "" {
		unit = DefaultCostUnit
	}
	return Entry{
		InputName: input.Name,
		Cost:      input.Cost,
		CostUnit:  unit,
	}
}

func joinClauses(clauses []string) string {
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	}
	return clauses[0] + " " + clauses[1]
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
