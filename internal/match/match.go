// Package match holds the pure name-matching utilities used by the
// resolution pipeline: normalisation, search-query clause building, target
// deduplication, and best-candidate selection.
//
// Matching is case- and whitespace-insensitive but otherwise literal; there
// is deliberately no fuzzy edit-distance matching — the upstream search
// engine owns relevance, this package only filters and picks.
package match

import (
	"sort"
	"strings"
)

// Mode selects how a name clause matches against the canonical name field.
type Mode string

const (
	// ModeExact produces an equality clause.
	ModeExact Mode = "exact"

	// ModePartial produces a contains clause.
	ModePartial Mode = "partial"
)

// IsValid reports whether m is a recognised match mode.
func (m Mode) IsValid() bool {
	return m == ModeExact || m == ModePartial
}

// Origin records how a search target came to exist.
type Origin string

const (
	// OriginDirect means the target name was supplied by the caller as-is.
	OriginDirect Origin = "direct"

	// OriginExpanded means the target name was produced by materia
	// category expansion.
	OriginExpanded Origin = "expanded"
)

// Target is one searchable name together with its provenance.
type Target struct {
	// Name is the literal name to search for.
	Name string

	// SourceInput is the original user-supplied phrase, preserved for
	// result attribution. Equal to Name for direct targets.
	SourceInput string

	// Mode is the match mode this target should be queried with.
	Mode Mode

	// Origin records whether the name came straight from input or from
	// category expansion.
	Origin Origin
}

// Candidate is one search result row considered for a target.
type Candidate struct {
	Name  string
	RowID int
	Score float64
}

// Normalize returns the matching key for a name: trimmed and lowercased.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EscapeQueryValue escapes backslashes and double quotes for embedding a
// name inside a quoted query clause.
func EscapeQueryValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

// BuildNameQuery builds one search query covering all names. Clauses are
// joined with a space, which the upstream query grammar treats as OR, so a
// single request can resolve many names at once.
func BuildNameQuery(names []string, mode Mode) string {
	clauses := make([]string, 0, len(names))
	for _, name := range names {
		escaped := EscapeQueryValue(name)
		if mode == ModeExact {
			clauses = append(clauses, `Name="`+escaped+`"`)
		} else {
			clauses = append(clauses, `Name~"`+escaped+`"`)
		}
	}
	return strings.Join(clauses, " ")
}

// EnsureFields returns fields with every required field appended if missing.
// An empty fields string yields just the required list.
func EnsureFields(fields string, required ...string) string {
	var parts []string
	for _, part := range strings.Split(fields, ",") {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	for _, req := range required {
		found := false
		for _, p := range parts {
			if p == req {
				found = true
				break
			}
		}
		if !found {
			parts = append(parts, req)
		}
	}
	return strings.Join(parts, ",")
}

// Dedupe collapses targets sharing the same normalized name, preserving
// first-seen order. When duplicates disagree on match mode, exact wins over
// partial: the stricter query subsumes the looser one for the same literal
// name.
func Dedupe(targets []Target) []Target {
	index := make(map[string]int, len(targets))
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		key := Normalize(t.Name)
		if i, ok := index[key]; ok {
			if t.Mode == ModeExact && out[i].Mode == ModePartial {
				out[i].Mode = ModeExact
			}
			continue
		}
		index[key] = len(out)
		out = append(out, t)
	}
	return out
}

// SelectBest picks the best candidate for targetName under mode: candidates
// whose normalized name fails the match predicate are discarded, then the
// highest-scoring survivor wins (missing scores count as 0, ties keep the
// original candidate order). Returns false if no candidate survives.
func SelectBest(candidates []Candidate, targetName string, mode Mode) (Candidate, bool) {
	key := Normalize(targetName)
	var survivors []Candidate
	for _, c := range candidates {
		name := Normalize(c.Name)
		if mode == ModeExact && name != key {
			continue
		}
		if mode == ModePartial && !strings.Contains(name, key) {
			continue
		}
		survivors = append(survivors, c)
	}
	if len(survivors) == 0 {
		return Candidate{}, false
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Score > survivors[j].Score
	})
	return survivors[0], true
}
