package materia

import (
	"slices"
	"time"
)

// Index is the materia expansion index: item names grouped by category and
// grade. Within a bucket names are unique and lexicographically sorted. The
// index is rebuilt from scratch on every refresh; there is no incremental
// merge.
type Index struct {
	GeneratedAt   time.Time `json:"generated_at"`
	SourceVersion string    `json:"source_version,omitempty"`

	// Categories maps category → grade (roman numeral) → sorted item names.
	Categories map[Category]map[string][]string `json:"categories"`

	// BaseParamCategory records the category assigned to each base
	// parameter name seen during the refresh.
	BaseParamCategory map[string]Category `json:"base_param_category,omitempty"`
}

// NewIndex returns an empty index with all category buckets present.
func NewIndex() *Index {
	categories := make(map[Category]map[string][]string, len(Categories))
	for _, c := range Categories {
		categories[c] = map[string][]string{}
	}
	return &Index{Categories: categories}
}

// Names returns the item names for a category/grade bucket, or nil.
func (idx *Index) Names(category Category, grade string) []string {
	if idx == nil || idx.Categories == nil {
		return nil
	}
	return idx.Categories[category][grade]
}

// Add appends name to the category/grade bucket if not already present.
func (idx *Index) Add(category Category, grade, name string) {
	if idx.Categories == nil {
		idx.Categories = map[Category]map[string][]string{}
	}
	grades := idx.Categories[category]
	if grades == nil {
		grades = map[string][]string{}
		idx.Categories[category] = grades
	}
	if slices.Contains(grades[grade], name) {
		return
	}
	grades[grade] = append(grades[grade], name)
}

// Sort sorts every bucket's item names lexicographically.
func (idx *Index) Sort() {
	for _, grades := range idx.Categories {
		for _, names := range grades {
			slices.Sort(names)
		}
	}
}

// Stale reports whether the index is older than ttl. An index with a zero
// generation timestamp is always stale.
func (idx *Index) Stale(ttl time.Duration) bool {
	if idx == nil || idx.GeneratedAt.IsZero() {
		return true
	}
	return time.Since(idx.GeneratedAt) > ttl
}

// craftingParams and gatheringParams are the fixed base-parameter membership
// sets; anything else classifies as combat.
var (
	craftingParams  = map[string]bool{"Craftsmanship": true, "Control": true, "CP": true}
	gatheringParams = map[string]bool{"Gathering": true, "Perception": true, "GP": true}
)

// CategorizeBaseParam classifies a base-parameter name into a category.
func CategorizeBaseParam(name string) Category {
	switch {
	case craftingParams[name]:
		return CategoryCrafting
	case gatheringParams[name]:
		return CategoryGathering
	}
	return CategoryCombat
}
