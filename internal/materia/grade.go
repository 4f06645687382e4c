// Package materia maintains the materia category index: it detects
// "<category> materia <grade>" phrases, expands them into concrete item
// names via a TTL-cached index built from the game-data Materia sheet, and
// persists that index to a single JSON file between runs.
package materia

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tivalu/xivmarket/internal/match"
)

// Category classifies materia by its governing attribute.
type Category string

const (
	CategoryCombat    Category = "combat"
	CategoryCrafting  Category = "crafting"
	CategoryGathering Category = "gathering"
)

// Categories lists all categories in a stable order.
var Categories = []Category{CategoryCombat, CategoryCrafting, CategoryGathering}

var (
	romanPattern = regexp.MustCompile(`^(?i)[ivxlcdm]+$`)
	gradePattern = regexp.MustCompile(`(?i)\bmateria\s+([ivxlcdm\d]+)\b`)

	combatPhrase    = regexp.MustCompile(`^combat\s+materia(\s+[ivxlcdm\d]+)?$`)
	craftingPhrase  = regexp.MustCompile(`^(crafting|craftsman'?s)\s+materia(\s+[ivxlcdm\d]+)?$`)
	gatheringPhrase = regexp.MustCompile(`^(gathering|gatherer'?s)\s+materia(\s+[ivxlcdm\d]+)?$`)
)

// romanTable drives the greedy subtractive conversion, largest value first.
var romanTable = []struct {
	value   int
	numeral string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// ToRoman converts value to an upper-case roman numeral. Values outside
// 1..3999 return "".
func ToRoman(value int) string {
	if value <= 0 || value >= 4000 {
		return ""
	}
	var b strings.Builder
	remaining := value
	for _, entry := range romanTable {
		for remaining >= entry.value {
			b.WriteString(entry.numeral)
			remaining -= entry.value
		}
	}
	return b.String()
}

// NormalizeGradeToken canonicalises a grade token: roman numerals are
// upper-cased, integers are converted to roman numerals. Unrecognised tokens
// return "".
func NormalizeGradeToken(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ""
	}
	if romanPattern.MatchString(trimmed) {
		return strings.ToUpper(trimmed)
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return ToRoman(n)
	}
	return ""
}

// ExtractGrade finds a "materia <token>" substring in input and returns the
// canonical roman grade, or "" when no usable grade is present.
func ExtractGrade(input string) string {
	m := gradePattern.FindStringSubmatch(input)
	if m == nil {
		return ""
	}
	return NormalizeGradeToken(m[1])
}

// DetectCategory matches input against the three fixed category phrase
// shapes. Anything else returns "" — this is not a general classifier.
func DetectCategory(input string) Category {
	normalized := match.Normalize(input)
	switch {
	case combatPhrase.MatchString(normalized):
		return CategoryCombat
	case craftingPhrase.MatchString(normalized):
		return CategoryCrafting
	case gatheringPhrase.MatchString(normalized):
		return CategoryGathering
	}
	return ""
}

// ParseCategoryInput combines category detection and grade extraction.
// ok is false when input does not match a category phrase at all.
func ParseCategoryInput(input string) (category Category, grade string, ok bool) {
	category = DetectCategory(input)
	if category == "" {
		return "", "", false
	}
	return category, ExtractGrade(input), true
}
