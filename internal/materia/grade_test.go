package materia_test

import (
	"fmt"
	"testing"

	"github.com/tivalu/xivmarket/internal/materia"
)

func TestToRoman(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{1, "I"}, {4, "IV"}, {9, "IX"}, {10, "X"}, {12, "XII"},
		{40, "XL"}, {90, "XC"}, {400, "CD"}, {900, "CM"},
		{1994, "MCMXCIV"}, {3999, "MMMCMXCIX"},
		{0, ""}, {-5, ""}, {4000, ""},
	}
	for _, tt := range tests {
		if got := materia.ToRoman(tt.in); got != tt.want {
			t.Errorf("ToRoman(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Integer and roman grade tokens must extract to the same grade.
func TestExtractGradeTokenEquivalence(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 3, 4, 9, 10, 12, 49, 444, 1987, 3999} {
		roman := materia.ToRoman(n)
		fromInt := materia.ExtractGrade(fmt.Sprintf("combat materia %d", n))
		fromRoman := materia.ExtractGrade("combat materia " + roman)
		if fromInt != fromRoman {
			t.Errorf("grade %d: int token gave %q, roman token gave %q", n, fromInt, fromRoman)
		}
		if fromInt != roman {
			t.Errorf("grade %d: got %q, want %q", n, fromInt, roman)
		}
	}
}

func TestExtractGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Savage Aim Materia IX", "IX"},
		{"combat materia x", "X"},
		{"crafting materia 10", "X"},
		{"Combat Materia", ""},
		{"materia 0", ""},
		{"materia 4000", ""},
		{"no grade here", ""},
	}
	for _, tt := range tests {
		if got := materia.ExtractGrade(tt.in); got != tt.want {
			t.Errorf("ExtractGrade(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want materia.Category
	}{
		{"Combat Materia IX", materia.CategoryCombat},
		{"combat materia", materia.CategoryCombat},
		{"Crafting Materia X", materia.CategoryCrafting},
		{"Craftsman's Materia VII", materia.CategoryCrafting},
		{"craftsmans materia vii", materia.CategoryCrafting},
		{"Gathering Materia III", materia.CategoryGathering},
		{"Gatherer's Materia 5", materia.CategoryGathering},
		{"Dark Matter", ""},
		{"combat materia extra words", ""},
		{"materia IX", ""},
	}
	for _, tt := range tests {
		if got := materia.DetectCategory(tt.in); got != tt.want {
			t.Errorf("DetectCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCategoryInput(t *testing.T) {
	t.Parallel()

	category, grade, ok := materia.ParseCategoryInput("Combat Materia IX")
	if !ok || category != materia.CategoryCombat || grade != "IX" {
		t.Errorf("ParseCategoryInput = (%q, %q, %v), want (combat, IX, true)", category, grade, ok)
	}

	category, grade, ok = materia.ParseCategoryInput("Combat Materia")
	if !ok || category != materia.CategoryCombat || grade != "" {
		t.Errorf("ParseCategoryInput = (%q, %q, %v), want (combat, \"\", true)", category, grade, ok)
	}

	if _, _, ok := materia.ParseCategoryInput("Iron Ingot"); ok {
		t.Error("ParseCategoryInput matched a non-category phrase")
	}
}
