package materia_test

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tivalu/xivmarket/internal/materia"
)

func TestIndexAddDedupeAndSort(t *testing.T) {
	t.Parallel()

	idx := materia.NewIndex()
	idx.Add(materia.CategoryCombat, "IX", "Savage Aim Materia IX")
	idx.Add(materia.CategoryCombat, "IX", "Heavens' Eye Materia IX")
	idx.Add(materia.CategoryCombat, "IX", "Savage Aim Materia IX")
	idx.Sort()

	got := idx.Names(materia.CategoryCombat, "IX")
	want := []string{"Heavens' Eye Materia IX", "Savage Aim Materia IX"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestIndexStale(t *testing.T) {
	t.Parallel()

	idx := materia.NewIndex()
	if !idx.Stale(time.Hour) {
		t.Error("index with zero GeneratedAt must be stale")
	}
	idx.GeneratedAt = time.Now().Add(-30 * time.Minute)
	if idx.Stale(time.Hour) {
		t.Error("fresh index reported stale")
	}
	if !idx.Stale(time.Minute) {
		t.Error("expired index not reported stale")
	}
}

func TestCategorizeBaseParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		param string
		want  materia.Category
	}{
		{"Craftsmanship", materia.CategoryCrafting},
		{"Control", materia.CategoryCrafting},
		{"CP", materia.CategoryCrafting},
		{"Gathering", materia.CategoryGathering},
		{"Perception", materia.CategoryGathering},
		{"GP", materia.CategoryGathering},
		{"Critical Hit", materia.CategoryCombat},
		{"Determination", materia.CategoryCombat},
	}
	for _, tt := range tests {
		if got := materia.CategorizeBaseParam(tt.param); got != tt.want {
			t.Errorf("CategorizeBaseParam(%q) = %q, want %q", tt.param, got, tt.want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := materia.NewStore(filepath.Join(t.TempDir(), "nested", "materia.json"))

	idx := materia.NewIndex()
	idx.GeneratedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	idx.SourceVersion = "7.2"
	idx.Add(materia.CategoryCombat, "IX", "Heavens' Eye Materia IX")
	idx.Add(materia.CategoryCombat, "IX", "Savage Aim Materia IX")
	idx.Add(materia.CategoryCrafting, "X", "Craftsman's Competence Materia X")
	idx.Sort()

	if err := store.Save(idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := store.Load()
	if loaded == nil {
		t.Fatal("Load returned nil for a just-saved index")
	}
	if !loaded.GeneratedAt.Equal(idx.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", loaded.GeneratedAt, idx.GeneratedAt)
	}
	if loaded.SourceVersion != idx.SourceVersion {
		t.Errorf("SourceVersion = %q, want %q", loaded.SourceVersion, idx.SourceVersion)
	}
	if !reflect.DeepEqual(loaded.Categories, idx.Categories) {
		t.Errorf("Categories = %v, want %v", loaded.Categories, idx.Categories)
	}
}

func TestStoreLoadMissingOrBroken(t *testing.T) {
	t.Parallel()

	if got := materia.NewStore(filepath.Join(t.TempDir(), "absent.json")).Load(); got != nil {
		t.Errorf("Load of missing file = %v, want nil", got)
	}
}
