package materia_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tivalu/xivmarket/internal/materia"
	"github.com/tivalu/xivmarket/internal/xivapi"
)

func materiaRow(id int, baseParam string, items ...string) xivapi.SheetRow {
	itemList := make([]any, len(items))
	for i, name := range items {
		itemList[i] = map[string]any{"fields": map[string]any{"Name": name}}
	}
	return xivapi.SheetRow{
		RowID: id,
		Fields: map[string]any{
			"BaseParam": map[string]any{"fields": map[string]any{"Name": baseParam}},
			"Item":      itemList,
		},
	}
}

// fakeSource serves sheet pages keyed by the After cursor and counts calls.
type fakeSource struct {
	mu    sync.Mutex
	calls int
	pages map[int]*xivapi.SheetPage
	err   error
}

func (f *fakeSource) SheetRows(ctx context.Context, sheet string, p xivapi.SheetRowsParams) (*xivapi.SheetPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if page, ok := f.pages[p.After]; ok {
		return page, nil
	}
	return &xivapi.SheetPage{}, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestCache(t *testing.T, source materia.SheetSource) *materia.Cache {
	t.Helper()
	return materia.NewCache(materia.CacheOptions{
		Source:         source,
		Store:          materia.NewStore(filepath.Join(t.TempDir(), "materia.json")),
		TTL:            time.Hour,
		RefreshEnabled: true,
	})
}

func TestExpandNonCategoryPhrase(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t, &fakeSource{})
	exp, err := cache.Expand(context.Background(), "Iron Ingot")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if exp != nil {
		t.Errorf("Expand of non-category phrase = %v, want nil", exp)
	}
}

func TestExpandWithGrade(t *testing.T) {
	t.Parallel()

	source := &fakeSource{pages: map[int]*xivapi.SheetPage{
		0: {
			Version: "7.2",
			Rows: []xivapi.SheetRow{
				materiaRow(1, "Critical Hit", "Savage Aim Materia IX", "Savage Aim Materia X"),
				materiaRow(2, "Direct Hit Rate", "Heavens' Eye Materia IX"),
				materiaRow(3, "Craftsmanship", "Craftsman's Competence Materia IX"),
			},
		},
	}}
	cache := newTestCache(t, source)

	exp, err := cache.Expand(context.Background(), "Combat Materia IX")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if exp == nil {
		t.Fatal("Expand returned nil for a category phrase")
	}
	if exp.Category != materia.CategoryCombat || exp.Grade != "IX" {
		t.Errorf("expansion = (%q, %q), want (combat, IX)", exp.Category, exp.Grade)
	}
	want := []string{"Heavens' Eye Materia IX", "Savage Aim Materia IX"}
	if !reflect.DeepEqual(exp.ExpandedNames, want) {
		t.Errorf("ExpandedNames = %v, want %v", exp.ExpandedNames, want)
	}

	if idx := cache.Index(context.Background()); idx.SourceVersion != "7.2" {
		t.Errorf("SourceVersion = %q, want 7.2", idx.SourceVersion)
	}
}

func TestExpandWithoutGradeSkipsRefresh(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	cache := newTestCache(t, source)

	exp, err := cache.Expand(context.Background(), "Combat Materia")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if exp == nil || exp.Grade != "" || len(exp.ExpandedNames) != 0 {
		t.Errorf("expansion = %+v, want matched category with no grade and no names", exp)
	}
	if n := source.callCount(); n != 0 {
		t.Errorf("source called %d times for a gradeless phrase, want 0", n)
	}
}

func TestExpandServedFromCacheWhileFresh(t *testing.T) {
	t.Parallel()

	source := &fakeSource{pages: map[int]*xivapi.SheetPage{
		0: {Rows: []xivapi.SheetRow{materiaRow(1, "Critical Hit", "Savage Aim Materia IX")}},
	}}
	cache := newTestCache(t, source)

	ctx := context.Background()
	if _, err := cache.Expand(ctx, "Combat Materia IX"); err != nil {
		t.Fatalf("first Expand: %v", err)
	}
	first := source.callCount()
	if _, err := cache.Expand(ctx, "Combat Materia IX"); err != nil {
		t.Fatalf("second Expand: %v", err)
	}
	if n := source.callCount(); n != first {
		t.Errorf("source called %d times after second Expand, want %d (fresh index must be reused)", n, first)
	}
}

func TestBuildPagesThroughSheet(t *testing.T) {
	t.Parallel()

	// First page is full (forcing a second fetch), second page is short.
	fullPage := &xivapi.SheetPage{}
	for i := 1; i <= 200; i++ {
		fullPage.Rows = append(fullPage.Rows, materiaRow(i, "Gathering", fmt.Sprintf("Gatherer's Guerdon Materia %d", i%12+1)))
	}
	source := &fakeSource{pages: map[int]*xivapi.SheetPage{
		0:   fullPage,
		200: {Rows: []xivapi.SheetRow{materiaRow(201, "Craftsmanship", "Craftsman's Competence Materia IX")}},
	}}
	cache := newTestCache(t, source)

	exp, err := cache.Expand(context.Background(), "Crafting Materia IX")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"Craftsman's Competence Materia IX"}
	if !reflect.DeepEqual(exp.ExpandedNames, want) {
		t.Errorf("ExpandedNames = %v, want %v", exp.ExpandedNames, want)
	}
	if n := source.callCount(); n != 2 {
		t.Errorf("source called %d times, want 2 (full page then short page)", n)
	}
}

func TestRefreshDisabledServesEmptyIndex(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	cache := materia.NewCache(materia.CacheOptions{
		Source:         source,
		RefreshEnabled: false,
	})

	exp, err := cache.Expand(context.Background(), "Combat Materia IX")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(exp.ExpandedNames) != 0 {
		t.Errorf("ExpandedNames = %v, want empty with refresh disabled", exp.ExpandedNames)
	}
	if n := source.callCount(); n != 0 {
		t.Errorf("source called %d times with refresh disabled, want 0", n)
	}
}

func TestRefreshFailureRecoveredSilently(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errors.New("upstream down")}
	cache := newTestCache(t, source)

	exp, err := cache.Expand(context.Background(), "Combat Materia IX")
	if err != nil {
		t.Fatalf("Expand surfaced a refresh failure: %v", err)
	}
	if len(exp.ExpandedNames) != 0 {
		t.Errorf("ExpandedNames = %v, want empty after failed refresh", exp.ExpandedNames)
	}
}

// slowSource fails the first fetch, then blocks until released.
type slowSource struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (s *slowSource) SheetRows(ctx context.Context, sheet string, p xivapi.SheetRowsParams) (*xivapi.SheetPage, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if first {
		return nil, errors.New("upstream down")
	}
	<-s.release
	return &xivapi.SheetPage{}, nil
}

func TestFailedRefreshDoesNotBlockLaterReads(t *testing.T) {
	t.Parallel()

	source := &slowSource{release: make(chan struct{})}
	t.Cleanup(func() { close(source.release) })
	cache := newTestCache(t, source)

	ctx := context.Background()
	if _, err := cache.Expand(ctx, "Combat Materia IX"); err != nil {
		t.Fatalf("first Expand: %v", err)
	}

	// After a failed refresh the empty index is cached, so the next read
	// must return immediately and retry only in the background.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := cache.Expand(ctx, "Combat Materia IX"); err != nil {
			t.Errorf("second Expand: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second Expand blocked on a refresh after an earlier failure")
	}
}

func TestExpandReturnsDetachedNames(t *testing.T) {
	t.Parallel()

	source := &fakeSource{pages: map[int]*xivapi.SheetPage{
		0: {Rows: []xivapi.SheetRow{materiaRow(1, "Critical Hit", "Savage Aim Materia IX")}},
	}}
	cache := newTestCache(t, source)

	ctx := context.Background()
	exp, err := cache.Expand(ctx, "Combat Materia IX")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(exp.ExpandedNames) != 1 {
		t.Fatalf("ExpandedNames = %v, want one name", exp.ExpandedNames)
	}
	exp.ExpandedNames[0] = "Mutated"

	again, err := cache.Expand(ctx, "Combat Materia IX")
	if err != nil {
		t.Fatalf("second Expand: %v", err)
	}
	if again.ExpandedNames[0] != "Savage Aim Materia IX" {
		t.Errorf("ExpandedNames[0] = %q after caller mutation, want the original name", again.ExpandedNames[0])
	}
}

func TestPersistedIndexSurvivesRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "materia.json")
	source := &fakeSource{pages: map[int]*xivapi.SheetPage{
		0: {Rows: []xivapi.SheetRow{materiaRow(1, "Critical Hit", "Savage Aim Materia IX")}},
	}}

	first := materia.NewCache(materia.CacheOptions{
		Source:         source,
		Store:          materia.NewStore(path),
		TTL:            time.Hour,
		RefreshEnabled: true,
	})
	if _, err := first.Expand(context.Background(), "Combat Materia IX"); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	refreshes := source.callCount()

	// A second cache over the same store must serve from disk without a
	// network refresh.
	second := materia.NewCache(materia.CacheOptions{
		Source:         source,
		Store:          materia.NewStore(path),
		TTL:            time.Hour,
		RefreshEnabled: true,
	})
	exp, err := second.Expand(context.Background(), "Combat Materia IX")
	if err != nil {
		t.Fatalf("Expand after restart: %v", err)
	}
	if len(exp.ExpandedNames) != 1 {
		t.Errorf("ExpandedNames after restart = %v, want one name", exp.ExpandedNames)
	}
	if n := source.callCount(); n != refreshes {
		t.Errorf("source called %d times after restart, want %d (disk load must suffice)", n, refreshes)
	}
}
