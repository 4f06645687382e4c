package materia

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tivalu/xivmarket/internal/observe"
	"github.com/tivalu/xivmarket/internal/xivapi"
)

const (
	// sheetName is the game-data table the index is built from.
	sheetName = "Materia"

	// sheetFields selects the base parameter name and the associated item
	// names for each materia row.
	sheetFields = "BaseParam.Name,Item[].Name"

	// sheetPageLimit is the page size used while walking the sheet.
	sheetPageLimit = 200

	// DefaultTTL is how long a built index stays fresh.
	DefaultTTL = 24 * time.Hour
)

// SheetSource pages through a game-data sheet. Implemented by
// [xivapi.Client].
type SheetSource interface {
	SheetRows(ctx context.Context, sheet string, p xivapi.SheetRowsParams) (*xivapi.SheetPage, error)
}

// Expansion is the result of expanding a category phrase. ExpandedNames is
// empty when the phrase matched a category but carried no grade — the
// caller must ask for a grade before the phrase becomes actionable.
type Expansion struct {
	Category      Category `json:"category"`
	Grade         string   `json:"grade,omitempty"`
	ExpandedNames []string `json:"expanded_names"`
}

// CacheOptions configures a [Cache].
type CacheOptions struct {
	Source SheetSource
	Store  *Store

	// TTL is the index freshness window. Defaults to [DefaultTTL].
	TTL time.Duration

	// RefreshEnabled gates all network refreshes. When false the cache
	// only ever serves the persisted or empty index.
	RefreshEnabled bool

	Logger  *slog.Logger
	Metrics *observe.Metrics
}

// Cache holds the process-wide materia index. It loads the persisted index
// lazily, refreshes it from the sheet source when stale
// (stale-while-revalidate: stale reads return immediately and trigger a
// background refresh), and guarantees at most one refresh in flight via a
// single-flight group.
type Cache struct {
	source         SheetSource
	store          *Store
	ttl            time.Duration
	refreshEnabled bool
	logger         *slog.Logger
	metrics        *observe.Metrics

	mu         sync.Mutex
	cached     *Index
	diskLoaded bool

	flight singleflight.Group
}

// NewCache creates a Cache from opts.
func NewCache(opts CacheOptions) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:         opts.Source,
		store:          opts.Store,
		ttl:            ttl,
		refreshEnabled: opts.RefreshEnabled,
		logger:         logger,
		metrics:        opts.Metrics,
	}
}

// Expand resolves a category phrase into concrete item names. Returns
// (nil, nil) when phrase does not match any category pattern. A matched
// category without a grade yields an Expansion with no names.
func (c *Cache) Expand(ctx context.Context, phrase string) (*Expansion, error) {
	category, grade, ok := ParseCategoryInput(phrase)
	if !ok {
		return nil, nil
	}

	exp := &Expansion{Category: category, Grade: grade, ExpandedNames: []string{}}
	if grade == "" {
		return exp, nil
	}

	idx := c.index(ctx)
	if names := idx.Names(category, grade); names != nil {
		// Cloned so callers cannot mutate the index bucket.
		exp.ExpandedNames = slices.Clone(names)
	}
	return exp, nil
}

// Index returns the current index, building it if necessary. Exposed for
// the expand tool's diagnostics output.
func (c *Cache) Index(ctx context.Context) *Index {
	return c.index(ctx)
}

// index implements the read policy: disk load on first use, blocking
// refresh when nothing is cached at all, background refresh when the cached
// value is merely stale.
func (c *Cache) index(ctx context.Context) *Index {
	c.mu.Lock()
	if c.cached == nil && !c.diskLoaded {
		c.diskLoaded = true
		if c.store != nil {
			c.cached = c.store.Load()
		}
	}
	cached := c.cached
	c.mu.Unlock()

	if cached == nil {
		return c.refresh(ctx, true)
	}
	if cached.Stale(c.ttl) {
		go c.refresh(context.WithoutCancel(ctx), false)
	}
	return cached
}

// refresh rebuilds the index, deduplicated through the single-flight group.
// When wait is false and a refresh is already running, the current cached
// value (or an empty index) is returned immediately. Refresh failures keep
// the previous value and are never surfaced to callers.
func (c *Cache) refresh(ctx context.Context, wait bool) *Index {
	if !c.refreshEnabled {
		return c.cachedOrEmpty()
	}

	run := func() (any, error) {
		idx, err := c.build(ctx)
		c.metrics.RecordMateriaRefresh(ctx, err == nil)
		if err != nil {
			c.logger.Warn("materia index refresh failed", "err", err)
			// Install the fallback so later reads go through the
			// non-blocking stale path instead of blocking on another
			// refresh attempt.
			fallback := c.cachedOrEmpty()
			c.mu.Lock()
			if c.cached == nil {
				c.cached = fallback
			}
			c.mu.Unlock()
			return fallback, nil
		}

		c.mu.Lock()
		c.cached = idx
		c.mu.Unlock()

		if c.store != nil {
			if err := c.store.Save(idx); err != nil {
				c.logger.Warn("materia index save failed", "err", err)
			}
		}
		return idx, nil
	}

	if wait {
		result, _, _ := c.flight.Do("refresh", run)
		return result.(*Index)
	}

	ch := c.flight.DoChan("refresh", run)
	select {
	case res := <-ch:
		return res.Val.(*Index)
	default:
		return c.cachedOrEmpty()
	}
}

func (c *Cache) cachedOrEmpty() *Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil {
		return NewIndex()
	}
	return c.cached
}

// build pages through the Materia sheet and assembles a fresh index.
func (c *Cache) build(ctx context.Context) (*Index, error) {
	idx := NewIndex()
	idx.BaseParamCategory = map[string]Category{}

	after := 0
	for {
		page, err := c.source.SheetRows(ctx, sheetName, xivapi.SheetRowsParams{
			Limit:  sheetPageLimit,
			After:  after,
			Fields: sheetFields,
		})
		if err != nil {
			return nil, err
		}
		if idx.SourceVersion == "" && page.Version != "" {
			idx.SourceVersion = page.Version
		}
		if len(page.Rows) == 0 {
			break
		}

		for _, row := range page.Rows {
			baseParam := rowBaseParamName(row)
			if baseParam == "" {
				continue
			}
			category := CategorizeBaseParam(baseParam)
			idx.BaseParamCategory[baseParam] = category

			for _, itemName := range rowItemNames(row) {
				grade := ExtractGrade(itemName)
				if grade == "" {
					continue
				}
				idx.Add(category, grade, itemName)
			}
		}

		lastID := page.Rows[len(page.Rows)-1].RowID
		if lastID == 0 || len(page.Rows) < sheetPageLimit {
			break
		}
		// A cursor that fails to advance means the upstream is misbehaving;
		// stop rather than loop forever.
		if lastID == after {
			break
		}
		after = lastID
	}

	idx.Sort()
	idx.GeneratedAt = time.Now().UTC()
	return idx, nil
}

// rowBaseParamName digs BaseParam.fields.Name out of a sheet row,
// tolerating any missing or wrong-typed level.
func rowBaseParamName(row xivapi.SheetRow) string {
	baseParam, _ := row.Fields["BaseParam"].(map[string]any)
	fields, _ := baseParam["fields"].(map[string]any)
	name, _ := fields["Name"].(string)
	return name
}

// rowItemNames digs Item[].fields.Name out of a sheet row.
func rowItemNames(row xivapi.SheetRow) []string {
	items, _ := row.Fields["Item"].([]any)
	var names []string
	for _, item := range items {
		entry, _ := item.(map[string]any)
		fields, _ := entry["fields"].(map[string]any)
		if name, _ := fields["Name"].(string); name != "" {
			names = append(names, name)
		}
	}
	return names
}
