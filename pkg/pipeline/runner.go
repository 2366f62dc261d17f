package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/artboard/pkg/cache"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/layout"
	"github.com/matzehuels/artboard/pkg/observability"
	"github.com/matzehuels/artboard/pkg/source"
	"github.com/matzehuels/artboard/pkg/world"
)

// Runner executes pipeline stages with caching.
//
// The Runner is stateless except for the cache and logger, so several
// goroutines may share one.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means the DefaultKeyer, and a nil logger discards.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

type fetched struct {
	Items []item.Item `json:"items"`
	Tags  []string    `json:"tags"`
}

// Execute runs fetch then layout.
func (r *Runner) Execute(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)
	result := &Result{}

	fetchStart := time.Now()
	items, tags, fetchHit, err := r.FetchWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	result.Items, result.Stats.Dropped = item.Normalize(items)
	result.Tags = tags
	result.Stats.ItemCount = len(result.Items)
	result.Stats.FetchTime = time.Since(fetchStart)
	result.CacheInfo.FetchHit = fetchHit
	result.ItemsHash = hashItems(result.Items)

	logger.Info("fetched items",
		"source", opts.Source,
		"items", result.Stats.ItemCount,
		"dropped", result.Stats.Dropped,
		"cached", fetchHit,
		"duration", result.Stats.FetchTime)

	layoutStart := time.Now()
	w, layoutHit, err := r.layout(ctx, result.Items, result.ItemsHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.World = w
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	logger.Info("computed layout",
		"width", w.Width,
		"height", w.Height,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	return result, nil
}

// FetchWithCacheInfo fetches items and tags through the items cache and
// reports whether the cache was hit. Items are returned as the source
// produced them.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, src source.Source, opts Options) ([]item.Item, []string, bool, error) {
	key := r.Keyer.ItemsKey(opts.Source, opts.Location)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var f fetched
			if json.Unmarshal(data, &f) == nil {
				observability.Cache().OnCacheHit(ctx, "items")
				return f.Items, f.Tags, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "items")
	}

	items, err := src.FetchItems(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	tags, err := src.FetchTagNames(ctx)
	if err != nil {
		return nil, nil, false, err
	}

	if data, err := json.Marshal(fetched{Items: items, Tags: tags}); err == nil {
		if r.Cache.Set(ctx, key, data, TTLItems) == nil {
			observability.Cache().OnCacheSet(ctx, "items", len(data))
		}
	}
	return items, tags, false, nil
}

// Fetch is FetchWithCacheInfo without the cache hit info.
func (r *Runner) Fetch(ctx context.Context, src source.Source, opts Options) ([]item.Item, []string, error) {
	items, tags, _, err := r.FetchWithCacheInfo(ctx, src, opts)
	return items, tags, err
}

// LayoutWithCacheInfo lays out items through the world cache and reports
// whether the cache was hit. Items should already be normalized.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, items []item.Item, opts Options) (*world.World, bool, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, false, err
	}
	return r.layout(ctx, items, hashItems(items), opts)
}

// Layout is LayoutWithCacheInfo without the cache hit info.
func (r *Runner) Layout(ctx context.Context, items []item.Item, opts Options) (*world.World, error) {
	w, _, err := r.LayoutWithCacheInfo(ctx, items, opts)
	return w, err
}

func (r *Runner) layout(ctx context.Context, items []item.Item, itemsHash string, opts Options) (*world.World, bool, error) {
	key := r.Keyer.WorldKey(itemsHash, opts.WorldKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var cached world.World
		if json.Unmarshal(data, &cached) == nil {
			return world.New(cached.Items, cached.Width, cached.Height), true, nil
		}
	}

	start := time.Now()
	w, err := layout.Masonry(items, opts.Layout)
	ev := observability.LayoutEvent{Items: len(items), Duration: time.Since(start), Err: err}
	if w != nil {
		ev.Width, ev.Height = w.Width, w.Height
	}
	observability.Layout().OnLayout(ctx, ev)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(w); err == nil {
		_ = r.Cache.Set(ctx, key, data, TTLWorld)
	}
	return w, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func hashItems(items []item.Item) string {
	data, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
