// Package pipeline runs the fetch → layout stages outside the interactive
// engine, with each stage cached.
//
// The CLI's fetch and layout commands use it. The view and serve commands
// feed the engine directly, and the engine re-lays out on every filter
// change without going through the cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, src, pipeline.Options{
//	    Source:   "strapi",
//	    Location: "https://cms.example.org",
//	    Layout:   layout.DefaultConfig(),
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.World.Width, result.World.Height)
//
// Run individual stages:
//
//	items, tags, err := runner.Fetch(ctx, src, opts)
//	w, err := runner.Layout(ctx, items, opts)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/artboard/pkg/cache"
	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/layout"
	"github.com/matzehuels/artboard/pkg/world"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// TTLItems is how long a fetched item list stays cached.
	TTLItems = time.Hour

	// TTLWorld is how long a laid-out world stays cached. Worlds are keyed by
	// content hash, so they never go stale.
	TTLWorld = 7 * 24 * time.Hour
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a run.
type Options struct {
	// Source is the source kind, used with Location as the items cache key.
	Source string `json:"source"`

	// Location identifies the data set within the kind (URL, DSN, path).
	Location string `json:"location,omitempty"`

	Layout  layout.Config `json:"layout"`
	Refresh bool          `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "pipeline: source kind is required")
	}
	return o.Layout.Validate()
}

// WorldKeyOpts returns the cache key options for the layout stage.
func (o Options) WorldKeyOpts() cache.WorldKeyOpts {
	return cache.WorldKeyOpts{
		Columns:     o.Layout.Columns,
		ColumnWidth: o.Layout.ColumnWidth,
		Gap:         o.Layout.Gap,
		Jitter:      o.Layout.Jitter,
		Seed:        o.Layout.Seed,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a run.
type Result struct {
	// Items are the normalized items in source order.
	Items []item.Item

	// Tags is the source's tag vocabulary.
	Tags []string

	// ItemsHash is the content hash of Items.
	ItemsHash string

	World *world.World

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	ItemCount  int
	Dropped    int
	FetchTime  time.Duration
	LayoutTime time.Duration
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	FetchHit  bool
	LayoutHit bool
}
