// Package pkg provides the libraries behind Artboard, an endless wrap-around
// media canvas.
//
// # Overview
//
// Artboard packs thousands of media tiles into a masonry grid that repeats in
// both directions, and keeps render nodes alive only for the tiles near the
// viewport. The pkg directory is organized into four areas:
//
//  1. Geometry - [item], [layout], [world], [cull], [camera]
//  2. Engine - [artboard] with [pool], [input] and [clock]
//  3. Content - [source] and its backends, [integrations] (Strapi), [cache]
//  4. Hosts - [pipeline] (fetch → layout, cached) and [server] (HTTP)
//
// # Architecture
//
// The data flow of one board:
//
//	Strapi / MongoDB / SQLite / demo
//	         ↓
//	    [source] package (fetch and normalize items)
//	         ↓
//	    [layout] package (masonry packing into a [world.World])
//	         ↓
//	    [cull] package (wrapped copies near the viewport, per frame)
//	         ↓
//	    [pool] package (create, move and destroy render nodes)
//
// The [artboard] engine runs the last two steps on every tick and feeds
// pointer input to the [camera].
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/artboard/pkg/artboard"
//	    "github.com/matzehuels/artboard/pkg/source/demo"
//	)
//
//	eng, _ := artboard.New(artboard.DefaultConfig())
//	defer eng.Close()
//
//	items, _ := demo.New(demo.DefaultSeed).FetchItems(ctx)
//	eng.Submit(items)
//	stats := eng.Tick(clock.DefaultInterval)
//	fmt.Println(stats.Visible, "tiles on screen")
//
// # Main Packages
//
// [layout] - Deterministic masonry packing. The world width is the column
// span plus one trailing gap so the horizontal wrap is seamless; the height
// is the tallest column plus one gap.
//
// [cull] - For each item, the wrapped copy nearest to the camera, kept when
// it overlaps the buffered viewport. Linear in the number of items.
//
// [pool] - Reconciles the visible set against live nodes through a
// [pool.Backend]; [pool.Memory] is the headless backend.
//
// [config] - TOML configuration file with defaults for every key.
//
// [errors] - Coded errors with user messages and HTTP statuses.
//
// [observability] - Hooks for frame, layout, cache and HTTP events.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test ./pkg/cull/...               # Specific package
//	go test -run Example ./pkg/...       # Examples only
package pkg
