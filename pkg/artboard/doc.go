// Package artboard is the spatial-virtualization engine behind the
// wrap-around media canvas.
//
// # Overview
//
// Thousands of tiles are packed into columns by [layout.Masonry]. The
// resulting world repeats in both directions, so panning never reaches an
// edge. Each frame the engine:
//
//  1. moves the camera one smoothing step toward its target,
//  2. asks [cull.Append] for the items whose nearest wrapped copy overlaps the
//     buffered viewport, and
//  3. reconciles the [pool.Pool] so exactly those items have a live node.
//
// Frame cost depends on the number of items only through the linear culling
// pass; the number of live nodes is bounded by the viewport.
//
// # Usage
//
//	eng, err := artboard.New(artboard.DefaultConfig(),
//	    artboard.WithLogger(logger),
//	    artboard.WithOpenDetail(func(d artboard.Detail) { show(d) }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	go func() {
//	    items, _ := src.FetchItems(ctx)
//	    eng.Submit(items)
//	}()
//
//	for range frames {
//	    eng.Tick(dt)
//	}
//
// # Input
//
// Pointer and wheel events go through [Engine.Input]. A drag pans the camera
// target by the pointer delta; releasing adds no momentum. A click on a node
// opens its detail view only when the camera is slower than the configured
// threshold, so the release at the end of a drag is not taken as a click.
//
// # Filtering
//
// [Engine.Filter] re-lays out the matching subset from scratch. Filtered
// worlds are therefore packed without gaps, at the cost of tiles moving when
// the filter changes.
package artboard
