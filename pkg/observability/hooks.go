// Package observability lets hosts watch the engine, the layout step, the
// caches and the content-source HTTP clients.
//
// Each concern has a small hook interface with a no-op default. A host
// registers its implementation once at startup:
//
//	counters := observability.NewCounters()
//	observability.Register(counters)
//	defer observability.Reset()
//
// and library code reports through the accessor for its concern:
//
//	observability.Frame().OnFrame(ctx, observability.FrameEvent{Frame: n, Visible: v})
package observability

import (
	"context"
	"sync"
	"time"
)

// FrameEvent describes one reconciled engine tick.
type FrameEvent struct {
	Frame     uint64
	Visible   int
	Created   int
	Destroyed int
	Duration  time.Duration
}

// LayoutEvent describes one masonry layout run. Err is set when the run was
// rejected.
type LayoutEvent struct {
	Items    int
	Width    float64
	Height   float64
	Duration time.Duration
	Err      error
}

// FrameHooks receives per-tick events from the engine.
type FrameHooks interface {
	OnFrame(ctx context.Context, ev FrameEvent)
}

// LayoutHooks receives an event after every layout run.
type LayoutHooks interface {
	OnLayout(ctx context.Context, ev LayoutEvent)
}

// CacheHooks receives cache lookups and writes. kind names the cached
// payload ("items", "world", or an HTTP client namespace).
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives outgoing content-source requests.
type HTTPHooks interface {
	// OnResponse is called once a response status is known.
	OnResponse(ctx context.Context, host, path string, status int, d time.Duration)

	// OnError is called when no response arrived at all.
	OnError(ctx context.Context, host, path string, err error)
}

// Noop implements every hook interface and ignores all events.
type Noop struct{}

func (Noop) OnFrame(context.Context, FrameEvent)                            {}
func (Noop) OnLayout(context.Context, LayoutEvent)                          {}
func (Noop) OnCacheHit(context.Context, string)                             {}
func (Noop) OnCacheMiss(context.Context, string)                            {}
func (Noop) OnCacheSet(context.Context, string, int)                        {}
func (Noop) OnResponse(context.Context, string, string, int, time.Duration) {}
func (Noop) OnError(context.Context, string, string, error)                 {}

var (
	hooksMu     sync.RWMutex
	frameHooks  FrameHooks  = Noop{}
	layoutHooks LayoutHooks = Noop{}
	cacheHooks  CacheHooks  = Noop{}
	httpHooks   HTTPHooks   = Noop{}
)

// Register installs h for every hook interface it implements and returns
// how many it took over. A nil h is ignored.
func Register(h any) int {
	if h == nil {
		return 0
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()

	n := 0
	if f, ok := h.(FrameHooks); ok {
		frameHooks = f
		n++
	}
	if l, ok := h.(LayoutHooks); ok {
		layoutHooks = l
		n++
	}
	if c, ok := h.(CacheHooks); ok {
		cacheHooks = c
		n++
	}
	if x, ok := h.(HTTPHooks); ok {
		httpHooks = x
		n++
	}
	return n
}

// Frame returns the registered frame hooks.
func Frame() FrameHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return frameHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	frameHooks, layoutHooks, cacheHooks, httpHooks = Noop{}, Noop{}, Noop{}, Noop{}
}
