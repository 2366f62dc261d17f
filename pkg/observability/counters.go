package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Counters aggregates hook events in memory. It implements every hook
// interface and is safe for concurrent use.
type Counters struct {
	frames        atomic.Uint64
	created       atomic.Uint64
	destroyed     atomic.Uint64
	lastVisible   atomic.Int64
	frameNanos    atomic.Int64
	layouts       atomic.Uint64
	layoutErrors  atomic.Uint64
	layoutNanos   atomic.Int64
	cacheHits     atomic.Uint64
	cacheMisses   atomic.Uint64
	cacheBytes    atomic.Uint64
	httpResponses atomic.Uint64
	httpFailures  atomic.Uint64
}

// Stats is a point-in-time copy of Counters.
type Stats struct {
	Frames         uint64        `json:"frames"`
	NodesCreated   uint64        `json:"nodes_created"`
	NodesDestroyed uint64        `json:"nodes_destroyed"`
	LastVisible    int           `json:"last_visible"`
	MeanFrame      time.Duration `json:"mean_frame_ns"`
	Layouts        uint64        `json:"layouts"`
	LayoutErrors   uint64        `json:"layout_errors"`
	LastLayout     time.Duration `json:"last_layout_ns"`
	CacheHits      uint64        `json:"cache_hits"`
	CacheMisses    uint64        `json:"cache_misses"`
	CacheBytes     uint64        `json:"cache_bytes_written"`
	HTTPResponses  uint64        `json:"http_responses"`
	HTTPFailures   uint64        `json:"http_failures"`
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) OnFrame(_ context.Context, ev FrameEvent) {
	c.frames.Add(1)
	c.created.Add(uint64(ev.Created))
	c.destroyed.Add(uint64(ev.Destroyed))
	c.lastVisible.Store(int64(ev.Visible))
	c.frameNanos.Add(int64(ev.Duration))
}

func (c *Counters) OnLayout(_ context.Context, ev LayoutEvent) {
	if ev.Err != nil {
		c.layoutErrors.Add(1)
		return
	}
	c.layouts.Add(1)
	c.layoutNanos.Store(int64(ev.Duration))
}

func (c *Counters) OnCacheHit(context.Context, string)  { c.cacheHits.Add(1) }
func (c *Counters) OnCacheMiss(context.Context, string) { c.cacheMisses.Add(1) }

func (c *Counters) OnCacheSet(_ context.Context, _ string, size int) {
	c.cacheBytes.Add(uint64(size))
}

// OnResponse counts 5xx answers as failures.
func (c *Counters) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	c.httpResponses.Add(1)
	if status >= 500 {
		c.httpFailures.Add(1)
	}
}

func (c *Counters) OnError(context.Context, string, string, error) {
	c.httpFailures.Add(1)
}

// Snapshot returns the current totals.
func (c *Counters) Snapshot() Stats {
	s := Stats{
		Frames:         c.frames.Load(),
		NodesCreated:   c.created.Load(),
		NodesDestroyed: c.destroyed.Load(),
		LastVisible:    int(c.lastVisible.Load()),
		Layouts:        c.layouts.Load(),
		LayoutErrors:   c.layoutErrors.Load(),
		LastLayout:     time.Duration(c.layoutNanos.Load()),
		CacheHits:      c.cacheHits.Load(),
		CacheMisses:    c.cacheMisses.Load(),
		CacheBytes:     c.cacheBytes.Load(),
		HTTPResponses:  c.httpResponses.Load(),
		HTTPFailures:   c.httpFailures.Load(),
	}
	if s.Frames > 0 {
		s.MeanFrame = time.Duration(c.frameNanos.Load() / int64(s.Frames))
	}
	return s
}
