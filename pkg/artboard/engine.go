package artboard

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/artboard/pkg/camera"
	"github.com/matzehuels/artboard/pkg/clock"
	"github.com/matzehuels/artboard/pkg/cull"
	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/input"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/layout"
	"github.com/matzehuels/artboard/pkg/observability"
	"github.com/matzehuels/artboard/pkg/pool"
	"github.com/matzehuels/artboard/pkg/world"
)

// FilterAll is the filter sentinel that selects every item.
const FilterAll = item.All

var (
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New(errors.ErrCodeConflict, "engine is closed")

	// ErrClickSuppressed is returned by Click while the camera is still
	// moving faster than the click threshold.
	ErrClickSuppressed = errors.New(errors.ErrCodeConflict, "click suppressed while the camera is moving")
)

// Detail is the payload handed to the detail-view collaborator.
type Detail struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ImageRef    string   `json:"image,omitempty"`
	GalleryRefs []string `json:"gallery,omitempty"`
	Author      string   `json:"author,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Tag         string   `json:"tag,omitempty"`
}

func detailOf(it item.Item) Detail {
	return Detail{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		ImageRef:    it.ImageRef,
		GalleryRefs: it.GalleryRefs,
		Author:      it.Author,
		Avatar:      it.Avatar,
		Tag:         it.Tag,
	}
}

// FrameStats summarises one Tick.
type FrameStats struct {
	Frame     uint64        `json:"frame"`
	Visible   int           `json:"visible"`
	Created   int           `json:"created"`
	Destroyed int           `json:"destroyed"`
	Speed     float64       `json:"speed"`
	DT        time.Duration `json:"dt"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackend sets the render backend. The default is a fresh pool.Memory.
func WithBackend(b pool.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithOpenDetail sets the detail-view collaborator. It is called outside the
// engine lock and may call back into the engine.
func WithOpenDetail(fn func(Detail)) Option {
	return func(e *Engine) { e.openDetail = fn }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the frame clock used by Start. The default is a 60 fps
// clock.Ticker.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clk = c }
}

// Engine ties the artboard together: it owns the camera, the laid-out world,
// the render pool and the input controller, and advances them one frame per
// Tick.
//
// Every exported method is safe for concurrent use; the engine serializes
// them on one lock, which makes that lock the frame loop. Submit is the only
// method meant for background goroutines: it hands over a new item list
// that the next Tick lays out.
type Engine struct {
	mu sync.Mutex

	cfg        Config
	log        *log.Logger
	backend    pool.Backend
	clk        clock.Clock
	openDetail func(Detail)

	cam  *camera.Camera
	bus  *input.Bus
	ctrl *input.Controller
	pool *pool.Pool

	items   []item.Item
	filter  string
	world   *world.World
	visible []cull.Visible

	centred bool
	warned  bool
	closed  bool
	last    FrameStats

	pendingMu sync.Mutex
	pending   []item.Item
	submitted bool
}

// New returns an engine with an empty world.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		filter: FilterAll,
		world:  world.Empty(),
		cam:    camera.New(cfg.Smoothing),
		bus:    input.NewBus(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = log.New(io.Discard)
	}
	if e.backend == nil {
		e.backend = pool.NewMemory()
	}
	if e.clk == nil {
		e.clk = clock.NewTicker(clock.DefaultInterval)
	}

	e.pool = pool.New(e.backend, pool.WithClick(e.nodeClicked))
	e.ctrl = input.NewController(e.cam)
	e.ctrl.Attach(e.bus)
	return e, nil
}

// =============================================================================
// Content
// =============================================================================

// Load replaces the item set and lays it out immediately. Items with an id
// of zero or below, and repeated ids, are dropped. The camera is centred on
// the first non-empty world; later loads keep the camera where it is.
func (e *Engine) Load(items []item.Item) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if err := e.load(items); err != nil {
		return err
	}
	e.render()
	return nil
}

// load swaps in a new item set without reconciling the pool; the caller
// renders afterwards.
func (e *Engine) load(items []item.Item) error {
	clean, dropped := item.Normalize(items)
	if dropped > 0 {
		e.log.Warn("dropped malformed items", "count", dropped)
	}
	e.items = clean
	if err := e.relayout(); err != nil {
		return err
	}
	e.log.Info("items loaded", "count", len(clean), "shown", e.world.Len())

	if !e.centred && !e.world.Degenerate() {
		vp := e.cfg.Viewport
		e.cam.CenterOn(e.world.Width, e.world.Height, vp.Width, vp.Height)
		e.centred = true
	}
	return nil
}

// Submit queues items for the next Tick. It may be called from any
// goroutine, typically the one that fetched the content. A later Submit
// before the next Tick replaces an earlier one.
func (e *Engine) Submit(items []item.Item) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	e.pending = items
	e.submitted = true
}

func (e *Engine) takePending() ([]item.Item, bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	items, ok := e.pending, e.submitted
	e.pending, e.submitted = nil, false
	return items, ok
}

// Filter re-lays out the items whose tag matches, case-insensitively. The
// empty string and FilterAll select everything. Nodes of items that are no
// longer shown are destroyed before Filter returns; the camera keeps its
// position.
func (e *Engine) Filter(tag string) error {
	if err := errors.ValidateTag(tag); err != nil {
		return err
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = FilterAll
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if strings.EqualFold(tag, e.filter) {
		return nil
	}

	e.filter = tag
	if err := e.relayout(); err != nil {
		return err
	}
	e.log.Debug("filter applied", "tag", tag, "shown", e.world.Len())
	e.render()
	return nil
}

func (e *Engine) relayout() error {
	subset := item.Filter(e.items, e.filter)

	start := time.Now()
	w, err := layout.Masonry(subset, e.cfg.Layout)
	ev := observability.LayoutEvent{Items: len(subset), Duration: time.Since(start), Err: err}
	if w != nil {
		ev.Width, ev.Height = w.Width, w.Height
	}
	observability.Layout().OnLayout(context.Background(), ev)
	if err != nil {
		return err
	}

	e.world = w
	e.warned = false
	e.checkViewport()
	return nil
}

// checkViewport warns once per world when the world is too small for every
// wrapped copy to be drawn.
func (e *Engine) checkViewport() {
	if e.warned || e.cfg.Viewport.SingleInstance(e.world) {
		return
	}
	e.warned = true
	vp := e.cfg.Viewport
	e.log.Warn("world is smaller than the buffered viewport, only the nearest copy of each item is drawn",
		"world", [2]float64{e.world.Width, e.world.Height},
		"viewport", [2]float64{vp.Width + 2*vp.Buffer, vp.Height + 2*vp.Buffer})
}

// =============================================================================
// Frame loop
// =============================================================================

// Tick advances one frame: it applies submitted content, moves the camera
// one smoothing step, culls and reconciles the pool. A closed engine ignores
// Tick.
func (e *Engine) Tick(dt time.Duration) FrameStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return FrameStats{}
	}

	start := time.Now()
	if items, ok := e.takePending(); ok {
		if err := e.load(items); err != nil {
			e.log.Error("apply submitted items", "err", err)
		}
	}

	e.cam.Advance()
	st := e.render()

	fs := FrameStats{
		Frame:     e.last.Frame + 1,
		Visible:   len(e.visible),
		Created:   st.Created,
		Destroyed: st.Destroyed,
		Speed:     e.cam.Speed(),
		DT:        dt,
	}
	e.last = fs
	observability.Frame().OnFrame(context.Background(), observability.FrameEvent{
		Frame:     fs.Frame,
		Visible:   fs.Visible,
		Created:   fs.Created,
		Destroyed: fs.Destroyed,
		Duration:  time.Since(start),
	})
	return fs
}

func (e *Engine) render() pool.Stats {
	e.visible = cull.Append(e.visible, e.cam.Position(), e.world, e.cfg.Viewport)
	return e.pool.Reconcile(e.visible)
}

// Start runs Tick on every beat of the frame clock.
func (e *Engine) Start() error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	e.clk.Start(func(dt time.Duration) { e.Tick(dt) })
	return nil
}

// Close stops the frame clock, detaches input, and destroys every node.
// Later calls are no-ops.
func (e *Engine) Close() error {
	// The clock waits for an in-flight Tick, which needs the lock.
	e.clk.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.ctrl.Detach()
	n := e.pool.Clear()
	e.visible = e.visible[:0]
	e.log.Debug("engine closed", "destroyed", n)
	return nil
}

// =============================================================================
// Input
// =============================================================================

// Input dispatches a pointer or wheel event to the controller.
func (e *Engine) Input(ev input.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.bus.Dispatch(ev)
}

// Click opens the detail view for a live node. It fails with
// ErrClickSuppressed while the camera moves at or above the click
// threshold, so releasing a drag over a tile does not open it.
func (e *Engine) Click(id int) (Detail, error) {
	d, err := e.click(id)
	if err != nil {
		return Detail{}, err
	}
	if e.openDetail != nil {
		e.openDetail(d)
	}
	return d, nil
}

func (e *Engine) click(id int) (Detail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Detail{}, ErrClosed
	}
	if speed := e.cam.Speed(); speed >= e.cfg.ClickThreshold {
		e.log.Debug("click suppressed", "id", id, "speed", speed)
		return Detail{}, ErrClickSuppressed
	}
	if _, ok := e.pool.Node(id); !ok {
		return Detail{}, errors.New(errors.ErrCodeNotFound, "item %d is not on screen", id)
	}
	it, ok := e.world.Item(id)
	if !ok {
		return Detail{}, errors.New(errors.ErrCodeNotFound, "item %d not found", id)
	}
	return detailOf(it), nil
}

func (e *Engine) nodeClicked(id int) {
	if _, err := e.Click(id); err != nil {
		e.log.Debug("node click ignored", "id", id, "err", err)
	}
}

// Resize changes the viewport size and redraws.
func (e *Engine) Resize(width, height float64) error {
	if !(width >= 0) || !(height >= 0) {
		return errors.New(errors.ErrCodeInvalidInput, "viewport size must not be negative, got %vx%v", width, height)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.cfg.Viewport.Width, e.cfg.Viewport.Height = width, height
	e.warned = false
	e.checkViewport()
	e.render()
	return nil
}

// Recenter jumps the camera to the centre of the world.
func (e *Engine) Recenter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.world.Degenerate() {
		return
	}
	vp := e.cfg.Viewport
	e.cam.CenterOn(e.world.Width, e.world.Height, vp.Width, vp.Height)
	e.render()
}

// =============================================================================
// Accessors
// =============================================================================

// World returns the current world. Worlds are never modified after layout.
func (e *Engine) World() *world.World {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world
}

// Items returns the loaded items, unfiltered and unplaced.
func (e *Engine) Items() []item.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]item.Item(nil), e.items...)
}

// Tags returns the distinct tags of the loaded items.
func (e *Engine) Tags() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return item.Tags(e.items)
}

// ActiveFilter returns the current filter tag.
func (e *Engine) ActiveFilter() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Visible returns the visible set computed by the last frame.
func (e *Engine) Visible() []cull.Visible {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]cull.Visible(nil), e.visible...)
}

// Nodes returns the live render nodes ordered by item id.
func (e *Engine) Nodes() []pool.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.Nodes()
}

// Camera returns a snapshot of the camera.
func (e *Engine) Camera() camera.Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.cam
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() cull.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Viewport
}

// LastFrame returns the stats of the most recent Tick.
func (e *Engine) LastFrame() FrameStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Dragging reports whether a pointer drag is in progress.
func (e *Engine) Dragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.State() == input.Dragging
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
