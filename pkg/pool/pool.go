// Package pool keeps at most one live render node per visible item and
// reconciles that set against the culler's output every frame.
//
// A [Pool] owns an itemID → [Node] map. Each [Pool.Reconcile] runs two
// passes:
//
//  1. Destroy every node whose item is not in the visible set.
//  2. Create a node for every visible item that lacks one, then move every
//     visible node to its current screen rectangle.
//
// After Reconcile the pool's keys equal the visible id set exactly, so nodes
// never leak or duplicate no matter how items enter and leave the viewport.
//
// Drawing is delegated to a [Backend]. The pool never looks inside a node
// handle; it only hands it back to the backend that produced it.
package pool

import (
	"slices"

	"github.com/matzehuels/artboard/pkg/cull"
)

// Rect is a screen-space rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Handle is an opaque backend-specific reference to a drawn node.
type Handle any

// Backend materialises, positions and releases render nodes.
//
// Create must return a handle that is valid until the matching Destroy. The
// onClick callback is wired by the pool and should be invoked by the backend
// when the node is activated.
type Backend interface {
	Create(itemID int, bounds Rect, onClick func()) Handle
	Move(h Handle, bounds Rect)
	Destroy(h Handle)
}

// Node is one live render node.
type Node struct {
	ItemID int    `json:"id"`
	Bounds Rect   `json:"bounds"`
	Handle Handle `json:"-"`
}

// ClickFunc receives the item id of an activated node.
type ClickFunc func(itemID int)

// Stats summarises one Reconcile.
type Stats struct {
	Created   int `json:"created"`
	Destroyed int `json:"destroyed"`
	Updated   int `json:"updated"`
}

// Option configures a Pool.
type Option func(*Pool)

// WithClick sets the function called when a node's click callback fires.
func WithClick(fn ClickFunc) Option {
	return func(p *Pool) { p.onClick = fn }
}

// Pool is not safe for concurrent use; it belongs to the frame loop.
type Pool struct {
	backend Backend
	onClick ClickFunc
	nodes   map[int]*Node

	// pending is reused across frames: true while a visible id still needs
	// its pass-two work this frame.
	pending map[int]bool
}

// New returns an empty pool drawing through backend. A nil backend gets a
// fresh [Memory].
func New(backend Backend, opts ...Option) *Pool {
	if backend == nil {
		backend = NewMemory()
	}
	p := &Pool{
		backend: backend,
		nodes:   make(map[int]*Node),
		pending: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetClick replaces the click handler. Nodes created earlier pick up the new
// handler as well.
func (p *Pool) SetClick(fn ClickFunc) {
	p.onClick = fn
}

// Reconcile brings the node set in line with visible. Duplicate ids in
// visible are handled once, using the first occurrence.
func (p *Pool) Reconcile(visible []cull.Visible) Stats {
	var st Stats

	clear(p.pending)
	for _, v := range visible {
		p.pending[v.ItemID] = true
	}

	for id, n := range p.nodes {
		if _, ok := p.pending[id]; ok {
			continue
		}
		p.backend.Destroy(n.Handle)
		delete(p.nodes, id)
		st.Destroyed++
	}

	for _, v := range visible {
		if !p.pending[v.ItemID] {
			continue
		}
		p.pending[v.ItemID] = false

		r := Rect{X: v.ScreenX, Y: v.ScreenY, Width: v.Width, Height: v.Height}
		n, ok := p.nodes[v.ItemID]
		if !ok {
			n = &Node{ItemID: v.ItemID, Bounds: r}
			n.Handle = p.backend.Create(v.ItemID, r, p.clickFor(v.ItemID))
			p.nodes[v.ItemID] = n
			st.Created++
		}
		n.Bounds = r
		p.backend.Move(n.Handle, r)
		st.Updated++
	}
	return st
}

func (p *Pool) clickFor(id int) func() {
	return func() {
		if p.onClick != nil {
			p.onClick(id)
		}
	}
}

// Clear destroys every node and returns how many there were.
func (p *Pool) Clear() int {
	n := len(p.nodes)
	for id, node := range p.nodes {
		p.backend.Destroy(node.Handle)
		delete(p.nodes, id)
	}
	return n
}

// Len returns the number of live nodes.
func (p *Pool) Len() int {
	return len(p.nodes)
}

// Keys returns the live item ids in ascending order.
func (p *Pool) Keys() []int {
	keys := make([]int, 0, len(p.nodes))
	for id := range p.nodes {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys
}

// Node returns a copy of the node for id.
func (p *Pool) Node(id int) (Node, bool) {
	n, ok := p.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all live nodes ordered by item id.
func (p *Pool) Nodes() []Node {
	out := make([]Node, 0, len(p.nodes))
	for _, id := range p.Keys() {
		out = append(out, *p.nodes[id])
	}
	return out
}
