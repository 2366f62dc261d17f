package pool

import (
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Backend. It keeps every live node keyed by a
// random UUID handle and counts the calls it receives, which makes it the
// backend of choice for headless hosts and tests.
//
// Memory is safe for concurrent use so that an HTTP handler can inspect it
// while another goroutine drives the pool.
type Memory struct {
	mu     sync.Mutex
	nodes  map[uuid.UUID]*memNode
	byItem map[int]uuid.UUID
	counts MemoryCounts
}

// MemoryCounts are the cumulative backend calls.
type MemoryCounts struct {
	Created   int `json:"created"`
	Destroyed int `json:"destroyed"`
	Moved     int `json:"moved"`
}

type memNode struct {
	itemID  int
	bounds  Rect
	onClick func()
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{
		nodes:  make(map[uuid.UUID]*memNode),
		byItem: make(map[int]uuid.UUID),
	}
}

// Create implements Backend.
func (m *Memory) Create(itemID int, bounds Rect, onClick func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := uuid.New()
	m.nodes[h] = &memNode{itemID: itemID, bounds: bounds, onClick: onClick}
	m.byItem[itemID] = h
	m.counts.Created++
	return h
}

// Move implements Backend. Unknown handles are ignored.
func (m *Memory) Move(h Handle, bounds Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := m.lookup(h); n != nil {
		n.bounds = bounds
		m.counts.Moved++
	}
}

// Destroy implements Backend. Unknown handles are ignored.
func (m *Memory) Destroy(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := h.(uuid.UUID)
	if !ok {
		return
	}
	n, ok := m.nodes[id]
	if !ok {
		return
	}
	delete(m.nodes, id)
	if m.byItem[n.itemID] == id {
		delete(m.byItem, n.itemID)
	}
	m.counts.Destroyed++
}

func (m *Memory) lookup(h Handle) *memNode {
	id, ok := h.(uuid.UUID)
	if !ok {
		return nil
	}
	return m.nodes[id]
}

// Click activates the live node of itemID, as a pointer tap would. It
// reports whether such a node exists.
func (m *Memory) Click(itemID int) bool {
	m.mu.Lock()
	h, ok := m.byItem[itemID]
	var fn func()
	if ok {
		fn = m.nodes[h].onClick
	}
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
	return ok
}

// Live returns the number of nodes created and not yet destroyed.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// Bounds returns the last rectangle recorded for itemID's live node.
func (m *Memory) Bounds(itemID int) (Rect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.byItem[itemID]
	if !ok {
		return Rect{}, false
	}
	return m.nodes[h].bounds, true
}

// Counts returns the cumulative call counts.
func (m *Memory) Counts() MemoryCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts
}
