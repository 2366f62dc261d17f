// Package world holds the laid-out item set and the periodic world dimensions
// derived from it.
//
// A World is immutable once built: filtering or reloading produces a new
// World rather than editing item geometry in place.
package world

import (
	"fmt"

	"github.com/matzehuels/artboard/pkg/item"
)

// World is the laid-out item set with its wrap periods.
type World struct {
	Items  []item.Item `json:"items"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`

	index map[int]int
}

// New builds a World from already laid-out items.
func New(items []item.Item, width, height float64) *World {
	w := &World{Items: items, Width: width, Height: height}
	w.reindex()
	return w
}

// Empty returns a World with no items and zero periods.
func Empty() *World {
	return New(nil, 0, 0)
}

// Len returns the number of items.
func (w *World) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Items)
}

// Degenerate reports whether the world cannot be wrapped: nil, no items, or a
// non-positive period on either axis.
func (w *World) Degenerate() bool {
	return w == nil || len(w.Items) == 0 || !(w.Width > 0) || !(w.Height > 0)
}

// Item looks up an item by id.
func (w *World) Item(id int) (item.Item, bool) {
	if w == nil {
		return item.Item{}, false
	}
	if w.index == nil {
		w.reindex()
	}
	i, ok := w.index[id]
	if !ok {
		return item.Item{}, false
	}
	return w.Items[i], true
}

// Contains reports whether an item with id is present.
func (w *World) Contains(id int) bool {
	_, ok := w.Item(id)
	return ok
}

// Check verifies the placement invariants: every item has finite positive
// geometry and its canonical rectangle lies within [0, Width) x [0, Height].
func (w *World) Check() error {
	if w == nil {
		return fmt.Errorf("nil world")
	}
	for _, it := range w.Items {
		if !it.Placed() {
			return fmt.Errorf("item %d: missing geometry", it.ID)
		}
		if it.X < 0 || it.X >= w.Width || it.X+it.Width > w.Width {
			return fmt.Errorf("item %d: x span [%v, %v] outside [0, %v)", it.ID, it.X, it.X+it.Width, w.Width)
		}
		if it.Y < 0 || it.Y+it.Height > w.Height {
			return fmt.Errorf("item %d: y span [%v, %v] outside [0, %v]", it.ID, it.Y, it.Y+it.Height, w.Height)
		}
	}
	return nil
}

func (w *World) reindex() {
	w.index = make(map[int]int, len(w.Items))
	for i, it := range w.Items {
		w.index[it.ID] = i
	}
}
