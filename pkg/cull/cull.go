// Package cull decides, once per frame, which items overlap the buffered
// viewport on a toroidal world.
//
// # Wrapping
//
// The world repeats with period World.Width along x and World.Height along
// y: an item at p also exists at p + k*period for every integer k. For each
// axis the culler picks the copy nearest the camera,
//
//	k = round((-offset - p) / period)
//
// and tests that single copy against the viewport grown by Buffer on every
// side. Picking one copy per item is exact as long as each period exceeds
// the buffered viewport extent; [Viewport.SingleInstance] reports whether
// that holds. Smaller worlds could show two copies of an item at once and
// only the nearest one is reported.
//
// Degenerate worlds (nil, empty, non-positive period) yield nothing.
package cull

import (
	"math"

	"github.com/matzehuels/artboard/pkg/camera"
	"github.com/matzehuels/artboard/pkg/world"
)

// DefaultBuffer is the margin, in world units, added around the viewport so
// tiles materialise before they scroll into view.
const DefaultBuffer = 1000.0

// Viewport is the visible region size plus the culling buffer.
type Viewport struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	Buffer float64 `toml:"buffer" json:"buffer"`
}

// SingleInstance reports whether at most one wrapped copy of any item can
// intersect the buffered viewport in w.
func (vp Viewport) SingleInstance(w *world.World) bool {
	if w.Degenerate() {
		return true
	}
	return w.Width > vp.Width+2*vp.Buffer && w.Height > vp.Height+2*vp.Buffer
}

// Visible is the wrapped copy of an item nearest the camera.
type Visible struct {
	ItemID int `json:"id"`

	// WorldX, WorldY place the copy in unbounded world space.
	WorldX float64 `json:"world_x"`
	WorldY float64 `json:"world_y"`

	// ScreenX, ScreenY are relative to the viewport's top-left corner.
	ScreenX float64 `json:"screen_x"`
	ScreenY float64 `json:"screen_y"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Wrap returns pos shifted by the multiple of period that brings it nearest
// to the viewport origin at -offset. Ties round toward +Inf so that shifting
// offset by one period shifts the result by exactly one period.
func Wrap(pos, offset, period float64) float64 {
	k := math.Floor((-offset-pos)/period + 0.5)
	return pos + k*period
}

// Compute returns the items of w whose nearest wrapped copy intersects the
// buffered viewport, in world order. It never returns an error; a degenerate
// world simply has nothing visible.
func Compute(cam camera.Position, w *world.World, vp Viewport) []Visible {
	return Append(nil, cam, w, vp)
}

// Append is Compute writing into dst, so a caller can reuse one slice across
// frames.
func Append(dst []Visible, cam camera.Position, w *world.World, vp Viewport) []Visible {
	dst = dst[:0]
	if w.Degenerate() {
		return dst
	}

	minX := -cam.X - vp.Buffer
	maxX := -cam.X + vp.Width + vp.Buffer
	minY := -cam.Y - vp.Buffer
	maxY := -cam.Y + vp.Height + vp.Buffer

	for _, it := range w.Items {
		x := Wrap(it.X, cam.X, w.Width)
		if x > maxX || x+it.Width < minX {
			continue
		}
		y := Wrap(it.Y, cam.Y, w.Height)
		if y > maxY || y+it.Height < minY {
			continue
		}
		dst = append(dst, Visible{
			ItemID:  it.ID,
			WorldX:  x,
			WorldY:  y,
			ScreenX: x + cam.X,
			ScreenY: y + cam.Y,
			Width:   it.Width,
			Height:  it.Height,
		})
	}
	return dst
}
