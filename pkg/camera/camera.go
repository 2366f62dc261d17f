// Package camera implements the artboard camera: a current world offset that
// converges exponentially toward a target offset once per frame.
//
// Offsets use the translate convention: the world is drawn shifted by
// (CurrentX, CurrentY), so the viewport's left edge in world space is
// -CurrentX. Panning right by dragging increases the offset.
package camera

import "math"

// DefaultSmoothing is the fraction of the remaining distance covered per tick.
const DefaultSmoothing = 0.1

// DefaultEpsilon is the distance below which the camera counts as settled.
const DefaultEpsilon = 0.01

// Position is a snapshot of the camera's current offset.
type Position struct {
	X, Y float64
}

// Camera holds the current and target offsets.
//
// Advance never overshoots: with smoothing in (0, 1] the current offset moves
// toward the target by a fraction of the remaining distance, so it converges
// asymptotically and only lands exactly on the target when smoothing is 1.
type Camera struct {
	CurrentX, CurrentY float64
	TargetX, TargetY   float64
	Smoothing          float64

	lastDX, lastDY float64
}

// New returns a camera at the origin. A smoothing outside (0, 1] falls back
// to DefaultSmoothing.
func New(smoothing float64) *Camera {
	if !(smoothing > 0 && smoothing <= 1) {
		smoothing = DefaultSmoothing
	}
	return &Camera{Smoothing: smoothing}
}

// Position returns the current offset.
func (c Camera) Position() Position {
	return Position{X: c.CurrentX, Y: c.CurrentY}
}

// Advance performs one smoothing step and records the displacement for Speed.
func (c *Camera) Advance() {
	dx := (c.TargetX - c.CurrentX) * c.Smoothing
	dy := (c.TargetY - c.CurrentY) * c.Smoothing
	c.CurrentX += dx
	c.CurrentY += dy
	c.lastDX, c.lastDY = dx, dy
}

// Speed returns the magnitude of the displacement of the last Advance, in
// world units per frame.
func (c Camera) Speed() float64 {
	return math.Hypot(c.lastDX, c.lastDY)
}

// Distance returns the remaining distance to the target.
func (c Camera) Distance() float64 {
	return math.Hypot(c.TargetX-c.CurrentX, c.TargetY-c.CurrentY)
}

// Settled reports whether the camera is within eps of its target.
func (c Camera) Settled(eps float64) bool {
	return c.Distance() < eps
}

// Snap cancels in-flight smoothing: the target jumps to the current offset
// and the recorded speed is zeroed.
func (c *Camera) Snap() {
	c.TargetX, c.TargetY = c.CurrentX, c.CurrentY
	c.lastDX, c.lastDY = 0, 0
}

// Pan moves the target by (dx, dy).
func (c *Camera) Pan(dx, dy float64) {
	c.TargetX += dx
	c.TargetY += dy
}

// Jump places both current and target at (x, y). This is the only
// discontinuous move besides Snap and is used at initialisation.
func (c *Camera) Jump(x, y float64) {
	c.CurrentX, c.CurrentY = x, y
	c.Snap()
}

// Shift translates current and target together, leaving the motion state
// untouched. Shifting by a world period does not change what is visible.
func (c *Camera) Shift(dx, dy float64) {
	c.CurrentX += dx
	c.CurrentY += dy
	c.TargetX += dx
	c.TargetY += dy
}

// CenterOn jumps so the centre of a worldW x worldH world sits at the centre
// of a vpW x vpH viewport.
func (c *Camera) CenterOn(worldW, worldH, vpW, vpH float64) {
	c.Jump(-worldW/2+vpW/2, -worldH/2+vpH/2)
}
