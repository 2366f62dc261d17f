// Package input turns pointer and wheel events into camera target updates.
//
// The [Controller] is a two-state machine:
//
//	Idle --PointerDown--> Dragging --PointerUp--> Idle
//
// While dragging, each PointerMove pans the camera target by the pointer
// delta. Wheel events pan the target in the opposite direction of the
// scroll delta in either state. Releasing the pointer does not add any
// momentum; the camera simply finishes smoothing toward its target.
//
// Events reach the controller either by direct method calls or through a
// [Bus], to which the controller attaches with [Controller.Attach] and from
// which it detaches with [Controller.Detach].
package input

import "github.com/matzehuels/artboard/pkg/camera"

// DefaultClickThreshold is the camera speed, in world units per frame, at
// or above which a pointer release over a tile counts as the end of a drag
// rather than a click.
const DefaultClickThreshold = 0.5

// State is the controller state.
type State uint8

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Controller drives one camera from pointer input.
type Controller struct {
	cam   *camera.Camera
	state State

	lastX, lastY float64

	subs []Subscription
}

// NewController returns an idle controller for cam.
func NewController(cam *camera.Camera) *Controller {
	return &Controller{cam: cam}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// PointerDown starts a drag at (x, y) and cancels any in-flight camera
// motion so the content sticks to the pointer.
func (c *Controller) PointerDown(x, y float64) {
	c.state = Dragging
	c.lastX, c.lastY = x, y
	c.cam.Snap()
}

// PointerMove pans the camera target by the pointer delta while dragging.
// Moves while idle are ignored.
func (c *Controller) PointerMove(x, y float64) {
	if c.state != Dragging {
		return
	}
	c.cam.Pan(x-c.lastX, y-c.lastY)
	c.lastX, c.lastY = x, y
}

// PointerUp ends a drag.
func (c *Controller) PointerUp() {
	c.state = Idle
}

// Wheel scrolls by (dx, dy).
func (c *Controller) Wheel(dx, dy float64) {
	c.cam.Pan(-dx, -dy)
}

// Handle applies ev.
func (c *Controller) Handle(ev Event) {
	switch ev.Kind {
	case PointerDown:
		c.PointerDown(ev.X, ev.Y)
	case PointerMove:
		c.PointerMove(ev.X, ev.Y)
	case PointerUp:
		c.PointerUp()
	case Wheel:
		c.Wheel(ev.DX, ev.DY)
	}
}

// Attach subscribes the controller to every event kind on bus. Attaching
// again first detaches from the previous bus.
func (c *Controller) Attach(bus *Bus) {
	c.Detach()
	for _, k := range []Kind{PointerDown, PointerMove, PointerUp, Wheel} {
		c.subs = append(c.subs, bus.Subscribe(k, c.Handle))
	}
}

// Detach removes every subscription made by Attach and returns the
// controller to Idle.
func (c *Controller) Detach() {
	for _, s := range c.subs {
		s.Remove()
	}
	c.subs = nil
	c.state = Idle
}

// Attached reports whether the controller currently holds subscriptions.
func (c *Controller) Attached() bool {
	return len(c.subs) > 0
}
