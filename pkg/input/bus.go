package input

import (
	"fmt"
	"slices"
)

// Kind identifies a pointer event.
type Kind uint8

const (
	PointerDown Kind = iota
	PointerMove
	PointerUp
	Wheel
)

var kindNames = [...]string{
	PointerDown: "pointerdown",
	PointerMove: "pointermove",
	PointerUp:   "pointerup",
	Wheel:       "wheel",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps an event name as produced by Kind.String back to a Kind.
func ParseKind(s string) (Kind, bool) {
	i := slices.Index(kindNames[:], s)
	if i < 0 {
		return 0, false
	}
	return Kind(i), true
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown event kind %q", b)
	}
	*k = v
	return nil
}

// Event is one pointer or wheel event in viewport coordinates. X and Y are
// set for pointer events, DX and DY for wheel events.
type Event struct {
	Kind Kind    `json:"type"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	DX   float64 `json:"dx,omitempty"`
	DY   float64 `json:"dy,omitempty"`
}

// Handler receives dispatched events.
type Handler func(Event)

type handler struct {
	id uint32
	fn Handler
}

// Bus fans events out to subscribers of their kind. Like the frame loop it
// serves, a Bus is not safe for concurrent use.
type Bus struct {
	handlers map[Kind][]handler
	nextID   uint32
}

// NewBus returns a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]handler)}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id   uint32
	kind Kind
	bus  *Bus
}

// Remove unregisters the handler. Removing twice, or removing the zero
// Subscription, is a no-op.
func (s Subscription) Remove() {
	if s.bus == nil {
		return
	}
	hs := s.bus.handlers[s.kind]
	i := slices.IndexFunc(hs, func(h handler) bool { return h.id == s.id })
	if i < 0 {
		return
	}
	// Dispatch may be ranging over the old slice, so build a new one.
	s.bus.handlers[s.kind] = slices.Delete(slices.Clone(hs), i, i+1)
}

// Subscribe registers fn for events of kind.
func (b *Bus) Subscribe(kind Kind, fn Handler) Subscription {
	b.nextID++
	b.handlers[kind] = append(b.handlers[kind], handler{id: b.nextID, fn: fn})
	return Subscription{id: b.nextID, kind: kind, bus: b}
}

// Dispatch delivers ev to every current subscriber of ev.Kind in
// subscription order.
func (b *Bus) Dispatch(ev Event) {
	for _, h := range b.handlers[ev.Kind] {
		h.fn(ev)
	}
}

// Len returns the number of subscribers of kind.
func (b *Bus) Len(kind Kind) int {
	return len(b.handlers[kind])
}
