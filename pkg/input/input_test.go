package input

import (
	"encoding/json"
	"testing"

	"github.com/matzehuels/artboard/pkg/camera"
)

func TestControllerDrag(t *testing.T) {
	cam := camera.New(0.1)
	c := NewController(cam)

	c.PointerMove(50, 50)
	if cam.TargetX != 0 || cam.TargetY != 0 {
		t.Fatalf("move while idle changed target: (%v,%v)", cam.TargetX, cam.TargetY)
	}

	c.PointerDown(100, 100)
	if c.State() != Dragging {
		t.Fatalf("state = %v, want dragging", c.State())
	}
	c.PointerMove(130, 90)
	c.PointerMove(140, 95)
	if cam.TargetX != 40 || cam.TargetY != -5 {
		t.Errorf("target = (%v,%v), want (40,-5)", cam.TargetX, cam.TargetY)
	}

	c.PointerUp()
	if c.State() != Idle {
		t.Errorf("state after up = %v, want idle", c.State())
	}
	c.PointerMove(500, 500)
	if cam.TargetX != 40 || cam.TargetY != -5 {
		t.Error("move after release should be ignored")
	}
}

func TestPointerDownSnapsCamera(t *testing.T) {
	cam := camera.New(0.1)
	cam.Pan(1000, 0)
	cam.Advance()
	c := NewController(cam)

	c.PointerDown(0, 0)
	if cam.TargetX != cam.CurrentX || cam.Speed() != 0 {
		t.Errorf("PointerDown should cancel motion: current=%v target=%v speed=%v", cam.CurrentX, cam.TargetX, cam.Speed())
	}
}

func TestPointerUpAddsNoMomentum(t *testing.T) {
	cam := camera.New(0.1)
	c := NewController(cam)
	c.PointerDown(0, 0)
	c.PointerMove(100, 0)
	before := cam.TargetX
	c.PointerUp()
	if cam.TargetX != before {
		t.Errorf("PointerUp moved target from %v to %v", before, cam.TargetX)
	}
}

func TestWheel(t *testing.T) {
	cam := camera.New(0.1)
	c := NewController(cam)
	c.Wheel(10, -20)
	if cam.TargetX != -10 || cam.TargetY != 20 {
		t.Errorf("target = (%v,%v), want (-10,20)", cam.TargetX, cam.TargetY)
	}
	c.PointerDown(0, 0)
	c.Wheel(5, 0)
	if cam.TargetX != cam.CurrentX-5 {
		t.Errorf("wheel while dragging should still pan, target=%v", cam.TargetX)
	}
}

func TestBusSubscribeRemove(t *testing.T) {
	bus := NewBus()
	var got []Kind
	down := bus.Subscribe(PointerDown, func(ev Event) { got = append(got, ev.Kind) })
	bus.Subscribe(Wheel, func(ev Event) { got = append(got, ev.Kind) })

	bus.Dispatch(Event{Kind: PointerDown})
	bus.Dispatch(Event{Kind: PointerUp})
	bus.Dispatch(Event{Kind: Wheel})
	if len(got) != 2 || got[0] != PointerDown || got[1] != Wheel {
		t.Fatalf("delivered %v", got)
	}

	down.Remove()
	down.Remove()
	bus.Dispatch(Event{Kind: PointerDown})
	if len(got) != 2 {
		t.Errorf("removed handler still called: %v", got)
	}
	if bus.Len(PointerDown) != 0 || bus.Len(Wheel) != 1 {
		t.Errorf("Len after remove: down=%d wheel=%d", bus.Len(PointerDown), bus.Len(Wheel))
	}

	Subscription{}.Remove()
}

func TestBusRemoveDuringDispatch(t *testing.T) {
	bus := NewBus()
	calls := 0
	var self Subscription
	self = bus.Subscribe(Wheel, func(Event) { calls++; self.Remove() })
	bus.Subscribe(Wheel, func(Event) { calls++ })

	bus.Dispatch(Event{Kind: Wheel})
	if calls != 2 {
		t.Errorf("first dispatch calls = %d, want 2", calls)
	}
	bus.Dispatch(Event{Kind: Wheel})
	if calls != 3 {
		t.Errorf("second dispatch calls = %d, want 3", calls)
	}
}

func TestAttachDetach(t *testing.T) {
	cam := camera.New(0.1)
	c := NewController(cam)
	bus := NewBus()

	c.Attach(bus)
	if !c.Attached() {
		t.Fatal("controller should be attached")
	}
	bus.Dispatch(Event{Kind: PointerDown, X: 0, Y: 0})
	bus.Dispatch(Event{Kind: PointerMove, X: 25, Y: 0})
	if cam.TargetX != 25 {
		t.Errorf("target = %v, want 25", cam.TargetX)
	}

	c.Detach()
	for _, k := range []Kind{PointerDown, PointerMove, PointerUp, Wheel} {
		if n := bus.Len(k); n != 0 {
			t.Errorf("%v subscribers after Detach = %d", k, n)
		}
	}
	bus.Dispatch(Event{Kind: Wheel, DX: 100})
	if cam.TargetX != 25 {
		t.Error("detached controller still receives events")
	}
	if c.State() != Idle {
		t.Error("Detach should reset to idle")
	}
}

func TestAttachTwice(t *testing.T) {
	c := NewController(camera.New(0.1))
	a, b := NewBus(), NewBus()
	c.Attach(a)
	c.Attach(b)
	if a.Len(Wheel) != 0 || b.Len(Wheel) != 1 {
		t.Errorf("re-attach left subscribers: a=%d b=%d", a.Len(Wheel), b.Len(Wheel))
	}
}

func TestEventJSON(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"type":"wheel","dx":3,"dy":-4}`), &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev.Kind != Wheel || ev.DX != 3 || ev.DY != -4 {
		t.Errorf("decoded %+v", ev)
	}
	if err := json.Unmarshal([]byte(`{"type":"hover"}`), &ev); err == nil {
		t.Error("unknown kind should fail to decode")
	}
	b, _ := json.Marshal(Event{Kind: PointerUp})
	if string(b) != `{"type":"pointerup"}` {
		t.Errorf("Marshal = %s", b)
	}
}
