// Package clock provides the frame tick sources that drive the engine.
//
// A [Clock] calls its callback once per frame with the elapsed time since the
// previous frame. Callbacks are never concurrent with each other, and after
// Stop returns no further callback runs.
//
// [Manual] advances only when told to, which makes frame-by-frame tests
// deterministic. [Ticker] fires on a wall-clock interval from its own
// goroutine for headless hosts; interactive hosts usually drive the engine
// from their own event loop instead.
package clock

import (
	"sync"
	"time"
)

// DefaultInterval is one frame at 60 fps.
const DefaultInterval = time.Second / 60

// Clock is a source of frame ticks.
type Clock interface {
	Start(fn func(dt time.Duration))
	Stop()
}

// Manual is a Clock that ticks only on Step.
type Manual struct {
	mu      sync.Mutex
	fn      func(time.Duration)
	running bool
	ticks   int
}

// NewManual returns a stopped manual clock.
func NewManual() *Manual {
	return &Manual{}
}

// Start implements Clock.
func (m *Manual) Start(fn func(time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	m.running = true
}

// Stop implements Clock.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.fn = nil
}

// Step runs the callback once with dt, synchronously. It reports whether the
// clock was running.
func (m *Manual) Step(dt time.Duration) bool {
	m.mu.Lock()
	fn, ok := m.fn, m.running
	if ok {
		m.ticks++
	}
	m.mu.Unlock()

	if ok && fn != nil {
		fn(dt)
	}
	return ok
}

// Running reports whether the clock is started.
func (m *Manual) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Ticks returns the number of steps delivered.
func (m *Manual) Ticks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}

// Ticker is a Clock backed by time.Ticker.
type Ticker struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTicker returns a stopped Ticker. A non-positive interval falls back to
// DefaultInterval.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{interval: interval}
}

// Start implements Clock. Starting a running Ticker restarts it with fn.
func (t *Ticker) Start(fn func(time.Duration)) {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(fn, t.stop, t.done)
}

func (t *Ticker) loop(fn func(time.Duration), stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-tk.C:
			// Stop may have raced the tick; prefer stopping.
			select {
			case <-stop:
				return
			default:
			}
			dt := now.Sub(last)
			last = now
			fn(dt)
		}
	}
}

// Stop implements Clock. It blocks until the ticking goroutine has exited,
// so it must not be called from inside the callback.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
