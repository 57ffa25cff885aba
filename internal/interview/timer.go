package interview

import (
	"sync"
	"time"
)

// Ticker is the subset of time.Ticker the timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Signal is emitted once per elapsed interval while the timer runs.
type Signal struct {
	Generation uint64
	Remaining  int
	Expired    bool
}

// Timer is a per-question countdown with at most one tick source. Signals
// are delivered on an unbuffered channel; once Pause, Cancel or Arm returns
// no signal from the previous source can be received.
type Timer struct {
	interval  time.Duration
	newTicker TickerFactory
	signals   chan Signal

	mu         sync.Mutex
	remaining  int
	armed      bool
	generation uint64
	stop       chan struct{}
	done       chan struct{}
}

// NewTimer builds a timer; a nil factory uses the wall clock.
func NewTimer(interval time.Duration, factory TickerFactory) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	if factory == nil {
		factory = NewRealTicker
	}
	return &Timer{
		interval:  interval,
		newTicker: factory,
		signals:   make(chan Signal),
	}
}

// C delivers tick and expiry signals.
func (t *Timer) C() <-chan Signal {
	return t.signals
}

// Arm cancels any running source and starts counting down from limit
// seconds. It returns the generation stamped on every signal it produces.
func (t *Timer) Arm(limit int) uint64 {
	t.halt()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.remaining = limit
	t.armed = limit > 0
	if t.armed {
		t.start()
	}
	return t.generation
}

// Pause freezes the countdown and returns the remaining seconds.
func (t *Timer) Pause() int {
	t.halt()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Resume restarts an armed, paused countdown from its frozen value.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed || t.stop != nil || t.remaining <= 0 {
		return
	}
	t.start()
}

// Cancel stops the countdown and disarms the timer.
func (t *Timer) Cancel() {
	t.halt()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.remaining = 0
}

// Remaining returns the seconds left on the current countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Armed reports whether a countdown is in progress or paused.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Running reports whether a tick source is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// start must be called with mu held.
func (t *Timer) start() {
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done
	go t.run(t.generation, t.newTicker(t.interval), stop, done)
}

// halt stops the current source and waits for it to exit. mu must not be
// held: the source takes it while winding down.
func (t *Timer) halt() {
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

func (t *Timer) run(gen uint64, ticker Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}

		t.mu.Lock()
		if t.remaining <= 0 {
			t.mu.Unlock()
			return
		}
		next := t.remaining - 1
		t.mu.Unlock()

		sig := Signal{Generation: gen, Remaining: next, Expired: next == 0}
		select {
		case t.signals <- sig:
		case <-stop:
			return
		}

		t.mu.Lock()
		t.remaining = next
		if sig.Expired {
			t.armed = false
			// Nobody halts an expired source, so clear the handles here.
			if t.stop == stop {
				t.stop, t.done = nil, nil
			}
		}
		t.mu.Unlock()

		if sig.Expired {
			return
		}
	}
}
