package interview

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// fakeClock hands out manually driven tickers and remembers the latest.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) factory(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) latest() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// tick fires the latest ticker and returns the resulting signal.
func tick(t *testing.T, clock *fakeClock, timer *Timer) Signal {
	t.Helper()
	select {
	case clock.latest().c <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("tick source not listening")
	}
	select {
	case sig := <-timer.C():
		return sig
	case <-time.After(time.Second):
		t.Fatal("no signal after tick")
	}
	return Signal{}
}

func TestTimerCountsDownAndExpiresOnce(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(time.Second, clock.factory)
	defer timer.Cancel()

	gen := timer.Arm(3)
	assert.True(t, timer.Armed())
	assert.Equal(t, 3, timer.Remaining())

	assert.Equal(t, Signal{Generation: gen, Remaining: 2}, tick(t, clock, timer))
	assert.Equal(t, Signal{Generation: gen, Remaining: 1}, tick(t, clock, timer))
	assert.Equal(t, Signal{Generation: gen, Remaining: 0, Expired: true}, tick(t, clock, timer))

	assert.Eventually(t, func() bool { return !timer.Running() }, time.Second, time.Millisecond)
	assert.False(t, timer.Armed())
	assert.Equal(t, 0, timer.Remaining())

	select {
	case clock.latest().c <- time.Now():
		t.Fatal("expired source still listening")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimerPauseResumeKeepsRemaining(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(time.Second, clock.factory)
	defer timer.Cancel()

	gen := timer.Arm(20)
	for i := 0; i < 8; i++ {
		tick(t, clock, timer)
	}
	assert.Equal(t, 12, timer.Pause())
	assert.False(t, timer.Running())
	assert.True(t, timer.Armed())

	timer.Resume()
	assert.True(t, timer.Running())
	assert.Equal(t, 2, clock.count(), "resume starts a fresh source")

	sig := tick(t, clock, timer)
	assert.Equal(t, gen, sig.Generation)
	assert.Equal(t, 11, sig.Remaining)
}

func TestTimerPauseWhilePendingDropsSignal(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(time.Second, clock.factory)
	defer timer.Cancel()

	timer.Arm(10)
	// The source is now blocked trying to deliver 9.
	clock.latest().c <- time.Now()

	assert.Equal(t, 10, timer.Pause(), "undelivered tick must not count")
	select {
	case sig := <-timer.C():
		t.Fatalf("unexpected signal after pause: %+v", sig)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimerRearmCancelsPreviousSource(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(time.Second, clock.factory)
	defer timer.Cancel()

	first := timer.Arm(20)
	clock.latest().c <- time.Now() // pending send from first source
	firstTicker := clock.latest()

	second := timer.Arm(60)
	assert.Greater(t, second, first)
	firstTicker.mu.Lock()
	assert.True(t, firstTicker.stopped)
	firstTicker.mu.Unlock()

	sig := tick(t, clock, timer)
	assert.Equal(t, second, sig.Generation)
	assert.Equal(t, 59, sig.Remaining)
}

func TestTimerCancel(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(time.Second, clock.factory)

	timer.Arm(5)
	tick(t, clock, timer)
	timer.Cancel()

	assert.False(t, timer.Armed())
	assert.False(t, timer.Running())
	assert.Equal(t, 0, timer.Remaining())

	timer.Resume()
	assert.False(t, timer.Running(), "resume after cancel is a no-op")
}

func TestTimerArmZeroStaysDisarmed(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(time.Second, clock.factory)

	timer.Arm(0)
	assert.False(t, timer.Armed())
	assert.False(t, timer.Running())
	require.Equal(t, 0, clock.count())
}
