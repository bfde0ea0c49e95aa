package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestTimerStartPauseResume(t *testing.T) {
	clock := newFakeClock()
	tm := New(clock.Now)

	assert.Equal(t, StateIdle, tm.Snapshot().State)

	snap := tm.Start()
	assert.Equal(t, StateRunning, snap.State)
	require.NotNil(t, snap.StartedAt)

	clock.Advance(90 * time.Second)
	assert.Equal(t, int64(90_000), tm.Snapshot().Elapsed)

	snap = tm.Pause()
	assert.Equal(t, StatePaused, snap.State)
	assert.Nil(t, snap.StartedAt)
	assert.Equal(t, 90*time.Second, snap.Duration())

	clock.Advance(time.Hour)
	assert.Equal(t, int64(90_000), tm.Snapshot().Elapsed)

	tm.Start()
	clock.Advance(30 * time.Second)
	assert.Equal(t, int64(120_000), tm.Snapshot().Elapsed)
}

func TestTimerResetFromAnyState(t *testing.T) {
	clock := newFakeClock()
	tm := New(clock.Now)

	tm.Start()
	clock.Advance(time.Minute)
	snap := tm.Reset()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Elapsed)

	tm.Start()
	clock.Advance(time.Minute)
	tm.Pause()
	snap = tm.Reset()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Elapsed)
}

func TestTimerIgnoresInvalidTransitions(t *testing.T) {
	clock := newFakeClock()
	tm := New(clock.Now)
	var transitions []State
	tm.OnTransition(func(s Snapshot) { transitions = append(transitions, s.State) })

	tm.Pause()
	tm.Reset()
	tm.Start()
	clock.Advance(10 * time.Second)
	tm.Start()
	assert.Equal(t, int64(10_000), tm.Snapshot().Elapsed, "restart while running must not reset the span")

	assert.Equal(t, []State{StateRunning}, transitions)
}

func TestTimerClockStepBackDoesNotGoNegative(t *testing.T) {
	clock := newFakeClock()
	tm := New(clock.Now)
	tm.Start()
	clock.Advance(-time.Minute)
	assert.Zero(t, tm.Snapshot().Elapsed)
}
