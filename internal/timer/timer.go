// Package timer holds the single study stopwatch and the relay that mirrors it
// to connected desktop shells.
package timer

import (
	"sync"
	"time"
)

// State is the stopwatch state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

// Snapshot is the stopwatch as seen at At.
type Snapshot struct {
	State     State      `json:"state"`
	Elapsed   int64      `json:"elapsed"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	At        time.Time  `json:"at"`
}

// Duration returns Elapsed as a time.Duration.
func (s Snapshot) Duration() time.Duration {
	return time.Duration(s.Elapsed) * time.Millisecond
}

// Timer is an idle/running/paused stopwatch. Elapsed time is always recomputed
// from absolute timestamps, never accumulated from ticks.
type Timer struct {
	mu          sync.Mutex
	now         Clock
	state       State
	accumulated time.Duration
	startedAt   time.Time
	listeners   []func(Snapshot)
}

// New returns an idle timer. A nil clock uses time.Now.
func New(now Clock) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now, state: StateIdle}
}

// OnTransition registers fn to run after every state change.
func (t *Timer) OnTransition(fn func(Snapshot)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Start moves idle or paused to running. Starting a running timer changes nothing.
func (t *Timer) Start() Snapshot {
	return t.transition(func(now time.Time) bool {
		if t.state == StateRunning {
			return false
		}
		t.state = StateRunning
		t.startedAt = now
		return true
	})
}

// Pause moves running to paused, folding the running span into the total.
func (t *Timer) Pause() Snapshot {
	return t.transition(func(now time.Time) bool {
		if t.state != StateRunning {
			return false
		}
		t.accumulated += nonNegative(now.Sub(t.startedAt))
		t.startedAt = time.Time{}
		t.state = StatePaused
		return true
	})
}

// Reset returns to idle with zero elapsed time from any state.
func (t *Timer) Reset() Snapshot {
	return t.transition(func(time.Time) bool {
		changed := t.state != StateIdle || t.accumulated != 0
		t.state = StateIdle
		t.accumulated = 0
		t.startedAt = time.Time{}
		return changed
	})
}

// Snapshot returns the current state without changing it.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(t.now())
}

func (t *Timer) transition(apply func(now time.Time) bool) Snapshot {
	t.mu.Lock()
	now := t.now()
	changed := apply(now)
	snap := t.snapshotLocked(now)
	listeners := append([]func(Snapshot){}, t.listeners...)
	t.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(snap)
		}
	}
	return snap
}

func (t *Timer) snapshotLocked(now time.Time) Snapshot {
	elapsed := t.accumulated
	snap := Snapshot{State: t.state, At: now}
	if t.state == StateRunning {
		elapsed += nonNegative(now.Sub(t.startedAt))
		started := t.startedAt
		snap.StartedAt = &started
	}
	snap.Elapsed = elapsed.Milliseconds()
	return snap
}

// nonNegative guards against the wall clock stepping backwards.
func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
