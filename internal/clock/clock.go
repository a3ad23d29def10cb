// Package clock abstracts wall-clock time and one-shot timers so the
// arrival-deadline logic can be driven deterministically in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled one-shot callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the stop
	// happened before the callback started; callers must not rely on it for
	// correctness because a concurrent fire may already be in flight.
	Stop() bool
}

// Clock supplies the current time and schedules one-shot callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules fn to run once after d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// System returns a Clock backed by the runtime clock.
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Mock is a manually advanced Clock for tests. Callbacks run synchronously
// on the goroutine calling Advance, in deadline order.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

type mockTimer struct {
	clock   *Mock
	when    time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewMock creates a Mock clock starting at the given time.
func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

// Now returns the mock's current time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers fn to run when the mock time passes now+d.
func (m *Mock) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockTimer{clock: m, when: m.now.Add(d), fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the mock time forward by d, firing every due timer in
// deadline order before returning.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	target := m.now
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			return
		}
		t.fn()
	}
}

func (m *Mock) nextDue(target time.Time) *mockTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].when.Before(m.timers[j].when)
	})
	for _, t := range m.timers {
		if t.fired || t.stopped {
			continue
		}
		if !t.when.After(target) {
			t.fired = true
			return t
		}
	}
	return nil
}

func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
