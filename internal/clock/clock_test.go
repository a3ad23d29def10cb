package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockAdvanceFiresInDeadlineOrder(t *testing.T) {
	m := NewMock(time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))

	var fired []string
	m.AfterFunc(20*time.Minute, func() { fired = append(fired, "second") })
	m.AfterFunc(10*time.Minute, func() { fired = append(fired, "first") })
	m.AfterFunc(40*time.Minute, func() { fired = append(fired, "late") })

	m.Advance(30 * time.Minute)
	assert.Equal(t, []string{"first", "second"}, fired)

	m.Advance(10 * time.Minute)
	assert.Equal(t, []string{"first", "second", "late"}, fired)
}

func TestMockStop(t *testing.T) {
	m := NewMock(time.Now())

	var fired bool
	timer := m.AfterFunc(time.Minute, func() { fired = true })
	assert.True(t, timer.Stop())

	m.Advance(time.Hour)
	assert.False(t, fired)

	// Stopping again, or stopping a fired timer, reports false.
	assert.False(t, timer.Stop())
}

func TestMockTimerFiresOnlyOnce(t *testing.T) {
	m := NewMock(time.Now())

	var count int
	m.AfterFunc(time.Minute, func() { count++ })

	m.Advance(time.Minute)
	m.Advance(time.Hour)
	assert.Equal(t, 1, count)
}

func TestMockTimerCanRearmFromCallback(t *testing.T) {
	m := NewMock(time.Now())

	var count int
	m.AfterFunc(time.Minute, func() {
		count++
		m.AfterFunc(time.Minute, func() { count++ })
	})

	// The re-armed timer is relative to the already-advanced clock.
	m.Advance(2 * time.Minute)
	assert.Equal(t, 1, count)

	m.Advance(time.Minute)
	assert.Equal(t, 2, count)
}

func TestSystemClock(t *testing.T) {
	c := System()
	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))

	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("system timer did not fire")
	}
}
