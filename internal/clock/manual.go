package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called.
// Callbacks due at or before the new time run synchronously inside
// Advance, in wake order. Intended for tests.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	owner   *Manual
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewManual creates a manual clock starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{owner: m, at: m.now.Add(d), fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d and runs every pending callback
// whose wake time has been reached. Callbacks run outside the clock
// lock so they may schedule or stop other timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()

	for {
		t := m.nextDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

// nextDue pops the earliest due, unstopped timer, or nil if none remain.
func (m *Manual) nextDue() *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].at.Before(m.timers[j].at)
	})
	for _, t := range m.timers {
		if t.stopped || t.fired || t.at.After(m.now) {
			continue
		}
		t.fired = true
		return t
	}
	return nil
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
