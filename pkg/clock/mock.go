package clock

import (
	"sort"
	"sync"
	"time"
)

// Mock is a deterministic Scheduler for tests. Time only moves when Advance
// is called; due callbacks run synchronously on the caller's goroutine, in
// deadline order.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers map[int]*mockTimer
}

type mockTimer struct {
	id       int
	deadline time.Time
	period   time.Duration // 0 for one-shot
	fn       func()
}

// NewMock returns a Mock starting at a fixed, arbitrary instant.
func NewMock() *Mock {
	return &Mock{
		now:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		timers: make(map[int]*mockTimer),
	}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Mock) After(d time.Duration, fn func()) CancelFunc {
	return m.schedule(d, 0, fn)
}

func (m *Mock) Every(d time.Duration, fn func()) CancelFunc {
	return m.schedule(d, d, fn)
}

func (m *Mock) schedule(d, period time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.timers[id] = &mockTimer{id: id, deadline: m.now.Add(d), period: period, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.timers, id)
	}
}

// Pending reports how many timers are still armed. The teardown tests assert
// this reaches zero after disposal.
func (m *Mock) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves the clock forward by d, firing every due callback in
// deadline order. Repeating timers re-arm and may fire multiple times within
// a single Advance.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.deadline
		if t.period > 0 {
			t.deadline = t.deadline.Add(t.period)
		} else {
			delete(m.timers, t.id)
		}
		fn := t.fn
		// Run outside the lock so the callback can schedule or cancel.
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

func (m *Mock) nextDue(limit time.Time) *mockTimer {
	due := make([]*mockTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if !t.deadline.After(limit) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].id < due[j].id
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}
