package clock

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled callback. Safe to call more than once and
// safe to call after the callback has already fired.
type CancelFunc func()

// Scheduler is the timer primitive owned by the orchestrators: a cancelable
// one-shot delay and a cancelable repeating interval. Injecting it instead of
// reaching for ambient timers keeps every timer individually cancelable and
// makes the poll/countdown loops testable against a simulated clock.
type Scheduler interface {
	Now() time.Time
	// After runs fn once after d.
	After(d time.Duration, fn func()) CancelFunc
	// Every runs fn repeatedly with period d until canceled.
	Every(d time.Duration, fn func()) CancelFunc
}

// Real is a Scheduler backed by the wall clock.
type Real struct{}

// New returns a wall-clock Scheduler.
func New() *Real {
	return &Real{}
}

func (*Real) Now() time.Time {
	return time.Now()
}

func (*Real) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (*Real) Every(d time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
