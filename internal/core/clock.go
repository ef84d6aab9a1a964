package core

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time so cache windows and toast expiry are testable.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once d has elapsed and returns a handle that cancels it.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// RealClock uses the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// FakeClock is deterministic and test-friendly. Scheduled callbacks fire
// synchronously from Advance, in deadline order.
type FakeClock struct {
	mu     sync.Mutex
	t      time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *FakeClock
	at    time.Time
	f     func()
	done  bool
}

func (ft *fakeTimer) Stop() bool {
	ft.clock.mu.Lock()
	defer ft.clock.mu.Unlock()
	if ft.done {
		return false
	}
	ft.done = true
	return true
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{clock: c, at: c.t.Add(d), f: f}
	c.timers = append(c.timers, ft)
	return ft
}

// Pending returns the number of scheduled callbacks that have not fired.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ft := range c.timers {
		if !ft.done {
			n++
		}
	}
	return n
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	due := c.collectDue()
	c.mu.Unlock()
	for _, ft := range due {
		ft.f()
	}
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	due := c.collectDue()
	c.mu.Unlock()
	for _, ft := range due {
		ft.f()
	}
}

// collectDue marks and returns expired timers. Callers hold c.mu.
func (c *FakeClock) collectDue() []*fakeTimer {
	var due []*fakeTimer
	kept := c.timers[:0]
	for _, ft := range c.timers {
		switch {
		case ft.done:
		case !ft.at.After(c.t):
			ft.done = true
			due = append(due, ft)
		default:
			kept = append(kept, ft)
		}
	}
	c.timers = kept
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	return due
}
