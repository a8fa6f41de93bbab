// Package sched abstracts "run this after a delay" so the debounce
// state machines can be tested without wall-clock waits.
package sched

import (
	"sort"
	"sync"
	"time"
)

// CancelFunc cancels a scheduled callback. Calling it after the
// callback fired, or calling it twice, is safe.
type CancelFunc func()

// Scheduler schedules a callback after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

type realScheduler struct{}

// Real returns a Scheduler backed by time.AfterFunc.
func Real() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Fake is a deterministic Scheduler for tests. Time only moves when
// Advance is called; due callbacks run synchronously on the advancing
// goroutine, in deadline order.
type Fake struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*fakeTimer
}

type fakeTimer struct {
	deadline time.Duration
	fn       func()
}

// NewFake returns a Fake scheduler at time zero.
func NewFake() *Fake {
	return &Fake{timers: map[int]*fakeTimer{}}
}

// AfterFunc registers fn to run once Advance has moved the clock past d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.timers[id] = &fakeTimer{deadline: f.now + d, fn: fn}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.timers, id)
	}
}

// Advance moves the clock forward and fires every callback that came
// due, in deadline order. Callbacks may schedule further callbacks;
// those fire too if they fall within the advanced window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now += d
	f.mu.Unlock()

	for {
		fn := f.popDue()
		if fn == nil {
			return
		}
		fn()
	}
}

func (f *Fake) popDue() func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	type entry struct {
		id    int
		timer *fakeTimer
	}
	var due []entry
	for id, t := range f.timers {
		if t.deadline <= f.now {
			due = append(due, entry{id: id, timer: t})
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].timer.deadline != due[j].timer.deadline {
			return due[i].timer.deadline < due[j].timer.deadline
		}
		return due[i].id < due[j].id
	})
	fn := due[0].timer.fn
	delete(f.timers, due[0].id)
	return fn
}

// Pending reports how many callbacks are scheduled and not yet due.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}
