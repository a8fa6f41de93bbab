// Package status derives the transient "what is happening" label from
// tool and node lifecycle markers. Visibility is debounced on both
// edges: a label that starts and clears within the show delay never
// appears, and a label that clears and immediately restarts does not
// visibly flash.
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/avikale/ragline/internal/protocol"
	"github.com/avikale/ragline/internal/sched"
)

// State of the visibility machine.
type State int

const (
	Idle State = iota
	Pending
	Visible
	FadingOut
)

const (
	// showDelay coalesces same-tick start/end pairs into nothing.
	showDelay = 50 * time.Millisecond
	// hideGrace matches the visual fade so the label does not pop.
	hideGrace = 300 * time.Millisecond

	generateNode = "generate"
)

// Tracker is the status channel for one session. Timer callbacks carry
// the generation they were scheduled under and discard themselves after
// a Reset, so a torn-down session can never resurface a label.
type Tracker struct {
	scheduler sched.Scheduler
	notify    func()

	mu     sync.Mutex
	state  State
	label  string
	gen    uint64
	cancel sched.CancelFunc
}

// NewTracker returns a tracker. notify is called, without the internal
// lock held, whenever the visible label may have changed; it may be nil.
func NewTracker(scheduler sched.Scheduler, notify func()) *Tracker {
	if notify == nil {
		notify = func() {}
	}
	return &Tracker{scheduler: scheduler, notify: notify}
}

// Apply folds one lifecycle marker into the tracker. Non-lifecycle
// events are ignored.
func (t *Tracker) Apply(ev protocol.Event) {
	switch ev := ev.(type) {
	case protocol.NodeStart:
		if ev.Name == generateNode {
			t.set("Thinking…")
		}
	case protocol.ToolStart:
		if ev.Name != "" {
			t.set(fmt.Sprintf("Running %s…", ev.Name))
		}
	case protocol.NodeEnd, protocol.ToolEnd:
		t.clear()
	}
}

// Snapshot returns the current label and whether it should be shown.
func (t *Tracker) Snapshot() (label string, visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.label, t.state == Visible || t.state == FadingOut
}

// StateForTest exposes the machine state to tests.
func (t *Tracker) StateForTest() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reset invalidates all pending timers and returns to Idle. Used when
// the active conversation changes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.gen++
	t.cancelLocked()
	t.state = Idle
	t.label = ""
	t.mu.Unlock()
	t.notify()
}

func (t *Tracker) set(label string) {
	t.mu.Lock()
	changed := false
	switch t.state {
	case Idle:
		t.label = label
		t.state = Pending
		t.scheduleLocked(showDelay, func() {
			if t.state != Pending {
				return
			}
			t.state = Visible
		})
	case Pending:
		// Not yet shown; just adopt the newer label.
		t.label = label
	case Visible:
		t.label = label
		changed = true
	case FadingOut:
		// A label arriving during the fade cancels the pending hide and
		// snaps straight back to visible. Last write wins.
		t.cancelLocked()
		t.label = label
		t.state = Visible
		changed = true
	}
	t.mu.Unlock()
	if changed {
		t.notify()
	}
}

func (t *Tracker) clear() {
	t.mu.Lock()
	switch t.state {
	case Pending:
		// Cleared before it ever showed: flicker suppressed.
		t.cancelLocked()
		t.state = Idle
		t.label = ""
	case Visible:
		t.state = FadingOut
		t.scheduleLocked(hideGrace, func() {
			if t.state != FadingOut {
				return
			}
			t.state = Idle
			t.label = ""
		})
	}
	t.mu.Unlock()
}

// scheduleLocked arms a timer under the current generation. The
// callback re-acquires the lock, verifies the generation, runs fn, and
// notifies. Must be called with the lock held.
func (t *Tracker) scheduleLocked(d time.Duration, fn func()) {
	t.cancelLocked()
	gen := t.gen
	t.cancel = t.scheduler.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		fn()
		t.mu.Unlock()
		t.notify()
	})
}

func (t *Tracker) cancelLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}
