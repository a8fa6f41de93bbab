// Package follow decides whether the transcript viewport should chase
// new content. The user stays "pinned" while they are at (or near) the
// bottom; scrolling away releases the pin and scrolling back restores
// it, with no explicit opt-in gesture.
package follow

import (
	"sync"
	"time"

	"github.com/avikale/ragline/internal/sched"
)

const (
	// pinThreshold is how many lines from the bottom still count as
	// "at the bottom".
	pinThreshold = 2
	// scrollQuiet is how long after the last manual scroll gesture
	// autoscroll stays suppressed.
	scrollQuiet = 150 * time.Millisecond
)

// Controller tracks pinning for one session. Only user-initiated scroll
// events go through ObserveScroll; programmatic jumps to the bottom are
// reported via NotePin so they cannot be mistaken for user scrolling.
type Controller struct {
	scheduler sched.Scheduler

	mu            sync.Mutex
	pinned        bool
	userScrolling bool
	gen           uint64
	cancel        sched.CancelFunc
}

// New returns a controller that starts out pinned.
func New(scheduler sched.Scheduler) *Controller {
	return &Controller{scheduler: scheduler, pinned: true}
}

// ObserveScroll records a manual scroll gesture. distanceToBottom is
// the live line distance between the scroll position and the scroll
// extent; the pin is recomputed from it on every event, never cached.
func (c *Controller) ObserveScroll(distanceToBottom int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pinned = distanceToBottom <= pinThreshold
	c.userScrolling = true

	if c.cancel != nil {
		c.cancel()
	}
	// Bump the generation on every rearm, not just on Reset: canceling a
	// timer that has already fired is a no-op, so a fired-but-not-yet-run
	// callback from an earlier gesture must discard itself.
	c.gen++
	gen := c.gen
	c.cancel = c.scheduler.AfterFunc(scrollQuiet, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return
		}
		c.userScrolling = false
	})
}

// NotePin records that the viewport was programmatically moved to the
// bottom (on submit, or after a mutation while following).
func (c *Controller) NotePin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned = true
}

// ShouldFollow reports whether a transcript mutation should autoscroll:
// pinned, and no manual scroll gesture within the quiet window.
func (c *Controller) ShouldFollow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pinned && !c.userScrolling
}

// Pinned reports the raw pin state, ignoring the scroll-quiet window.
func (c *Controller) Pinned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pinned
}

// Reset restores the initial pinned state and invalidates any pending
// quiet-window timer. Used when the active conversation changes.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.pinned = true
	c.userScrolling = false
}
