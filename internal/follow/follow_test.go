package follow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avikale/ragline/internal/sched"
)

// handoutScheduler hands every armed callback to the test and makes
// cancellation a no-op, mirroring time.AfterFunc for a timer that has
// already fired by the time it is canceled.
type handoutScheduler struct {
	callbacks []func()
}

func (s *handoutScheduler) AfterFunc(_ time.Duration, fn func()) sched.CancelFunc {
	s.callbacks = append(s.callbacks, fn)
	return func() {}
}

func TestStartsPinned(t *testing.T) {
	c := New(sched.NewFake())
	assert.True(t, c.ShouldFollow())
}

func TestFollowsOnConsecutiveMutations(t *testing.T) {
	// Pinned with no scroll events in between: both mutations autoscroll.
	c := New(sched.NewFake())
	assert.True(t, c.ShouldFollow())
	c.NotePin()
	assert.True(t, c.ShouldFollow())
}

func TestScrollAwayReleasesPin(t *testing.T) {
	clock := sched.NewFake()
	c := New(clock)

	c.ObserveScroll(40)
	assert.False(t, c.ShouldFollow())

	// Even after the quiet window the pin stays released.
	clock.Advance(scrollQuiet)
	assert.False(t, c.ShouldFollow())
}

func TestScrollBackRegainsPin(t *testing.T) {
	clock := sched.NewFake()
	c := New(clock)

	c.ObserveScroll(40)
	clock.Advance(scrollQuiet)
	assert.False(t, c.ShouldFollow())

	c.ObserveScroll(1)
	assert.True(t, c.Pinned())
	clock.Advance(scrollQuiet)
	assert.True(t, c.ShouldFollow())
}

func TestActiveDragSuppressesFollow(t *testing.T) {
	clock := sched.NewFake()
	c := New(clock)

	// Scrolling at the bottom keeps the pin but suppresses autoscroll
	// until the gesture settles.
	c.ObserveScroll(0)
	assert.True(t, c.Pinned())
	assert.False(t, c.ShouldFollow())

	clock.Advance(scrollQuiet)
	assert.True(t, c.ShouldFollow())
}

func TestQuietWindowRestartsOnEachGesture(t *testing.T) {
	clock := sched.NewFake()
	c := New(clock)

	c.ObserveScroll(0)
	clock.Advance(scrollQuiet / 2)
	c.ObserveScroll(0)
	clock.Advance(scrollQuiet / 2)
	// The second gesture restarted the window; still scrolling.
	assert.False(t, c.ShouldFollow())

	clock.Advance(scrollQuiet / 2)
	assert.True(t, c.ShouldFollow())
}

func TestPinRecomputedFromLiveDistance(t *testing.T) {
	clock := sched.NewFake()
	c := New(clock)

	c.ObserveScroll(pinThreshold + 1)
	assert.False(t, c.Pinned())
	c.ObserveScroll(pinThreshold)
	assert.True(t, c.Pinned())
}

func TestFiredTimerFromEarlierGestureIsIgnored(t *testing.T) {
	s := &handoutScheduler{}
	c := New(s)

	c.ObserveScroll(0)
	c.ObserveScroll(0)
	require.Len(t, s.callbacks, 2)

	// The first gesture's timer fired after the second gesture rearmed;
	// it must not end the newer gesture's quiet window.
	s.callbacks[0]()
	assert.False(t, c.ShouldFollow())

	s.callbacks[1]()
	assert.True(t, c.ShouldFollow())
}

func TestResetRestoresPinAndDropsStaleTimer(t *testing.T) {
	clock := sched.NewFake()
	c := New(clock)

	c.ObserveScroll(40)
	c.Reset()
	assert.True(t, c.ShouldFollow())

	// The old quiet-window timer must not clear a newer gesture's flag.
	c.ObserveScroll(40)
	clock.Advance(time.Hour)
	assert.False(t, c.Pinned())
	assert.True(t, !c.ShouldFollow())
}
