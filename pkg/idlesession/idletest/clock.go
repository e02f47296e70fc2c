// Package idletest provides deterministic doubles for testing code built on
// idlesession.
package idletest

import (
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/stockroom/pkg/idlesession"
)

// Clock is a manual clock. Callbacks scheduled with AfterFunc run
// synchronously inside Advance, in due-time order, with Now set to their due
// time. Callbacks may schedule further timers.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*timer
}

var _ idlesession.TimeSource = (*Clock)(nil)

type timer struct {
	c   *Clock
	due time.Time
	seq uint64
	fn  func()
}

// NewClock returns a Clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Epoch is the default start of a test clock: the Unix epoch, so Record
// timestamps equal elapsed milliseconds.
var Epoch = time.UnixMilli(0)

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) idlesession.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &timer{c: c, due: c.now.Add(max(0, d)), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that becomes due.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		t := c.nextDueLocked(target)
		if t == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = t.due
		c.removeLocked(t)
		c.mu.Unlock()

		t.fn()
	}
}

// AdvanceTo moves the clock to at, which must not be in the past.
func (c *Clock) AdvanceTo(at time.Time) {
	c.Advance(at.Sub(c.Now()))
}

// Pending returns the number of scheduled timers.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Clock) nextDueLocked(target time.Time) *timer {
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].due.Equal(c.timers[j].due) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].due.Before(c.timers[j].due)
	})
	if first := c.timers[0]; !first.due.After(target) {
		return first
	}
	return nil
}

func (c *Clock) removeLocked(t *timer) bool {
	for i, x := range c.timers {
		if x == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (t *timer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return t.c.removeLocked(t)
}
