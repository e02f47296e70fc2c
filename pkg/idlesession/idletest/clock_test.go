package idletest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/stockroom/pkg/idlesession/idletest"
)

func TestClock_FiresInOrder(t *testing.T) {
	t.Parallel()
	c := idletest.NewClock(idletest.Epoch)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "c") })

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, fired)
	assert.Equal(t, idletest.Epoch.Add(1500*time.Millisecond), c.Now())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Zero(t, c.Pending())
}

func TestClock_CallbackSeesDueTimeAndMaySchedule(t *testing.T) {
	t.Parallel()
	c := idletest.NewClock(idletest.Epoch)

	var at []time.Time
	c.AfterFunc(time.Second, func() {
		at = append(at, c.Now())
		c.AfterFunc(time.Second, func() { at = append(at, c.Now()) })
	})

	c.Advance(5 * time.Second)
	assert.Equal(t, []time.Time{idletest.Epoch.Add(time.Second), idletest.Epoch.Add(2 * time.Second)}, at)
}

func TestClock_Stop(t *testing.T) {
	t.Parallel()
	c := idletest.NewClock(idletest.Epoch)

	called := false
	tm := c.AfterFunc(time.Second, func() { called = true })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())

	c.Advance(time.Minute)
	assert.False(t, called)
}
