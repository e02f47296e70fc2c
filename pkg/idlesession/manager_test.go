package idlesession_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockroom/pkg/idlesession"
	"github.com/dmitrymomot/stockroom/pkg/idlesession/idletest"
)

type fixture struct {
	m     *idlesession.Manager
	clock *idletest.Clock
	rec   *idletest.Recorder
	store *idlesession.MemoryStore
}

func newFixture(t *testing.T, opts ...idlesession.Option) *fixture {
	t.Helper()

	f := &fixture{
		clock: idletest.NewClock(idletest.Epoch),
		rec:   &idletest.Recorder{},
		store: idlesession.NewMemoryStore(),
	}
	base := []idlesession.Option{
		idlesession.WithClock(f.clock),
		idlesession.WithStore(f.store),
		idlesession.WithNotifier(f.rec),
		idlesession.WithLogout(f.rec.Logout),
	}
	f.m = idlesession.New(append(base, opts...)...)
	t.Cleanup(f.m.Close)
	return f
}

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

func TestManager_IdleTimeoutScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.m.StartSession(ctx, "u1")
	assert.Equal(t, idlesession.StateActive, f.m.State())

	f.clock.AdvanceTo(idletest.Epoch.Add(ms(3_299_999)))
	assert.Empty(t, f.rec.Warnings())

	f.clock.Advance(time.Millisecond)
	require.Len(t, f.rec.Warnings(), 1)
	assert.Equal(t, "Your session will expire in 5 minutes due to inactivity.", f.rec.Warnings()[0])
	assert.Equal(t, idlesession.StateWarningShown, f.m.State())
	assert.True(t, f.m.IsSessionValid(ctx))

	f.clock.AdvanceTo(idletest.Epoch.Add(ms(3_599_999)))
	assert.Zero(t, f.rec.Logouts())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, f.rec.Timeouts())
	assert.Equal(t, 1, f.rec.Logouts())
	assert.Len(t, f.rec.Warnings(), 1, "warning must not repeat")
	assert.False(t, f.m.IsSessionValid(ctx))
	assert.Zero(t, f.store.Len())
	assert.Equal(t, idlesession.StateNoSession, f.m.State())
	assert.Zero(t, f.clock.Pending())
}

func TestManager_ActivityAfterWarningDefersLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.m.StartSession(ctx, "u1")
	f.clock.AdvanceTo(idletest.Epoch.Add(ms(3_500_000)))
	require.Len(t, f.rec.Warnings(), 1)

	f.m.UpdateActivity(ctx)
	assert.Equal(t, idlesession.StateActive, f.m.State())
	assert.Equal(t, 1, f.rec.Dismissed())

	rec, ok := f.m.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(0), rec.LoginTime)
	assert.Equal(t, int64(3_500_000), rec.LastActivity)

	f.clock.AdvanceTo(idletest.Epoch.Add(ms(3_600_000)))
	assert.Zero(t, f.rec.Logouts(), "original logout must be cancelled")

	f.clock.AdvanceTo(idletest.Epoch.Add(ms(6_800_000)))
	assert.Len(t, f.rec.Warnings(), 2)

	f.clock.AdvanceTo(idletest.Epoch.Add(ms(7_099_999)))
	assert.Zero(t, f.rec.Logouts())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, f.rec.Logouts())
	assert.False(t, f.m.IsSessionValid(ctx))
}

func TestManager_StartSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists record with equal timestamps", func(t *testing.T) {
		f := newFixture(t)
		f.clock.Advance(42 * time.Second)

		f.m.StartSession(ctx, "u1")

		rec, ok := f.m.Current(ctx)
		require.True(t, ok)
		assert.Equal(t, "u1", rec.UserID)
		assert.Equal(t, int64(42_000), rec.LoginTime)
		assert.Equal(t, rec.LoginTime, rec.LastActivity)
		assert.Equal(t, time.Hour, f.m.RemainingTime(ctx))
		assert.Equal(t, 2, f.clock.Pending())
	})

	t.Run("restart replaces timers", func(t *testing.T) {
		f := newFixture(t)
		f.m.StartSession(ctx, "u1")
		f.clock.Advance(30 * time.Minute)
		f.m.StartSession(ctx, "u2")
		assert.Equal(t, 2, f.clock.Pending())

		f.clock.Advance(30 * time.Minute)
		assert.Zero(t, f.rec.Logouts())

		f.clock.Advance(30 * time.Minute)
		assert.Equal(t, 1, f.rec.Logouts())
	})

	t.Run("restart while warning shown dismisses it", func(t *testing.T) {
		f := newFixture(t)
		f.m.StartSession(ctx, "u1")
		f.clock.Advance(56 * time.Minute)
		require.Equal(t, idlesession.StateWarningShown, f.m.State())

		f.m.StartSession(ctx, "u1")
		assert.Equal(t, idlesession.StateActive, f.m.State())
		assert.Equal(t, 1, f.rec.Dismissed())
	})

	t.Run("empty user id is ignored", func(t *testing.T) {
		f := newFixture(t)
		f.m.StartSession(ctx, "")
		assert.Zero(t, f.store.Len())
		assert.Zero(t, f.clock.Pending())
		assert.Equal(t, idlesession.StateNoSession, f.m.State())
	})
}

func TestManager_UpdateActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no-op without session", func(t *testing.T) {
		f := newFixture(t)
		f.m.UpdateActivity(ctx)

		assert.Zero(t, f.store.Len())
		assert.Zero(t, f.clock.Pending())
		assert.Equal(t, idlesession.StateNoSession, f.m.State())
	})

	t.Run("resets remaining time", func(t *testing.T) {
		f := newFixture(t)
		f.m.StartSession(ctx, "u1")
		f.clock.Advance(10 * time.Minute)
		assert.Equal(t, 50*time.Minute, f.m.RemainingTime(ctx))

		f.m.UpdateActivity(ctx)
		assert.Equal(t, time.Hour, f.m.RemainingTime(ctx))
	})

	t.Run("adopts record left by another manager", func(t *testing.T) {
		f := newFixture(t)
		f.m.StartSession(ctx, "u1")
		f.m.Close()
		f.clock.Advance(10 * time.Minute)

		other := idlesession.New(
			idlesession.WithClock(f.clock),
			idlesession.WithStore(f.store),
			idlesession.WithLogout(f.rec.Logout),
		)
		defer other.Close()

		assert.True(t, other.HandleActivity(ctx, idlesession.ActivityClick))
		assert.Equal(t, idlesession.StateActive, other.State())

		f.clock.Advance(time.Hour)
		assert.Equal(t, 1, f.rec.Logouts())
	})

	t.Run("expires a record already past the timeout", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Set(ctx, "sessionData", `{"loginTime":0,"lastActivity":0,"userId":"u1"}`))
		f.clock.Advance(2 * time.Hour)

		assert.False(t, f.m.HandleActivity(ctx, idlesession.ActivityKeyPress))
		assert.Equal(t, 1, f.rec.Logouts())
		assert.Equal(t, 1, f.rec.Timeouts())
		assert.Zero(t, f.store.Len())
	})
}

func TestManager_EndSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.m.StartSession(ctx, "u1")
	f.m.EndSession(ctx)
	f.m.EndSession(ctx)

	assert.False(t, f.m.IsSessionValid(ctx))
	assert.Zero(t, f.m.RemainingTime(ctx))
	assert.Zero(t, f.clock.Pending())

	f.clock.Advance(2 * time.Hour)
	assert.Empty(t, f.rec.Warnings())
	assert.Zero(t, f.rec.Logouts())
	assert.Zero(t, f.rec.Timeouts())
}

func TestManager_StorageFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("write failure still arms logout", func(t *testing.T) {
		clock := idletest.NewClock(idletest.Epoch)
		rec := &idletest.Recorder{}
		store := idletest.NewFailingStore(idlesession.NewMemoryStore())
		store.FailWrites(true)

		m := idlesession.New(
			idlesession.WithClock(clock),
			idlesession.WithStore(store),
			idlesession.WithNotifier(rec),
			idlesession.WithLogout(rec.Logout),
		)
		defer m.Close()

		assert.NotPanics(t, func() { m.StartSession(ctx, "u1") })
		assert.False(t, m.IsSessionValid(ctx))
		assert.False(t, m.HandleActivity(ctx, idlesession.ActivityKeyPress))

		clock.Advance(time.Hour)
		assert.Len(t, rec.Warnings(), 1)
		assert.Equal(t, 1, rec.Logouts())
	})

	t.Run("read failure reads as no session", func(t *testing.T) {
		clock := idletest.NewClock(idletest.Epoch)
		store := idletest.NewFailingStore(idlesession.NewMemoryStore())
		m := idlesession.New(idlesession.WithClock(clock), idlesession.WithStore(store))
		defer m.Close()

		m.StartSession(ctx, "u1")
		store.FailReads(true)

		assert.False(t, m.IsSessionValid(ctx))
		assert.Zero(t, m.RemainingTime(ctx))
		_, ok := m.Current(ctx)
		assert.False(t, ok)
	})

	t.Run("remove failure does not block end", func(t *testing.T) {
		clock := idletest.NewClock(idletest.Epoch)
		store := idletest.NewFailingStore(idlesession.NewMemoryStore())
		m := idlesession.New(idlesession.WithClock(clock), idlesession.WithStore(store))
		defer m.Close()

		m.StartSession(ctx, "u1")
		store.FailRemoves(true)

		assert.NotPanics(t, func() { m.EndSession(ctx) })
		assert.Equal(t, idlesession.StateNoSession, m.State())
		assert.Zero(t, clock.Pending())
	})

	t.Run("unreadable record reads as no session", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Set(ctx, "sessionData", "not json"))

		assert.False(t, f.m.IsSessionValid(ctx))
		f.m.UpdateActivity(ctx)
		assert.Zero(t, f.clock.Pending())

		f.m.StartSession(ctx, "u1")
		assert.True(t, f.m.IsSessionValid(ctx))
	})
}

func TestManager_CallbackPanicsAreContained(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := idletest.NewClock(idletest.Epoch)
	store := idlesession.NewMemoryStore()

	m := idlesession.New(
		idlesession.WithClock(clock),
		idlesession.WithStore(store),
		idlesession.WithNotifier(idlesession.NotifierFuncs{
			OnWarning: func(context.Context, string) { panic("warning boom") },
			OnTimeout: func(context.Context) { panic("timeout boom") },
		}),
		idlesession.WithLogout(func(context.Context) { panic("logout boom") }),
	)
	defer m.Close()

	m.StartSession(ctx, "u1")
	assert.NotPanics(t, func() { clock.Advance(time.Hour) })
	assert.Equal(t, idlesession.StateNoSession, m.State())
	assert.Zero(t, store.Len())
	assert.Zero(t, clock.Pending())
}

func TestManager_CallbacksMayReenter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := idletest.NewClock(idletest.Epoch)

	var m *idlesession.Manager
	var logouts int
	m = idlesession.New(
		idlesession.WithClock(clock),
		idlesession.WithNotifier(idlesession.NotifierFuncs{
			OnWarning: func(ctx context.Context, _ string) { _ = m.RemainingTime(ctx) },
			OnTimeout: func(ctx context.Context) { m.EndSession(ctx) },
		}),
		idlesession.WithLogout(func(ctx context.Context) {
			logouts++
			assert.False(t, m.IsSessionValid(ctx))
		}),
	)
	defer m.Close()

	m.StartSession(ctx, "u1")
	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, logouts)
}

func TestManager_Resume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T, idle time.Duration) (*fixture, *idlesession.Manager) {
		t.Helper()
		f := newFixture(t)
		f.m.StartSession(ctx, "u1")
		f.m.Close()
		f.clock.Advance(idle)

		next := idlesession.New(
			idlesession.WithClock(f.clock),
			idlesession.WithStore(f.store),
			idlesession.WithNotifier(f.rec),
			idlesession.WithLogout(f.rec.Logout),
		)
		t.Cleanup(next.Close)
		return f, next
	}

	t.Run("no record", func(t *testing.T) {
		f := newFixture(t)
		assert.False(t, f.m.Resume(ctx))
		assert.Zero(t, f.clock.Pending())
	})

	t.Run("arms remaining window", func(t *testing.T) {
		f, m := setup(t, 20*time.Minute)

		require.True(t, m.Resume(ctx))
		assert.Equal(t, idlesession.StateActive, m.State())
		assert.Equal(t, 40*time.Minute, m.RemainingTime(ctx))

		f.clock.Advance(35*time.Minute - time.Millisecond)
		assert.Empty(t, f.rec.Warnings())
		f.clock.Advance(time.Millisecond)
		assert.Len(t, f.rec.Warnings(), 1)

		f.clock.Advance(5 * time.Minute)
		assert.Equal(t, 1, f.rec.Logouts())
	})

	t.Run("warning point already passed", func(t *testing.T) {
		f, m := setup(t, 57*time.Minute)

		require.True(t, m.Resume(ctx))
		f.clock.Advance(0)
		require.Len(t, f.rec.Warnings(), 1)
		assert.Equal(t, "Your session will expire in 3 minutes due to inactivity.", f.rec.Warnings()[0])
		assert.Equal(t, idlesession.StateWarningShown, m.State())

		f.clock.Advance(3 * time.Minute)
		assert.Equal(t, 1, f.rec.Logouts())
	})

	t.Run("expired record is discarded without logout", func(t *testing.T) {
		f, m := setup(t, 61*time.Minute)

		assert.False(t, m.Resume(ctx))
		assert.Zero(t, f.store.Len())
		assert.Zero(t, f.rec.Logouts())
		assert.Zero(t, f.clock.Pending())
	})
}

func TestManager_ActivityThrottle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, idlesession.WithActivityThrottle(time.Second))

	assert.False(t, f.m.HandleActivity(ctx, idlesession.ActivityClick), "no session yet")

	f.m.StartSession(ctx, "u1")
	f.clock.Advance(100 * time.Millisecond)
	assert.True(t, f.m.HandleActivity(ctx, idlesession.ActivityScroll))

	f.clock.Advance(100 * time.Millisecond)
	assert.False(t, f.m.HandleActivity(ctx, idlesession.ActivityMouseMove))
	assert.True(t, f.m.HandleActivity(ctx, idlesession.ActivityKeyPress), "discrete events bypass the throttle")

	f.clock.Advance(time.Second)
	assert.True(t, f.m.HandleActivity(ctx, idlesession.ActivityMouseMove))
	rec, ok := f.m.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1_200), rec.LastActivity)
}

func TestManager_Options(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("invalid config panics", func(t *testing.T) {
		assert.Panics(t, func() {
			idlesession.New(idlesession.WithTimeout(time.Minute), idlesession.WithWarningLead(time.Hour))
		})
		assert.Panics(t, func() { idlesession.New(idlesession.WithStorageKey("")) })
	})

	t.Run("custom timings and message", func(t *testing.T) {
		f := newFixture(t,
			idlesession.WithTimeout(10*time.Minute),
			idlesession.WithWarningLead(time.Minute),
			idlesession.WithWarningMessage(func(left time.Duration) string { return "bye in " + left.String() }),
		)
		f.m.StartSession(ctx, "u1")
		f.clock.Advance(9 * time.Minute)
		assert.Equal(t, []string{"bye in 1m0s"}, f.rec.Warnings())

		f.clock.Advance(time.Minute)
		assert.Equal(t, 1, f.rec.Logouts())
	})

	t.Run("storage key", func(t *testing.T) {
		f := newFixture(t, idlesession.WithStorageKey("idle"))
		f.m.StartSession(ctx, "u1")

		_, err := f.store.Get(ctx, "idle")
		assert.NoError(t, err)
		_, err = f.store.Get(ctx, "sessionData")
		assert.ErrorIs(t, err, idlesession.ErrNotFound)
	})

	t.Run("from config", func(t *testing.T) {
		cfg := idlesession.Config{Timeout: 2 * time.Hour, WarningLead: 10 * time.Minute}
		m := idlesession.NewFromConfig(cfg)
		defer m.Close()

		assert.Equal(t, "sessionData", m.Config().StorageKey)
		assert.Equal(t, 2*time.Hour, m.Config().Timeout)
	})
}

func TestManager_SingleLogoutUnderConcurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var logouts atomic.Int32
	m := idlesession.New(
		idlesession.WithTimeout(200*time.Millisecond),
		idlesession.WithWarningLead(50*time.Millisecond),
		idlesession.WithLogout(func(context.Context) { logouts.Add(1) }),
	)
	defer m.Close()

	m.StartSession(ctx, "u1")

	stopCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stopCtx.Done():
					return
				default:
					m.HandleActivity(ctx, idlesession.ActivityMouseMove)
					_ = m.IsSessionValid(ctx)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, logouts.Load(), "activity keeps the session alive")
	assert.Eventually(t, func() bool { return logouts.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), logouts.Load())
	assert.False(t, m.IsSessionValid(ctx))
}

func TestManager_RemainingTimeNonIncreasingBetweenActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.m.StartSession(ctx, "u1")
	prev := f.m.RemainingTime(ctx)
	assert.Equal(t, time.Hour, prev)

	steps := []time.Duration{0, time.Millisecond, 7 * time.Minute, 0, 30 * time.Second, 45 * time.Minute, time.Minute}
	for _, step := range steps {
		f.clock.Advance(step)
		got := f.m.RemainingTime(ctx)
		assert.LessOrEqual(t, got, prev, "after advancing %s", step)
		prev = got
	}
	assert.Equal(t, time.Hour-(7*time.Minute+30*time.Second+46*time.Minute+time.Millisecond), prev)

	f.m.UpdateActivity(ctx)
	assert.Equal(t, time.Hour, f.m.RemainingTime(ctx))

	f.clock.Advance(2 * time.Hour)
	assert.Zero(t, f.m.RemainingTime(ctx))
	f.clock.Advance(time.Minute)
	assert.Zero(t, f.m.RemainingTime(ctx))
}
