package idlesession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/stockroom/pkg/logger"
	"github.com/dmitrymomot/stockroom/pkg/statemachine"
)

// Manager runs the idle-session lifecycle of one tab: it persists the
// session record, keeps the warning/logout timer pair armed relative to the
// last activity and signals the host when the session times out.
//
// Every operation and both timer callbacks run under one mutex, so a
// cancel-and-rearm is atomic with respect to any other handler. Notifier and
// logout callbacks are invoked after the mutex is released and may call
// back into the Manager.
type Manager struct {
	mu        sync.Mutex
	cfg       Config
	clock     Clock
	scheduler Scheduler
	store     Store
	notifier  Notifier
	onLogout  LogoutFunc
	log       *slog.Logger
	message   func(left time.Duration) string
	throttle  *rate.Limiter

	fsm          *statemachine.Machine[State, event]
	warnTimer    Timer
	logoutTimer  Timer
	epoch        uint64 // bumped on every disarm; stale callbacks compare against it
	warningShown bool
}

// New creates a Manager. It panics when the resulting Config is invalid.
func New(opts ...Option) *Manager {
	m := &Manager{
		cfg: DefaultConfig(),
		fsm: newLifecycle(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.cfg.Validate(); err != nil {
		panic(fmt.Sprintf("idlesession: %v", err))
	}

	if m.clock == nil {
		m.clock = SystemClock{}
	}
	if m.scheduler == nil {
		m.scheduler = SystemClock{}
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.notifier == nil {
		m.notifier = noopNotifier{}
	}
	if m.log == nil {
		m.log = logger.Discard()
	}
	m.log = m.log.With(logger.Component("idlesession"))
	if m.message == nil {
		m.message = defaultWarningMessage
	}
	if m.cfg.ActivityThrottle > 0 {
		m.throttle = rate.NewLimiter(rate.Every(m.cfg.ActivityThrottle), 1)
	}

	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// StartSession persists a fresh record for userID and arms both timers.
// A failed write is logged; the timers are armed regardless.
func (m *Manager) StartSession(ctx context.Context, userID string) {
	if userID == "" {
		m.log.WarnContext(ctx, "session start ignored: empty user id")
		return
	}

	m.mu.Lock()
	dismissed := m.warningShown
	m.writeLocked(ctx, newRecord(userID, m.clock.Now()))
	m.warningShown = false
	m.fire(ctx, eventStart)
	m.armLocked(0)
	m.mu.Unlock()

	m.log.InfoContext(ctx, "session started", logger.UserID(userID))
	if dismissed {
		m.dismiss(ctx)
	}
}

// UpdateActivity slides the idle window forward when a record exists and is
// a no-op otherwise. A record found already past the timeout is expired
// instead of revived.
func (m *Manager) UpdateActivity(ctx context.Context) {
	m.touch(ctx)
}

// HandleActivity is the entry point for input events. It reports whether the
// event reset the idle window. High-frequency kinds are subject to the
// optional activity throttle; discrete kinds never are.
func (m *Manager) HandleActivity(ctx context.Context, kind ActivityKind) bool {
	if m.throttle != nil && kind.HighFrequency() && !m.throttle.AllowN(m.clock.Now(), 1) {
		return false
	}
	return m.touch(ctx)
}

func (m *Manager) touch(ctx context.Context) bool {
	m.mu.Lock()
	rec, ok := m.readLocked(ctx)
	if !ok {
		m.mu.Unlock()
		return false
	}

	now := m.clock.Now()
	if rec.Idle(now) >= m.cfg.Timeout {
		m.endLocked(ctx, eventExpire)
		m.mu.Unlock()
		m.afterExpire(ctx, rec.UserID)
		return false
	}

	dismissed := m.warningShown
	m.writeLocked(ctx, rec.touch(now))
	m.warningShown = false
	if m.fsm.Current() == StateNoSession {
		// Record left by an earlier manager of the same tab.
		m.fire(ctx, eventStart)
	} else {
		m.fire(ctx, eventActivity)
	}
	m.armLocked(0)
	m.mu.Unlock()

	if dismissed {
		m.dismiss(ctx)
	}
	return true
}

// EndSession cancels the timers and deletes the record. It is idempotent.
func (m *Manager) EndSession(ctx context.Context) {
	m.mu.Lock()
	m.endLocked(ctx, eventEnd)
	m.mu.Unlock()

	m.log.DebugContext(ctx, "session ended")
}

// IsSessionValid reports whether a record exists and its last activity is
// within the timeout. Storage failures count as no session.
func (m *Manager) IsSessionValid(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.readLocked(ctx)
	if !ok {
		return false
	}
	return rec.Idle(m.clock.Now()) < m.cfg.Timeout
}

// RemainingTime returns the time left before the idle timeout, or zero when
// there is no session.
func (m *Manager) RemainingTime(ctx context.Context) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.readLocked(ctx)
	if !ok {
		return 0
	}
	return max(0, m.cfg.Timeout-rec.Idle(m.clock.Now()))
}

// Current returns a copy of the persisted record.
func (m *Manager) Current(ctx context.Context) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readLocked(ctx)
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	return m.fsm.Current()
}

// Resume picks up a record persisted by an earlier Manager of the same tab.
// A valid record re-arms the timers for the remaining window, showing the
// warning right away when its point has passed. An expired record is removed
// without invoking the logout callback. It reports whether a session is
// active afterwards.
func (m *Manager) Resume(ctx context.Context) bool {
	m.mu.Lock()
	rec, ok := m.readLocked(ctx)
	if !ok {
		m.mu.Unlock()
		return false
	}

	idle := rec.Idle(m.clock.Now())
	if idle >= m.cfg.Timeout {
		m.endLocked(ctx, eventEnd)
		m.mu.Unlock()
		m.log.InfoContext(ctx, "stale session discarded", logger.UserID(rec.UserID), logger.Duration(idle))
		return false
	}

	m.warningShown = false
	m.fire(ctx, eventStart)
	m.armLocked(idle)
	m.mu.Unlock()

	m.log.InfoContext(ctx, "session resumed", logger.UserID(rec.UserID), logger.Duration(idle))
	return true
}

// Close cancels the timers and leaves the record in the store.
func (m *Manager) Close() {
	m.mu.Lock()
	m.disarmLocked()
	m.mu.Unlock()
}

// armLocked replaces the timer pair. idle is the time already elapsed since
// the last activity.
func (m *Manager) armLocked(idle time.Duration) {
	m.disarmLocked()

	epoch := m.epoch
	warnIn := max(0, m.cfg.warnAfter()-idle)
	logoutIn := max(0, m.cfg.Timeout-idle)

	m.warnTimer = m.scheduler.AfterFunc(warnIn, func() { m.onWarning(epoch) })
	m.logoutTimer = m.scheduler.AfterFunc(logoutIn, func() { m.onExpire(epoch) })
}

func (m *Manager) disarmLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.logoutTimer != nil {
		m.logoutTimer.Stop()
		m.logoutTimer = nil
	}
	m.epoch++
}

func (m *Manager) endLocked(ctx context.Context, ev event) {
	m.disarmLocked()
	if err := m.store.Remove(ctx, m.cfg.StorageKey); err != nil {
		m.log.WarnContext(ctx, "failed to remove session record", logger.Key(m.cfg.StorageKey), logger.Error(err))
	}
	m.warningShown = false
	m.fire(ctx, ev)
}

func (m *Manager) onWarning(epoch uint64) {
	ctx := context.Background()

	m.mu.Lock()
	if epoch != m.epoch || m.warningShown || !m.fire(ctx, eventWarn) {
		m.mu.Unlock()
		return
	}
	m.warningShown = true
	left := m.cfg.WarningLead
	if rec, ok := m.readLocked(ctx); ok {
		left = max(0, m.cfg.Timeout-rec.Idle(m.clock.Now()))
	}
	m.mu.Unlock()

	m.log.InfoContext(ctx, "session expiry warning", logger.Duration(left))
	m.safely(ctx, "warning", func() { m.notifier.Warning(ctx, m.message(left)) })
}

func (m *Manager) onExpire(epoch uint64) {
	ctx := context.Background()

	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return
	}
	rec, _ := m.readLocked(ctx)
	m.endLocked(ctx, eventExpire)
	m.mu.Unlock()

	m.afterExpire(ctx, rec.UserID)
}

// afterExpire runs the host callbacks once the state is already cleaned up.
func (m *Manager) afterExpire(ctx context.Context, userID string) {
	m.log.InfoContext(ctx, "session expired after inactivity", logger.UserID(userID))
	m.safely(ctx, "timeout", func() { m.notifier.Timeout(ctx) })
	if m.onLogout != nil {
		m.safely(ctx, "logout", func() { m.onLogout(ctx) })
	}
}

func (m *Manager) dismiss(ctx context.Context) {
	if d, ok := m.notifier.(Dismisser); ok {
		m.safely(ctx, "dismiss", func() { d.WarningDismissed(ctx) })
	}
}

// fire applies ev to the lifecycle and reports whether a transition happened.
func (m *Manager) fire(ctx context.Context, ev event) bool {
	from := m.fsm.Current()
	to, err := m.fsm.Fire(ctx, ev)
	if err != nil {
		m.log.DebugContext(ctx, "lifecycle event ignored",
			logger.Event(string(ev)), logger.State(from.String()), logger.Error(err))
		return false
	}
	if from != to {
		m.log.DebugContext(ctx, "lifecycle transition",
			logger.Event(string(ev)), slog.String("from", from.String()), slog.String("to", to.String()))
	}
	return true
}

func (m *Manager) readLocked(ctx context.Context) (Record, bool) {
	raw, err := m.store.Get(ctx, m.cfg.StorageKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.WarnContext(ctx, "failed to read session record", logger.Key(m.cfg.StorageKey), logger.Error(err))
		}
		return Record{}, false
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		m.log.WarnContext(ctx, "discarding unreadable session record", logger.Key(m.cfg.StorageKey), logger.Error(err))
		return Record{}, false
	}
	return rec, true
}

func (m *Manager) writeLocked(ctx context.Context, rec Record) {
	raw, err := encodeRecord(rec)
	if err == nil {
		err = m.store.Set(ctx, m.cfg.StorageKey, raw)
	}
	if err != nil {
		m.log.ErrorContext(ctx, "failed to persist session record",
			logger.Key(m.cfg.StorageKey), logger.UserID(rec.UserID), logger.Error(err))
	}
}

func (m *Manager) safely(ctx context.Context, callback string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.ErrorContext(ctx, "session callback panicked",
				slog.String("callback", callback), slog.Any("panic", r))
		}
	}()
	fn()
}

func defaultWarningMessage(left time.Duration) string {
	minutes := max(1, int(math.Ceil(left.Minutes())))
	if minutes == 1 {
		return "Your session will expire in 1 minute due to inactivity."
	}
	return fmt.Sprintf("Your session will expire in %d minutes due to inactivity.", minutes)
}
