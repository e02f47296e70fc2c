package idlesession

import (
	"log/slog"
	"time"
)

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
		if m.cfg.StorageKey == "" {
			m.cfg.StorageKey = DefaultConfig().StorageKey
		}
	}
}

// WithTimeout overrides the idle timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.cfg.Timeout = d }
}

// WithWarningLead overrides how long before the timeout the warning fires.
func WithWarningLead(d time.Duration) Option {
	return func(m *Manager) { m.cfg.WarningLead = d }
}

// WithStorageKey overrides the key the record is stored under.
func WithStorageKey(key string) Option {
	return func(m *Manager) { m.cfg.StorageKey = key }
}

// WithActivityThrottle enables throttling of high-frequency activity.
func WithActivityThrottle(d time.Duration) Option {
	return func(m *Manager) { m.cfg.ActivityThrottle = d }
}

// WithStore sets the tab-scoped store. Defaults to a fresh MemoryStore.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// TimeSource is a Clock that can also schedule callbacks.
type TimeSource interface {
	Clock
	Scheduler
}

// WithClock sets both the clock and the scheduler from one value, which is
// what SystemClock and test fakes provide.
func WithClock(c TimeSource) Option {
	return func(m *Manager) {
		m.clock = c
		m.scheduler = c
	}
}

// WithNotifier sets the warning/timeout notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogout sets the callback invoked after an idle timeout.
func WithLogout(fn LogoutFunc) Option {
	return func(m *Manager) { m.onLogout = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithWarningMessage overrides the text passed to Notifier.Warning.
// The function receives the time left until logout.
func WithWarningMessage(fn func(left time.Duration) string) Option {
	return func(m *Manager) { m.message = fn }
}
