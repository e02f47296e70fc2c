package idlesession

import (
	"fmt"
	"time"
)

// Config holds the idle-session settings.
type Config struct {
	// Timeout is the idle window after which the session is logged out.
	Timeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"1h"`

	// WarningLead is how long before Timeout the warning is shown.
	WarningLead time.Duration `env:"SESSION_WARNING_LEAD" envDefault:"5m"`

	// StorageKey is the key the session record is stored under.
	StorageKey string `env:"SESSION_STORAGE_KEY" envDefault:"sessionData"`

	// ActivityThrottle limits how often high-frequency events (mousemove,
	// scroll) may reset the window. Zero disables throttling.
	ActivityThrottle time.Duration `env:"SESSION_ACTIVITY_THROTTLE" envDefault:"0s"`
}

// DefaultConfig returns the production defaults: one hour idle timeout
// with a warning five minutes before expiry.
func DefaultConfig() Config {
	return Config{
		Timeout:     time.Hour,
		WarningLead: 5 * time.Minute,
		StorageKey:  "sessionData",
	}
}

// Validate reports configuration that would make the timer pair meaningless.
func (c Config) Validate() error {
	switch {
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.WarningLead <= 0:
		return fmt.Errorf("%w: warning lead must be positive", ErrInvalidConfig)
	case c.WarningLead >= c.Timeout:
		return fmt.Errorf("%w: warning lead %s must be shorter than timeout %s", ErrInvalidConfig, c.WarningLead, c.Timeout)
	case c.StorageKey == "":
		return fmt.Errorf("%w: storage key is empty", ErrInvalidConfig)
	case c.ActivityThrottle < 0:
		return fmt.Errorf("%w: activity throttle must not be negative", ErrInvalidConfig)
	case c.ActivityThrottle >= c.WarningLead:
		// Throttling coarser than the warning lead could let the warning
		// fire while the user is active.
		return fmt.Errorf("%w: activity throttle %s must be shorter than warning lead %s", ErrInvalidConfig, c.ActivityThrottle, c.WarningLead)
	}
	return nil
}

// warnAfter is the idle duration at which the warning fires.
func (c Config) warnAfter() time.Duration {
	return c.Timeout - c.WarningLead
}

// NewFromConfig creates a Manager from cfg; opts are applied afterwards and
// may override individual fields.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
