package ratelimiter

import "time"

// Config defines the bucket of one key.
type Config struct {
	Burst    int           `env:"LOGIN_RATE_BURST" envDefault:"5"`      // Burst is the bucket capacity.
	Interval time.Duration `env:"LOGIN_RATE_INTERVAL" envDefault:"12s"` // Interval is the time to refill one token.
	IdleTTL  time.Duration `env:"LOGIN_RATE_IDLE_TTL" envDefault:"10m"` // IdleTTL drops buckets not touched for this long.
}

// Result describes the bucket after a check.
type Result struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}

// Allowed reports whether the checked request may proceed.
func (r Result) Allowed() bool {
	return r.RetryAfter == 0
}
