package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/stockroom/internal/backend"
	"github.com/dmitrymomot/stockroom/pkg/config"
	"github.com/dmitrymomot/stockroom/pkg/httpserver"
	"github.com/dmitrymomot/stockroom/pkg/idlesession"
	"github.com/dmitrymomot/stockroom/pkg/pg"
	"github.com/dmitrymomot/stockroom/pkg/ratelimiter"
	"github.com/dmitrymomot/stockroom/pkg/redis"
)

// Session store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Backend drivers.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the whole service configuration. Nested component configs read
// their own variables.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"stockroom"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"` // overrides the level implied by APP_ENV

	SessionStore string        `env:"SESSION_STORE" envDefault:"memory"` // memory or redis
	RolesFile    string        `env:"RBAC_ROLES_FILE"`                   // empty uses the built-in roles
	DefaultRole  string        `env:"DEFAULT_ROLE" envDefault:"employee"`
	SSEHeartbeat time.Duration `env:"SSE_HEARTBEAT" envDefault:"25s"`

	LoginThrottle bool `env:"LOGIN_THROTTLE" envDefault:"true"`

	// SeedUsers are created at startup, "email:password[:role]" each.
	SeedUsers []string `env:"SEED_USERS" envSeparator:","`

	Session   idlesession.Config
	HTTP      httpserver.Config
	Redis     redis.Config
	Postgres  pg.Config
	Backend   backend.Config
	LoginRate ratelimiter.Config
}

// LoadConfig reads Config from the environment and the optional .env file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SeedUser is a demo account created at startup.
type SeedUser struct {
	Email    string
	Password string
	Role     string // empty means the default role
}

// ParseSeedUsers parses "email:password[:role]" entries. The password may
// not contain a colon when a role follows.
func ParseSeedUsers(entries []string) ([]SeedUser, error) {
	users := make([]SeedUser, 0, len(entries))
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%w: entry %d must be email:password[:role]", ErrInvalidSeedUser, i+1)
		}
		u := SeedUser{Email: parts[0], Password: parts[1]}
		if len(parts) == 3 {
			u.Role = parts[2]
		}
		users = append(users, u)
	}
	return users, nil
}
