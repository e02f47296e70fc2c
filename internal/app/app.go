package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/dmitrymomot/stockroom/internal/backend"
	"github.com/dmitrymomot/stockroom/internal/tabs"
	"github.com/dmitrymomot/stockroom/internal/web"
	"github.com/dmitrymomot/stockroom/pkg/broadcast"
	"github.com/dmitrymomot/stockroom/pkg/httpserver"
	"github.com/dmitrymomot/stockroom/pkg/idlesession"
	"github.com/dmitrymomot/stockroom/pkg/logger"
	"github.com/dmitrymomot/stockroom/pkg/pg"
	"github.com/dmitrymomot/stockroom/pkg/ratelimiter"
	"github.com/dmitrymomot/stockroom/pkg/rbac"
	"github.com/dmitrymomot/stockroom/pkg/redis"
	"github.com/dmitrymomot/stockroom/pkg/requestid"
)

// App is the assembled service.
type App struct {
	log      *slog.Logger
	server   *httpserver.Server
	handler  http.Handler
	registry *tabs.Registry
	hub      *broadcast.Hub[tabs.Notice]
	closers  []func()
}

// Option configures New.
type Option func(*options)

type options struct {
	log   *slog.Logger
	clock idlesession.TimeSource
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock drives every idle session from c instead of the wall clock.
func WithClock(c idlesession.TimeSource) Option {
	return func(o *options) { o.clock = c }
}

// NewLogger builds the service logger. Records carry the request id and
// the tab id when the context has them.
func NewLogger(cfg Config) *slog.Logger {
	return logger.New(
		logger.WithOutput(os.Stdout),
		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor(), tabs.LoggerExtractor()),
	)
}

// New connects the configured store and backend, seeds demo users and
// wires the HTTP surface. Resources acquired before a failure are released.
func New(ctx context.Context, cfg Config, opts ...Option) (_ *App, err error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = NewLogger(cfg)
	}

	a := &App{log: o.log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	if cfg.SessionStore == StoreRedis && cfg.Redis.RecordTTL > 0 && cfg.Redis.RecordTTL < cfg.Session.Timeout {
		return nil, fmt.Errorf("%w: %s < %s", ErrRecordTTL, cfg.Redis.RecordTTL, cfg.Session.Timeout)
	}
	seeds, err := ParseSeedUsers(cfg.SeedUsers)
	if err != nil {
		return nil, err
	}

	auth, err := rbac.NewAuthorizer(ctx, roleSource(cfg))
	if err != nil {
		return nil, err
	}
	if err := auth.VerifyRole(cfg.DefaultRole); err != nil {
		return nil, fmt.Errorf("default role %q: %w", cfg.DefaultRole, err)
	}

	var checks []httpserver.HealthCheck

	store, check, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if check != nil {
		checks = append(checks, *check)
	}

	client, check, err := a.openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if check != nil {
		checks = append(checks, *check)
	}

	if seeder, ok := client.(backend.Seeder); ok {
		if err := seed(ctx, a.log, client, seeder, auth, cfg.DefaultRole, seeds); err != nil {
			return nil, err
		}
	}

	a.hub = broadcast.NewHub[tabs.Notice](broadcast.WithLogger(a.log))
	a.closers = append(a.closers, func() { _ = a.hub.Close() })

	regOpts := []tabs.Option{tabs.WithLogger(a.log)}
	if o.clock != nil {
		regOpts = append(regOpts, tabs.WithClock(o.clock))
	}
	a.registry = tabs.NewRegistry(cfg.Session, store, a.hub, client, regOpts...)

	webOpts := []web.Option{
		web.WithLogger(a.log),
		web.WithDefaultRole(cfg.DefaultRole),
		web.WithHeartbeat(cfg.SSEHeartbeat),
		web.WithHealthChecks(checks...),
	}
	if cfg.LoginThrottle {
		lim, err := ratelimiter.New(cfg.LoginRate)
		if err != nil {
			return nil, err
		}
		webOpts = append(webOpts, web.WithLoginLimiter(lim))
	}
	a.handler = web.NewServer(client, a.registry, a.hub, auth, webOpts...).Router()

	a.server = httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(a.log),
		httpserver.WithStopHook(a.stop),
	)
	return a, nil
}

// Handler returns the router.
func (a *App) Handler() http.Handler { return a.handler }

// Addr returns the bound address once Run is listening.
func (a *App) Addr() string { return a.server.Addr() }

// Run serves until ctx is done, then shuts down gracefully and releases
// every connection.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	return a.server.Run(ctx, a.handler)
}

// stop runs before in-flight requests drain. Ending the hub closes every
// event stream; tab records stay in the store for the next process.
func (a *App) stop(ctx context.Context) {
	if err := a.registry.Shutdown(ctx); err != nil {
		a.log.ErrorContext(ctx, "failed to shut down tab registry", logger.Error(err))
	}
	_ = a.hub.Close()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context, cfg Config) (idlesession.Store, *httpserver.HealthCheck, error) {
	switch cfg.SessionStore {
	case StoreMemory:
		return idlesession.NewMemoryStore(), nil, nil
	case StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.log.InfoContext(ctx, "session store connected", slog.String("driver", StoreRedis))
		return redis.NewStoreWithConfig(client, cfg.Redis),
			&httpserver.HealthCheck{Name: "redis", Check: redis.Healthcheck(client)}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.SessionStore)
	}
}

func (a *App) openBackend(ctx context.Context, cfg Config) (backend.Client, *httpserver.HealthCheck, error) {
	switch cfg.Backend.Driver {
	case BackendMemory:
		return backend.NewMemory(cfg.Backend), nil, nil
	case BackendPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pool.Close)

		client := backend.NewPostgres(pool, cfg.Backend)
		if err := client.Migrate(ctx, cfg.Postgres, a.log); err != nil {
			return nil, nil, err
		}
		a.log.InfoContext(ctx, "backend connected", slog.String("driver", BackendPostgres))
		return client, &httpserver.HealthCheck{Name: "postgres", Check: pg.Healthcheck(pool)}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend.Driver)
	}
}

func roleSource(cfg Config) rbac.RoleSource {
	if cfg.RolesFile != "" {
		return rbac.NewYAMLRoleSource(cfg.RolesFile)
	}
	return rbac.NewDefaultRoleSource()
}

// seed creates the identity and the user row of every seed user. Users
// that already exist are left untouched, so restarts against a persistent
// backend are safe.
func seed(ctx context.Context, log *slog.Logger, client backend.Client, seeder backend.Seeder, auth rbac.Authorizer, defaultRole string, users []SeedUser) error {
	for _, u := range users {
		role := u.Role
		if role == "" {
			role = defaultRole
		}
		if err := auth.VerifyRole(role); err != nil {
			return fmt.Errorf("%w: %s: role %q: %w", ErrInvalidSeedUser, u.Email, role, err)
		}

		user, err := seeder.CreateUser(ctx, u.Email, u.Password)
		if errors.Is(err, backend.ErrDuplicateRecord) {
			log.DebugContext(ctx, "seed user exists", slog.String("email", u.Email))
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}

		row := backend.Row{"id": user.ID, "email": user.Email, "role": role}
		if err := client.Insert(ctx, backend.TableUsers, row); err != nil && !errors.Is(err, backend.ErrDuplicateRecord) {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
		log.InfoContext(ctx, "seed user created", logger.UserID(user.ID), logger.Role(role))
	}
	return nil
}
