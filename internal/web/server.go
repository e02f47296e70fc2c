package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/stockroom/internal/backend"
	"github.com/dmitrymomot/stockroom/internal/tabs"
	"github.com/dmitrymomot/stockroom/pkg/binder"
	"github.com/dmitrymomot/stockroom/pkg/broadcast"
	"github.com/dmitrymomot/stockroom/pkg/clientip"
	"github.com/dmitrymomot/stockroom/pkg/handler"
	"github.com/dmitrymomot/stockroom/pkg/httpserver"
	"github.com/dmitrymomot/stockroom/pkg/logger"
	"github.com/dmitrymomot/stockroom/pkg/ratelimiter"
	"github.com/dmitrymomot/stockroom/pkg/rbac"
	"github.com/dmitrymomot/stockroom/pkg/requestid"
)

// TabHeader carries the tab id on every tab-scoped request. Event streams
// may pass it as the "tab" query parameter instead.
const TabHeader = "X-Tab-ID"

// Server holds the HTTP handlers.
type Server struct {
	backend backend.Client
	tabs    *tabs.Registry
	hub     *broadcast.Hub[tabs.Notice]
	auth    rbac.Authorizer

	log          *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
	defaultRole  string
	heartbeat    time.Duration
	checks       []httpserver.HealthCheck
	readyTimeout time.Duration
	loginLimit   *ratelimiter.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDefaultRole sets the role given to users signing in for the first
// time. Defaults to rbac.RoleEmployee.
func WithDefaultRole(role string) Option {
	return func(s *Server) {
		if role != "" {
			s.defaultRole = role
		}
	}
}

// WithHeartbeat sets how often an idle event stream re-sends the session
// state. Zero disables heartbeats.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) { s.heartbeat = max(0, d) }
}

// WithHealthChecks adds readiness checks served on /readyz.
func WithHealthChecks(checks ...httpserver.HealthCheck) Option {
	return func(s *Server) { s.checks = append(s.checks, checks...) }
}

// WithLoginLimiter throttles sign-in attempts per client address and email.
// A successful sign-in refills only that pair's bucket.
func WithLoginLimiter(l *ratelimiter.Limiter) Option {
	return func(s *Server) { s.loginLimit = l }
}

// NewServer creates the HTTP surface over its collaborators.
func NewServer(client backend.Client, registry *tabs.Registry, hub *broadcast.Hub[tabs.Notice], auth rbac.Authorizer, opts ...Option) *Server {
	s := &Server{
		backend:      client,
		tabs:         registry,
		hub:          hub,
		auth:         auth,
		log:          logger.Discard(),
		defaultRole:  rbac.RoleEmployee,
		heartbeat:    25 * time.Second,
		readyTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("web"))
	s.errorHandler = handler.NewErrorHandler(s.log, mapError)
	return s
}

// Router returns the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(s.recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(s.log, s.readyTimeout, s.checks...))

	r.Post("/auth/login", wrap(s, s.login, binder.JSON()))

	r.Group(func(r chi.Router) {
		r.Use(s.requireTab)

		r.Post("/auth/logout", wrap(s, s.logout))
		r.Get("/session", wrap(s, s.session))
		r.Post("/session/activity", wrap(s, s.activity, binder.JSON()))
		r.Get("/session/events", wrap(s, s.events))
		r.Get("/dashboard", wrap(s, s.dashboardRedirect))
		r.Get("/dashboard/{name}", wrap(s, s.dashboard, binder.Path(chi.URLParam)))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler(handler.NewContext(w, r), handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler(handler.NewContext(w, r), handler.NewHTTPError(http.StatusMethodNotAllowed, "method_not_allowed"))
	})
	return r
}

func wrap[R any](s *Server, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](s.errorHandler),
	)
}
