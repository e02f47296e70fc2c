// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, health-check handlers and slog logging.
//
// Run binds the listener, serves until the context is cancelled or Shutdown
// is called, then drains in-flight requests within the shutdown timeout.
// Request contexts derive from a base context that is cancelled as soon as
// shutdown begins, so long-lived handlers such as event streams return
// promptly. Stop hooks run before draining and are the place to release
// such handlers explicitly.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//	    httpserver.WithLogger(log),
//	    httpserver.WithStopHook(func(ctx context.Context) { registry.Shutdown(ctx) }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// Signal handling is left to the caller; signal.NotifyContext is the usual
// source of ctx. Errors are wrapped with ErrStart and ErrShutdown.
package httpserver
