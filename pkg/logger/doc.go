// Package logger builds *slog.Logger instances with a consistent shape for
// every stockroom component.
//
// New picks a text or JSON handler, attaches static attributes and wraps the
// handler with WrapHandler, which injects values stored in the context
// (request id, tab id) into every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "stockroom"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "session started",
//	    logger.UserID(userID),
//	    logger.TabID(tabID),
//	)
//
// Attribute helpers (Error, UserID, TabID, Role, State, Event, Component,
// Duration, Key) keep key names uniform. Helpers that take optional values
// return an empty slog.Attr when the value is missing, so callers can write
//
//	log.Warn("write failed", logger.Error(err))
//
// without guarding.
package logger
