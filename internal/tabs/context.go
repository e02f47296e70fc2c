package tabs

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/stockroom/pkg/logger"
)

type contextKey struct{}

// WithTab stores tab in ctx.
func WithTab(ctx context.Context, tab *Tab) context.Context {
	return context.WithValue(ctx, contextKey{}, tab)
}

// FromContext returns the tab stored in ctx.
func FromContext(ctx context.Context) (*Tab, bool) {
	tab, ok := ctx.Value(contextKey{}).(*Tab)
	return tab, ok && tab != nil
}

// LoggerExtractor adds the tab id to records logged with a tab context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if tab, ok := FromContext(ctx); ok {
			return logger.TabID(tab.ID), true
		}
		return slog.Attr{}, false
	}
}
