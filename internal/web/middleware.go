package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/stockroom/internal/tabs"
	"github.com/dmitrymomot/stockroom/pkg/handler"
	"github.com/dmitrymomot/stockroom/pkg/rbac"
)

// requireTab resolves the tab of the request and rejects requests whose
// tab is unknown or whose idle window has run out.
func (s *Server) requireTab(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TabHeader)
		if id == "" {
			id = r.URL.Query().Get("tab")
		}

		tab, err := s.tabs.Get(r.Context(), id)
		if err == nil && !tab.Session.IsSessionValid(r.Context()) {
			err = errSessionExpired
		}
		if err != nil {
			s.errorHandler(handler.NewContext(w, r), err)
			return
		}

		ctx := tabs.WithTab(r.Context(), tab)
		ctx = rbac.SetRoleToContext(ctx, tab.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.ErrorContext(r.Context(), "handler panicked", slog.Any("panic", rec))
				s.errorHandler(handler.NewContext(w, r), fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func currentTab(ctx handler.Context) *tabs.Tab {
	tab, ok := tabs.FromContext(ctx)
	if !ok {
		// Only reachable when a route skipped requireTab.
		panic("web: tab-scoped handler without tab in context")
	}
	return tab
}
