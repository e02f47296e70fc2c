package web

import (
	"context"
	"time"

	"github.com/dmitrymomot/stockroom/internal/tabs"
	"github.com/dmitrymomot/stockroom/pkg/handler"
	"github.com/dmitrymomot/stockroom/pkg/idlesession"
	"github.com/dmitrymomot/stockroom/pkg/validator"
)

// SessionResponse describes the idle session of a tab.
type SessionResponse struct {
	Valid          bool   `json:"valid"`
	State          string `json:"state"`
	RemainingMs    int64  `json:"remainingMs"`
	UserID         string `json:"userId,omitempty"`
	Role           string `json:"role,omitempty"`
	LoginTime      int64  `json:"loginTime,omitempty"`
	LastActivityMs int64  `json:"lastActivity,omitempty"`
}

func describe(ctx context.Context, tab *tabs.Tab) SessionResponse {
	resp := SessionResponse{
		Valid:       tab.Session.IsSessionValid(ctx),
		State:       tab.Session.State().String(),
		RemainingMs: tab.Session.RemainingTime(ctx).Milliseconds(),
	}
	if rec, ok := tab.Session.Current(ctx); ok {
		resp.UserID = rec.UserID
		resp.Role = tab.Role
		resp.LoginTime = rec.LoginTime
		resp.LastActivityMs = rec.LastActivity
	}
	return resp
}

func (s *Server) session(ctx handler.Context, _ struct{}) handler.Response {
	return handler.JSON(describe(ctx, currentTab(ctx)))
}

// ActivityRequest reports one input event of the tab.
type ActivityRequest struct {
	Event      string `json:"event"`
	Visibility string `json:"visibility,omitempty"` // visible or hidden; only read for visibilitychange
}

func (r ActivityRequest) validate() error {
	return validator.Apply(
		validator.Required("event", r.Event),
		validator.OneOf("visibility", r.Visibility, "visible", "hidden"),
	)
}

// ActivityResponse tells whether the event reset the idle window.
type ActivityResponse struct {
	Reset       bool   `json:"reset"`
	State       string `json:"state"`
	RemainingMs int64  `json:"remainingMs"`
}

func (s *Server) activity(ctx handler.Context, req ActivityRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}
	kind, err := idlesession.ParseActivityKind(req.Event)
	if err != nil {
		verr := handler.NewValidationError()
		verr.Add("event", "unknown activity "+req.Event)
		return handler.Error(verr)
	}

	tab := currentTab(ctx)
	reset := false
	// Only a tab becoming visible counts; hiding it is not activity.
	if kind != idlesession.ActivityVisible || req.Visibility == "visible" {
		reset = tab.Session.HandleActivity(ctx, kind)
	}
	if !reset && !tab.Session.IsSessionValid(ctx) {
		return handler.Error(errSessionExpired)
	}

	return handler.JSON(ActivityResponse{
		Reset:       reset,
		State:       tab.Session.State().String(),
		RemainingMs: tab.Session.RemainingTime(ctx).Milliseconds(),
	})
}

// events streams the tab's notices as DataStar signal patches:
// {"session": SessionResponse, "notice": Notice}. The stream ends after the
// logout notice.
func (s *Server) events(ctx handler.Context, _ struct{}) handler.Response {
	if !handler.IsDataStar(ctx.Request()) {
		return handler.Error(handler.ErrNotEventStream)
	}

	tab := currentTab(ctx)
	sub, err := s.hub.Subscribe(ctx, tab.ID)
	if err != nil {
		return handler.Error(err)
	}

	return handler.SSE(func(stream handler.StreamContext) error {
		defer sub.Close()

		if err := stream.SendSignal("session", describe(stream, tab)); err != nil {
			return err
		}

		var heartbeat <-chan time.Time
		if s.heartbeat > 0 {
			ticker := time.NewTicker(s.heartbeat)
			defer ticker.Stop()
			heartbeat = ticker.C
		}

		for {
			select {
			case <-stream.Done():
				return nil
			case <-heartbeat:
				if err := stream.SendSignal("session", describe(stream, tab)); err != nil {
					return err
				}
			case msg, ok := <-sub.Messages():
				if !ok {
					return nil
				}
				err := stream.SendSignals(map[string]any{
					"session": describe(stream, tab),
					"notice":  msg.Payload,
				})
				if err != nil {
					return err
				}
				if msg.Payload.Terminal() {
					return nil
				}
			}
		}
	})
}
