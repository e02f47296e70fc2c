package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/stockroom/internal/backend"
	"github.com/dmitrymomot/stockroom/pkg/handler"
	"github.com/dmitrymomot/stockroom/pkg/logger"
	"github.com/dmitrymomot/stockroom/pkg/ratelimiter"
	"github.com/dmitrymomot/stockroom/pkg/validator"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// maxPasswordLen is the bcrypt input limit.
const maxPasswordLen = 72

func (r LoginRequest) validate() error {
	return validator.Apply(
		validator.Required("email", r.Email),
		validator.MaxLen("email", r.Email, 254),
		validator.Email("email", r.Email),
		validator.Required("password", r.Password),
		validator.MaxLen("password", r.Password, maxPasswordLen),
	)
}

// LoginResponse identifies the tab opened by a successful sign-in.
type LoginResponse struct {
	TabID         string `json:"tabId"`
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Dashboard     string `json:"dashboard"`
	TimeoutMs     int64  `json:"timeoutMs"`
	WarningLeadMs int64  `json:"warningLeadMs"`
}

func (s *Server) login(ctx handler.Context, req LoginRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}

	limitKey := loginLimitKey(ctx.Request(), req.Email)
	if s.loginLimit != nil {
		if res, err := s.loginLimit.Allow(limitKey); err == nil {
			ratelimiter.SetHeaders(ctx.ResponseWriter(), res)
			if !res.Allowed() {
				return handler.Error(errTooManyAttempts)
			}
		}
	}

	sess, user, err := s.backend.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return handler.Error(err)
	}

	resp, err := s.openTab(ctx, sess, user)
	if err != nil {
		if signOutErr := s.backend.SignOut(context.WithoutCancel(ctx), sess.AccessToken); signOutErr != nil {
			s.log.WarnContext(ctx, "failed to revoke session after aborted login", logger.UserID(user.ID), logger.Error(signOutErr))
		}
		return handler.Error(err)
	}
	if s.loginLimit != nil {
		s.loginLimit.Reset(limitKey)
	}
	return handler.JSON(resp, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Server) openTab(ctx context.Context, sess *backend.Session, user *backend.User) (LoginResponse, error) {
	role, err := s.ensureUser(ctx, user)
	if err != nil {
		return LoginResponse{}, err
	}
	if err := s.auth.VerifyRole(role); err != nil {
		return LoginResponse{}, err
	}
	dashboard, err := s.auth.Dashboard(role)
	if err != nil {
		return LoginResponse{}, err
	}

	tab, err := s.tabs.Open(ctx, user.ID, role, sess.AccessToken)
	if err != nil {
		return LoginResponse{}, err
	}
	cfg := tab.Session.Config()
	return LoginResponse{
		TabID:         tab.ID,
		UserID:        user.ID,
		Email:         user.Email,
		Role:          role,
		Dashboard:     dashboard,
		TimeoutMs:     cfg.Timeout.Milliseconds(),
		WarningLeadMs: cfg.WarningLead.Milliseconds(),
	}, nil
}

// ensureUser returns the role from the user's row, creating the row with
// the default role on first sign-in.
func (s *Server) ensureUser(ctx context.Context, user *backend.User) (string, error) {
	row, err := s.backend.Select(ctx, backend.TableUsers, user.ID)
	if errors.Is(err, backend.ErrRecordNotFound) {
		row = backend.Row{"id": user.ID, "email": user.Email, "role": s.defaultRole}
		err = s.backend.Insert(ctx, backend.TableUsers, row)
		if errors.Is(err, backend.ErrDuplicateRecord) {
			// Created by a concurrent sign-in.
			row, err = s.backend.Select(ctx, backend.TableUsers, user.ID)
		} else if err == nil {
			s.log.InfoContext(ctx, "user row created", logger.UserID(user.ID), logger.Role(s.defaultRole))
		}
	}
	if err != nil {
		return "", err
	}

	if role := row.String("role"); role != "" {
		return role, nil
	}
	return s.defaultRole, nil
}

func (s *Server) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := s.tabs.Close(ctx, currentTab(ctx).ID); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

// loginLimitKey buckets attempts by client address and normalized email.
func loginLimitKey(r *http.Request, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return ratelimiter.Composite(
		ratelimiter.ByClientIP,
		func(*http.Request) string { return email },
	)(r)
}
