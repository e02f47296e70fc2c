// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value filled by binders
// and returns a Response that renders itself:
//
//	type LoginRequest struct {
//		Email    string `json:"email"`
//		Password string `json:"password"`
//	}
//
//	login := handler.HandlerFunc[handler.Context, LoginRequest](
//		func(ctx handler.Context, req LoginRequest) handler.Response {
//			tab, err := svc.Login(ctx, req.Email, req.Password)
//			if err != nil {
//				return handler.JSONError(err)
//			}
//			return handler.JSON(tab, handler.WithJSONStatus(http.StatusCreated))
//		},
//	)
//
//	r.Post("/auth/login", handler.Wrap(login,
//		handler.WithBinders[handler.Context, LoginRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, LoginRequest](errorHandler),
//	))
//
// Responses: JSON, JSONError, Empty, Redirect and SSE. SSE streams DataStar
// signal patches for as long as the handler runs.
//
// Errors returned by binders or Render go to the ErrorHandler. The
// NewErrorHandler default classifies them with Classify, logs them and
// renders the JSON envelope with the request id.
package handler
