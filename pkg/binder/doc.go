// Package binder fills request structs from JSON bodies, query strings and
// router path parameters. Binders plug into handler.WithBinders and run in
// order:
//
//	type EventsRequest struct {
//		TabID string `query:"tab"`
//	}
//
//	r.Get("/session/events", handler.Wrap(events,
//		handler.WithBinders[handler.Context, EventsRequest](binder.Query()),
//	))
//
// Every binder error wraps one of the package sentinels so the caller can
// map it to a 4xx response.
package binder
