package handler

import "net/http"

// SSEHandler runs for the lifetime of an event stream. The stream ends
// when it returns or the client disconnects.
//
//	handler.SSE(func(stream handler.StreamContext) error {
//		for {
//			select {
//			case <-stream.Done():
//				return nil
//			case n := <-notices:
//				if err := stream.SendSignals(map[string]any{"notice": n}); err != nil {
//					return err
//				}
//			}
//		}
//	})
type SSEHandler func(ctx StreamContext) error

type sseResponse struct {
	handler SSEHandler
}

func (s sseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return ErrNotEventStream
	}
	return s.handler(&streamContext{
		Context: NewContext(w, r),
		sse:     NewSSE(w, r),
	})
}

// SSE creates an event-stream response.
func SSE(handler SSEHandler) Response {
	return sseResponse{handler: handler}
}
