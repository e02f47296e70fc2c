// Package broadcast implements an in-process, topic keyed publish/subscribe
// hub.
//
// Each topic has any number of subscriptions with a buffered channel.
// Publishing never blocks: a subscriber whose buffer is full misses the
// message. Subscriptions end when their context is cancelled, when Close is
// called or when the hub shuts down; in every case the message channel is
// closed.
//
//	hub := broadcast.NewHub[Notice]()
//	defer hub.Close()
//
//	sub, err := hub.Subscribe(ctx, tabID)
//	if err != nil {
//	    return err
//	}
//	for msg := range sub.Messages() {
//	    render(msg.Payload)
//	}
package broadcast
