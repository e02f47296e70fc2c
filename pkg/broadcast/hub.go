package broadcast

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stockroom/pkg/logger"
)

// Message is a payload delivered to the subscribers of one topic.
type Message[T any] struct {
	ID        string
	Topic     string
	Payload   T
	Timestamp time.Time
}

// Hub fans messages out to per-topic subscribers.
type Hub[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscription[T]
	closed bool

	bufferSize int
	log        *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*hubConfig)

type hubConfig struct {
	bufferSize int
	log        *slog.Logger
}

// WithBufferSize sets the per-subscription buffer. Defaults to 16.
func WithBufferSize(n int) HubOption {
	return func(c *hubConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithLogger sets the logger used to report dropped messages.
func WithLogger(l *slog.Logger) HubOption {
	return func(c *hubConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub[T any](opts ...HubOption) *Hub[T] {
	cfg := hubConfig{bufferSize: 16, log: logger.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Hub[T]{
		topics:     make(map[string]map[string]*Subscription[T]),
		bufferSize: cfg.bufferSize,
		log:        cfg.log.With(logger.Component("broadcast")),
	}
}

// Subscribe registers a subscription to topic. It is removed when ctx is
// done.
func (h *Hub[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	sub := &Subscription[T]{
		id:       uuid.NewString(),
		topic:    topic,
		messages: make(chan Message[T], h.bufferSize),
		done:     make(chan struct{}),
		hub:      h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*Subscription[T])
		h.topics[topic] = subs
	}
	subs[sub.id] = sub
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Publish delivers payload to every current subscriber of topic and returns
// how many received it. Publishing to a topic without subscribers is not an
// error.
func (h *Hub[T]) Publish(ctx context.Context, topic string, payload T) (int, error) {
	if topic == "" {
		return 0, ErrEmptyTopic
	}

	msg := Message[T]{
		ID:        uuid.NewString(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	// Sending under the read lock keeps Close from closing a channel
	// mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0, ErrHubClosed
	}

	delivered := 0
	for _, sub := range h.topics[topic] {
		select {
		case sub.messages <- msg:
			delivered++
		default:
			h.log.WarnContext(ctx, "dropping message for slow subscriber",
				slog.String("topic", topic), slog.String("subscriber", sub.id))
		}
	}
	return delivered, nil
}

// SubscriberCount returns the number of subscriptions to topic.
func (h *Hub[T]) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Topics returns the topics with at least one subscriber, sorted.
func (h *Hub[T]) Topics() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.topics))
	for t := range h.topics {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Close ends every subscription. Further Publish and Subscribe calls return
// ErrHubClosed.
func (h *Hub[T]) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for topic, subs := range h.topics {
		for _, sub := range subs {
			sub.closeLocked()
		}
		delete(h.topics, topic)
	}
	return nil
}

func (h *Hub[T]) remove(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.id]; !ok {
		return
	}
	sub.closeLocked()
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
}

// Subscription receives the messages of one topic.
type Subscription[T any] struct {
	id       string
	topic    string
	messages chan Message[T]
	done     chan struct{}
	once     sync.Once
	hub      *Hub[T]
}

// ID returns the subscription id.
func (s *Subscription[T]) ID() string { return s.id }

// Topic returns the subscribed topic.
func (s *Subscription[T]) Topic() string { return s.topic }

// Messages returns the delivery channel. It is closed when the subscription
// ends.
func (s *Subscription[T]) Messages() <-chan Message[T] { return s.messages }

// Done is closed when the subscription ends.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Close ends the subscription. It is idempotent.
func (s *Subscription[T]) Close() error {
	s.hub.remove(s)
	return nil
}

// closeLocked must be called with the hub write lock held.
func (s *Subscription[T]) closeLocked() {
	s.once.Do(func() {
		close(s.done)
		close(s.messages)
	})
}
