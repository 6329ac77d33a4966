package service

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/models"
)

// Subscriber is one connected display client or relay. Send must not block;
// it reports false when the message could not be queued.
type Subscriber interface {
	ID() string
	Send(msg models.StreamMessage) bool
	Close()
}

// SubscriberRegistry tracks live subscribers and fans messages out to them.
// Fan-out happens under the registry lock, so every subscriber observes
// broadcasts in the same order.
type SubscriberRegistry struct {
	mu      sync.Mutex
	subs    map[string]Subscriber
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSubscriberRegistry constructs an empty registry.
func NewSubscriberRegistry(metrics *MetricsService, logger *zap.Logger) *SubscriberRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriberRegistry{subs: make(map[string]Subscriber), metrics: metrics, logger: logger}
}

// Register adds sub. A subscriber registered during a broadcast receives it only
// if registration won the lock first.
func (r *SubscriberRegistry) Register(sub Subscriber) {
	r.mu.Lock()
	r.subs[sub.ID()] = sub
	n := len(r.subs)
	r.mu.Unlock()

	r.metrics.SetSubscribers(n)
	r.logger.Info("subscriber connected", zap.String("subscriber_id", sub.ID()), zap.Int("subscribers", n))
}

// Unregister removes and closes the subscriber with id. Unknown ids are ignored.
func (r *SubscriberRegistry) Unregister(id string) {
	r.mu.Lock()
	sub, ok := r.subs[id]
	if ok {
		delete(r.subs, id)
	}
	n := len(r.subs)
	r.mu.Unlock()

	if !ok {
		return
	}
	sub.Close()
	r.metrics.SetSubscribers(n)
	r.logger.Info("subscriber disconnected", zap.String("subscriber_id", id), zap.Int("subscribers", n))
}

// BroadcastAll queues msg for every subscriber and returns how many accepted it.
// Subscribers that refuse the message are evicted; the rest are unaffected.
func (r *SubscriberRegistry) BroadcastAll(msg models.StreamMessage) int {
	r.mu.Lock()
	delivered := 0
	var evicted []Subscriber
	for id, sub := range r.subs {
		if sub.Send(msg) {
			delivered++
			continue
		}
		delete(r.subs, id)
		evicted = append(evicted, sub)
	}
	n := len(r.subs)
	r.mu.Unlock()

	for _, sub := range evicted {
		sub.Close()
		r.metrics.RecordEviction()
		r.logger.Warn("subscriber evicted", zap.String("subscriber_id", sub.ID()), zap.String("event", msg.Event))
	}
	if len(evicted) > 0 {
		r.metrics.SetSubscribers(n)
	}
	return delivered
}

// SendTo queues msg for a single subscriber.
func (r *SubscriberRegistry) SendTo(id string, msg models.StreamMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return false
	}
	return sub.Send(msg)
}

// Count returns the number of live subscribers.
func (r *SubscriberRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// CloseAll disconnects every subscriber, used on shutdown.
func (r *SubscriberRegistry) CloseAll() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[string]Subscriber)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	r.metrics.SetSubscribers(0)
}

// ChannelSubscriber buffers messages in a channel drained by a stream writer.
type ChannelSubscriber struct {
	id       string
	messages chan models.StreamMessage
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewChannelSubscriber creates a subscriber with a queue of the given size.
func NewChannelSubscriber(buffer int) *ChannelSubscriber {
	if buffer <= 0 {
		buffer = 32
	}
	return &ChannelSubscriber{
		id:       uuid.NewString(),
		messages: make(chan models.StreamMessage, buffer),
		done:     make(chan struct{}),
	}
}

// ID implements Subscriber.
func (s *ChannelSubscriber) ID() string {
	return s.id
}

// Send implements Subscriber. It never blocks.
func (s *ChannelSubscriber) Send(msg models.StreamMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.messages <- msg:
		return true
	default:
		return false
	}
}

// Close implements Subscriber. It is safe to call more than once.
func (s *ChannelSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Messages is the queue to drain.
func (s *ChannelSubscriber) Messages() <-chan models.StreamMessage {
	return s.messages
}

// Done is closed once the subscriber is closed.
func (s *ChannelSubscriber) Done() <-chan struct{} {
	return s.done
}
