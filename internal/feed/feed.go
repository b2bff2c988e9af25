// Package feed provides the publish/subscribe channel that carries one
// event per inserted chat message to every live subscriber.
package feed

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/models"
)

// Handler is a callback invoked for each new message event. Handlers run
// on their subscription's dispatch goroutine: delivery is FIFO per
// subscriber relative to publish order, and a slow handler only delays
// its own subscription.
type Handler func(models.Message)

// Feed is an in-process message change feed. Subscribers registered after
// a publish never see that publish; catch-up is the caller's concern via
// an explicit history fetch before subscribing.
type Feed struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
}

// New creates an empty feed.
func New(logger zerolog.Logger) *Feed {
	return &Feed{
		logger: logger,
		subs:   make(map[string]*Subscription),
	}
}

// Subscribe registers a handler and returns its subscription handle.
// Returns nil if the feed is already closed or handler is nil.
func (f *Feed) Subscribe(handler Handler) *Subscription {
	if handler == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}

	sub := &Subscription{
		id:      uuid.New().String(),
		feed:    f,
		handler: handler,
		done:    make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	f.subs[sub.id] = sub

	go sub.dispatch()
	return sub
}

// Unsubscribe releases a subscription. Safe to call repeatedly, with a
// nil handle, and from inside a handler during delivery.
func (f *Feed) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	f.mu.Lock()
	delete(f.subs, sub.id)
	f.mu.Unlock()
	sub.stop()
}

// Publish enqueues msg for every current subscriber. Enqueueing happens
// under the registry lock so each event lands in all subscriber queues
// atomically; callers serialize publishes in insert order.
func (f *Feed) Publish(msg models.Message) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	for _, sub := range f.subs {
		sub.enqueue(msg)
	}
	eventsPublished.Inc()
}

// SubscriberCount returns the number of active subscriptions.
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Close releases every subscription and rejects future subscribers.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	subs := make([]*Subscription, 0, len(f.subs))
	for _, sub := range f.subs {
		subs = append(subs, sub)
	}
	f.subs = make(map[string]*Subscription)
	f.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

// Subscription is the handle owned by one subscriber. It carries an
// unbounded FIFO queue drained by a dedicated goroutine, preserving
// at-least-once delivery without ever blocking Publish.
type Subscription struct {
	id      string
	feed    *Feed
	handler Handler

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []models.Message
	closed bool
	done   chan struct{}
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Close releases the subscription. Equivalent to Feed.Unsubscribe.
func (s *Subscription) Close() {
	s.feed.Unsubscribe(s)
}

// Done is closed once the dispatch goroutine has exited; after that no
// handler invocation for this subscription can occur.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) enqueue(msg models.Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *Subscription) stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *Subscription) dispatch() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		msg := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.deliver(msg)
	}
}

// deliver invokes the handler, isolating panics so one failing subscriber
// never disrupts delivery to the rest of the feed.
func (s *Subscription) deliver(msg models.Message) {
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.Inc()
			s.feed.logger.Error().
				Str("subscription_id", s.id).
				Int64("message_id", msg.ID).
				Interface("panic", r).
				Msg("feed handler panicked")
		}
	}()
	s.handler(msg)
	eventsDelivered.Inc()
}
