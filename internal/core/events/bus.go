package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type Handler func(ctx context.Context, event Event) error

// Publisher is what services depend on to announce state changes.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// EventBus fans audit events out to in-process subscribers.
type EventBus struct {
	mu       sync.RWMutex
	subs     map[string][]Handler
	logger   *slog.Logger
	inflight sync.WaitGroup
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		subs:   make(map[string][]Handler),
		logger: logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	eb.subs[eventType] = append(eb.subs[eventType], handler)
	count := len(eb.subs[eventType])
	eb.mu.Unlock()

	eb.logger.Debug("event subscriber added", "event_type", eventType, "subscribers", count)
}

// subscribers returns the typed handlers followed by the wildcard ones.
func (eb *EventBus) subscribers(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	typed, all := eb.subs[eventType], eb.subs[Wildcard]
	out := make([]Handler, 0, len(typed)+len(all))
	out = append(out, typed...)
	return append(out, all...)
}

func (eb *EventBus) report(event Event, err error) {
	eb.logger.Error("event subscriber failed",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"error", err)
}

// Publish hands the event to every subscriber on its own goroutine. The
// subscribers see a context that survives cancellation of ctx.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	subs := eb.subscribers(event.EventType())
	if len(subs) == 0 {
		return nil
	}

	detached := context.WithoutCancel(ctx)
	eb.inflight.Add(len(subs))
	for _, h := range subs {
		go func(h Handler) {
			defer eb.inflight.Done()
			if err := h(detached, event); err != nil {
				eb.report(event, err)
			}
		}(h)
	}
	return nil
}

// PublishSync runs subscribers in order and stops at the first failure.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	for _, h := range eb.subscribers(event.EventType()) {
		if err := h(ctx, event); err != nil {
			eb.report(event, err)
			return fmt.Errorf("subscriber failed for %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// Wait blocks until asynchronous subscribers finish.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
