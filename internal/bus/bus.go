// Package bus provides the topic-based event bus that decouples dashboard
// components from the transports that feed them.
package bus

import (
	"log/slog"
	"sync"
)

// Well-known topics published by the gateway and dashboard layers.
const (
	TopicDraftNew      = "draft:new"
	TopicDraftUpdated  = "draft:updated"
	TopicQueueStats    = "queue:stats"
	TopicPrimaryUp     = "primary:connected"
	TopicPrimaryDown   = "primary:disconnected"
	TopicPrimaryError  = "primary:error"
	TopicSecondaryUp   = "secondary:connected"
	TopicSecondaryDown = "secondary:disconnected"
	TopicSecondaryErr  = "secondary:error"
	TopicChatMessage   = "chat:message"
	TopicAgentSwitched = "agent:switched"
	TopicVoiceSpeaking = "voice:speaking"
)

// Handler receives the payload of a published event.
type Handler func(payload any)

// Handle identifies one subscription so it can be removed later.
type Handle struct {
	topic string
	id    uint64
}

type subscription struct {
	id uint64
	fn Handler
}

// Bus dispatches published events to subscribed handlers. Handlers for a
// topic run in registration order within a single dispatch; a panicking
// handler is logged and does not stop its siblings.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for a topic and returns its handle.
func (b *Bus) Subscribe(topic string, fn Handler) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[topic] = append(b.subs[topic], subscription{id: b.nextID, fn: fn})
	return Handle{topic: topic, id: b.nextID}
}

// Unsubscribe removes a subscription. Unknown handles are ignored.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[h.topic]
	for i, s := range subs {
		if s.id == h.id {
			b.subs[h.topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish dispatches payload to every handler currently subscribed to topic,
// in registration order. The subscriber list is snapshotted before dispatch
// so handlers may subscribe or unsubscribe without affecting this dispatch.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.Unlock()

	for _, s := range subs {
		dispatch(topic, s, payload)
	}
}

func dispatch(topic string, s subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler failed", "topic", topic, "panic", r)
		}
	}()
	s.fn(payload)
}

// SubscriberCount returns the number of handlers registered for a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
