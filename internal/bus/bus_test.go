package bus

import (
	"testing"
)

func TestPublishOrder(t *testing.T) {
	b := New()
	var order []int

	for i := 1; i <= 5; i++ {
		i := i
		b.Subscribe("draft:new", func(any) {
			order = append(order, i)
		})
	}

	b.Publish("draft:new", nil)

	if len(order) != 5 {
		t.Fatalf("expected 5 handler calls, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("handlers ran out of order: %v", order)
		}
	}
}

func TestPanickingHandlerDoesNotStopSiblings(t *testing.T) {
	b := New()
	var order []string

	b.Subscribe("queue:stats", func(any) { order = append(order, "first") })
	b.Subscribe("queue:stats", func(any) { panic("handler blew up") })
	b.Subscribe("queue:stats", func(any) { order = append(order, "third") })

	b.Publish("queue:stats", nil)

	if len(order) != 2 || order[0] != "first" || order[1] != "third" {
		t.Fatalf("siblings should still run, got %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	calls := 0

	h := b.Subscribe("chat:message", func(any) { calls++ })
	b.Publish("chat:message", nil)
	b.Unsubscribe(h)
	b.Publish("chat:message", nil)

	if calls != 1 {
		t.Errorf("expected 1 call after unsubscribe, got %d", calls)
	}
	if b.SubscriberCount("chat:message") != 0 {
		t.Error("expected no remaining subscribers")
	}

	// Unsubscribing twice is harmless.
	b.Unsubscribe(h)
}

func TestPayloadDelivered(t *testing.T) {
	b := New()
	var got any

	b.Subscribe("draft:updated", func(p any) { got = p })
	b.Publish("draft:updated", map[string]int{"id": 42})

	m, ok := got.(map[string]int)
	if !ok || m["id"] != 42 {
		t.Errorf("payload not delivered intact: %v", got)
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	b := New()
	b.Publish("nobody:listens", "payload") // must not panic
}

func TestSubscribeDuringDispatchAffectsNextPublishOnly(t *testing.T) {
	b := New()
	calls := 0

	b.Subscribe("t", func(any) {
		b.Subscribe("t", func(any) { calls += 10 })
		calls++
	})

	b.Publish("t", nil)
	if calls != 1 {
		t.Fatalf("late subscriber must not run in same dispatch, calls=%d", calls)
	}
	b.Publish("t", nil)
	if calls != 12 {
		t.Fatalf("late subscriber should run on next dispatch, calls=%d", calls)
	}
}
