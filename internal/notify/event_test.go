package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/tailor-app/internal/models"
)

func TestEventTypeFor(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		want     string
	}{
		{"", models.OrderStatusPlaced, EventOrderPlaced},
		{models.OrderStatusPlaced, models.OrderStatusCutting, EventWorkStarted},
		{models.OrderStatusCutting, models.OrderStatusStitching, EventStatusChanged},
		{models.OrderStatusStitching, models.OrderStatusReady, EventOrderReady},
		{models.OrderStatusTrial, models.OrderStatusReady, EventOrderReady},
		{models.OrderStatusReady, models.OrderStatusDelivered, EventOrderDelivered},
		{models.OrderStatusPlaced, models.OrderStatusCancelled, EventOrderCancelled},
		{models.OrderStatusStitching, models.OrderStatusTrial, EventStatusChanged},
	}
	for _, c := range cases {
		if got := eventTypeFor(c.from, c.to); got != c.want {
			t.Errorf("eventTypeFor(%q, %q) = %q, want %q", c.from, c.to, got, c.want)
		}
	}
}

func TestNewTransitionEvent_RecipientIsCustomer(t *testing.T) {
	order := &models.Order{ID: 7, OrderNo: "ORD-7", CustomerID: 42}
	ev := NewTransitionEvent(order, models.OrderStatusPlaced, models.OrderStatusCutting, 11)
	if ev.RecipientRef != 42 {
		t.Errorf("recipient_ref = %d, want the owning customer 42", ev.RecipientRef)
	}
	if ev.ActorID != 11 {
		t.Errorf("actor_id = %d, want 11", ev.ActorID)
	}
	if ev.EventID == "" {
		t.Error("event_id not set")
	}
	if ev.EventType != EventWorkStarted {
		t.Errorf("event_type = %q, want %q", ev.EventType, EventWorkStarted)
	}
}

type failingDispatcher struct{ calls chan struct{} }

func (d *failingDispatcher) Dispatch(context.Context, TransitionEvent) error {
	d.calls <- struct{}{}
	return errors.New("broker down")
}

type panickyDispatcher struct{ calls chan struct{} }

func (d *panickyDispatcher) Dispatch(context.Context, TransitionEvent) error {
	d.calls <- struct{}{}
	panic("boom")
}

// Emit must never propagate dispatcher failures back to the caller.
func TestEmit_SwallowsFailures(t *testing.T) {
	order := &models.Order{ID: 1, OrderNo: "ORD-1", CustomerID: 2}
	ev := NewTransitionEvent(order, "", models.OrderStatusPlaced, 2)

	failing := &failingDispatcher{calls: make(chan struct{}, 1)}
	NewEmitter(failing).Emit(ev)
	select {
	case <-failing.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("failing dispatcher never invoked")
	}

	panicky := &panickyDispatcher{calls: make(chan struct{}, 1)}
	NewEmitter(panicky).Emit(ev)
	select {
	case <-panicky.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("panicky dispatcher never invoked")
	}
}

func TestEmit_NilEmitterIsNoop(t *testing.T) {
	var em *Emitter
	em.Emit(TransitionEvent{}) // must not panic
}
