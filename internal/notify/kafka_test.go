package notify

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/tailor-app/internal/models"
)

// Dispatch arriving after shutdown must drop the event cleanly, not panic on
// a closed channel.
func TestKafkaDispatcher_DispatchAfterShutdown(t *testing.T) {
	d := NewKafkaDispatcher([]string{"localhost:9092"}, "order.notifications", 4)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain loop did not shut down")
	}

	order := &models.Order{ID: 1, OrderNo: "ORD-1", CustomerID: 2}
	ev := NewTransitionEvent(order, "", models.OrderStatusPlaced, 2)
	if err := d.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch after shutdown: %v", err)
	}
	if len(d.inbox) != 0 {
		t.Errorf("event enqueued after shutdown, want dropped")
	}
}
