package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/diewo77/tailor-app/internal/logging"
)

// KafkaDispatcher publishes transition events to a Kafka topic. The writer
// runs async with a buffered inbox so Dispatch never blocks on the broker;
// write errors are logged in the drain loop. The inbox is never closed, so a
// Dispatch racing shutdown drops its event instead of panicking on a closed
// channel.
type KafkaDispatcher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closed  atomic.Bool
	closeCh chan struct{}
	log     *slog.Logger
}

func NewKafkaDispatcher(brokers []string, topic string, buf int) *KafkaDispatcher {
	return &KafkaDispatcher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     logging.New("notify.kafka"),
	}
}

// Start drains the inbox until ctx is cancelled, then flushes what is
// buffered and closes the writer.
func (d *KafkaDispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.closeCh)
		for {
			select {
			case <-ctx.Done():
				d.closed.Store(true)
				for {
					select {
					case m := <-d.inbox:
						if err := d.w.WriteMessages(context.Background(), m); err != nil {
							d.log.Error("flush write failed", "err", err)
						}
					default:
						_ = d.w.Close()
						return
					}
				}
			case m := <-d.inbox:
				if err := d.w.WriteMessages(context.Background(), m); err != nil {
					d.log.Error("write failed", "err", err)
				}
			}
		}
	}()
}

// Dispatch enqueues the event. A full inbox or a dispatcher already shut
// down drops the message rather than blocking or failing the transition that
// produced it.
func (d *KafkaDispatcher) Dispatch(_ context.Context, ev TransitionEvent) error {
	if d.closed.Load() {
		d.log.Warn("dispatcher closed, dropping event", "event_id", ev.EventID, "order_no", ev.OrderNo)
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		// Partition key = order number so one order's events stay ordered.
		Key:   []byte(ev.OrderNo),
		Value: b,
		Time:  time.Now(),
	}
	select {
	case d.inbox <- msg:
	default:
		d.log.Warn("inbox full, dropping event", "event_id", ev.EventID, "order_no", ev.OrderNo)
	}
	return nil
}

// WaitClosed blocks until the drain goroutine has flushed and exited.
func (d *KafkaDispatcher) WaitClosed() { <-d.closeCh }
