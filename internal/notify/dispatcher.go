// Package notify is the best-effort notification side channel. Dispatch
// failures are logged and dropped; they never fail or roll back the
// transition that produced the event.
package notify

import (
	"context"
	"log/slog"

	"github.com/diewo77/tailor-app/internal/logging"
)

// Dispatcher hands an event to the external notification system.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev TransitionEvent) error
}

// Emitter wraps a Dispatcher with the fire-and-forget contract: Emit never
// blocks the caller on delivery and never surfaces an error.
type Emitter struct {
	d   Dispatcher
	log *slog.Logger
}

func NewEmitter(d Dispatcher) *Emitter {
	return &Emitter{d: d, log: logging.New("notify")}
}

// Emit dispatches the event outside the caller's transactional boundary.
// The surrounding operation has already committed by the time Emit runs.
func (e *Emitter) Emit(ev TransitionEvent) {
	if e == nil || e.d == nil {
		return
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				e.log.Error("dispatcher panicked", "event_id", ev.EventID, "panic", rec)
			}
		}()
		if err := e.d.Dispatch(context.Background(), ev); err != nil {
			e.log.Error("dispatch failed", "event_id", ev.EventID, "event_type", ev.EventType, "order_no", ev.OrderNo, "err", err)
		}
	}()
}

// LogDispatcher writes events to the process log. It is the default when no
// broker is configured (development, tests).
type LogDispatcher struct {
	log *slog.Logger
}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{log: logging.New("notify.log")}
}

func (d *LogDispatcher) Dispatch(_ context.Context, ev TransitionEvent) error {
	d.log.Info("notification",
		"event_id", ev.EventID,
		"event_type", ev.EventType,
		"order_no", ev.OrderNo,
		"from", ev.FromStatus,
		"to", ev.ToStatus,
		"recipient_ref", ev.RecipientRef,
	)
	return nil
}
