package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/diewo77/tailor-app/internal/models"
)

// Event types carried on the side channel.
const (
	EventOrderPlaced    = "OrderPlaced"
	EventWorkStarted    = "WorkStarted"
	EventStatusChanged  = "StatusChanged"
	EventOrderReady     = "OrderReady"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCancelled = "OrderCancelled"
)

// TransitionEvent is the payload handed to the external notification
// dispatcher whenever an order changes status. RecipientRef is resolved once
// here at construction; downstream consumers see a single recipient field.
type TransitionEvent struct {
	EventID      string             `json:"event_id"`
	EventType    string             `json:"event_type"`
	OrderID      uint               `json:"order_id"`
	OrderNo      string             `json:"order_no"`
	FromStatus   models.OrderStatus `json:"from_status"`
	ToStatus     models.OrderStatus `json:"to_status"`
	ActorID      uint               `json:"actor_id"`
	RecipientRef uint               `json:"recipient_ref"`
	OccurredAt   time.Time          `json:"occurred_at"`
}

// NewTransitionEvent builds an event for an order that just moved from one
// status to another. The recipient is always the owning customer.
func NewTransitionEvent(order *models.Order, from, to models.OrderStatus, actorID uint) TransitionEvent {
	return TransitionEvent{
		EventID:      uuid.NewString(),
		EventType:    eventTypeFor(from, to),
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		FromStatus:   from,
		ToStatus:     to,
		ActorID:      actorID,
		RecipientRef: order.CustomerID,
		OccurredAt:   time.Now(),
	}
}

func eventTypeFor(from, to models.OrderStatus) string {
	switch {
	case from == "" && to == models.OrderStatusPlaced:
		return EventOrderPlaced
	case from == models.OrderStatusPlaced && to == models.OrderStatusCutting:
		return EventWorkStarted
	case to == models.OrderStatusReady:
		return EventOrderReady
	case to == models.OrderStatusDelivered:
		return EventOrderDelivered
	case to == models.OrderStatusCancelled:
		return EventOrderCancelled
	default:
		return EventStatusChanged
	}
}
