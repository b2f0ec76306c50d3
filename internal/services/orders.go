package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diewo77/tailor-app/internal/gate"
	"github.com/diewo77/tailor-app/internal/logging"
	"github.com/diewo77/tailor-app/internal/models"
	"github.com/diewo77/tailor-app/internal/notify"
	"github.com/diewo77/tailor-app/internal/policy"
	"github.com/diewo77/tailor-app/internal/pricing"
	"github.com/diewo77/tailor-app/internal/validation"
)

// OrderService drives the order lifecycle. Every status change is a
// compare-and-set on the expected current status, and every applied change
// emits a best-effort event on the notification side channel.
type OrderService struct {
	db      *gorm.DB
	gate    *gate.Gate[*models.User]
	fabrics *FabricService
	billing *BillingService
	emitter *notify.Emitter
}

func NewOrderService(db *gorm.DB, g *gate.Gate[*models.User], fabrics *FabricService, billing *BillingService, emitter *notify.Emitter) *OrderService {
	return &OrderService{db: db, gate: g, fabrics: fabrics, billing: billing, emitter: emitter}
}

// EmbroideryInput mirrors models.Embroidery minus the computed pricing.
type EmbroideryInput struct {
	Enabled    bool     `json:"enabled"`
	Type       string   `json:"type"`
	Placements []string `json:"placements"`
	Colors     []string `json:"colors"`
}

type FabricSelectionInput struct {
	Source   string  `json:"source"`
	FabricID *uint   `json:"fabric_id,omitempty"`
	Quantity float64 `json:"quantity"`
}

type PlaceOrderInput struct {
	CustomerID       uint                 `json:"customer_id"`
	ItemType         string               `json:"item_type"`
	Measurements     map[string]string    `json:"measurements"`
	FabricSelection  FabricSelectionInput `json:"fabric_selection"`
	Embroidery       *EmbroideryInput     `json:"embroidery,omitempty"`
	Urgency          string               `json:"urgency"`
	ExpectedDelivery *time.Time           `json:"expected_delivery,omitempty"`
	Notes            string               `json:"notes"`
	Attachments      []string             `json:"attachments"`
}

// PlaceOrder validates the request, prices it, reserves shop fabric, and
// persists the order with its bill. Reservation happens before the order
// insert; if the insert then fails, the reservation is compensated with a
// restock of the same quantity.
func (s *OrderService) PlaceOrder(ctx context.Context, actorID uint, in PlaceOrderInput) (*models.Order, *models.Bill, error) {
	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, nil, err
	}
	// The prospective order carries the named customer so the policy can
	// refuse a customer placing under someone else's account.
	if err := s.authorize(ctx, actor, gate.ActionCreate, &models.Order{CustomerID: in.CustomerID}); err != nil {
		return nil, nil, err
	}

	if in.Urgency == "" {
		in.Urgency = models.UrgencyNormal
	}
	if in.FabricSelection.Source == "" {
		in.FabricSelection.Source = models.FabricSourceNone
	}
	v := validation.Violations{}
	validation.Required("item_type", in.ItemType, v)
	validation.NonEmptyMap("measurements", in.Measurements, v)
	validation.OneOf("urgency", in.Urgency, []string{models.UrgencyNormal, models.UrgencyUrgent}, v)
	validation.OneOf("fabric_selection.source", in.FabricSelection.Source,
		[]string{models.FabricSourceShop, models.FabricSourceCustomer, models.FabricSourceNone}, v)
	if in.FabricSelection.Source == models.FabricSourceShop {
		if in.FabricSelection.FabricID == nil {
			v["fabric_selection.fabric_id"] = "required"
		}
		validation.PositiveFloat("fabric_selection.quantity", in.FabricSelection.Quantity, v)
	}
	if in.Embroidery != nil && in.Embroidery.Enabled {
		validation.Required("embroidery.type", in.Embroidery.Type, v)
	}
	if !v.Empty() {
		return nil, nil, newValidationError(v)
	}

	var customer models.User
	if err := s.db.WithContext(ctx).First(&customer, in.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("load customer %d: %w", in.CustomerID, err)
	}

	sel := models.FabricSelection{
		Source:   in.FabricSelection.Source,
		FabricID: in.FabricSelection.FabricID,
		Quantity: in.FabricSelection.Quantity,
	}
	reserved := false
	if sel.Source == models.FabricSourceShop {
		fab, err := s.fabrics.reserve(ctx, *sel.FabricID, sel.Quantity)
		if err != nil {
			return nil, nil, err
		}
		reserved = true
		sel.UnitPrice = fab.UnitPrice
		sel.Cost = fab.UnitPrice * sel.Quantity
	}

	order := models.Order{
		OrderNo:          uuid.NewString(),
		CustomerID:       customer.ID,
		ItemType:         in.ItemType,
		Measurements:     in.Measurements,
		FabricSelection:  sel,
		Urgency:          in.Urgency,
		Status:           models.OrderStatusPlaced,
		OrderDate:        time.Now(),
		ExpectedDelivery: in.ExpectedDelivery,
		Notes:            in.Notes,
		Attachments:      in.Attachments,
	}
	if in.Embroidery != nil {
		order.Embroidery = &models.Embroidery{
			Enabled:    in.Embroidery.Enabled,
			Type:       in.Embroidery.Type,
			Placements: in.Embroidery.Placements,
			Colors:     in.Embroidery.Colors,
		}
	}
	total, embCost := pricing.ComputeOrderTotal(&order)
	order.TotalAmount = total
	if order.Embroidery != nil {
		order.Embroidery.Pricing = embCost
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		if reserved {
			// Compensate the reservation; the two writes are not one
			// transaction, so undo by hand.
			if _, rerr := s.fabrics.addStock(ctx, *sel.FabricID, sel.Quantity); rerr != nil {
				logging.New("orders").Error("compensating restock failed",
					"fabric_id", *sel.FabricID, "quantity", sel.Quantity, "err", rerr)
			}
		}
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	bill, err := s.billing.GetOrCreateBill(ctx, order.ID)
	if err != nil {
		// The order is committed and the bill is get-or-create; the next
		// billing access will produce it.
		logging.New("orders").Error("eager bill creation failed", "order_no", order.OrderNo, "err", err)
		bill = nil
	}

	s.emitter.Emit(notify.NewTransitionEvent(&order, "", models.OrderStatusPlaced, actor.ID))
	return &order, bill, nil
}

// StartWork moves a placed order into cutting and records who started when.
func (s *OrderService) StartWork(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	order, actor, err := s.loadOrderAndActor(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, gate.ActionStartWork, order); err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPlaced {
		return nil, ErrInvalidTransition
	}
	now := time.Now()
	return s.applyTransition(ctx, order, models.OrderStatusPlaced, models.OrderStatusCutting, actor.ID, map[string]any{
		"status":          models.OrderStatusCutting,
		"work_started_at": &now,
	})
}

// Advance applies the single-step transition for the order's current status.
func (s *OrderService) Advance(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	order, actor, err := s.loadOrderAndActor(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, gate.ActionAdvance, order); err != nil {
		return nil, err
	}
	next, ok := models.AdvanceNext[order.Status]
	if !ok {
		return nil, ErrInvalidTransition
	}
	updates := map[string]any{"status": next}
	now := time.Now()
	if order.Status == models.OrderStatusPlaced {
		updates["work_started_at"] = &now
	}
	if next == models.OrderStatusReady {
		updates["completed_at"] = &now
	}
	return s.applyTransition(ctx, order, order.Status, next, actor.ID, updates)
}

// Cancel is the customer's exit: valid only from Placed or Cutting, and only
// for the owning customer.
func (s *OrderService) Cancel(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	order, actor, err := s.loadOrderAndActor(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if !s.gate.Can(ctx, actor, gate.ActionCancel, policy.ResourceOrder, order) {
		return nil, ErrForbidden
	}
	if !order.Status.CanCancel() {
		return nil, ErrInvalidCancellation
	}
	from := order.Status
	updated, err := s.applyTransition(ctx, order, from, models.OrderStatusCancelled, actor.ID, map[string]any{
		"status": models.OrderStatusCancelled,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, ErrInvalidCancellation
		}
		return nil, err
	}
	// Fabric reserved but not yet cut goes back on the shelf.
	if from == models.OrderStatusPlaced && updated.UsesShopFabric() {
		if _, rerr := s.fabrics.addStock(ctx, *updated.FabricSelection.FabricID, updated.FabricSelection.Quantity); rerr != nil {
			logging.New("orders").Error("restock on cancel failed",
				"order_no", updated.OrderNo, "err", rerr)
		}
	}
	return updated, nil
}

// Deliver hands a ready order to the customer.
func (s *OrderService) Deliver(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	order, actor, err := s.loadOrderAndActor(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, gate.ActionDeliver, order); err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusReady {
		return nil, ErrInvalidTransition
	}
	return s.applyTransition(ctx, order, models.OrderStatusReady, models.OrderStatusDelivered, actor.ID, map[string]any{
		"status": models.OrderStatusDelivered,
	})
}

// SetStatus is the administrative status edit. It is how an order enters
// Trial; nothing else may set that state.
func (s *OrderService) SetStatus(ctx context.Context, orderID uint, to models.OrderStatus, actorID uint) (*models.Order, error) {
	order, actor, err := s.loadOrderAndActor(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, gate.ActionSetStatus, order); err != nil {
		return nil, err
	}
	if to != models.OrderStatusTrial {
		return nil, ErrInvalidTransition
	}
	if order.Status != models.OrderStatusStitching && order.Status != models.OrderStatusReady {
		return nil, ErrInvalidTransition
	}
	return s.applyTransition(ctx, order, order.Status, to, actor.ID, map[string]any{"status": to})
}

// AssignTailor sets the order's tailor. It does not touch status and emits
// no transition event.
func (s *OrderService) AssignTailor(ctx context.Context, orderID, tailorID, actorID uint) (*models.Order, error) {
	order, actor, err := s.loadOrderAndActor(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, gate.ActionAssignTailor, order); err != nil {
		return nil, err
	}
	var tailor models.User
	if err := s.db.WithContext(ctx).First(&tailor, tailorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load tailor %d: %w", tailorID, err)
	}
	if tailor.Role != models.RoleTailor {
		return nil, newValidationError(validation.Violations{"tailor_id": "not_a_tailor"})
	}
	if err := s.db.WithContext(ctx).Model(order).Update("assigned_tailor_id", tailor.ID).Error; err != nil {
		return nil, fmt.Errorf("assign tailor: %w", err)
	}
	return s.Get(ctx, orderID)
}

// RecomputePricing re-runs the pricing engine over the stored selections and
// persists the result. Pricing is deterministic, so this is idempotent.
func (s *OrderService) RecomputePricing(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	order, actor, err := s.loadOrderAndActor(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, gate.ActionRecompute, order); err != nil {
		return nil, err
	}
	return s.recompute(ctx, order)
}

// RecomputeAllMissing backfills totals for every order stored with a zero
// total. Maintenance path: runs from the cmd flag, not from a read.
func (s *OrderService) RecomputeAllMissing(ctx context.Context) (int, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Where("total_amount <= 0").Find(&orders).Error; err != nil {
		return 0, fmt.Errorf("list orders with missing totals: %w", err)
	}
	n := 0
	for i := range orders {
		if _, err := s.recompute(ctx, &orders[i]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *OrderService) recompute(ctx context.Context, order *models.Order) (*models.Order, error) {
	total, embCost := pricing.ComputeOrderTotal(order)
	patch := models.Order{TotalAmount: total}
	cols := []string{"total_amount"}
	if order.Embroidery != nil {
		emb := *order.Embroidery
		emb.Pricing = embCost
		patch.Embroidery = &emb
		cols = append(cols, "embroidery")
	}
	if err := s.db.WithContext(ctx).Model(order).Select(cols).Updates(patch).Error; err != nil {
		return nil, fmt.Errorf("recompute pricing for order %d: %w", order.ID, err)
	}
	return s.Get(ctx, order.ID)
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return &order, nil
}

// List returns orders, newest first, optionally filtered by status.
// Customers only ever see their own orders.
func (s *OrderService) List(ctx context.Context, actorID uint, status models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.authorize(ctx, actor, gate.ActionList, nil); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if actor.Role == models.RoleCustomer {
		q = q.Where("customer_id = ?", actor.ID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	var orders []models.Order
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// applyTransition performs the compare-and-set write: the UPDATE only
// matches while the stored status still equals from. A concurrent transition
// that got there first leaves RowsAffected at zero.
func (s *OrderService) applyTransition(ctx context.Context, order *models.Order, from, to models.OrderStatus, actorID uint, updates map[string]any) (*models.Order, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("transition order %d %s -> %s: %w", order.ID, from, to, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	updated, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(notify.NewTransitionEvent(updated, from, to, actorID))
	return updated, nil
}

func (s *OrderService) loadOrderAndActor(ctx context.Context, orderID, actorID uint) (*models.Order, *models.User, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, nil, err
	}
	return order, actor, nil
}

// loadActor resolves the acting user for any service. An unknown actor cannot
// be authorized, so it reads as Forbidden rather than NotFound.
func loadActor(ctx context.Context, db *gorm.DB, actorID uint) (*models.User, error) {
	var actor models.User
	if err := db.WithContext(ctx).First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load actor %d: %w", actorID, err)
	}
	return &actor, nil
}

func (s *OrderService) authorize(ctx context.Context, actor *models.User, action gate.Action, order *models.Order) error {
	var resource any
	if order != nil {
		resource = order
	}
	if err := s.gate.Authorize(ctx, actor, action, policy.ResourceOrder, resource); err != nil {
		return ErrForbidden
	}
	return nil
}
