package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/tailor-app/internal/gate"
	"github.com/diewo77/tailor-app/internal/models"
	"github.com/diewo77/tailor-app/internal/policy"
	"github.com/diewo77/tailor-app/internal/pricing"
	"github.com/diewo77/tailor-app/internal/validation"
)

// BillingService keeps the append-only payment ledger and the derived bill
// status for each order.
type BillingService struct {
	db   *gorm.DB
	gate *gate.Gate[*models.User]
}

func NewBillingService(db *gorm.DB, g *gate.Gate[*models.User]) *BillingService {
	return &BillingService{db: db, gate: g}
}

// GetOrCreateBill returns the bill for an order, creating it on first
// access. The unique index on order_id plus the on-conflict insert make
// concurrent first-accesses converge on a single row.
func (s *BillingService) GetOrCreateBill(ctx context.Context, orderID uint) (*models.Bill, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	amount := order.TotalAmount
	if amount <= 0 {
		// Historical orders can carry a zero total; price the bill from the
		// stored selections instead of trusting the stale field.
		amount, _ = pricing.ComputeOrderTotal(&order)
	}
	bill := models.Bill{
		BillNo:  uuid.NewString(),
		OrderID: order.ID,
		Amount:  amount,
		Status:  models.BillStatusUnpaid,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
		Create(&bill)
	if res.Error != nil {
		return nil, fmt.Errorf("create bill for order %d: %w", orderID, res.Error)
	}
	return s.byOrderID(ctx, order.ID)
}

// GetBill returns a bill with its payment ledger.
func (s *BillingService) GetBill(ctx context.Context, billID uint) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.WithContext(ctx).Preload("Payments").Preload("Order").First(&bill, billID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load bill %d: %w", billID, err)
	}
	return &bill, nil
}

// RecordPayment appends one ledger entry and recomputes the derived columns
// in the same transaction. The amount_paid increment and the status CASE run
// in a single UPDATE, so no reader ever sees the two disagree. Payments are
// taken at the counter, so the actor must be staff.
func (s *BillingService) RecordPayment(ctx context.Context, actorID, billID uint, amount float64, method, reference string) (*models.Bill, error) {
	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionRecordPayment, policy.ResourceBill, nil); err != nil {
		return nil, ErrForbidden
	}
	v := validation.Violations{}
	validation.PositiveFloat("amount", amount, v)
	if !models.ValidPaymentMethod(method) {
		v["method"] = "invalid_value"
	}
	if !v.Empty() {
		return nil, newValidationError(v)
	}

	var orderID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.First(&bill, billID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load bill %d: %w", billID, err)
		}
		orderID = bill.OrderID
		payment := models.Payment{
			BillID:    bill.ID,
			Amount:    amount,
			Method:    method,
			Reference: reference,
			PaidAt:    time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("append payment: %w", err)
		}
		res := tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(map[string]any{
			"amount_paid": gorm.Expr("amount_paid + ?", amount),
			"status": gorm.Expr(
				"CASE WHEN amount_paid + ? >= amount THEN ? WHEN amount_paid + ? <= 0 THEN ? ELSE ? END",
				amount, string(models.BillStatusPaid),
				amount, string(models.BillStatusUnpaid),
				string(models.BillStatusPartial),
			),
		})
		if res.Error != nil {
			return fmt.Errorf("update bill %d: %w", bill.ID, res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.byOrderID(ctx, orderID)
}

func (s *BillingService) byOrderID(ctx context.Context, orderID uint) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.WithContext(ctx).Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("payments.id")
	}).Where("order_id = ?", orderID).First(&bill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load bill for order %d: %w", orderID, err)
	}
	return &bill, nil
}
