package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/tailor-app/internal/gate"
	"github.com/diewo77/tailor-app/internal/models"
	"github.com/diewo77/tailor-app/internal/policy"
	"github.com/diewo77/tailor-app/internal/validation"
)

// FabricService owns all stock movement. Stock is only ever changed through
// the conditional updates below; nothing else in the codebase writes the
// stock column.
type FabricService struct {
	db   *gorm.DB
	gate *gate.Gate[*models.User]
}

func NewFabricService(db *gorm.DB, g *gate.Gate[*models.User]) *FabricService {
	return &FabricService{db: db, gate: g}
}

// reserve decrements stock by quantity if and only if enough is available,
// as a single conditional UPDATE. Two concurrent reservations for the last
// unit resolve at the storage layer: exactly one matches the WHERE clause.
// Reservation is not gated here: it only runs inside order placement, which
// authorizes the actor itself.
func (s *FabricService) reserve(ctx context.Context, fabricID uint, quantity float64) (*models.Fabric, error) {
	v := validation.Violations{}
	validation.PositiveFloat("quantity", quantity, v)
	if !v.Empty() {
		return nil, newValidationError(v)
	}
	res := s.db.WithContext(ctx).Model(&models.Fabric{}).
		Where("id = ? AND stock >= ?", fabricID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return nil, fmt.Errorf("reserve fabric %d: %w", fabricID, res.Error)
	}
	if res.RowsAffected == 0 {
		// No row matched: either the fabric is gone or the stock is short.
		var fab models.Fabric
		if err := s.db.WithContext(ctx).First(&fab, fabricID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("load fabric %d: %w", fabricID, err)
		}
		return nil, ErrInsufficientStock
	}
	var fab models.Fabric
	if err := s.db.WithContext(ctx).First(&fab, fabricID).Error; err != nil {
		return nil, fmt.Errorf("load fabric %d after reserve: %w", fabricID, err)
	}
	return &fab, nil
}

// Restock is the administrative increment, staff-only. Stock returned by a
// cancelled or failed order goes through addStock directly: that movement
// belongs to an operation that was already authorized.
func (s *FabricService) Restock(ctx context.Context, actorID, fabricID uint, quantity float64) (*models.Fabric, error) {
	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionRestock, policy.ResourceFabric, nil); err != nil {
		return nil, ErrForbidden
	}
	v := validation.Violations{}
	validation.PositiveFloat("quantity", quantity, v)
	if !v.Empty() {
		return nil, newValidationError(v)
	}
	return s.addStock(ctx, fabricID, quantity)
}

// addStock is the raw conditional increment shared by Restock and the order
// compensation paths. Same conditional-update discipline as reserve so
// concurrent increments never lose updates.
func (s *FabricService) addStock(ctx context.Context, fabricID uint, quantity float64) (*models.Fabric, error) {
	res := s.db.WithContext(ctx).Model(&models.Fabric{}).
		Where("id = ?", fabricID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return nil, fmt.Errorf("restock fabric %d: %w", fabricID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var fab models.Fabric
	if err := s.db.WithContext(ctx).First(&fab, fabricID).Error; err != nil {
		return nil, fmt.Errorf("load fabric %d after restock: %w", fabricID, err)
	}
	return &fab, nil
}

// Get returns one fabric.
func (s *FabricService) Get(ctx context.Context, fabricID uint) (*models.Fabric, error) {
	var fab models.Fabric
	if err := s.db.WithContext(ctx).First(&fab, fabricID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load fabric %d: %w", fabricID, err)
	}
	return &fab, nil
}

// List returns fabrics ordered by name.
func (s *FabricService) List(ctx context.Context, limit, offset int) ([]models.Fabric, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Fabric{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count fabrics: %w", err)
	}
	var fabrics []models.Fabric
	if err := s.db.WithContext(ctx).Order("name").Limit(limit).Offset(offset).Find(&fabrics).Error; err != nil {
		return nil, 0, fmt.Errorf("list fabrics: %w", err)
	}
	return fabrics, total, nil
}

// Create adds a new fabric to the catalogue, staff-only.
func (s *FabricService) Create(ctx context.Context, actorID uint, name string, stock, unitPrice float64) (*models.Fabric, error) {
	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionCreate, policy.ResourceFabric, nil); err != nil {
		return nil, ErrForbidden
	}
	v := validation.Violations{}
	validation.Required("name", name, v)
	validation.PositiveFloat("unit_price", unitPrice, v)
	if stock < 0 {
		v["stock"] = "must_not_be_negative"
	}
	if !v.Empty() {
		return nil, newValidationError(v)
	}
	fab := models.Fabric{Name: name, Stock: stock, UnitPrice: unitPrice}
	if err := s.db.WithContext(ctx).Create(&fab).Error; err != nil {
		return nil, fmt.Errorf("create fabric: %w", err)
	}
	return &fab, nil
}
