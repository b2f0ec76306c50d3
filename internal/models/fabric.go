package models

import (
	"time"

	"gorm.io/gorm"
)

// Fabric is a shop-owned inventory item. Stock is never written directly by
// order logic: it only moves through FabricService's conditional updates,
// a guarded decrement on reservation and a plain increment on restock.
type Fabric struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Stock     float64        `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	UnitPrice float64        `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
