package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

// Tailoring-stage vocabulary. Placed is the initial state; Delivered and
// Cancelled are terminal. Trial is a side-state entered only through an
// administrative status edit, with Trial -> Ready as its single exit.
const (
	OrderStatusPlaced    OrderStatus = "Placed"
	OrderStatusCutting   OrderStatus = "Cutting"
	OrderStatusStitching OrderStatus = "Stitching"
	OrderStatusTrial     OrderStatus = "Trial"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// AdvanceNext is the single-step transition table consulted by
// OrderService.Advance. Statuses absent from the table cannot advance.
var AdvanceNext = map[OrderStatus]OrderStatus{
	OrderStatusPlaced:    OrderStatusCutting,
	OrderStatusStitching: OrderStatusReady,
	OrderStatusCutting:   OrderStatusStitching,
	OrderStatusTrial:     OrderStatusReady,
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanCancel reports whether an order in this status may still be cancelled by
// its customer. Once cutting is done the fabric is spent.
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPlaced || s == OrderStatusCutting
}

// Fabric sources for an order.
const (
	FabricSourceShop     = "shop"
	FabricSourceCustomer = "customer"
	FabricSourceNone     = "none"
)

// Urgency flags.
const (
	UrgencyNormal = "normal"
	UrgencyUrgent = "urgent"
)

// FabricSelection records what fabric an order consumes. When Source is
// "shop", FabricID references a Fabric row and Cost = UnitPrice * Quantity at
// reservation time; otherwise the cost fields stay zero.
type FabricSelection struct {
	Source    string  `json:"source"`
	FabricID  *uint   `json:"fabric_id,omitempty"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Cost      float64 `json:"cost"`
}

// Embroidery customization. Pricing is the computed embroidery charge, kept
// alongside the selections so the stored total stays reproducible.
type Embroidery struct {
	Enabled    bool     `json:"enabled"`
	Type       string   `json:"type"`
	Placements []string `json:"placements"`
	Colors     []string `json:"colors"`
	Pricing    float64  `json:"pricing"`
}

type Order struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	OrderNo          string            `gorm:"size:50;uniqueIndex;not null" json:"order_no"`
	CustomerID       uint              `gorm:"not null;index" json:"customer_id"`
	Customer         *User             `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ItemType         string            `gorm:"size:50;not null" json:"item_type"`
	Measurements     map[string]string `gorm:"serializer:json" json:"measurements"`
	FabricSelection  FabricSelection   `gorm:"serializer:json" json:"fabric_selection"`
	Embroidery       *Embroidery       `gorm:"serializer:json" json:"embroidery,omitempty"`
	Urgency          string            `gorm:"size:10;not null;default:'normal'" json:"urgency"`
	TotalAmount      float64           `gorm:"not null;default:0" json:"total_amount"`
	Status           OrderStatus       `gorm:"size:20;not null;index" json:"status"`
	AssignedTailorID *uint             `gorm:"index" json:"assigned_tailor_id,omitempty"`
	OrderDate        time.Time         `json:"order_date"`
	ExpectedDelivery *time.Time        `json:"expected_delivery,omitempty"`
	WorkStartedAt    *time.Time        `json:"work_started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	Notes            string            `gorm:"type:text" json:"notes"`
	Attachments      []string          `gorm:"serializer:json" json:"attachments"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `gorm:"index" json:"-"`
}

// GetUserID makes Order satisfy the gate's Ownable interface: the owning
// customer is the order's owner.
func (o *Order) GetUserID() uint { return o.CustomerID }

// AssignedTo reports whether the order is assigned to the given tailor.
func (o *Order) AssignedTo(tailorID uint) bool {
	return o.AssignedTailorID != nil && *o.AssignedTailorID == tailorID
}

func (o *Order) UsesShopFabric() bool {
	return o.FabricSelection.Source == FabricSourceShop && o.FabricSelection.FabricID != nil
}
