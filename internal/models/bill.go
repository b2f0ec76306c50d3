package models

import (
	"time"
)

type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "Unpaid"
	BillStatusPartial BillStatus = "Partial"
	BillStatusPaid    BillStatus = "Paid"
)

// Payment methods accepted at the counter.
const (
	PaymentMethodCash = "Cash"
	PaymentMethodCard = "Card"
	PaymentMethodUPI  = "UPI"
)

func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodCash || m == PaymentMethodCard || m == PaymentMethodUPI
}

// Bill is the billing ledger head for exactly one order (order_id is unique).
// AmountPaid and Status are derived from the payment list and are only ever
// written together with a payment append, inside one transaction.
type Bill struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BillNo     string     `gorm:"size:50;uniqueIndex;not null" json:"bill_no"`
	OrderID    uint       `gorm:"uniqueIndex;not null" json:"order_id"`
	Order      *Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Amount     float64    `gorm:"not null" json:"amount"`
	AmountPaid float64    `gorm:"not null;default:0" json:"amount_paid"`
	Status     BillStatus `gorm:"size:20;not null;default:'Unpaid'" json:"status"`
	Payments   []Payment  `gorm:"foreignKey:BillID" json:"payments"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Payment is one append-only ledger entry. Rows are never updated or deleted;
// refunds (out of scope here) would be modelled as separate entries.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BillID    uint      `gorm:"not null;index" json:"bill_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Method    string    `gorm:"size:10;not null" json:"method"`
	Reference string    `gorm:"size:100" json:"reference,omitempty"`
	PaidAt    time.Time `gorm:"not null" json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
}

// DeriveBillStatus is the single definition of paid/unpaid. Status is never
// stored independently of this function's output.
func DeriveBillStatus(amount, amountPaid float64) BillStatus {
	switch {
	case amountPaid <= 0:
		return BillStatusUnpaid
	case amountPaid >= amount:
		return BillStatusPaid
	default:
		return BillStatusPartial
	}
}
