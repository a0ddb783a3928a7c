package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodWallet PaymentMethod = "wallet"
	MethodCash   PaymentMethod = "cash"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodWallet || m == MethodCash
}

type Payment struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	OrderID    uint          `json:"order_id" gorm:"uniqueIndex;not null"`
	Amount     float64       `json:"amount" gorm:"not null"`
	Method     PaymentMethod `json:"method"`
	Status     PaymentStatus `json:"status" gorm:"not null;default:'PENDING'"`
	Reference  string        `json:"reference"`
	PaidAt     *time.Time    `json:"paid_at"`
	RefundedAt *time.Time    `json:"refunded_at"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
