package models

import "time"

type SubscriptionPlan string

const (
	PlanWeekly  SubscriptionPlan = "weekly"
	PlanMonthly SubscriptionPlan = "monthly"
)

// Period is the length of one billing cycle; zero for unknown plans.
func (p SubscriptionPlan) Period() time.Duration {
	switch p {
	case PlanWeekly:
		return 7 * 24 * time.Hour
	case PlanMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Price of one cycle.
func (p SubscriptionPlan) Price() float64 {
	switch p {
	case PlanWeekly:
		return 4.99
	case PlanMonthly:
		return 14.99
	}
	return 0
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// Subscription is a delivery pass with one vendor: while ACTIVE the
// student's orders from that vendor carry no delivery fee.
type Subscription struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	UserID      uint               `json:"user_id" gorm:"index;not null"`
	VendorID    uint               `json:"vendor_id" gorm:"index;not null"`
	Vendor      *Vendor            `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Plan        SubscriptionPlan   `json:"plan" gorm:"not null"`
	Status      SubscriptionStatus `json:"status" gorm:"index;not null;default:'ACTIVE'"`
	Price       float64            `json:"price"`
	AutoRenew   bool               `json:"auto_renew"`
	StartsAt    time.Time          `json:"starts_at"`
	EndsAt      time.Time          `json:"ends_at" gorm:"index"`
	CancelledAt *time.Time         `json:"cancelled_at"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
