package models

import "time"

// OrderStatus represents all possible states of a campus order
type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReady          OrderStatus = "READY"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
	StatusOutForDelivery, StatusDelivered, StatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	UserID          uint                 `json:"user_id" gorm:"index;not null"`
	User            *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	VendorID        uint                 `json:"vendor_id" gorm:"index;not null"`
	Vendor          *Vendor              `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Status          OrderStatus          `json:"status" gorm:"index;not null;default:'PENDING'"`
	Subtotal        float64              `json:"subtotal"`
	DeliveryFee     float64              `json:"delivery_fee"`
	Total           float64              `json:"total"`
	DeliveryAddress string               `json:"delivery_address" gorm:"not null"`
	Notes           string               `json:"notes"`
	Items           []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Delivery        *Delivery            `json:"delivery,omitempty" gorm:"foreignKey:OrderID"`
	Payment         *Payment             `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// OrderItem is the order/meal join row. Price and name are snapshots taken
// when the order was placed.
type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"order_id" gorm:"index;not null"`
	MealID    uint    `json:"meal_id" gorm:"not null"`
	Meal      *Meal   `json:"meal,omitempty" gorm:"foreignKey:MealID"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	UnitPrice float64 `json:"unit_price" gorm:"not null"`
	Name      string  `json:"name"`
}

func (OrderItem) TableName() string { return "order_meals" }

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"index;not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Role       UserRole    `json:"role"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
