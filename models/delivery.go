package models

import "time"

type DeliveryStatus string

const (
	DeliveryUnassigned DeliveryStatus = "UNASSIGNED"
	DeliveryAssigned   DeliveryStatus = "ASSIGNED"
	DeliveryPickedUp   DeliveryStatus = "PICKED_UP"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
	DeliveryCancelled  DeliveryStatus = "CANCELLED"
)

type Delivery struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OrderID     uint           `json:"order_id" gorm:"uniqueIndex;not null"`
	Order       *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	RiderID     *uint          `json:"rider_id" gorm:"index"`
	Rider       *User          `json:"rider,omitempty" gorm:"foreignKey:RiderID"`
	Status      DeliveryStatus `json:"status" gorm:"not null;default:'UNASSIGNED'"`
	Address     string         `json:"address"`
	AssignedAt  *time.Time     `json:"assigned_at"`
	PickedUpAt  *time.Time     `json:"picked_up_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
