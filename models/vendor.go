package models

import "time"

// Vendor is a campus food outlet owned by a vendor-role user.
type Vendor struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerID     uint      `json:"owner_id" gorm:"uniqueIndex;not null"`
	Owner       *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name        string    `json:"name" gorm:"not null"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	IsOpen      bool      `json:"is_open" gorm:"default:true"`
	Rating      float64   `json:"rating" gorm:"default:0"`
	Meals       []Meal    `json:"meals,omitempty" gorm:"foreignKey:VendorID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
