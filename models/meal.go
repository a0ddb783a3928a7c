package models

import "time"

type Meal struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	VendorID    uint      `json:"vendor_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Price       float64   `json:"price" gorm:"not null"`
	Category    string    `json:"category"`
	IsAvailable bool      `json:"is_available" gorm:"default:true"`
	IsVeg       bool      `json:"is_veg" gorm:"default:false"`
	PrepMinutes int       `json:"prep_minutes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
