package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleVendor  UserRole = "vendor"
	RoleRider   UserRole = "rider"
	RoleAdmin   UserRole = "admin"
)

// Roles lists every valid role.
var Roles = []UserRole{RoleStudent, RoleVendor, RoleRider, RoleAdmin}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null"`
	Email         string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string         `json:"-" gorm:"not null"`
	Role          UserRole       `json:"role" gorm:"not null;default:'student'"`
	Phone         string         `json:"phone"`
	CampusAddress string         `json:"campus_address"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
