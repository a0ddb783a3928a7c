package models

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrVendorMismatch  = errors.New("cart already holds meals from another vendor")
	ErrCartItemMissing = errors.New("meal is not in the cart")
)

// Cart holds one student's pending selection. All lines belong to a single
// vendor; an empty cart has no vendor.
type Cart struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	VendorID  *uint      `json:"vendor_id"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	CartID    uint    `json:"cart_id" gorm:"index;not null"`
	MealID    uint    `json:"meal_id" gorm:"not null"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// LineTotal is UnitPrice x Quantity rounded to cents.
func (i CartItem) LineTotal() float64 {
	return RoundCents(i.UnitPrice * float64(i.Quantity))
}

// AddItem adds qty of meal, merging with an existing line for the same meal.
func (c *Cart) AddItem(meal Meal, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if len(c.Items) > 0 && c.VendorID != nil && *c.VendorID != meal.VendorID {
		return ErrVendorMismatch
	}
	vendorID := meal.VendorID
	c.VendorID = &vendorID

	if i := c.indexOf(meal.ID); i >= 0 {
		c.Items[i].Quantity += qty
		c.Items[i].UnitPrice = meal.Price
		c.Items[i].Name = meal.Name
		return nil
	}
	c.Items = append(c.Items, CartItem{
		CartID:    c.ID,
		MealID:    meal.ID,
		Name:      meal.Name,
		UnitPrice: meal.Price,
		Quantity:  qty,
	})
	return nil
}

// SetQuantity replaces the quantity of a line. Zero removes the line.
func (c *Cart) SetQuantity(mealID uint, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	i := c.indexOf(mealID)
	if i < 0 {
		return ErrCartItemMissing
	}
	if qty == 0 {
		c.removeAt(i)
		return nil
	}
	c.Items[i].Quantity = qty
	return nil
}

func (c *Cart) RemoveItem(mealID uint) error {
	i := c.indexOf(mealID)
	if i < 0 {
		return ErrCartItemMissing
	}
	c.removeAt(i)
	return nil
}

func (c *Cart) Clear() {
	c.Items = nil
	c.VendorID = nil
}

// Subtotal sums every line total.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return RoundCents(total)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) indexOf(mealID uint) int {
	for i, item := range c.Items {
		if item.MealID == mealID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	if len(c.Items) == 0 {
		c.VendorID = nil
	}
}

// RoundCents rounds an amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
