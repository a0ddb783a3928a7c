package services

import (
	"context"
	"errors"

	"campus-eats-api/apperr"
	"campus-eats-api/models"

	"gorm.io/gorm"
)

type CartService struct {
	db     *gorm.DB
	meals  *MealService
	orders *OrderService
}

// cartError maps cart bookkeeping errors to application errors.
func cartError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrInvalidQuantity):
		return apperr.BadRequest("%s", err.Error())
	case errors.Is(err, models.ErrVendorMismatch):
		return apperr.Conflict("%s", err.Error())
	case errors.Is(err, models.ErrCartItemMissing):
		return apperr.NotFound("%s", err.Error())
	}
	return err
}

func (s *CartService) load(ctx context.Context, userID uint) (*models.Cart, error) {
	db := s.db.WithContext(ctx)
	var cart models.Cart
	if err := db.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	if err := db.Where("cart_id = ?", cart.ID).Order("id").Find(&cart.Items).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return &cart, nil
}

// save replaces the stored lines with the in-memory ones.
func (s *CartService) save(ctx context.Context, cart *models.Cart) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Update("vendor_id", cart.VendorID).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.ID
		}
		return tx.Create(&cart.Items).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to save cart")
	}
	return nil
}

func (s *CartService) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	return s.load(ctx, userID)
}

// AddItem puts qty of a meal in the student's cart.
func (s *CartService) AddItem(ctx context.Context, userID, mealID uint, qty int) (*models.Cart, error) {
	meal, err := s.meals.Get(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if !meal.IsAvailable {
		return nil, apperr.BadRequest("%s is not available", meal.Name)
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.AddItem(*meal, qty); err != nil {
		return nil, cartError(err)
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetQuantity changes a line; zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID, mealID uint, qty int) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.SetQuantity(mealID, qty); err != nil {
		return nil, cartError(err)
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, mealID uint) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveItem(mealID); err != nil {
		return nil, cartError(err)
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Checkout places an order from the cart and empties it. The cart is left
// untouched when the order is rejected.
func (s *CartService) Checkout(ctx context.Context, userID uint, address, notes string) (*models.Order, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 || cart.VendorID == nil {
		return nil, apperr.BadRequest("cart is empty")
	}
	items := make([]OrderItemInput, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, OrderItemInput{MealID: item.MealID, Quantity: item.Quantity})
	}
	order, err := s.orders.Create(ctx, userID, CreateOrderInput{
		VendorID:        *cart.VendorID,
		Items:           items,
		DeliveryAddress: address,
		Notes:           notes,
	})
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return order, nil
}
