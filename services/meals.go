package services

import (
	"context"
	"strings"

	"campus-eats-api/apperr"
	"campus-eats-api/cache"
	"campus-eats-api/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MealService struct {
	db      *gorm.DB
	cache   cache.Cache
	vendors *VendorService
	log     *logrus.Logger
}

type MealInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	IsVeg       bool
	PrepMinutes int
}

type MealUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	IsVeg       *bool
	IsAvailable *bool
	PrepMinutes *int
}

type MealFilter struct {
	VendorID      uint
	Category      string
	Search        string
	VegOnly       bool
	AvailableOnly bool
}

// Create adds a meal to the menu of the vendor owned by ownerID.
func (s *MealService) Create(ctx context.Context, ownerID uint, in MealInput) (*models.Meal, error) {
	vendor, err := s.vendors.ForOwner(ctx, ownerID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("create a vendor before adding meals")
		}
		return nil, err
	}
	if in.Price <= 0 {
		return nil, apperr.BadRequest("price must be greater than zero")
	}
	meal := &models.Meal{
		VendorID:    vendor.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       models.RoundCents(in.Price),
		Category:    in.Category,
		IsVeg:       in.IsVeg,
		IsAvailable: true,
		PrepMinutes: in.PrepMinutes,
	}
	if err := s.db.WithContext(ctx).Create(meal).Error; err != nil {
		return nil, apperr.Internal(err, "failed to add meal")
	}
	return meal, nil
}

// Get returns a meal, served from cache when possible.
func (s *MealService) Get(ctx context.Context, id uint) (*models.Meal, error) {
	var meal models.Meal
	if ok, err := cache.GetValue(ctx, s.cache, cache.MealKey(id), &meal); err == nil && ok {
		return &meal, nil
	} else if err != nil {
		s.log.WithError(err).Warn("meal cache read failed")
	}

	if err := s.db.WithContext(ctx).First(&meal, id).Error; err != nil {
		return nil, apperr.FromDB(err, "meal not found")
	}
	if err := cache.SetValue(ctx, s.cache, cache.MealKey(id), meal); err != nil {
		s.log.WithError(err).Warn("meal cache write failed")
	}
	return &meal, nil
}

func (s *MealService) List(ctx context.Context, f MealFilter) ([]models.Meal, error) {
	query := s.db.WithContext(ctx).Order("vendor_id, name")
	if f.VendorID != 0 {
		query = query.Where("vendor_id = ?", f.VendorID)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.VegOnly {
		query = query.Where("is_veg = ?", true)
	}
	if f.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	var meals []models.Meal
	if err := query.Find(&meals).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return meals, nil
}

func (s *MealService) Update(ctx context.Context, actor Actor, id uint, in MealUpdate) (*models.Meal, error) {
	meal, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.BadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, apperr.BadRequest("price must be greater than zero")
		}
		updates["price"] = models.RoundCents(*in.Price)
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.IsVeg != nil {
		updates["is_veg"] = *in.IsVeg
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if in.PrepMinutes != nil {
		updates["prep_minutes"] = *in.PrepMinutes
	}
	db := s.db.WithContext(ctx)
	if len(updates) > 0 {
		if err := db.Model(meal).Updates(updates).Error; err != nil {
			return nil, apperr.FromDB(err, "")
		}
		invalidate(ctx, s.cache, s.log, cache.MealKey(id))
	}
	var fresh models.Meal
	if err := db.First(&fresh, id).Error; err != nil {
		return nil, apperr.FromDB(err, "meal not found")
	}
	return &fresh, nil
}

func (s *MealService) Delete(ctx context.Context, actor Actor, id uint) error {
	meal, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	var ordered int64
	if err := db.Model(&models.OrderItem{}).Where("meal_id = ?", id).Count(&ordered).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	if ordered > 0 {
		return apperr.Conflict("meal appears in existing orders, mark it unavailable instead")
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(meal).Error
	})
	if err != nil {
		return apperr.FromDB(err, "")
	}
	invalidate(ctx, s.cache, s.log, cache.MealKey(id))
	return nil
}

func (s *MealService) loadOwned(ctx context.Context, actor Actor, id uint) (*models.Meal, error) {
	var meal models.Meal
	if err := s.db.WithContext(ctx).First(&meal, id).Error; err != nil {
		return nil, apperr.FromDB(err, "meal not found")
	}
	if _, err := s.vendors.authorizeOwner(ctx, actor, meal.VendorID); err != nil {
		if apperr.Is(err, apperr.KindForbidden) {
			return nil, apperr.Forbidden("you do not own this meal")
		}
		return nil, err
	}
	return &meal, nil
}
