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

type VendorService struct {
	db    *gorm.DB
	cache cache.Cache
	log   *logrus.Logger
}

type VendorInput struct {
	Name        string
	Location    string
	Description string
}

type VendorUpdate struct {
	Name        *string
	Location    *string
	Description *string
	IsOpen      *bool
}

type VendorFilter struct {
	Search   string
	OpenOnly bool
}

// Create registers the vendor owned by ownerID. An owner runs one vendor.
func (s *VendorService) Create(ctx context.Context, ownerID uint, in VendorInput) (*models.Vendor, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Vendor{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	if count > 0 {
		return nil, apperr.Conflict("you already have a vendor")
	}
	vendor := &models.Vendor{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(in.Name),
		Location:    in.Location,
		Description: in.Description,
		IsOpen:      true,
	}
	if err := db.Create(vendor).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create vendor")
	}
	s.log.WithFields(logrus.Fields{"vendor_id": vendor.ID, "owner_id": ownerID}).Info("vendor created")
	return vendor, nil
}

// Get returns a vendor without relations, served from cache when possible.
func (s *VendorService) Get(ctx context.Context, id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if ok, err := cache.GetValue(ctx, s.cache, cache.VendorKey(id), &vendor); err == nil && ok {
		return &vendor, nil
	} else if err != nil {
		s.log.WithError(err).Warn("vendor cache read failed")
	}

	if err := s.db.WithContext(ctx).First(&vendor, id).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor not found")
	}
	if err := cache.SetValue(ctx, s.cache, cache.VendorKey(id), vendor); err != nil {
		s.log.WithError(err).Warn("vendor cache write failed")
	}
	return &vendor, nil
}

// GetWithMeals loads the vendor and its available meals.
func (s *VendorService) GetWithMeals(ctx context.Context, id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	err := s.db.WithContext(ctx).
		Preload("Meals", "is_available = ?", true).
		First(&vendor, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "vendor not found")
	}
	return &vendor, nil
}

func (s *VendorService) List(ctx context.Context, f VendorFilter) ([]models.Vendor, error) {
	query := s.db.WithContext(ctx).Order("name")
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ?", like, like)
	}
	if f.OpenOnly {
		query = query.Where("is_open = ?", true)
	}
	var vendors []models.Vendor
	if err := query.Find(&vendors).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return vendors, nil
}

// ForOwner returns the vendor run by ownerID.
func (s *VendorService) ForOwner(ctx context.Context, ownerID uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&vendor).Error; err != nil {
		return nil, apperr.FromDB(err, "no vendor found for your account")
	}
	return &vendor, nil
}

// Update changes vendor details. Only the owner or an admin may do so.
func (s *VendorService) Update(ctx context.Context, actor Actor, id uint, in VendorUpdate) (*models.Vendor, error) {
	var vendor models.Vendor
	db := s.db.WithContext(ctx)
	if err := db.First(&vendor, id).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor not found")
	}
	if vendor.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("you do not own this vendor")
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.BadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.IsOpen != nil {
		updates["is_open"] = *in.IsOpen
	}
	if len(updates) > 0 {
		if err := db.Model(&vendor).Updates(updates).Error; err != nil {
			return nil, apperr.FromDB(err, "")
		}
		invalidate(ctx, s.cache, s.log, cache.VendorKey(id))
	}
	if err := db.First(&vendor, id).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor not found")
	}
	return &vendor, nil
}

// authorizeOwner loads the vendor and checks that actor may manage it.
func (s *VendorService) authorizeOwner(ctx context.Context, actor Actor, vendorID uint) (*models.Vendor, error) {
	vendor, err := s.Get(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("you do not own this vendor")
	}
	return vendor, nil
}
