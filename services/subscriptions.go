package services

import (
	"context"
	"errors"
	"time"

	"campus-eats-api/apperr"
	"campus-eats-api/metrics"
	"campus-eats-api/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errActiveSubscription = apperr.Conflict("you already have an active subscription with this vendor")

type SubscriptionService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	log     *logrus.Logger
	now     func() time.Time
}

type SubscribeInput struct {
	VendorID  uint
	Plan      models.SubscriptionPlan
	AutoRenew bool
}

// Subscribe starts a delivery pass with a vendor. A student holds at most one
// active pass per vendor.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID uint, in SubscribeInput) (*models.Subscription, error) {
	period := in.Plan.Period()
	if period == 0 {
		return nil, apperr.BadRequest("unknown plan %q, must be weekly or monthly", in.Plan)
	}
	db := s.db.WithContext(ctx)
	var vendor models.Vendor
	if err := db.First(&vendor, in.VendorID).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor not found")
	}
	now := s.now()
	sub := &models.Subscription{
		UserID:    userID,
		VendorID:  in.VendorID,
		Plan:      in.Plan,
		Status:    models.SubscriptionActive,
		Price:     in.Plan.Price(),
		AutoRenew: in.AutoRenew,
		StartsAt:  now,
		EndsAt:    now.Add(period),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.Subscription
		err := tx.Where("user_id = ? AND vendor_id = ? AND status = ?", userID, in.VendorID, models.SubscriptionActive).
			First(&current).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		case current.EndsAt.After(now) || current.AutoRenew:
			// a lapsed auto-renew pass is renewed by the next sweep
			return errActiveSubscription
		default:
			if err := tx.Model(&models.Subscription{}).Where("id = ?", current.ID).
				Update("status", models.SubscriptionExpired).Error; err != nil {
				return err
			}
		}
		return tx.Create(sub).Error
	})
	if errors.Is(err, errActiveSubscription) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errActiveSubscription
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to create subscription")
	}
	sub.Vendor = &vendor
	s.log.WithFields(logrus.Fields{"subscription_id": sub.ID, "user_id": userID, "plan": in.Plan}).Info("subscription started")
	return sub, nil
}

// HasActive reports whether the user's pass with vendorID is active now.
func (s *SubscriptionService) HasActive(ctx context.Context, userID, vendorID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND vendor_id = ? AND status = ? AND ends_at > ?",
			userID, vendorID, models.SubscriptionActive, s.now()).
		Count(&count).Error
	if err != nil {
		return false, apperr.FromDB(err, "")
	}
	return count > 0, nil
}

func (s *SubscriptionService) List(ctx context.Context, userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).Preload("Vendor").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&subs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return subs, nil
}

func (s *SubscriptionService) Cancel(ctx context.Context, userID, id uint) (*models.Subscription, error) {
	db := s.db.WithContext(ctx)
	var sub models.Subscription
	if err := db.First(&sub, id).Error; err != nil {
		return nil, apperr.FromDB(err, "subscription not found")
	}
	if sub.UserID != userID {
		return nil, apperr.Forbidden("this subscription does not belong to you")
	}
	if sub.Status != models.SubscriptionActive {
		return nil, apperr.BadRequest("only active subscriptions can be cancelled, this one is %s", sub.Status)
	}
	now := s.now()
	err := db.Model(&sub).Updates(map[string]any{
		"status":       models.SubscriptionCancelled,
		"auto_renew":   false,
		"cancelled_at": now,
	}).Error
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	if err := db.First(&sub, id).Error; err != nil {
		return nil, apperr.FromDB(err, "subscription not found")
	}
	return &sub, nil
}

// Sweep closes every active pass whose period ended at or before now. Passes
// with auto-renew are extended by whole periods until they end after now;
// the rest expire.
func (s *SubscriptionService) Sweep(ctx context.Context, now time.Time) (renewed, expired int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []models.Subscription
		if err := tx.Where("status = ? AND ends_at <= ?", models.SubscriptionActive, now).Find(&due).Error; err != nil {
			return err
		}
		for _, sub := range due {
			period := sub.Plan.Period()
			if sub.AutoRenew && period > 0 {
				endsAt := sub.EndsAt
				for !endsAt.After(now) {
					endsAt = endsAt.Add(period)
				}
				if err := tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).Update("ends_at", endsAt).Error; err != nil {
					return err
				}
				renewed++
				continue
			}
			if err := tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).Update("status", models.SubscriptionExpired).Error; err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, 0, apperr.FromDB(err, "")
	}
	s.metrics.SubscriptionsSwept.WithLabelValues("renewed").Add(float64(renewed))
	s.metrics.SubscriptionsSwept.WithLabelValues("expired").Add(float64(expired))
	if renewed+expired > 0 {
		s.log.WithFields(logrus.Fields{"renewed": renewed, "expired": expired}).Info("subscriptions swept")
	}
	return renewed, expired, nil
}
