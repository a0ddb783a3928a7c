package services

import (
	"context"
	"time"

	"campus-eats-api/apperr"
	"campus-eats-api/events"
	"campus-eats-api/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DeliveryService struct {
	db        *gorm.DB
	publisher events.Publisher
	log       *logrus.Logger
	now       func() time.Time
}

// claimable are the order statuses a rider may pick up a delivery in.
var claimable = []models.OrderStatus{models.StatusPreparing, models.StatusReady}

// Available lists unassigned deliveries whose orders are being prepared or
// are ready for pickup, oldest first.
func (s *DeliveryService) Available(ctx context.Context) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := s.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = deliveries.order_id").
		Where("deliveries.status = ? AND deliveries.rider_id IS NULL", models.DeliveryUnassigned).
		Where("orders.status IN ?", claimable).
		Preload("Order.Vendor").
		Preload("Order.Items").
		Order("deliveries.created_at, deliveries.id").
		Find(&deliveries).Error
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return deliveries, nil
}

// Accept assigns the delivery to riderID. The assignment only succeeds while
// the delivery has no rider, so of two riders racing for it the second one
// gets a conflict.
func (s *DeliveryService) Accept(ctx context.Context, riderID, deliveryID uint) (*models.Delivery, error) {
	db := s.db.WithContext(ctx)

	var delivery models.Delivery
	if err := db.Preload("Order").First(&delivery, deliveryID).Error; err != nil {
		return nil, apperr.FromDB(err, "delivery not found")
	}
	if delivery.RiderID != nil {
		return nil, apperr.Conflict("delivery already assigned")
	}
	if delivery.Status != models.DeliveryUnassigned {
		return nil, apperr.BadRequest("delivery is %s", delivery.Status)
	}
	if delivery.Order == nil || (delivery.Order.Status != models.StatusPreparing && delivery.Order.Status != models.StatusReady) {
		return nil, apperr.BadRequest("order is not ready for pickup")
	}

	now := s.now()
	res := db.Model(&models.Delivery{}).
		Where("id = ? AND rider_id IS NULL AND status = ?", deliveryID, models.DeliveryUnassigned).
		Updates(map[string]any{
			"rider_id":    riderID,
			"status":      models.DeliveryAssigned,
			"assigned_at": now,
		})
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("delivery already assigned")
	}

	s.log.WithFields(logrus.Fields{
		"delivery_id": deliveryID,
		"order_id":    delivery.OrderID,
		"rider_id":    riderID,
	}).Info("delivery accepted")
	publish(ctx, s.publisher, s.log, events.OrderEvent{
		Type:       events.DeliveryAssigned,
		OrderID:    delivery.OrderID,
		UserID:     delivery.Order.UserID,
		VendorID:   delivery.Order.VendorID,
		RiderID:    &riderID,
		ToStatus:   delivery.Order.Status,
		ActorID:    riderID,
		OccurredAt: now,
	})

	var out models.Delivery
	if err := db.Preload("Order.Vendor").First(&out, deliveryID).Error; err != nil {
		return nil, apperr.FromDB(err, "delivery not found")
	}
	return &out, nil
}

// Mine lists the deliveries assigned to riderID, newest first.
func (s *DeliveryService) Mine(ctx context.Context, riderID uint) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := s.db.WithContext(ctx).
		Where("rider_id = ?", riderID).
		Preload("Order.Vendor").
		Preload("Order.Items").
		Order("assigned_at desc, id desc").
		Find(&deliveries).Error
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return deliveries, nil
}
