package services

import (
	"context"
	"time"

	"campus-eats-api/apperr"
	"campus-eats-api/events"
	"campus-eats-api/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PaymentService struct {
	db        *gorm.DB
	orders    *OrderService
	publisher events.Publisher
	log       *logrus.Logger
	now       func() time.Time
}

// Pay settles the payment of an order placed by userID. Card and wallet
// payments complete immediately. Cash stays pending until the order is
// delivered, or completes at once if it already was.
func (s *PaymentService) Pay(ctx context.Context, userID, orderID uint, method models.PaymentMethod) (*models.Payment, error) {
	if !method.Valid() {
		return nil, apperr.BadRequest("unsupported payment method %q", method)
	}
	db := s.db.WithContext(ctx)

	var order models.Order
	if err := db.Preload("Payment").First(&order, orderID).Error; err != nil {
		return nil, apperr.FromDB(err, "order not found")
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("only the student who placed the order can pay for it")
	}
	if order.Status == models.StatusCancelled {
		return nil, apperr.BadRequest("order is cancelled")
	}
	payment := order.Payment
	if payment == nil {
		return nil, apperr.NotFound("payment not found")
	}
	switch payment.Status {
	case models.PaymentPaid:
		return nil, apperr.Conflict("order is already paid")
	case models.PaymentRefunded:
		return nil, apperr.BadRequest("payment was refunded")
	}

	updates := map[string]any{"method": method}
	now := s.now()
	if method != models.MethodCash || order.Status == models.StatusDelivered {
		updates["status"] = models.PaymentPaid
		updates["paid_at"] = now
		updates["reference"] = uuid.NewString()
	}
	res := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("order is already paid")
	}

	var out models.Payment
	if err := db.First(&out, payment.ID).Error; err != nil {
		return nil, apperr.FromDB(err, "payment not found")
	}
	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"method":   method,
		"status":   out.Status,
	}).Info("payment recorded")
	if out.Status == models.PaymentPaid {
		publish(ctx, s.publisher, s.log, events.OrderEvent{
			Type:       events.PaymentCompleted,
			OrderID:    order.ID,
			UserID:     order.UserID,
			VendorID:   order.VendorID,
			ToStatus:   order.Status,
			ActorID:    userID,
			OccurredAt: now,
		})
	}
	return &out, nil
}

// Get returns the payment of an order visible to actor.
func (s *PaymentService) Get(ctx context.Context, actor Actor, orderID uint) (*models.Payment, error) {
	order, err := s.orders.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment == nil {
		return nil, apperr.NotFound("payment not found")
	}
	return order.Payment, nil
}
