package services

import (
	"context"
	"strings"
	"time"

	"campus-eats-api/apperr"
	"campus-eats-api/events"
	"campus-eats-api/metrics"
	"campus-eats-api/models"
	"campus-eats-api/statemachine"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OrderService struct {
	db          *gorm.DB
	vendors     *VendorService
	subs        *SubscriptionService
	publisher   events.Publisher
	metrics     *metrics.Metrics
	log         *logrus.Logger
	deliveryFee float64
	now         func() time.Time
}

type OrderItemInput struct {
	MealID   uint
	Quantity int
}

type CreateOrderInput struct {
	VendorID        uint
	Items           []OrderItemInput
	DeliveryAddress string
	Notes           string
}

// Create places an order for userID. Prices are snapshotted from the menu;
// the delivery fee is waived while the student holds an active pass with
// the vendor. The order, its items, delivery, payment and first history row
// are written in one transaction.
func (s *OrderService) Create(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.BadRequest("an order needs at least one item")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return nil, apperr.BadRequest("delivery address is required")
	}

	quantities := map[uint]int{}
	var mealIDs []uint
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, apperr.BadRequest("quantity for meal %d must be at least 1", item.MealID)
		}
		if _, seen := quantities[item.MealID]; !seen {
			mealIDs = append(mealIDs, item.MealID)
		}
		quantities[item.MealID] += item.Quantity
	}

	vendor, err := s.vendors.Get(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsOpen {
		return nil, apperr.BadRequest("%s is currently closed", vendor.Name)
	}

	db := s.db.WithContext(ctx)
	var meals []models.Meal
	if err := db.Where("id IN ?", mealIDs).Find(&meals).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	byID := make(map[uint]models.Meal, len(meals))
	for _, m := range meals {
		byID[m.ID] = m
	}

	var items []models.OrderItem
	var subtotal float64
	for _, id := range mealIDs {
		meal, ok := byID[id]
		if !ok {
			return nil, apperr.BadRequest("meal %d does not exist", id)
		}
		if meal.VendorID != in.VendorID {
			return nil, apperr.BadRequest("meal %d does not belong to this vendor", id)
		}
		if !meal.IsAvailable {
			return nil, apperr.BadRequest("%s is not available", meal.Name)
		}
		qty := quantities[id]
		subtotal += meal.Price * float64(qty)
		items = append(items, models.OrderItem{
			MealID:    meal.ID,
			Quantity:  qty,
			UnitPrice: meal.Price,
			Name:      meal.Name,
		})
	}
	subtotal = models.RoundCents(subtotal)

	fee := s.deliveryFee
	subscribed, err := s.subs.HasActive(ctx, userID, in.VendorID)
	if err != nil {
		return nil, err
	}
	if subscribed {
		fee = 0
	}
	total := models.RoundCents(subtotal + fee)

	order := &models.Order{
		UserID:          userID,
		VendorID:        in.VendorID,
		Status:          models.StatusPending,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Total:           total,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		Notes:           in.Notes,
		Items:           items,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		delivery := &models.Delivery{
			OrderID: order.ID,
			Status:  models.DeliveryUnassigned,
			Address: order.DeliveryAddress,
		}
		if err := tx.Create(delivery).Error; err != nil {
			return err
		}
		payment := &models.Payment{
			OrderID: order.ID,
			Amount:  total,
			Status:  models.PaymentPending,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: userID,
			Role:      models.RoleStudent,
			Note:      "order placed",
		}).Error
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to place order")
	}

	s.metrics.OrdersCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"user_id":   userID,
		"vendor_id": in.VendorID,
		"total":     total,
	}).Info("order placed")
	publish(ctx, s.publisher, s.log, events.OrderEvent{
		Type:       events.OrderCreated,
		OrderID:    order.ID,
		UserID:     userID,
		VendorID:   in.VendorID,
		ToStatus:   models.StatusPending,
		ActorID:    userID,
		OccurredAt: s.now(),
	})
	return s.load(ctx, order.ID)
}

// load fetches an order with every relation the API returns.
func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Vendor").
		Preload("Delivery").
		Preload("Payment").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "order not found")
	}
	return &order, nil
}

// authorize decides whether actor may see order. The vendor and delivery
// relations must be loaded.
func authorize(actor Actor, order *models.Order) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if order.UserID == actor.UserID {
			return nil
		}
	case models.RoleVendor:
		if order.Vendor != nil && order.Vendor.OwnerID == actor.UserID {
			return nil
		}
	case models.RoleRider:
		if order.Delivery != nil && order.Delivery.RiderID != nil && *order.Delivery.RiderID == actor.UserID {
			return nil
		}
	}
	return apperr.Forbidden("you do not have access to this order")
}

// Get returns an order visible to actor.
func (s *OrderService) Get(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns the orders actor can see, newest first.
func (s *OrderService) List(ctx context.Context, actor Actor, status models.OrderStatus) ([]models.Order, error) {
	db := s.db.WithContext(ctx)
	query := db.Preload("Items").Preload("Vendor").Preload("Delivery").Preload("Payment").
		Order("created_at desc, id desc")

	switch actor.Role {
	case models.RoleStudent:
		query = query.Where("user_id = ?", actor.UserID)
	case models.RoleVendor:
		query = query.Where("vendor_id IN (?)", db.Model(&models.Vendor{}).Select("id").Where("owner_id = ?", actor.UserID))
	case models.RoleRider:
		query = query.Where("id IN (?)", db.Model(&models.Delivery{}).Select("order_id").Where("rider_id = ?", actor.UserID))
	case models.RoleAdmin:
	default:
		return nil, apperr.Forbidden("unknown role")
	}
	if status != "" {
		if !status.Valid() {
			return nil, apperr.BadRequest("unknown status %q", status)
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return orders, nil
}

// UpdateStatus moves an order along the state machine on behalf of actor and
// applies the delivery and payment side effects of the new status.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uint, to models.OrderStatus, note string) (*models.Order, error) {
	if !to.Valid() {
		return nil, apperr.BadRequest("unknown status %q", to)
	}
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := statemachine.CanTransition(actor.Role, from, to); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("order status changed concurrently, reload and retry")
		}
		if err := applySideEffects(tx, order, to, now); err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  actor.UserID,
			Role:       actor.Role,
			Note:       note,
		}).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order not found")
	}

	s.metrics.StatusTransitions.WithLabelValues(string(to), string(actor.Role)).Inc()
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     from,
		"to":       to,
		"actor":    actor.UserID,
		"role":     actor.Role,
	}).Info("order status changed")

	evt := events.OrderEvent{
		Type:       events.OrderStatusChanged,
		OrderID:    order.ID,
		UserID:     order.UserID,
		VendorID:   order.VendorID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
		OccurredAt: now,
	}
	if order.Delivery != nil {
		evt.RiderID = order.Delivery.RiderID
	}
	publish(ctx, s.publisher, s.log, evt)
	return s.load(ctx, order.ID)
}

func applySideEffects(tx *gorm.DB, order *models.Order, to models.OrderStatus, now time.Time) error {
	delivery := tx.Model(&models.Delivery{}).Where("order_id = ?", order.ID)
	payment := tx.Model(&models.Payment{}).Where("order_id = ?", order.ID)

	switch to {
	case models.StatusOutForDelivery:
		return delivery.Updates(map[string]any{
			"status":       models.DeliveryPickedUp,
			"picked_up_at": now,
		}).Error
	case models.StatusDelivered:
		if err := delivery.Updates(map[string]any{
			"status":       models.DeliveryDelivered,
			"delivered_at": now,
		}).Error; err != nil {
			return err
		}
		// cash is collected at the door
		return payment.Where("method = ? AND status = ?", models.MethodCash, models.PaymentPending).
			Updates(map[string]any{
				"status":  models.PaymentPaid,
				"paid_at": now,
			}).Error
	case models.StatusCancelled:
		if err := delivery.Update("status", models.DeliveryCancelled).Error; err != nil {
			return err
		}
		return payment.Where("status = ?", models.PaymentPaid).
			Updates(map[string]any{
				"status":      models.PaymentRefunded,
				"refunded_at": now,
			}).Error
	}
	return nil
}

// Cancel is UpdateStatus to CANCELLED with a reason.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uint, reason string) (*models.Order, error) {
	if reason == "" {
		reason = "cancelled by " + string(actor.Role)
	}
	return s.UpdateStatus(ctx, actor, id, models.StatusCancelled, reason)
}

// Summary counts orders per status for dashboards.
func Summary(orders []models.Order) map[models.OrderStatus]int {
	out := map[models.OrderStatus]int{}
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

// Revenue sums the totals of delivered orders.
func Revenue(orders []models.Order) float64 {
	var total float64
	for _, o := range orders {
		if o.Status == models.StatusDelivered {
			total += o.Total
		}
	}
	return models.RoundCents(total)
}
