// Package services holds the business operations behind the HTTP handlers.
// Every operation takes a context, runs its queries through gorm and
// returns apperr errors that the handlers map to status codes.
package services

import (
	"context"
	"time"

	"campus-eats-api/cache"
	"campus-eats-api/events"
	"campus-eats-api/metrics"
	"campus-eats-api/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Deps are the collaborators shared by all services.
type Deps struct {
	DB          *gorm.DB
	Cache       cache.Cache
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
	Log         *logrus.Logger
	DeliveryFee float64
	// Now defaults to time.Now.
	Now func() time.Time
}

type Services struct {
	Users         *UserService
	Vendors       *VendorService
	Meals         *MealService
	Orders        *OrderService
	Deliveries    *DeliveryService
	Payments      *PaymentService
	Carts         *CartService
	Subscriptions *SubscriptionService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	users := &UserService{db: d.DB, log: d.Log}
	vendors := &VendorService{db: d.DB, cache: d.Cache, log: d.Log}
	meals := &MealService{db: d.DB, cache: d.Cache, vendors: vendors, log: d.Log}
	subs := &SubscriptionService{db: d.DB, metrics: d.Metrics, log: d.Log, now: d.Now}
	orders := &OrderService{
		db:          d.DB,
		vendors:     vendors,
		subs:        subs,
		publisher:   d.Publisher,
		metrics:     d.Metrics,
		log:         d.Log,
		deliveryFee: d.DeliveryFee,
		now:         d.Now,
	}
	return &Services{
		Users:         users,
		Vendors:       vendors,
		Meals:         meals,
		Orders:        orders,
		Deliveries:    &DeliveryService{db: d.DB, publisher: d.Publisher, log: d.Log, now: d.Now},
		Payments:      &PaymentService{db: d.DB, orders: orders, publisher: d.Publisher, log: d.Log, now: d.Now},
		Carts:         &CartService{db: d.DB, meals: meals, orders: orders},
		Subscriptions: subs,
	}
}

// publish sends evt and logs a failure; the database is already committed.
func publish(ctx context.Context, p events.Publisher, log *logrus.Logger, evt events.OrderEvent) {
	if err := p.Publish(ctx, evt); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"event":    evt.Type,
			"order_id": evt.OrderID,
		}).Error("publish event failed")
	}
}

// invalidate drops cache keys, logging instead of failing the write.
func invalidate(ctx context.Context, c cache.Cache, log *logrus.Logger, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}
