// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"campus-eats-api/models"

	"github.com/sirupsen/logrus"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	DeliveryAssigned   = "delivery.assigned"
	PaymentCompleted   = "payment.completed"
)

// OrderEvent is the payload of every order notification.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    uint               `json:"order_id"`
	UserID     uint               `json:"user_id"`
	VendorID   uint               `json:"vendor_id"`
	RiderID    *uint              `json:"rider_id,omitempty"`
	FromStatus models.OrderStatus `json:"from_status,omitempty"`
	ToStatus   models.OrderStatus `json:"to_status"`
	ActorID    uint               `json:"actor_id"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Publisher delivers events. Publishing is best effort: callers log a
// failure and carry on, the database is the source of truth.
type Publisher interface {
	Publish(ctx context.Context, evt OrderEvent) error
	Close() error
}

// LogPublisher writes events to the application log. It is used when no
// broker is configured.
type LogPublisher struct {
	Log *logrus.Logger
}

func (p *LogPublisher) Publish(_ context.Context, evt OrderEvent) error {
	p.Log.WithFields(logrus.Fields{
		"event":    evt.Type,
		"order_id": evt.OrderID,
		"status":   evt.ToStatus,
	}).Info("order event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (r *Recorder) Publish(_ context.Context, evt OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OrderEvent(nil), r.events...)
}

func encode(evt OrderEvent) ([]byte, error) {
	return json.Marshal(evt)
}
