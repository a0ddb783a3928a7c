package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"campus-eats-api/cache"
	"campus-eats-api/config"
	"campus-eats-api/events"
	"campus-eats-api/logger"
	"campus-eats-api/metrics"
	"campus-eats-api/models"

	"github.com/stretchr/testify/require"
)

const testFee = 1.5

type testEnv struct {
	svc    *Services
	events *events.Recorder
	now    time.Time
}

func (e *testEnv) clock() time.Time { return e.now }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()
	db, err := config.OpenDB(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "campus.db"),
	}, log)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	c, err := cache.NewMemory(100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	env := &testEnv{
		events: &events.Recorder{},
		now:    time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	env.svc = New(Deps{
		DB:          db,
		Cache:       c,
		Publisher:   env.events,
		Metrics:     metrics.New(),
		Log:         log,
		DeliveryFee: testFee,
		Now:         env.clock,
	})
	return env
}

func (e *testEnv) user(t *testing.T, email string, role models.UserRole) Actor {
	t.Helper()
	u, err := e.svc.Users.Register(context.Background(), RegisterInput{
		Name:     email,
		Email:    email,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return Actor{UserID: u.ID, Role: u.Role}
}

// kitchen is a vendor with two meals.
type kitchen struct {
	owner  Actor
	vendor *models.Vendor
	wrap   *models.Meal
	salad  *models.Meal
}

func (e *testEnv) kitchen(t *testing.T, email string) kitchen {
	t.Helper()
	ctx := context.Background()
	owner := e.user(t, email, models.RoleVendor)
	vendor, err := e.svc.Vendors.Create(ctx, owner.UserID, VendorInput{Name: "Kitchen " + email, Location: "Block A"})
	require.NoError(t, err)
	wrap, err := e.svc.Meals.Create(ctx, owner.UserID, MealInput{Name: "Paneer Wrap", Price: 4.5, Category: "wraps", IsVeg: true})
	require.NoError(t, err)
	salad, err := e.svc.Meals.Create(ctx, owner.UserID, MealInput{Name: "Salad", Price: 3.25, Category: "salads", IsVeg: true})
	require.NoError(t, err)
	return kitchen{owner: owner, vendor: vendor, wrap: wrap, salad: salad}
}

func (e *testEnv) order(t *testing.T, student Actor, k kitchen) *models.Order {
	t.Helper()
	order, err := e.svc.Orders.Create(context.Background(), student.UserID, CreateOrderInput{
		VendorID:        k.vendor.ID,
		Items:           []OrderItemInput{{MealID: k.wrap.ID, Quantity: 2}},
		DeliveryAddress: "Hostel 4, Room 12",
	})
	require.NoError(t, err)
	return order
}

// advance moves an order through the given statuses as actor.
func (e *testEnv) advance(t *testing.T, actor Actor, orderID uint, statuses ...models.OrderStatus) {
	t.Helper()
	for _, to := range statuses {
		_, err := e.svc.Orders.UpdateStatus(context.Background(), actor, orderID, to, "")
		require.NoError(t, err, "move to %s", to)
	}
}
