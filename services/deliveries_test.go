package services

import (
	"context"
	"testing"

	"campus-eats-api/apperr"
	"campus-eats-api/events"
	"campus-eats-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableOnlyListsPreparingOrReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	k := env.kitchen(t, "v@campus.edu")
	student := env.user(t, "s@campus.edu", models.RoleStudent)

	pending := env.order(t, student, k)
	preparing := env.order(t, student, k)
	env.advance(t, k.owner, preparing.ID, models.StatusConfirmed, models.StatusPreparing)

	available, err := env.svc.Deliveries.Available(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, preparing.ID, available[0].OrderID)
	require.NotNil(t, available[0].Order)
	assert.NotEqual(t, pending.ID, available[0].OrderID)
	assert.Equal(t, k.vendor.ID, available[0].Order.Vendor.ID)

	_, err = env.svc.Deliveries.Accept(ctx, env.user(t, "r@campus.edu", models.RoleRider).UserID, pending.Delivery.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "pending orders cannot be picked up")
}

func TestSecondRiderGetsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	k := env.kitchen(t, "v@campus.edu")
	student := env.user(t, "s@campus.edu", models.RoleStudent)
	first := env.user(t, "r1@campus.edu", models.RoleRider)
	second := env.user(t, "r2@campus.edu", models.RoleRider)

	order := env.order(t, student, k)
	env.advance(t, k.owner, order.ID, models.StatusConfirmed, models.StatusPreparing, models.StatusReady)

	delivery, err := env.svc.Deliveries.Accept(ctx, first.UserID, order.Delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAssigned, delivery.Status)
	require.NotNil(t, delivery.RiderID)
	assert.Equal(t, first.UserID, *delivery.RiderID)
	assert.NotNil(t, delivery.AssignedAt)

	_, err = env.svc.Deliveries.Accept(ctx, second.UserID, order.Delivery.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = env.svc.Deliveries.Accept(ctx, second.UserID, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	mine, err := env.svc.Deliveries.Mine(ctx, first.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := env.svc.Deliveries.Mine(ctx, second.UserID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	available, err := env.svc.Deliveries.Available(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	var assigned int
	for _, evt := range env.events.Events() {
		if evt.Type == events.DeliveryAssigned {
			assigned++
		}
	}
	assert.Equal(t, 1, assigned)
}
