package services

import (
	"context"
	"testing"

	"campus-eats-api/apperr"
	"campus-eats-api/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	k := env.kitchen(t, "v@campus.edu")
	student := env.user(t, "s@campus.edu", models.RoleStudent)
	stranger := env.user(t, "s2@campus.edu", models.RoleStudent)
	order := env.order(t, student, k)

	_, err := env.svc.Payments.Pay(ctx, student.UserID, order.ID, "cheque")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = env.svc.Payments.Pay(ctx, stranger.UserID, order.ID, models.MethodCard)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	payment, err := env.svc.Payments.Pay(ctx, student.UserID, order.ID, models.MethodWallet)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, payment.Status)
	assert.Equal(t, models.MethodWallet, payment.Method)
	assert.NotNil(t, payment.PaidAt)
	_, err = uuid.Parse(payment.Reference)
	assert.NoError(t, err)

	_, err = env.svc.Payments.Pay(ctx, student.UserID, order.ID, models.MethodCard)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := env.svc.Payments.Get(ctx, k.owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.Reference, got.Reference)
	_, err = env.svc.Payments.Get(ctx, stranger, order.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestPayCashStaysPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	k := env.kitchen(t, "v@campus.edu")
	student := env.user(t, "s@campus.edu", models.RoleStudent)
	order := env.order(t, student, k)

	payment, err := env.svc.Payments.Pay(ctx, student.UserID, order.ID, models.MethodCash)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.Equal(t, models.MethodCash, payment.Method)
	assert.Empty(t, payment.Reference)
}

func TestPayCancelledOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	k := env.kitchen(t, "v@campus.edu")
	student := env.user(t, "s@campus.edu", models.RoleStudent)
	order := env.order(t, student, k)

	_, err := env.svc.Orders.Cancel(ctx, student, order.ID, "")
	require.NoError(t, err)

	_, err = env.svc.Payments.Pay(ctx, student.UserID, order.ID, models.MethodCard)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	_, err = env.svc.Payments.Pay(ctx, student.UserID, 9999, models.MethodCard)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPayCashAfterDelivery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	k := env.kitchen(t, "v@campus.edu")
	student := env.user(t, "s@campus.edu", models.RoleStudent)
	rider := env.user(t, "r@campus.edu", models.RoleRider)
	order := env.order(t, student, k)

	env.advance(t, k.owner, order.ID, models.StatusConfirmed, models.StatusPreparing)
	_, err := env.svc.Deliveries.Accept(ctx, rider.UserID, order.Delivery.ID)
	require.NoError(t, err)
	env.advance(t, k.owner, order.ID, models.StatusReady)
	env.advance(t, rider, order.ID, models.StatusOutForDelivery, models.StatusDelivered)

	payment, err := env.svc.Payments.Pay(ctx, student.UserID, order.ID, models.MethodCash)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, payment.Status)
	assert.Equal(t, models.MethodCash, payment.Method)
	require.NotNil(t, payment.PaidAt)
	assert.True(t, payment.PaidAt.Equal(env.now))
	assert.NotEmpty(t, payment.Reference)
}
