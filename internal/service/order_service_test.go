package service

import (
	"context"
	"testing"

	"webhook-service/internal/models"
	"webhook-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	svc := &OrderService{repo: f.repo, logger: f.logger}

	order, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerID: 3,
		Amount:     models.MustParseMoney("19.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNew, order.Status)

	f.createEvent(t, "evt-1", models.ProviderEventChargeSucceeded, orderRef(order))
	require.NoError(t, f.chargeProcessor().Process(context.Background(), "evt-1"))

	got, ops, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OperationTypeCharge, ops[0].Type)
}

func TestOrderService_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	svc := &OrderService{repo: f.repo, logger: f.logger}

	_, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{CustomerID: 3, Amount: models.MustParseMoney("0")})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestOrderService_GetMissing(t *testing.T) {
	f := newFixture(t)
	svc := &OrderService{repo: f.repo, logger: f.logger}

	_, _, err := svc.GetOrder(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
