package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/simonwachira/checkout-service/internal/models"
)

type orderEnv struct {
	orders   *fakeOrders
	products *fakeProducts
	notify   *fakeNotify
	svc      *OrderService
}

func newOrderEnv() *orderEnv {
	env := &orderEnv{
		orders: newFakeOrders(),
		products: &fakeProducts{products: map[string]*models.Product{
			"p1": {ID: "p1", Title: "Ceramic Mug", Price: 1000, Stock: 8},
		}},
		notify: &fakeNotify{},
	}
	users := &fakeUsers{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "jane@example.com", EmailVerified: true},
	}}
	env.svc = NewOrderService(env.orders, env.products, users, &fakeEvents{}, env.notify)
	return env
}

func (env *orderEnv) seedOrder(t *testing.T, status models.OrderStatus, createdAt time.Time) {
	t.Helper()
	require.NoError(t, env.orders.Insert(context.Background(), &models.Order{
		ID:          "o-1",
		OrderNumber: "ORD-1",
		UserID:      "u1",
		Items: []models.OrderItem{
			{ProductID: "p1", Title: "Ceramic Mug", UnitPrice: 1000, Quantity: 2},
		},
		Status:    status,
		CreatedAt: createdAt,
	}))
}

func TestCancel_WithinWindowRestoresStock(t *testing.T) {
	env := newOrderEnv()
	env.seedOrder(t, models.OrderStatusPending, time.Now().UTC().Add(-5*time.Minute))

	order, err := env.svc.Cancel(context.Background(), "u1", "o-1")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, order.Status)

	// Exactly the originally decremented quantities come back.
	require.Equal(t, []models.StockLine{{ProductID: "p1", Quantity: 2}}, env.products.restores)
	require.Equal(t, 10, env.products.products["p1"].Stock)

	require.Len(t, env.notify.messages, 1)
	require.Equal(t, models.NotifyOrderCancelled, env.notify.messages[0].Kind)
}

func TestCancel_OutsideWindowRejected(t *testing.T) {
	env := newOrderEnv()
	env.seedOrder(t, models.OrderStatusPending, time.Now().UTC().Add(-16*time.Minute))

	_, err := env.svc.Cancel(context.Background(), "u1", "o-1")
	require.Equal(t, "CANCEL_NOT_ALLOWED", flowCode(t, err))
	require.Empty(t, env.products.restores)
}

func TestCancel_ShippedOrderRejected(t *testing.T) {
	env := newOrderEnv()
	env.seedOrder(t, models.OrderStatusShipped, time.Now().UTC())

	_, err := env.svc.Cancel(context.Background(), "u1", "o-1")
	require.Equal(t, "CANCEL_NOT_ALLOWED", flowCode(t, err))
}

func TestCancel_OnlyOwnerMayCancel(t *testing.T) {
	env := newOrderEnv()
	env.seedOrder(t, models.OrderStatusPending, time.Now().UTC())

	_, err := env.svc.Cancel(context.Background(), "someone-else", "o-1")
	require.Equal(t, "ORDER_NOT_FOUND", flowCode(t, err))
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	env := newOrderEnv()
	env.seedOrder(t, models.OrderStatusPending, time.Now().UTC())

	order, err := env.svc.UpdateStatus(context.Background(), "o-1",
		models.OrderStatusProcessing, "picking started")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusProcessing, order.Status)
	require.Len(t, order.StatusHistory, 1)
	require.Equal(t, "picking started", order.StatusHistory[0].Note)
}

func TestUpdateStatus_InvalidTransitionRejected(t *testing.T) {
	env := newOrderEnv()
	env.seedOrder(t, models.OrderStatusPending, time.Now().UTC())

	_, err := env.svc.UpdateStatus(context.Background(), "o-1",
		models.OrderStatusDelivered, "")
	require.Equal(t, "INVALID_STATUS_TRANSITION", flowCode(t, err))
}

func TestUpdateStatus_ShippedTriggersNotification(t *testing.T) {
	env := newOrderEnv()
	env.seedOrder(t, models.OrderStatusProcessing, time.Now().UTC())

	_, err := env.svc.UpdateStatus(context.Background(), "o-1",
		models.OrderStatusShipped, "")
	require.NoError(t, err)
	require.Len(t, env.notify.messages, 1)
	require.Equal(t, models.NotifyOrderShipped, env.notify.messages[0].Kind)
}
