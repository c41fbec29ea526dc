package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/metrics"
	"github.com/simonwachira/checkout-service/internal/models"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

// CancelWindow bounds customer self-service cancellation.
const CancelWindow = 15 * time.Minute

type OrderService struct {
	orders        interfaces.OrderRepository
	products      interfaces.ProductRepository
	users         interfaces.UserRepository
	events        interfaces.EventPublisher
	notifications interfaces.NotifyPublisher

	now func() time.Time
}

func NewOrderService(
	orders interfaces.OrderRepository,
	products interfaces.ProductRepository,
	users interfaces.UserRepository,
	events interfaces.EventPublisher,
	notifications interfaces.NotifyPublisher,
) *OrderService {
	return &OrderService{
		orders:        orders,
		products:      products,
		users:         users,
		events:        events,
		notifications: notifications,
		now:           time.Now,
	}
}

func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orderNotFound()
		}
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if o.UserID != userID {
		return nil, orderNotFound()
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Cancel is customer self-service cancellation: owner only, within the
// window, and never after shipment. Stock frozen at submission time is
// restored quantity for quantity.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*models.Order, error) {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case models.OrderStatusShipped, models.OrderStatusDelivered:
		return nil, cancelNotAllowed("Order has already been shipped")
	case models.OrderStatusCancelled, models.OrderStatusRefunded:
		return nil, cancelNotAllowed("Order is already " + string(o.Status))
	}
	if s.now().Sub(o.CreatedAt) > CancelWindow {
		return nil, cancelNotAllowed("The cancellation window has closed")
	}

	rows, err := s.orders.AppendStatus(ctx, orderID, o.Status,
		models.OrderStatusCancelled, "Cancelled by customer")
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if rows == 0 {
		// Lost a race with a concurrent status change.
		return nil, cancelNotAllowed("Order status changed, please refresh")
	}

	for _, item := range o.Items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			telemetry.Logger.Error("stock restore failed",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity), zap.Error(err))
		}
	}

	metrics.OrdersCancelled.Inc()
	s.publishEvent(ctx, o, models.EventOrderCancelled, models.OrderStatusCancelled)
	s.notifyUser(ctx, o.UserID, models.NotifyMessage{
		Kind:      models.NotifyOrderCancelled,
		Title:     "Order " + o.OrderNumber + " cancelled",
		Body:      "Your order has been cancelled and the items returned to stock.",
		SendEmail: true,
	})

	return s.orders.GetByID(ctx, orderID)
}

// UpdateStatus is the admin path through the fulfilment state machine.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, to models.OrderStatus, note string) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orderNotFound()
		}
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	if !models.ValidOrderTransition(o.Status, to) {
		return nil, invalidStatusTransition(string(o.Status), string(to))
	}

	rows, err := s.orders.AppendStatus(ctx, orderID, o.Status, to, note)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		return nil, invalidStatusTransition(string(o.Status), string(to))
	}

	s.publishEvent(ctx, o, models.EventOrderStatus, to)

	switch to {
	case models.OrderStatusShipped:
		s.notifyUser(ctx, o.UserID, models.NotifyMessage{
			Kind:  models.NotifyOrderShipped,
			Title: "Order " + o.OrderNumber + " shipped",
			Body: fmt.Sprintf("Your order is on its way. Estimated delivery: %s.",
				o.Shipping.EstimatedDelivery.Format("Mon, 2 Jan 2006")),
			SendEmail: true,
		})
	case models.OrderStatusDelivered:
		s.notifyUser(ctx, o.UserID, models.NotifyMessage{
			Kind:      models.NotifyOrderDelivered,
			Title:     "Order " + o.OrderNumber + " delivered",
			Body:      "Your order has been delivered. We would love to hear what you think - leave a rating!",
			SendEmail: false,
		})
	}

	return s.orders.GetByID(ctx, orderID)
}

func (s *OrderService) publishEvent(ctx context.Context, o *models.Order, eventType string, state models.OrderStatus) {
	if err := s.events.PublishOrderEvent(ctx, models.OrderEvent{
		EventType:     eventType,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		PreviousState: string(o.Status),
		State:         string(state),
		Timestamp:     s.now().UTC(),
	}); err != nil {
		telemetry.Logger.Warn("publish order event failed",
			zap.String("event_type", eventType), zap.Error(err))
	}
}

func (s *OrderService) notifyUser(ctx context.Context, userID string, msg models.NotifyMessage) {
	msg.UserID = userID
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		msg.Email = user.Email
	}
	if err := s.notifications.PublishNotify(ctx, msg); err != nil {
		telemetry.Logger.Warn("publish notification failed", zap.Error(err))
	}
}
