package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/metrics"
	"github.com/simonwachira/checkout-service/internal/models"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

// ConfirmationService turns gateway callbacks into terminal pending-payment
// states and, on success, materializes the order. Errors never propagate to
// the webhook response; the gateway always gets a 200.
type ConfirmationService struct {
	pending       interfaces.PendingPaymentRepository
	orders        interfaces.OrderRepository
	products      interfaces.ProductRepository
	coupons       interfaces.CouponRepository
	users         interfaces.UserRepository
	locker        interfaces.Locker
	events        interfaces.EventPublisher
	notifications interfaces.NotifyPublisher

	now func() time.Time
}

func NewConfirmationService(
	pending interfaces.PendingPaymentRepository,
	orders interfaces.OrderRepository,
	products interfaces.ProductRepository,
	coupons interfaces.CouponRepository,
	users interfaces.UserRepository,
	locker interfaces.Locker,
	events interfaces.EventPublisher,
	notifications interfaces.NotifyPublisher,
) *ConfirmationService {
	return &ConfirmationService{
		pending:       pending,
		orders:        orders,
		products:      products,
		coupons:       coupons,
		users:         users,
		locker:        locker,
		events:        events,
		notifications: notifications,
		now:           time.Now,
	}
}

// HandleCallback processes one gateway callback. The conditional status
// transition is the idempotency gate: duplicate deliveries find the record
// already out of pending and become no-ops. The redis lock on top of it
// keeps concurrent duplicates from interleaving the side effects.
func (s *ConfirmationService) HandleCallback(ctx context.Context, cb *models.StkCallback) {
	mrid := cb.MerchantRequestID()
	if mrid == "" {
		telemetry.Logger.Warn("callback without merchant request id, ignoring")
		return
	}

	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, mrid)
		if err != nil {
			telemetry.Logger.Error("callback lock error", zap.Error(err))
		} else if !acquired {
			metrics.DuplicateCallbacks.Inc()
			telemetry.Logger.Info("callback already being processed",
				zap.String("merchant_request_id", mrid))
			return
		} else {
			defer s.locker.Release(ctx, mrid)
		}
	}

	if cb.ResultCode() != 0 {
		s.handleFailure(ctx, mrid, cb.ResultDesc())
		return
	}
	s.handleSuccess(ctx, mrid, cb.ReceiptNumber())
}

func (s *ConfirmationService) handleFailure(ctx context.Context, mrid, reason string) {
	rows, err := s.pending.TransitionStatus(ctx, mrid,
		models.PendingStatusPending, models.PendingStatusFailed, reason)
	if err != nil {
		telemetry.Logger.Error("failed to mark pending payment failed",
			zap.String("merchant_request_id", mrid), zap.Error(err))
		return
	}
	if rows == 0 {
		metrics.DuplicateCallbacks.Inc()
		return
	}

	metrics.PaymentCallbacks.WithLabelValues("failed").Inc()
	telemetry.Logger.Info("payment failed",
		zap.String("merchant_request_id", mrid), zap.String("reason", reason))

	pp, err := s.pending.GetByMerchantRequestID(ctx, mrid)
	if err != nil {
		telemetry.Logger.Warn("load failed pending payment", zap.Error(err))
		return
	}

	s.publishEvent(ctx, models.OrderEvent{
		EventType:         models.EventPaymentFailed,
		MerchantRequestID: mrid,
		UserID:            pp.UserID,
		PreviousState:     string(models.PendingStatusPending),
		State:             string(models.PendingStatusFailed),
		Amount:            pp.Total,
		Timestamp:         s.now().UTC(),
	})
	s.notify(ctx, pp.UserID, models.NotifyMessage{
		Kind:      models.NotifyPaymentFailed,
		Title:     "Payment failed",
		Body:      "Your M-Pesa payment could not be completed: " + reason,
		SendEmail: true,
		Data:      map[string]string{"reason": reason},
	})
}

func (s *ConfirmationService) handleSuccess(ctx context.Context, mrid, receipt string) {
	// Claim first. Only one delivery wins this transition; everyone else
	// is a duplicate.
	rows, err := s.pending.TransitionStatus(ctx, mrid,
		models.PendingStatusPending, models.PendingStatusProcessed, "")
	if err != nil {
		telemetry.Logger.Error("failed to claim pending payment",
			zap.String("merchant_request_id", mrid), zap.Error(err))
		return
	}
	if rows == 0 {
		metrics.DuplicateCallbacks.Inc()
		telemetry.Logger.Info("duplicate or unknown callback",
			zap.String("merchant_request_id", mrid))
		return
	}

	pp, err := s.pending.GetByMerchantRequestID(ctx, mrid)
	if err != nil {
		s.failMaterialization(ctx, mrid, fmt.Errorf("load claimed pending payment: %w", err))
		return
	}

	order, err := s.materializeOrder(ctx, pp, receipt)
	if err != nil {
		s.failMaterialization(ctx, mrid, err)
		return
	}

	// Money is captured at this point. Stock and coupon bookkeeping are
	// applied best-effort against the frozen snapshot; a floor miss is a
	// reconciliation item, not a rollback.
	for _, line := range pp.StockLines {
		ok, err := s.products.TryDecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			telemetry.Logger.Error("stock decrement error",
				zap.String("product_id", line.ProductID), zap.Error(err))
			continue
		}
		if !ok {
			telemetry.Logger.Error("stock floor hit after confirmed payment",
				zap.String("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity),
				zap.String("order_number", order.OrderNumber))
		}
	}

	if pp.Coupon != nil {
		if err := s.coupons.IncrementUsage(ctx, pp.Coupon.Code); err != nil {
			telemetry.Logger.Error("coupon usage increment failed",
				zap.String("code", pp.Coupon.Code), zap.Error(err))
		}
	}

	metrics.PaymentCallbacks.WithLabelValues("success").Inc()
	metrics.OrdersCreated.Inc()

	s.publishEvent(ctx, models.OrderEvent{
		EventType:         models.EventOrderCreated,
		MerchantRequestID: mrid,
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            pp.UserID,
		PreviousState:     string(models.PendingStatusPending),
		State:             string(models.PendingStatusProcessed),
		Amount:            pp.Total,
		Timestamp:         s.now().UTC(),
	})
	s.notify(ctx, pp.UserID, models.NotifyMessage{
		Kind:      models.NotifyOrderConfirmed,
		Title:     "Order " + order.OrderNumber + " confirmed",
		Body:      orderConfirmationBody(order),
		SendEmail: true,
		Data: map[string]string{
			"orderId":     order.ID,
			"orderNumber": order.OrderNumber,
			"receipt":     receipt,
		},
	})

	telemetry.Logger.Info("order created from confirmed payment",
		zap.String("merchant_request_id", mrid),
		zap.String("order_number", order.OrderNumber),
		zap.String("receipt", receipt))
}

func (s *ConfirmationService) materializeOrder(ctx context.Context, pp *models.PendingPayment, receipt string) (*models.Order, error) {
	now := s.now().UTC()
	order := &models.Order{
		ID:              uuid.NewString(),
		OrderNumber:     newOrderNumber(now),
		UserID:          pp.UserID,
		Items:           pp.Items,
		ShippingAddress: pp.ShippingAddress,
		BillingAddress:  pp.BillingAddress,
		Payment: models.PaymentInfo{
			Method:            PaymentMethodMpesa,
			Status:            models.PaymentStatusPaid,
			MerchantRequestID: pp.MerchantRequestID,
			CheckoutRequestID: pp.CheckoutRequestID,
			ReceiptNumber:     receipt,
			PaidAt:            &now,
		},
		Coupon:       pp.Coupon,
		Shipping:     pp.Shipping,
		Subtotal:     pp.Subtotal,
		Discount:     pp.Discount,
		Tax:          pp.Tax,
		ShippingCost: pp.ShippingCost,
		Total:        pp.Total,
		Status:       models.OrderStatusPending,
		StatusHistory: []models.StatusEntry{{
			Status:    models.OrderStatusPending,
			Note:      "Order created after payment confirmation",
			Timestamp: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

// failMaterialization forces the record out of processed so it is never
// stuck there without an order. The payment was captured, so this needs
// operator attention; the counter drives that alert.
func (s *ConfirmationService) failMaterialization(ctx context.Context, mrid string, cause error) {
	metrics.MaterializationFailures.Inc()
	telemetry.Logger.Error("order materialization failed, payment captured",
		zap.String("merchant_request_id", mrid), zap.Error(cause))

	if _, err := s.pending.TransitionStatus(ctx, mrid,
		models.PendingStatusProcessed, models.PendingStatusFailed,
		"internal error while creating order"); err != nil {
		telemetry.Logger.Error("could not mark materialization failure",
			zap.String("merchant_request_id", mrid), zap.Error(err))
	}
}

func (s *ConfirmationService) publishEvent(ctx context.Context, evt models.OrderEvent) {
	if err := s.events.PublishOrderEvent(ctx, evt); err != nil {
		telemetry.Logger.Warn("publish order event failed",
			zap.String("event_type", evt.EventType), zap.Error(err))
	}
}

func (s *ConfirmationService) notify(ctx context.Context, userID string, msg models.NotifyMessage) {
	msg.UserID = userID
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		msg.Email = user.Email
	} else {
		telemetry.Logger.Warn("load user for notification failed",
			zap.String("user_id", userID), zap.Error(err))
	}
	if err := s.notifications.PublishNotify(ctx, msg); err != nil {
		telemetry.Logger.Warn("publish notification failed", zap.Error(err))
	}
}

func orderConfirmationBody(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your order %s has been confirmed.\n\n", o.OrderNumber)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%d x %s @ %.2f\n", item.Quantity, item.Title, item.UnitPrice)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f\nDiscount: %.2f\nShipping: %.2f\nTax: %.2f\nTotal: %.2f\n",
		o.Subtotal, o.Discount, o.ShippingCost, o.Tax, o.Total)
	return b.String()
}
