package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/metrics"
	"github.com/simonwachira/checkout-service/internal/models"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

// PaymentMethodMpesa is the only payment channel this service accepts.
const PaymentMethodMpesa = "mpesa"

const totalEpsilon = 0.01

type CheckoutService struct {
	users    interfaces.UserRepository
	products interfaces.ProductRepository
	coupons  interfaces.CouponRepository
	rates    interfaces.RateRepository
	pending  interfaces.PendingPaymentRepository
	gateway  interfaces.PaymentGateway
	events   interfaces.EventPublisher

	pollInterval time.Duration
	now          func() time.Time
}

func NewCheckoutService(
	users interfaces.UserRepository,
	products interfaces.ProductRepository,
	coupons interfaces.CouponRepository,
	rates interfaces.RateRepository,
	pending interfaces.PendingPaymentRepository,
	gateway interfaces.PaymentGateway,
	events interfaces.EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		users:        users,
		products:     products,
		coupons:      coupons,
		rates:        rates,
		pending:      pending,
		gateway:      gateway,
		events:       events,
		pollInterval: 3 * time.Second,
		now:          time.Now,
	}
}

// Submit validates the cart, recomputes pricing server-side, initiates the
// STK push and records a pending payment. Nothing durable besides the
// pending payment is written; stock and coupon usage move only after the
// gateway confirms.
func (s *CheckoutService) Submit(ctx context.Context, userID string, req *models.SubmitOrderRequest) (*models.SubmitOrderResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if !user.EmailVerified {
		return nil, emailNotVerified()
	}

	if req.PaymentMethod != PaymentMethodMpesa {
		return nil, unsupportedPaymentMethod(req.PaymentMethod)
	}

	phone, ok := NormalizePhone(req.PhoneNumber)
	if !ok {
		return nil, invalidPhone(req.PhoneNumber)
	}

	items, stockLines, subtotal, err := s.freezeItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	var couponSnap *models.CouponSnapshot
	discount := 0.0
	if req.AppliedCoupon != nil && req.AppliedCoupon.Code != "" {
		couponSnap, discount, err = s.applyCoupon(ctx, req.AppliedCoupon.Code, subtotal)
		if err != nil {
			return nil, err
		}
	}

	// Fixed coupons larger than the cart discount it to free, never to a
	// credit.
	discounted := subtotal - discount
	if discounted < 0 {
		discounted = 0
	}

	method, err := s.rates.GetShippingMethod(ctx, req.ShippingMethod)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shippingMethodNotFound(req.ShippingMethod)
		}
		return nil, fmt.Errorf("load shipping method: %w", err)
	}
	shippingCost := method.Cost
	if method.FreeAbove > 0 && discounted >= method.FreeAbove {
		shippingCost = 0
	}

	tax := 0.0
	bracket, err := s.rates.FindTaxBracket(ctx, discounted)
	switch {
	case err == nil:
		tax = discounted * bracket.Rate
	case errors.Is(err, sql.ErrNoRows):
		telemetry.Logger.Warn("no tax bracket covers amount, taxing zero",
			zap.Float64("amount", discounted))
	default:
		return nil, fmt.Errorf("find tax bracket: %w", err)
	}

	total := discounted + shippingCost + tax
	if math.Abs(total-req.TotalAmount) > totalEpsilon {
		metrics.SubmissionsRejected.WithLabelValues("total_mismatch").Inc()
		return nil, totalMismatch(req.TotalAmount, total)
	}

	pendingID := uuid.NewString()
	push, err := s.gateway.STKPush(ctx, phone, int(math.Round(total)),
		"PP-"+pendingID[:8], "Order payment")
	if err != nil {
		telemetry.Logger.Error("stk push failed",
			zap.String("user_id", userID), zap.Error(err))
		metrics.SubmissionsRejected.WithLabelValues("gateway").Inc()
		return nil, paymentFailed()
	}

	now := s.now().UTC()
	pp := &models.PendingPayment{
		ID:                pendingID,
		MerchantRequestID: push.MerchantRequestID,
		CheckoutRequestID: push.CheckoutRequestID,
		UserID:            userID,
		Phone:             phone,
		Status:            models.PendingStatusPending,
		Items:             items,
		ShippingAddress:   req.ShippingAddress,
		BillingAddress:    req.BillingAddress,
		Coupon:            couponSnap,
		Shipping: models.ShippingChoice{
			MethodID:          method.ID,
			Name:              method.Name,
			Cost:              shippingCost,
			EstimatedDelivery: now.AddDate(0, 0, method.DeliveryDays),
		},
		StockLines:   stockLines,
		Subtotal:     subtotal,
		Discount:     discount,
		Tax:          tax,
		ShippingCost: shippingCost,
		Total:        total,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.pending.Insert(ctx, pp); err != nil {
		return nil, fmt.Errorf("persist pending payment: %w", err)
	}

	metrics.OrdersSubmitted.Inc()
	if err := s.events.PublishOrderEvent(ctx, models.OrderEvent{
		EventType:         models.EventPaymentInitiated,
		MerchantRequestID: pp.MerchantRequestID,
		UserID:            userID,
		State:             string(models.PendingStatusPending),
		Amount:            total,
		Timestamp:         now,
	}); err != nil {
		telemetry.Logger.Warn("publish payment.initiated failed", zap.Error(err))
	}

	telemetry.Logger.Info("pending payment created",
		zap.String("pending_id", pendingID),
		zap.String("merchant_request_id", pp.MerchantRequestID),
		zap.Float64("total", total))

	return &models.SubmitOrderResponse{
		Success:      true,
		Message:      "Payment request sent. Check your phone to complete the transaction.",
		PendingID:    pendingID,
		PollURL:      "/orders/payment-status/" + pendingID,
		PollInterval: int(s.pollInterval.Seconds()),
	}, nil
}

// freezeItems copies title, image, sku and the effective price of every
// line item at submission time and verifies stock availability.
func (s *CheckoutService) freezeItems(ctx context.Context, reqItems []models.SubmitItem) ([]models.OrderItem, []models.StockLine, float64, error) {
	if len(reqItems) == 0 {
		return nil, nil, 0, &FlowError{
			Code:       "EMPTY_CART",
			Message:    "Cannot place an order with an empty cart",
			HTTPStatus: 400,
		}
	}

	items := make([]models.OrderItem, 0, len(reqItems))
	stockLines := make([]models.StockLine, 0, len(reqItems))
	subtotal := 0.0

	for _, ri := range reqItems {
		if ri.Quantity <= 0 {
			return nil, nil, 0, &FlowError{
				Code:       "INVALID_QUANTITY",
				Message:    "Item quantity must be positive",
				HTTPStatus: 400,
			}
		}
		product, err := s.products.GetByID(ctx, ri.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				metrics.SubmissionsRejected.WithLabelValues("product_not_found").Inc()
				return nil, nil, 0, productNotFound(ri.ProductID)
			}
			return nil, nil, 0, fmt.Errorf("load product %s: %w", ri.ProductID, err)
		}
		if product.Stock < ri.Quantity {
			metrics.SubmissionsRejected.WithLabelValues("insufficient_stock").Inc()
			return nil, nil, 0, insufficientStock(product.Title, product.Stock)
		}

		price := product.EffectivePrice()
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Image:     product.Image,
			SKU:       product.SKU,
			Variant:   ri.Variant,
			UnitPrice: price,
			Quantity:  ri.Quantity,
		})
		stockLines = append(stockLines, models.StockLine{
			ProductID: product.ID,
			Quantity:  ri.Quantity,
		})
		subtotal += price * float64(ri.Quantity)
	}

	return items, stockLines, subtotal, nil
}

func (s *CheckoutService) applyCoupon(ctx context.Context, code string, subtotal float64) (*models.CouponSnapshot, float64, error) {
	coupon, err := s.coupons.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, invalidCoupon("Coupon " + code + " is invalid or inactive")
		}
		return nil, 0, fmt.Errorf("load coupon %s: %w", code, err)
	}
	if subtotal < coupon.MinAmount {
		return nil, 0, invalidCoupon(fmt.Sprintf(
			"Coupon %s requires a minimum order of %.2f", code, coupon.MinAmount))
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, 0, invalidCoupon("Coupon " + code + " has reached its usage limit")
	}

	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = subtotal * coupon.Amount / 100
	case models.CouponTypeFixed:
		discount = coupon.Amount
	default:
		return nil, 0, invalidCoupon("Coupon " + code + " has an unknown type")
	}

	return &models.CouponSnapshot{
		Code:     coupon.Code,
		Type:     coupon.Type,
		Amount:   coupon.Amount,
		Discount: discount,
	}, discount, nil
}
