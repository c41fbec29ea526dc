package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/models"
)

type checkoutEnv struct {
	users    *fakeUsers
	products *fakeProducts
	coupons  *fakeCoupons
	rates    *fakeRates
	pending  *fakePending
	gateway  *fakeGateway
	events   *fakeEvents
	svc      *CheckoutService
}

func newCheckoutEnv() *checkoutEnv {
	env := &checkoutEnv{
		users: &fakeUsers{users: map[string]*models.User{
			"u1": {ID: "u1", Name: "Jane", Email: "jane@example.com", EmailVerified: true},
			"u2": {ID: "u2", Name: "Bob", Email: "bob@example.com", EmailVerified: false},
		}},
		products: &fakeProducts{products: map[string]*models.Product{
			"p1": {ID: "p1", Title: "Ceramic Mug", SKU: "MUG-1", Price: 1000, Stock: 10},
		}},
		coupons: &fakeCoupons{coupons: map[string]*models.Coupon{
			"SAVE10": {Code: "SAVE10", Type: models.CouponTypePercentage, Amount: 10, MinAmount: 500, Active: true},
		}},
		rates: &fakeRates{
			methods: map[string]*models.ShippingMethod{
				"flat": {ID: "flat", Name: "Flat Rate", Cost: 250, DeliveryDays: 3},
			},
			brackets: []models.TaxBracket{
				{ID: "b1", MinAmount: 0, MaxAmount: 2000, Rate: 0.03},
			},
		},
		pending: newFakePending(),
		gateway: &fakeGateway{result: &interfaces.StkPushResult{
			MerchantRequestID: "mr-1",
			CheckoutRequestID: "cr-1",
			ResponseCode:      "0",
		}},
		events: &fakeEvents{},
	}
	env.svc = NewCheckoutService(env.users, env.products, env.coupons,
		env.rates, env.pending, env.gateway, env.events)
	return env
}

func baseRequest(total float64) *models.SubmitOrderRequest {
	return &models.SubmitOrderRequest{
		Items:          []models.SubmitItem{{ProductID: "p1", Quantity: 1}},
		PaymentMethod:  PaymentMethodMpesa,
		ShippingMethod: "flat",
		TotalAmount:    total,
		PhoneNumber:    "0712345678",
	}
}

func flowCode(t *testing.T, err error) string {
	t.Helper()
	var fe *FlowError
	require.True(t, errors.As(err, &fe), "expected FlowError, got %v", err)
	return fe.Code
}

func TestSubmit_FlatRateNoCoupon(t *testing.T) {
	env := newCheckoutEnv()

	resp, err := env.svc.Submit(context.Background(), "u1", baseRequest(1280))
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.PendingID)
	require.Equal(t, "/orders/payment-status/"+resp.PendingID, resp.PollURL)

	pp, err := env.pending.GetByMerchantRequestID(context.Background(), "mr-1")
	require.NoError(t, err)
	require.Equal(t, models.PendingStatusPending, pp.Status)
	require.Equal(t, 1000.0, pp.Subtotal)
	require.Equal(t, 0.0, pp.Discount)
	require.Equal(t, 250.0, pp.ShippingCost)
	require.InDelta(t, 30.0, pp.Tax, 0.001)
	require.InDelta(t, 1280.0, pp.Total, 0.001)
	require.Equal(t, "254712345678", pp.Phone)

	// The gateway sees the rounded integer total.
	require.Equal(t, 1280, env.gateway.gotAmount)
	require.Equal(t, "254712345678", env.gateway.gotPhone)

	// Frozen snapshot, not a live reference.
	require.Len(t, pp.Items, 1)
	require.Equal(t, "Ceramic Mug", pp.Items[0].Title)
	require.Equal(t, 1000.0, pp.Items[0].UnitPrice)
	require.Equal(t, []models.StockLine{{ProductID: "p1", Quantity: 1}}, pp.StockLines)

	// Submission itself must not touch stock.
	require.Equal(t, 10, env.products.products["p1"].Stock)
}

func TestSubmit_PercentageCoupon(t *testing.T) {
	env := newCheckoutEnv()

	req := baseRequest(0)
	req.AppliedCoupon = &models.CouponInput{Code: "SAVE10"}
	// subtotal 1000, discount 100, tax 3% of 900 = 27, shipping 250
	req.TotalAmount = 1177

	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.NoError(t, err)

	pp, err := env.pending.GetByMerchantRequestID(context.Background(), "mr-1")
	require.NoError(t, err)
	require.Equal(t, 100.0, pp.Discount)
	require.InDelta(t, 27.0, pp.Tax, 0.001)
	require.InDelta(t, 1177.0, pp.Total, 0.001)
	require.NotNil(t, pp.Coupon)
	require.Equal(t, "SAVE10", pp.Coupon.Code)
	require.Equal(t, 100.0, pp.Coupon.Discount)
}

func TestSubmit_SalePriceTakesPrecedence(t *testing.T) {
	env := newCheckoutEnv()
	env.products.products["p1"].SalePrice = 800
	// subtotal 800, tax 24, shipping 250
	_, err := env.svc.Submit(context.Background(), "u1", baseRequest(1074))
	require.NoError(t, err)

	pp, _ := env.pending.GetByMerchantRequestID(context.Background(), "mr-1")
	require.Equal(t, 800.0, pp.Items[0].UnitPrice)
}

func TestSubmit_FreeShippingThreshold(t *testing.T) {
	env := newCheckoutEnv()
	env.rates.methods["free"] = &models.ShippingMethod{
		ID: "free", Name: "Free Shipping", Cost: 250, FreeAbove: 900, DeliveryDays: 5,
	}

	req := baseRequest(1030) // subtotal 1000 >= 900, shipping waived, tax 30
	req.ShippingMethod = "free"

	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.NoError(t, err)

	pp, _ := env.pending.GetByMerchantRequestID(context.Background(), "mr-1")
	require.Equal(t, 0.0, pp.ShippingCost)
}

func TestSubmit_TotalMismatchRejected(t *testing.T) {
	env := newCheckoutEnv()

	_, err := env.svc.Submit(context.Background(), "u1", baseRequest(1275))
	require.Equal(t, "TOTAL_MISMATCH", flowCode(t, err))

	var fe *FlowError
	errors.As(err, &fe)
	require.Equal(t, 1275.0, fe.Details["submittedTotal"])
	require.InDelta(t, 1280.0, fe.Details["calculatedTotal"].(float64), 0.001)

	// Nothing persisted, gateway never called.
	require.Equal(t, 0, env.gateway.calls)
	_, err = env.pending.GetByMerchantRequestID(context.Background(), "mr-1")
	require.Error(t, err)
}

func TestSubmit_TotalWithinEpsilonAccepted(t *testing.T) {
	env := newCheckoutEnv()
	_, err := env.svc.Submit(context.Background(), "u1", baseRequest(1280.009))
	require.NoError(t, err)
}

func TestSubmit_UnverifiedEmailRejected(t *testing.T) {
	env := newCheckoutEnv()
	_, err := env.svc.Submit(context.Background(), "u2", baseRequest(1280))
	require.Equal(t, "EMAIL_NOT_VERIFIED", flowCode(t, err))
}

func TestSubmit_UnsupportedPaymentMethod(t *testing.T) {
	env := newCheckoutEnv()
	req := baseRequest(1280)
	req.PaymentMethod = "card"
	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.Equal(t, "UNSUPPORTED_PAYMENT_METHOD", flowCode(t, err))
}

func TestSubmit_InvalidPhoneRejected(t *testing.T) {
	env := newCheckoutEnv()
	req := baseRequest(1280)
	req.PhoneNumber = "12345"
	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.Equal(t, "INVALID_PHONE", flowCode(t, err))
}

func TestSubmit_UnknownProductRejected(t *testing.T) {
	env := newCheckoutEnv()
	req := baseRequest(1280)
	req.Items = []models.SubmitItem{{ProductID: "ghost", Quantity: 1}}
	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.Equal(t, "PRODUCT_NOT_FOUND", flowCode(t, err))
}

func TestSubmit_InsufficientStockRejected(t *testing.T) {
	env := newCheckoutEnv()
	req := baseRequest(1280)
	req.Items = []models.SubmitItem{{ProductID: "p1", Quantity: 11}}
	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.Equal(t, "INSUFFICIENT_STOCK", flowCode(t, err))
}

func TestSubmit_CouponBelowMinimumRejected(t *testing.T) {
	env := newCheckoutEnv()
	env.coupons.coupons["SAVE10"].MinAmount = 5000
	req := baseRequest(1280)
	req.AppliedCoupon = &models.CouponInput{Code: "SAVE10"}
	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.Equal(t, "INVALID_COUPON", flowCode(t, err))
}

func TestSubmit_CouponUsageCapRejected(t *testing.T) {
	env := newCheckoutEnv()
	env.coupons.coupons["SAVE10"].UsageLimit = 5
	env.coupons.coupons["SAVE10"].UsedCount = 5
	req := baseRequest(1280)
	req.AppliedCoupon = &models.CouponInput{Code: "SAVE10"}
	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.Equal(t, "INVALID_COUPON", flowCode(t, err))
}

func TestSubmit_FixedCouponClampsAtZero(t *testing.T) {
	env := newCheckoutEnv()
	env.coupons.coupons["BIG"] = &models.Coupon{
		Code: "BIG", Type: models.CouponTypeFixed, Amount: 5000, Active: true,
	}
	req := baseRequest(280) // discounted clamps to 0, shipping 250, tax 0
	req.AppliedCoupon = &models.CouponInput{Code: "BIG"}
	// tax bracket [0,2000] at 3% of 0 is 0, total = 250
	req.TotalAmount = 250

	_, err := env.svc.Submit(context.Background(), "u1", req)
	require.NoError(t, err)

	pp, _ := env.pending.GetByMerchantRequestID(context.Background(), "mr-1")
	require.Equal(t, 0.0, pp.Tax)
	require.InDelta(t, 250.0, pp.Total, 0.001)
}

func TestSubmit_TaxBracketGapYieldsZeroTax(t *testing.T) {
	env := newCheckoutEnv()
	env.rates.brackets = []models.TaxBracket{
		{ID: "b1", MinAmount: 5000, MaxAmount: 10000, Rate: 0.1},
	}
	// subtotal 1000 is outside every bracket; tax 0, total 1250
	_, err := env.svc.Submit(context.Background(), "u1", baseRequest(1250))
	require.NoError(t, err)
}

func TestSubmit_GatewayFailureCreatesNothing(t *testing.T) {
	env := newCheckoutEnv()
	env.gateway.err = errors.New("daraja timeout")

	_, err := env.svc.Submit(context.Background(), "u1", baseRequest(1280))
	require.Equal(t, "PAYMENT_FAILED", flowCode(t, err))

	_, err = env.pending.GetByMerchantRequestID(context.Background(), "mr-1")
	require.Error(t, err, "no pending payment may exist after a gateway failure")
}
