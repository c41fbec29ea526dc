package models

import "time"

type PendingStatus string

const (
	PendingStatusPending   PendingStatus = "pending"
	PendingStatusProcessed PendingStatus = "processed"
	PendingStatusFailed    PendingStatus = "failed"
	PendingStatusExpired   PendingStatus = "expired"
)

// ValidPendingTransition reports whether a pending payment may move from
// one status to another. All non-pending statuses are terminal.
func ValidPendingTransition(from, to PendingStatus) bool {
	if from != PendingStatusPending {
		return false
	}
	switch to {
	case PendingStatusProcessed, PendingStatusFailed, PendingStatusExpired:
		return true
	}
	return false
}

// OrderItem is a line item frozen at submission time. Prices and titles are
// copied from the product document, never re-read later.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	SKU       string  `json:"sku"`
	Variant   string  `json:"variant,omitempty"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type Address struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	PostCode string `json:"postCode"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// CouponSnapshot captures the coupon as applied, so the webhook path can
// increment usage without re-validating.
type CouponSnapshot struct {
	Code     string  `json:"code"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Discount float64 `json:"discount"`
}

type ShippingChoice struct {
	MethodID          string    `json:"methodId"`
	Name              string    `json:"name"`
	Cost              float64   `json:"cost"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
}

// StockLine is a {product, quantity} pair recorded at submission time and
// replayed verbatim on payment confirmation.
type StockLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PendingPayment tracks one checkout attempt awaiting its STK-push outcome.
// It is created on submission and mutated only by the webhook path or the
// expiry sweeper.
type PendingPayment struct {
	ID                string          `json:"id"`
	MerchantRequestID string          `json:"merchantRequestId"`
	CheckoutRequestID string          `json:"checkoutRequestId"`
	UserID            string          `json:"userId"`
	Phone             string          `json:"phone"`
	Status            PendingStatus   `json:"status"`
	FailureReason     string          `json:"failureReason,omitempty"`
	Items             []OrderItem     `json:"items"`
	ShippingAddress   Address         `json:"shippingAddress"`
	BillingAddress    Address         `json:"billingAddress"`
	Coupon            *CouponSnapshot `json:"coupon,omitempty"`
	Shipping          ShippingChoice  `json:"shipping"`
	StockLines        []StockLine     `json:"stockLines"`
	Subtotal          float64         `json:"subtotal"`
	Discount          float64         `json:"discount"`
	Tax               float64         `json:"tax"`
	ShippingCost      float64         `json:"shippingCost"`
	Total             float64         `json:"total"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
