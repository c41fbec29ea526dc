package models

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ValidOrderTransition reports whether an order may move between fulfilment
// statuses. Cancellation is reachable from any pre-shipped state.
func ValidOrderTransition(from, to OrderStatus) bool {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {OrderStatusRefunded},
	}
	for _, t := range allowed[from] {
		if t == to {
			return true
		}
	}
	return false
}

type PaymentInfo struct {
	Method            string        `json:"method"`
	Status            PaymentStatus `json:"status"`
	MerchantRequestID string        `json:"merchantRequestId"`
	CheckoutRequestID string        `json:"checkoutRequestId"`
	ReceiptNumber     string        `json:"receiptNumber,omitempty"`
	PaidAt            *time.Time    `json:"paidAt,omitempty"`
}

// StatusEntry is one line of the append-only status history.
type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Order is the durable ledger entry. It is created only by the webhook
// success path; its pricing breakdown is copied from the PendingPayment
// snapshot and never recomputed.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  Address         `json:"billingAddress"`
	Payment         PaymentInfo     `json:"payment"`
	Coupon          *CouponSnapshot `json:"coupon,omitempty"`
	Shipping        ShippingChoice  `json:"shipping"`
	Subtotal        float64         `json:"subtotal"`
	Discount        float64         `json:"discount"`
	Tax             float64         `json:"tax"`
	ShippingCost    float64         `json:"shippingCost"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status"`
	StatusHistory   []StatusEntry   `json:"statusHistory"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
