package models

// SubmitOrderRequest is the POST /orders body.
type SubmitOrderRequest struct {
	Items           []SubmitItem `json:"items" binding:"required"`
	ShippingAddress Address      `json:"shippingAddress"`
	BillingAddress  Address      `json:"billingAddress"`
	PaymentMethod   string       `json:"paymentMethod" binding:"required"`
	ShippingMethod  string       `json:"shippingMethod" binding:"required"`
	TotalAmount     float64      `json:"totalAmount"`
	AppliedCoupon   *CouponInput `json:"appliedCoupon,omitempty"`
	PhoneNumber     string       `json:"phoneNumber" binding:"required"`
}

type SubmitItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Variant   string `json:"variant,omitempty"`
}

type CouponInput struct {
	Code string `json:"code"`
}

// SubmitOrderResponse never carries an order: none exists until the
// gateway confirms payment. The client polls PollURL instead.
type SubmitOrderResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	PendingID    string `json:"pendingOrderId"`
	PollURL      string `json:"pollUrl"`
	PollInterval int    `json:"pollInterval"`
}

// PaymentStatusResponse is the poll payload. PaymentStatus is one of
// pending, processed, failed, expired or not_found; the remaining fields
// are populated per status.
type PaymentStatusResponse struct {
	PaymentStatus string  `json:"paymentStatus"`
	Message       string  `json:"message"`
	Reason        string  `json:"reason,omitempty"`
	OrderID       string  `json:"orderId,omitempty"`
	OrderNumber   string  `json:"orderNumber,omitempty"`
	RetryAllowed  bool    `json:"retryAllowed,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Redirect      string  `json:"redirect,omitempty"`
	PollInterval  int     `json:"pollInterval,omitempty"`
}
