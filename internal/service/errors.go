package service

import "net/http"

// FlowError is a business-rule rejection with a code the frontend can
// branch on. Anything else bubbling out of the services is an internal
// error.
type FlowError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
}

func (e *FlowError) Error() string { return e.Message }

func emailNotVerified() *FlowError {
	return &FlowError{
		Code:       "EMAIL_NOT_VERIFIED",
		Message:    "Please verify your email address before placing an order",
		HTTPStatus: http.StatusForbidden,
	}
}

func unsupportedPaymentMethod(method string) *FlowError {
	return &FlowError{
		Code:       "UNSUPPORTED_PAYMENT_METHOD",
		Message:    "Payment method " + method + " is not supported",
		HTTPStatus: http.StatusBadRequest,
	}
}

func invalidPhone(phone string) *FlowError {
	return &FlowError{
		Code:       "INVALID_PHONE",
		Message:    "Phone number " + phone + " is not a valid Safaricom number",
		HTTPStatus: http.StatusBadRequest,
	}
}

func productNotFound(id string) *FlowError {
	return &FlowError{
		Code:       "PRODUCT_NOT_FOUND",
		Message:    "Product " + id + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

func insufficientStock(title string, available int) *FlowError {
	return &FlowError{
		Code:       "INSUFFICIENT_STOCK",
		Message:    "Insufficient stock for " + title,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]interface{}{"available": available},
	}
}

func invalidCoupon(reason string) *FlowError {
	return &FlowError{
		Code:       "INVALID_COUPON",
		Message:    reason,
		HTTPStatus: http.StatusBadRequest,
	}
}

func shippingMethodNotFound(id string) *FlowError {
	return &FlowError{
		Code:       "SHIPPING_METHOD_NOT_FOUND",
		Message:    "Shipping method " + id + " not found",
		HTTPStatus: http.StatusBadRequest,
	}
}

func totalMismatch(client, calculated float64) *FlowError {
	return &FlowError{
		Code:       "TOTAL_MISMATCH",
		Message:    "Submitted total does not match the calculated total",
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]interface{}{
			"submittedTotal":  client,
			"calculatedTotal": calculated,
		},
	}
}

func paymentFailed() *FlowError {
	return &FlowError{
		Code:       "PAYMENT_FAILED",
		Message:    "Payment processing failed, please try again",
		HTTPStatus: http.StatusBadRequest,
	}
}

func orderNotFound() *FlowError {
	return &FlowError{
		Code:       "ORDER_NOT_FOUND",
		Message:    "Order not found",
		HTTPStatus: http.StatusNotFound,
	}
}

func cancelNotAllowed(reason string) *FlowError {
	return &FlowError{
		Code:       "CANCEL_NOT_ALLOWED",
		Message:    reason,
		HTTPStatus: http.StatusBadRequest,
	}
}

func invalidStatusTransition(from, to string) *FlowError {
	return &FlowError{
		Code:       "INVALID_STATUS_TRANSITION",
		Message:    "Cannot move order from " + from + " to " + to,
		HTTPStatus: http.StatusBadRequest,
	}
}
