package models

import "time"

// OrderEvent is published to the order.events Kafka topic on every
// pending-payment and order state transition.
type OrderEvent struct {
	EventType         string    `json:"event_type"`
	MerchantRequestID string    `json:"merchant_request_id,omitempty"`
	OrderID           string    `json:"order_id,omitempty"`
	OrderNumber       string    `json:"order_number,omitempty"`
	UserID            string    `json:"user_id"`
	PreviousState     string    `json:"previous_state,omitempty"`
	State             string    `json:"state"`
	Amount            float64   `json:"amount,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

const (
	EventPaymentInitiated = "payment.initiated"
	EventPaymentFailed    = "payment.failed"
	EventOrderCreated     = "order.created"
	EventOrderStatus      = "order.status_changed"
	EventOrderCancelled   = "order.cancelled"
)

// NotifyMessage travels over the checkout.notify NATS subject and is fanned
// out by the notifier worker into in-app notifications and emails.
type NotifyMessage struct {
	UserID    string            `json:"user_id"`
	Email     string            `json:"email,omitempty"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	SendEmail bool              `json:"send_email"`
	Data      map[string]string `json:"data,omitempty"`
}

const (
	NotifyOrderConfirmed = "order_confirmed"
	NotifyPaymentFailed  = "payment_failed"
	NotifyOrderShipped   = "order_shipped"
	NotifyOrderDelivered = "order_delivered"
	NotifyOrderCancelled = "order_cancelled"
)

// Notification is the persisted in-app notification row.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
