package interfaces

import (
	"context"
	"time"

	"github.com/simonwachira/checkout-service/internal/models"
)

// PendingPaymentRepository defines the contract for checkout-attempt data
// access. TransitionStatus is the idempotency gate: it must be a single
// conditional update returning the number of rows moved.
type PendingPaymentRepository interface {
	Insert(ctx context.Context, p *models.PendingPayment) error
	GetByID(ctx context.Context, id string) (*models.PendingPayment, error)
	GetByMerchantRequestID(ctx context.Context, merchantRequestID string) (*models.PendingPayment, error)
	TransitionStatus(ctx context.Context, merchantRequestID string, from, to models.PendingStatus, reason string) (int64, error)
	MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByMerchantRequestID(ctx context.Context, merchantRequestID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	AppendStatus(ctx context.Context, orderID string, from, to models.OrderStatus, note string) (int64, error)
}

// ProductRepository exposes atomic stock mutation. TryDecrementStock must
// fail (return false) rather than drive stock negative.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	TryDecrementStock(ctx context.Context, id string, qty int) (bool, error)
	RestoreStock(ctx context.Context, id string, qty int) error
}

type CouponRepository interface {
	GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

type RateRepository interface {
	GetShippingMethod(ctx context.Context, id string) (*models.ShippingMethod, error)
	FindTaxBracket(ctx context.Context, amount float64) (*models.TaxBracket, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
}

// PaymentGateway wraps the mobile-money push-payment API.
type PaymentGateway interface {
	STKPush(ctx context.Context, phone string, amount int, reference, description string) (*StkPushResult, error)
}

type StkPushResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResponseCode      string
	CustomerMessage   string
}

// EventPublisher feeds the order.events stream.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt models.OrderEvent) error
}

// NotifyPublisher hands a notification to the side channel. Implementations
// must be best-effort; callers ignore errors beyond logging.
type NotifyPublisher interface {
	PublishNotify(ctx context.Context, msg models.NotifyMessage) error
}

// Locker serializes webhook processing per correlation ID.
type Locker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}
