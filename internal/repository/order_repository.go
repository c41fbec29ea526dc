package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/simonwachira/checkout-service/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	shipAddr, _ := json.Marshal(o.ShippingAddress)
	billAddr, _ := json.Marshal(o.BillingAddress)
	shipping, _ := json.Marshal(o.Shipping)
	history, _ := json.Marshal(o.StatusHistory)

	coupon := ""
	if o.Coupon != nil {
		b, _ := json.Marshal(o.Coupon)
		coupon = string(b)
	}

	var paidAt interface{}
	if o.Payment.PaidAt != nil {
		paidAt = *o.Payment.PaidAt
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders
		(id, order_number, user_id, items, shipping_address, billing_address,
		 payment_method, payment_status, merchant_request_id,
		 checkout_request_id, receipt_number, paid_at, coupon, shipping,
		 subtotal, discount, tax, shipping_cost, total, status,
		 status_history, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	`, o.ID, o.OrderNumber, o.UserID, string(items), string(shipAddr),
		string(billAddr), o.Payment.Method, string(o.Payment.Status),
		o.Payment.MerchantRequestID, o.Payment.CheckoutRequestID,
		o.Payment.ReceiptNumber, paidAt, coupon, string(shipping),
		o.Subtotal, o.Discount, o.Tax, o.ShippingCost, o.Total,
		string(o.Status), string(history), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

const orderColumns = `id, order_number, user_id, items, shipping_address,
	billing_address, payment_method, payment_status, merchant_request_id,
	checkout_request_id, receipt_number, paid_at, coupon, shipping, subtotal,
	discount, tax, shipping_cost, total, status, status_history, created_at,
	updated_at`

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *OrderRepository) GetByMerchantRequestID(ctx context.Context, merchantRequestID string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE merchant_request_id = $1`, merchantRequestID)
	return scanOrder(row)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// AppendStatus advances the order status and appends a history entry, but
// only if the order is still in the expected source status. Zero rows
// affected means a concurrent update won.
func (r *OrderRepository) AppendStatus(ctx context.Context, orderID string, from, to models.OrderStatus, note string) (int64, error) {
	o, err := r.GetByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	history := append(o.StatusHistory, models.StatusEntry{
		Status:    to,
		Note:      note,
		Timestamp: time.Now().UTC(),
	})
	hb, _ := json.Marshal(history)

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, status_history = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`, string(to), string(hb), time.Now().UTC(), orderID, string(from))
	if err != nil {
		return 0, fmt.Errorf("append order status: %w", err)
	}
	return res.RowsAffected()
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o        models.Order
		items    string
		shipAddr string
		billAddr string
		payState string
		paidAt   sql.NullTime
		coupon   string
		shipping string
		status   string
		history  string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &items, &shipAddr,
		&billAddr, &o.Payment.Method, &payState, &o.Payment.MerchantRequestID,
		&o.Payment.CheckoutRequestID, &o.Payment.ReceiptNumber, &paidAt,
		&coupon, &shipping, &o.Subtotal, &o.Discount, &o.Tax, &o.ShippingCost,
		&o.Total, &status, &history, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Payment.Status = models.PaymentStatus(payState)
	o.Status = models.OrderStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.Payment.PaidAt = &t
	}

	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal([]byte(shipAddr), &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal([]byte(billAddr), &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal billing address: %w", err)
	}
	if err := json.Unmarshal([]byte(shipping), &o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal shipping: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &o.StatusHistory); err != nil {
		return nil, fmt.Errorf("unmarshal status history: %w", err)
	}
	if coupon != "" {
		o.Coupon = &models.CouponSnapshot{}
		if err := json.Unmarshal([]byte(coupon), o.Coupon); err != nil {
			return nil, fmt.Errorf("unmarshal coupon: %w", err)
		}
	}
	return &o, nil
}
