package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/simonwachira/checkout-service/internal/models"
)

type PendingPaymentRepository struct {
	db *sql.DB
}

func NewPendingPaymentRepository(db *sql.DB) *PendingPaymentRepository {
	return &PendingPaymentRepository{db: db}
}

func (r *PendingPaymentRepository) Insert(ctx context.Context, p *models.PendingPayment) error {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	shipAddr, _ := json.Marshal(p.ShippingAddress)
	billAddr, _ := json.Marshal(p.BillingAddress)
	shipping, _ := json.Marshal(p.Shipping)
	stockLines, _ := json.Marshal(p.StockLines)

	coupon := ""
	if p.Coupon != nil {
		b, _ := json.Marshal(p.Coupon)
		coupon = string(b)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pending_payments
		(id, merchant_request_id, checkout_request_id, user_id, phone, status,
		 failure_reason, items, shipping_address, billing_address, coupon,
		 shipping, stock_lines, subtotal, discount, tax, shipping_cost, total,
		 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, p.ID, p.MerchantRequestID, p.CheckoutRequestID, p.UserID, p.Phone,
		string(p.Status), p.FailureReason, string(items), string(shipAddr),
		string(billAddr), coupon, string(shipping), string(stockLines),
		p.Subtotal, p.Discount, p.Tax, p.ShippingCost, p.Total,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pending payment: %w", err)
	}
	return nil
}

const pendingColumns = `id, merchant_request_id, checkout_request_id, user_id,
	phone, status, failure_reason, items, shipping_address, billing_address,
	coupon, shipping, stock_lines, subtotal, discount, tax, shipping_cost,
	total, created_at, updated_at`

func (r *PendingPaymentRepository) GetByID(ctx context.Context, id string) (*models.PendingPayment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_payments WHERE id = $1`, id)
	return scanPendingPayment(row)
}

func (r *PendingPaymentRepository) GetByMerchantRequestID(ctx context.Context, merchantRequestID string) (*models.PendingPayment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_payments WHERE merchant_request_id = $1`, merchantRequestID)
	return scanPendingPayment(row)
}

// TransitionStatus moves a pending payment between statuses with a single
// conditional update. Zero rows affected means the record was not in the
// expected source status, which callers treat as a duplicate delivery.
func (r *PendingPaymentRepository) TransitionStatus(ctx context.Context, merchantRequestID string, from, to models.PendingStatus, reason string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_payments
		SET status = $1, failure_reason = $2, updated_at = $3
		WHERE merchant_request_id = $4 AND status = $5
	`, string(to), reason, time.Now().UTC(), merchantRequestID, string(from))
	if err != nil {
		return 0, fmt.Errorf("transition pending payment: %w", err)
	}
	return res.RowsAffected()
}

// MarkExpiredBefore flips stale pending rows to expired. This is the only
// expiry mechanism; there is no database-level TTL.
func (r *PendingPaymentRepository) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_payments
		SET status = $1, updated_at = $2
		WHERE status = $3 AND created_at < $4
	`, string(models.PendingStatusExpired), time.Now().UTC(),
		string(models.PendingStatusPending), cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}
	return res.RowsAffected()
}

func (r *PendingPaymentRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM pending_payments
		WHERE status <> $1 AND created_at < $2
	`, string(models.PendingStatusPending), cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge terminal pending payments: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPendingPayment(row rowScanner) (*models.PendingPayment, error) {
	var (
		p          models.PendingPayment
		status     string
		items      string
		shipAddr   string
		billAddr   string
		coupon     string
		shipping   string
		stockLines string
	)
	err := row.Scan(&p.ID, &p.MerchantRequestID, &p.CheckoutRequestID,
		&p.UserID, &p.Phone, &status, &p.FailureReason, &items, &shipAddr,
		&billAddr, &coupon, &shipping, &stockLines, &p.Subtotal, &p.Discount,
		&p.Tax, &p.ShippingCost, &p.Total, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.PendingStatus(status)

	if err := json.Unmarshal([]byte(items), &p.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal([]byte(shipAddr), &p.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal([]byte(billAddr), &p.BillingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal billing address: %w", err)
	}
	if err := json.Unmarshal([]byte(shipping), &p.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal shipping: %w", err)
	}
	if err := json.Unmarshal([]byte(stockLines), &p.StockLines); err != nil {
		return nil, fmt.Errorf("unmarshal stock lines: %w", err)
	}
	if coupon != "" {
		p.Coupon = &models.CouponSnapshot{}
		if err := json.Unmarshal([]byte(coupon), p.Coupon); err != nil {
			return nil, fmt.Errorf("unmarshal coupon: %w", err)
		}
	}
	return &p, nil
}
