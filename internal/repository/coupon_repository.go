package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simonwachira/checkout-service/internal/models"
)

type CouponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var (
		c      models.Coupon
		active int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT code, coupon_type, amount, min_amount, usage_limit, used_count, active
		FROM coupons WHERE code = $1 AND active = 1
	`, code).Scan(&c.Code, &c.Type, &c.Amount, &c.MinAmount, &c.UsageLimit,
		&c.UsedCount, &active)
	if err != nil {
		return nil, err
	}
	c.Active = active != 0
	return &c, nil
}

func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET used_count = used_count + 1 WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	return nil
}
