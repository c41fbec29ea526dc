package repository

import (
	"context"
	"database/sql"

	"github.com/simonwachira/checkout-service/internal/models"
)

// RateRepository serves shipping-method costs and tax brackets.
type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) GetShippingMethod(ctx context.Context, id string) (*models.ShippingMethod, error) {
	var m models.ShippingMethod
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, cost, free_above, delivery_days
		FROM shipping_methods WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Cost, &m.FreeAbove, &m.DeliveryDays)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindTaxBracket returns the bracket whose [min,max] range contains the
// amount, or sql.ErrNoRows when no bracket matches.
func (r *RateRepository) FindTaxBracket(ctx context.Context, amount float64) (*models.TaxBracket, error) {
	var b models.TaxBracket
	err := r.db.QueryRowContext(ctx, `
		SELECT id, min_amount, max_amount, rate
		FROM tax_brackets
		WHERE min_amount <= $1 AND max_amount >= $1
		ORDER BY min_amount LIMIT 1
	`, amount).Scan(&b.ID, &b.MinAmount, &b.MaxAmount, &b.Rate)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
