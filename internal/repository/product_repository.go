package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simonwachira/checkout-service/internal/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, image, sku, price, sale_price, stock
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Image, &p.SKU, &p.Price, &p.SalePrice, &p.Stock)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// TryDecrementStock subtracts qty from stock only when enough remains. The
// floor check lives inside the UPDATE so concurrent confirmations cannot
// oversell.
func (r *ProductRepository) TryDecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock = stock - $1
		WHERE id = $2 AND stock >= $1
	`, qty, id)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *ProductRepository) RestoreStock(ctx context.Context, id string, qty int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + $1 WHERE id = $2`, qty, id)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}
