package repository

import (
	"context"
	"database/sql"

	"github.com/simonwachira/checkout-service/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var (
		u        models.User
		verified int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, email_verified FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &verified)
	if err != nil {
		return nil, err
	}
	u.EmailVerified = verified != 0
	return &u, nil
}
