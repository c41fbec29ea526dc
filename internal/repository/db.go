package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// InitDB opens the database for the given driver ("postgres" or "sqlite")
// and ensures all required tables exist. Pass ":memory:" with the sqlite
// driver for an in-memory database. The SQL throughout this package sticks
// to the subset both engines accept.
func InitDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == "sqlite" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set wal mode: %w", err)
		}
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pending_payments (
			id TEXT PRIMARY KEY,
			merchant_request_id TEXT UNIQUE NOT NULL,
			checkout_request_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			phone TEXT NOT NULL,
			status TEXT NOT NULL,
			failure_reason TEXT NOT NULL DEFAULT '',
			items TEXT NOT NULL,
			shipping_address TEXT NOT NULL,
			billing_address TEXT NOT NULL,
			coupon TEXT NOT NULL DEFAULT '',
			shipping TEXT NOT NULL,
			stock_lines TEXT NOT NULL,
			subtotal DOUBLE PRECISION NOT NULL,
			discount DOUBLE PRECISION NOT NULL,
			tax DOUBLE PRECISION NOT NULL,
			shipping_cost DOUBLE PRECISION NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_payments_status ON pending_payments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_payments_created_at ON pending_payments(created_at)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			order_number TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL,
			items TEXT NOT NULL,
			shipping_address TEXT NOT NULL,
			billing_address TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			merchant_request_id TEXT NOT NULL,
			checkout_request_id TEXT NOT NULL,
			receipt_number TEXT NOT NULL DEFAULT '',
			paid_at TIMESTAMP,
			coupon TEXT NOT NULL DEFAULT '',
			shipping TEXT NOT NULL,
			subtotal DOUBLE PRECISION NOT NULL,
			discount DOUBLE PRECISION NOT NULL,
			tax DOUBLE PRECISION NOT NULL,
			shipping_cost DOUBLE PRECISION NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			status_history TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_merchant_request ON orders(merchant_request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,

		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			sku TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL,
			sale_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS coupons (
			code TEXT PRIMARY KEY,
			coupon_type TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			min_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			usage_limit INTEGER NOT NULL DEFAULT 0,
			used_count INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS shipping_methods (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			cost DOUBLE PRECISION NOT NULL,
			free_above DOUBLE PRECISION NOT NULL DEFAULT 0,
			delivery_days INTEGER NOT NULL DEFAULT 3
		)`,

		`CREATE TABLE IF NOT EXISTS tax_brackets (
			id TEXT PRIMARY KEY,
			min_amount DOUBLE PRECISION NOT NULL,
			max_amount DOUBLE PRECISION NOT NULL,
			rate DOUBLE PRECISION NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			email_verified INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			read INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}

	return nil
}
