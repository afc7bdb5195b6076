package database

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the store tables on startup when they do not exist.
// All statements are idempotent so repeated boots are safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			slug        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			image       TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'draft',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id          BIGSERIAL PRIMARY KEY,
			sku         TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			slug        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			price       BIGINT NOT NULL CHECK (price >= 0),
			status      TEXT NOT NULL DEFAULT 'draft',
			category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
			main_image  TEXT NOT NULL DEFAULT '',
			featured    BOOLEAN NOT NULL DEFAULT FALSE,
			gallery     JSONB NOT NULL DEFAULT '[]',
			variants    JSONB NOT NULL DEFAULT '{}',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id            BIGSERIAL PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			phone         TEXT,
			password_hash TEXT,
			street        TEXT,
			ext_number    TEXT,
			colonia       TEXT,
			city          TEXT,
			state         TEXT,
			postal_code   TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id               BIGSERIAL PRIMARY KEY,
			order_number     TEXT NOT NULL UNIQUE,
			customer_id      BIGINT NOT NULL REFERENCES customers(id),
			customer_email   TEXT NOT NULL,
			customer_name    TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL DEFAULT 'pending',
			subtotal         BIGINT NOT NULL,
			shipping         BIGINT NOT NULL,
			tax              BIGINT NOT NULL,
			total            BIGINT NOT NULL,
			shipping_address JSONB NOT NULL DEFAULT '{}',
			notes            TEXT,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// product_id is intentionally not a foreign key: items keep a
		// snapshot of the product and must survive its deletion.
		`CREATE TABLE IF NOT EXISTS order_items (
			id            BIGSERIAL PRIMARY KEY,
			order_id      BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id    BIGINT NOT NULL,
			product_name  TEXT NOT NULL,
			product_sku   TEXT NOT NULL,
			product_image TEXT NOT NULL DEFAULT '',
			quantity      INT NOT NULL CHECK (quantity > 0),
			unit_price    BIGINT NOT NULL,
			total_price   BIGINT NOT NULL,
			variant_size  TEXT,
			variant_color TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS admin_users (
			id            BIGSERIAL PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'manager',
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_products_status ON products (status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
