package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		category_id BIGINT UNSIGNED NOT NULL,
		seller_id BIGINT UNSIGNED NOT NULL,
		image_url VARCHAR(1024) NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT chk_products_price CHECK (price > 0),
		CONSTRAINT chk_products_status CHECK (status IN ('active','sold','inactive')),
		CONSTRAINT fk_products_category FOREIGN KEY (category_id) REFERENCES categories(id),
		CONSTRAINT fk_products_seller FOREIGN KEY (seller_id) REFERENCES users(id),
		INDEX idx_products_status_created (status, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NOT NULL,
		quantity INT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT chk_cart_quantity CHECK (quantity > 0),
		CONSTRAINT uq_cart_user_product UNIQUE (user_id, product_id),
		CONSTRAINT fk_cart_user FOREIGN KEY (user_id) REFERENCES users(id),
		CONSTRAINT fk_cart_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		buyer_id BIGINT UNSIGNED NOT NULL,
		seller_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NOT NULL,
		quantity INT NOT NULL,
		total_price DECIMAL(10,2) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT chk_orders_quantity CHECK (quantity > 0),
		CONSTRAINT fk_orders_buyer FOREIGN KEY (buyer_id) REFERENCES users(id),
		CONSTRAINT fk_orders_seller FOREIGN KEY (seller_id) REFERENCES users(id),
		CONSTRAINT fk_orders_product FOREIGN KEY (product_id) REFERENCES products(id),
		INDEX idx_orders_buyer (buyer_id, created_at),
		INDEX idx_orders_seller (seller_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		sender_id BIGINT UNSIGNED NOT NULL,
		receiver_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NULL,
		message TEXT NOT NULL,
		message_type VARCHAR(32) NOT NULL DEFAULT 'text',
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_messages_sender FOREIGN KEY (sender_id) REFERENCES users(id),
		CONSTRAINT fk_messages_receiver FOREIGN KEY (receiver_id) REFERENCES users(id),
		CONSTRAINT fk_messages_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE SET NULL,
		INDEX idx_messages_receiver_read (receiver_id, is_read)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		price DECIMAL(10,2) NOT NULL CHECK (price > 0),
		category_id INTEGER NOT NULL REFERENCES categories(id),
		seller_id INTEGER NOT NULL REFERENCES users(id),
		image_url TEXT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','sold','inactive')),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		buyer_id INTEGER NOT NULL REFERENCES users(id),
		seller_id INTEGER NOT NULL REFERENCES users(id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		total_price DECIMAL(10,2) NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		receiver_id INTEGER NOT NULL REFERENCES users(id),
		product_id INTEGER NULL REFERENCES products(id) ON DELETE SET NULL,
		message TEXT NOT NULL,
		message_type TEXT NOT NULL DEFAULT 'text',
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders (buyer_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders (seller_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_receiver_read ON messages (receiver_id, is_read)`,
}

// DefaultCategories is the flat category list a fresh database starts with.
var DefaultCategories = []struct{ Name, Description string }{
	{"Electronics", "Refurbished and second-hand devices"},
	{"Clothing", "Pre-loved fashion and accessories"},
	{"Furniture", "Reclaimed and upcycled furniture"},
	{"Books", "Used books and magazines"},
	{"Home & Garden", "Household goods, plants and tools"},
	{"Sports", "Sporting goods and outdoor gear"},
	{"Toys", "Toys and games"},
	{"Other", "Everything else"},
}

// EnsureSchema creates every table that does not exist yet.  Statements are
// executed one by one because the MySQL driver rejects multi-statement
// strings unless multiStatements is enabled.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range DialectFor(db.DriverName()).schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SeedCategories inserts DefaultCategories, skipping names that exist.
func SeedCategories(ctx context.Context, db *sqlx.DB) error {
	q := DialectFor(db.DriverName()).InsertIgnore + " categories (name, description) VALUES (?, ?)"
	for _, c := range DefaultCategories {
		if _, err := db.ExecContext(ctx, q, c.Name, c.Description); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}
