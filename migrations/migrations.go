package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

const productsTable = `
	CREATE TABLE IF NOT EXISTS products (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price BIGINT NOT NULL,
		image VARCHAR(1024) NOT NULL,
		category VARCHAR(100) NOT NULL,
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_products_category (category),
		INDEX idx_products_featured (is_featured)
	);
`

const couponsTable = `
	CREATE TABLE IF NOT EXISTS coupons (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(32) NOT NULL UNIQUE,
		discount_percentage INT NOT NULL,
		expiration_date DATETIME(6) NOT NULL,
		user_id VARCHAR(64) NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	);
`

const ordersTable = `
	CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		total_amount BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		coupon_code VARCHAR(32) NOT NULL DEFAULT '',
		gateway_order_id VARCHAR(64) NOT NULL,
		gateway_payment_id VARCHAR(64) NOT NULL UNIQUE,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_orders_user (user_id)
	);
`

const orderItemsTable = `
	CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		quantity INT NOT NULL,
		price BIGINT NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	);
`

// AutoMigrateProducts creates the products table on the catalog database.
func AutoMigrateProducts(retries int, db *sql.DB) error {
	return migrate(retries, productsTable, db)
}

// AutoMigrateCoupons creates the coupons table on every shard.
func AutoMigrateCoupons(retries int, dbs ...*sql.DB) error {
	return migrate(retries, couponsTable, dbs...)
}

// AutoMigrateOrders creates the orders and order_items tables on every shard.
// order_items references orders, so the order matters.
func AutoMigrateOrders(retries int, dbs ...*sql.DB) error {
	if err := migrate(retries, ordersTable, dbs...); err != nil {
		return err
	}
	return migrate(retries, orderItemsTable, dbs...)
}

func migrate(retries int, query string, dbs ...*sql.DB) error {
	for i, db := range dbs {
		_, err := db.Exec(query)
		if err != nil {
			// Retry creating the table
			for attempt := 0; attempt < retries; attempt++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("migrate shard %d: %w", i, err)
		}
	}
	return nil
}
