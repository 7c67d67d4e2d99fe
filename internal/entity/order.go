package entity

import "time"

type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId"`
	Items            []OrderItem `json:"items"`
	TotalAmount      Money       `json:"totalAmount"`
	Currency         string      `json:"currency"`
	CouponCode       string      `json:"couponCode,omitempty"`
	GatewayOrderID   string      `json:"gatewayOrderId"`
	GatewayPaymentID string      `json:"gatewayPaymentId"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// OrderItem captures the unit price at purchase time, independent of later
// catalog changes.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     Money  `json:"price"`
}

/*
Mysql Table (one per shard)

CREATE TABLE orders (
	id CHAR(36) NOT NULL PRIMARY KEY,
	user_id VARCHAR(64) NOT NULL,
	total_amount BIGINT NOT NULL,
	currency CHAR(3) NOT NULL,
	coupon_code VARCHAR(32) NOT NULL DEFAULT '',
	gateway_order_id VARCHAR(64) NOT NULL,
	gateway_payment_id VARCHAR(64) NOT NULL UNIQUE,
	created_at DATETIME(6) NOT NULL
);

CREATE TABLE order_items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	order_id CHAR(36) NOT NULL REFERENCES orders(id),
	product_id VARCHAR(64) NOT NULL,
	quantity INT NOT NULL,
	price BIGINT NOT NULL
);
*/
