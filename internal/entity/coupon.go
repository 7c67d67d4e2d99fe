package entity

import "time"

// Coupon is a single-use percentage discount owned by one user. A user has at
// most one coupon record; redemption flips IsActive instead of deleting it.
type Coupon struct {
	ID                 int64     `json:"-"`
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discountPercentage"`
	ExpirationDate     time.Time `json:"expirationDate"`
	UserID             string    `json:"userId"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Usable reports whether the coupon can discount a checkout at now.
func (c *Coupon) Usable(now time.Time) bool {
	return c != nil && c.IsActive && now.Before(c.ExpirationDate)
}

/*
Schema MySQL for coupons table (one per shard):
CREATE TABLE coupons (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	code VARCHAR(32) NOT NULL UNIQUE,
	discount_percentage INT NOT NULL,
	expiration_date DATETIME(6) NOT NULL,
	user_id VARCHAR(64) NOT NULL UNIQUE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME(6) NOT NULL,
	updated_at DATETIME(6) NOT NULL
);
*/
