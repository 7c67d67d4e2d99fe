package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

// OrderRepository keeps orders on the shard of their owner. Routing by user id
// means a retried confirmation for the same payment reaches the same
// UNIQUE(gateway_payment_id) index.
type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards, router}
}

func (r *OrderRepository) shard(userID string) *sql.DB {
	return r.dbShards[r.router.GetShard(userID)]
}

// GetOrderByPaymentID loads the order created for a gateway payment.
func (r *OrderRepository) GetOrderByPaymentID(ctx context.Context, userID, paymentID string) (*entity.Order, error) {
	orderQuery := `SELECT id, user_id, total_amount, currency, coupon_code, gateway_order_id, gateway_payment_id, created_at FROM orders WHERE gateway_payment_id = ?`
	itemQuery := `SELECT product_id, quantity, price FROM order_items WHERE order_id = ? ORDER BY id`

	db := r.shard(userID)

	order := &entity.Order{}
	err := db.QueryRowContext(ctx, orderQuery, paymentID).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Currency, &order.CouponCode, &order.GatewayOrderID, &order.GatewayPaymentID, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, itemQuery, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := entity.OrderItem{}
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	return order, rows.Err()
}

// Finalize inserts the order with its items and deactivates the redeemed
// coupon in one transaction. When the payment already has an order the
// existing order is returned and created is false.
func (r *OrderRepository) Finalize(ctx context.Context, order *entity.Order, now time.Time) (result *entity.Order, created bool, err error) {
	db := r.shard(order.UserID)

	// Start a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}

	// Insert order
	orderQuery := `INSERT INTO orders (id, user_id, total_amount, currency, coupon_code, gateway_order_id, gateway_payment_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, orderQuery, order.ID, order.UserID, order.TotalAmount, order.Currency, order.CouponCode, order.GatewayOrderID, order.GatewayPaymentID, order.CreatedAt)
	if err != nil {
		tx.Rollback()
		if isDuplicateKey(err) {
			existing, loadErr := r.GetOrderByPaymentID(ctx, order.UserID, order.GatewayPaymentID)
			if loadErr != nil {
				return nil, false, loadErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	// Insert order items with batch
	if len(order.Items) > 0 {
		itemQuery := `INSERT INTO order_items (order_id, product_id, quantity, price) VALUES `
		var values []interface{}
		for _, item := range order.Items {
			itemQuery += "(?, ?, ?, ?),"
			values = append(values, order.ID, item.ProductID, item.Quantity, item.Price)
		}
		// Remove the trailing comma
		itemQuery = itemQuery[:len(itemQuery)-1]

		_, err = tx.ExecContext(ctx, itemQuery, values...)
		if err != nil {
			tx.Rollback()
			return nil, false, err
		}
	}

	// Redeem the coupon. No matching active row is fine.
	if order.CouponCode != "" {
		couponQuery := `UPDATE coupons SET is_active = FALSE, updated_at = ? WHERE code = ? AND user_id = ? AND is_active = TRUE`
		_, err = tx.ExecContext(ctx, couponQuery, now, order.CouponCode, order.UserID)
		if err != nil {
			tx.Rollback()
			return nil, false, err
		}
	}

	// Commit the transaction
	if err = tx.Commit(); err != nil {
		return nil, false, err
	}

	return order, true, nil
}
