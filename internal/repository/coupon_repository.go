package repository

import (
	"context"
	"database/sql"
	"errors"

	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

const couponColumns = `id, code, discount_percentage, expiration_date, user_id, is_active, created_at, updated_at`

// CouponRepository stores coupons on the shard of their owner, next to the
// owner's orders, so redemption and order insert share one transaction.
type CouponRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewCouponRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *CouponRepository {
	return &CouponRepository{dbShards, router}
}

func (r *CouponRepository) shard(userID string) *sql.DB {
	return r.dbShards[r.router.GetShard(userID)]
}

func scanCoupon(row scanner) (*entity.Coupon, error) {
	c := &entity.Coupon{}
	err := row.Scan(&c.ID, &c.Code, &c.DiscountPercentage, &c.ExpirationDate, &c.UserID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByUser returns the user's coupon record, active or not.
func (r *CouponRepository) FindByUser(ctx context.Context, userID string) (*entity.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE user_id = ?`
	return scanCoupon(r.shard(userID).QueryRowContext(ctx, query, userID))
}

// FindActive looks up an active coupon by code scoped to its owner.
func (r *CouponRepository) FindActive(ctx context.Context, userID, code string) (*entity.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = ? AND user_id = ? AND is_active = TRUE`
	return scanCoupon(r.shard(userID).QueryRowContext(ctx, query, code, userID))
}

// Issue writes coupon for its owner unless the owner already holds a record
// that must be kept. It reports whether a coupon was written. An inactive
// record is overwritten in place only when reissueInactive is set. A
// concurrent insert or a code collision surfaces as ErrDuplicate.
func (r *CouponRepository) Issue(ctx context.Context, coupon *entity.Coupon, reissueInactive bool) (bool, error) {
	db := r.shard(coupon.UserID)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE user_id = ? FOR UPDATE`
	existing, err := scanCoupon(tx.QueryRowContext(ctx, query, coupon.UserID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}

	switch {
	case existing != nil && (existing.IsActive || !reissueInactive):
		return false, nil
	case existing != nil:
		updateQuery := `UPDATE coupons SET code = ?, discount_percentage = ?, expiration_date = ?, is_active = TRUE, updated_at = ? WHERE id = ?`
		_, err = tx.ExecContext(ctx, updateQuery, coupon.Code, coupon.DiscountPercentage, coupon.ExpirationDate, coupon.UpdatedAt, existing.ID)
		if err != nil {
			if isDuplicateKey(err) {
				return false, ErrDuplicate
			}
			return false, err
		}
		coupon.ID = existing.ID
		coupon.CreatedAt = existing.CreatedAt
	default:
		insertQuery := `INSERT INTO coupons (code, discount_percentage, expiration_date, user_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, TRUE, ?, ?)`
		res, err := tx.ExecContext(ctx, insertQuery, coupon.Code, coupon.DiscountPercentage, coupon.ExpirationDate, coupon.UserID, coupon.CreatedAt, coupon.UpdatedAt)
		if err != nil {
			if isDuplicateKey(err) {
				return false, ErrDuplicate
			}
			return false, err
		}
		if id, err := res.LastInsertId(); err == nil {
			coupon.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	coupon.IsActive = true
	return true, nil
}
