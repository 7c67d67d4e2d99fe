package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/entity"
)

// CartRepository keeps each user's cart as a Redis hash of product id to
// quantity under cart:<userID>.
type CartRepository struct {
	rdb *redis.Client
}

func NewCartRepository(rdb *redis.Client) *CartRepository {
	return &CartRepository{rdb}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Items returns the cart lines ordered by product id.
func (r *CartRepository) Items(ctx context.Context, userID string) ([]entity.CartItem, error) {
	raw, err := r.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	items := make([]entity.CartItem, 0, len(raw))
	for productID, q := range raw {
		quantity, err := strconv.Atoi(q)
		if err != nil {
			return nil, fmt.Errorf("cart %s: bad quantity for %s: %w", userID, productID, err)
		}
		items = append(items, entity.CartItem{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

// Increment adds delta to a line, creating it when absent, and returns the new
// quantity.
func (r *CartRepository) Increment(ctx context.Context, userID, productID string, delta int64) (int64, error) {
	return r.rdb.HIncrBy(ctx, cartKey(userID), productID, delta).Result()
}

// SetQuantity overwrites an existing line. Zero removes it. It reports false
// when the product is not in the cart.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID string, quantity int) (bool, error) {
	key := cartKey(userID)
	exists, err := r.rdb.HExists(ctx, key, productID).Result()
	if err != nil || !exists {
		return false, err
	}
	if quantity == 0 {
		return true, r.rdb.HDel(ctx, key, productID).Err()
	}
	return true, r.rdb.HSet(ctx, key, productID, quantity).Err()
}

func (r *CartRepository) Remove(ctx context.Context, userID, productID string) error {
	return r.rdb.HDel(ctx, cartKey(userID), productID).Err()
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}
