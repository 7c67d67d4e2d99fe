package service

import (
	"context"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/gateway"
)

// The interfaces below are satisfied by the repository, cache and gateway
// packages.

type CouponStore interface {
	FindByUser(ctx context.Context, userID string) (*entity.Coupon, error)
	FindActive(ctx context.Context, userID, code string) (*entity.Coupon, error)
	Issue(ctx context.Context, coupon *entity.Coupon, reissueInactive bool) (bool, error)
}

type OrderStore interface {
	Finalize(ctx context.Context, order *entity.Order, now time.Time) (*entity.Order, bool, error)
}

type ProductStore interface {
	GetProducts(ctx context.Context) ([]*entity.Product, error)
	GetProductByID(ctx context.Context, id string) (*entity.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]*entity.Product, error)
	GetFeaturedProducts(ctx context.Context) ([]*entity.Product, error)
	GetRandomProducts(ctx context.Context, limit int) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ToggleFeatured(ctx context.Context, id string, now time.Time) (*entity.Product, error)
}

type CartStore interface {
	Items(ctx context.Context, userID string) ([]entity.CartItem, error)
	Increment(ctx context.Context, userID, productID string, delta int64) (int64, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (bool, error)
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*gateway.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
}

type RewardPublisher interface {
	PublishReward(ctx context.Context, event entity.RewardEvent) error
}

type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, order *entity.Order, key string) error
}
