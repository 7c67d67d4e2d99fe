package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"storefront-service/internal/entity"
	"storefront-service/internal/gateway"
)

// maxLineQuantity bounds a single cart line. It keeps totals far from int64
// overflow and quantities inside the order_items INT column.
const maxLineQuantity = 10000

// Pricer returns authoritative unit prices for product ids.
type Pricer interface {
	PriceOf(ctx context.Context, ids []string) (map[string]entity.Money, error)
}

type CheckoutConfig struct {
	Currency              string
	RewardThreshold       entity.Money
	RewardDiscountPercent int
}

// CheckoutService opens a gateway payment session for a cart.
type CheckoutService struct {
	pricer  Pricer
	coupons *CouponService
	gateway PaymentGateway
	rewards RewardPublisher
	cfg     CheckoutConfig
}

func NewCheckoutService(pricer Pricer, coupons *CouponService, gw PaymentGateway, rewards RewardPublisher, cfg CheckoutConfig) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &CheckoutService{
		pricer:  pricer,
		coupons: coupons,
		gateway: gw,
		rewards: rewards,
		cfg:     cfg,
	}
}

// StartCheckout prices the cart from the catalog, applies the user's coupon
// when it is valid and opens a gateway session for the result.
func (s *CheckoutService) StartCheckout(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutSession, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Products))
	for _, line := range req.Products {
		ids = append(ids, line.ProductID)
	}
	prices, err := s.pricer.PriceOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	var total entity.Money
	items := make([]entity.OrderItem, 0, len(req.Products))
	for _, line := range req.Products {
		price, ok := prices[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", ErrInvalidRequest, line.ProductID)
		}
		if line.Price != price {
			logger.Warn().Str("product_id", line.ProductID).Stringer("client_price", line.Price).Stringer("catalog_price", price).Msg("Client price differs from catalog, charging catalog price")
		}
		items = append(items, entity.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity, Price: price})
		lineTotal, ok := addLine(total, price, line.Quantity)
		if !ok {
			return nil, fmt.Errorf("%w: cart total too large", ErrInvalidRequest)
		}
		total = lineTotal
	}

	var couponCode string
	coupon, err := s.coupons.Applicable(ctx, req.UserID, req.CouponCode)
	if err != nil {
		return nil, err
	}
	if coupon != nil {
		total -= total.Percent(coupon.DiscountPercentage)
		couponCode = coupon.Code
	}

	if total <= 0 {
		return nil, fmt.Errorf("%w: nothing to charge", ErrInvalidRequest)
	}

	notes, err := gateway.EncodeMetadata(entity.SessionMetadata{UserID: req.UserID, CouponCode: couponCode, Items: items})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
		Amount:   int64(total),
		Currency: s.cfg.Currency,
		Receipt:  uuid.NewString(),
		Notes:    notes,
	})
	if err != nil {
		logger.Error().Err(err).Str("user_id", req.UserID).Msg("Error creating gateway order")
		return nil, upstream(err)
	}
	logger.Info().
		Str("user_id", req.UserID).
		Str("session_id", order.ID).
		Int64("amount", int64(total)).
		Str("state", string(entity.StateAwaitingPayment)).
		Msg("Checkout session created")

	if total >= s.cfg.RewardThreshold {
		event := entity.RewardEvent{UserID: req.UserID, DiscountPercentage: s.cfg.RewardDiscountPercent, Amount: total}
		if err := s.rewards.PublishReward(ctx, event); err != nil {
			logger.Error().Err(err).Str("user_id", req.UserID).Msg("Error publishing reward event")
		}
	}

	return &entity.CheckoutSession{
		SessionID:  order.ID,
		Amount:     int64(total),
		Currency:   s.cfg.Currency,
		GatewayKey: s.gateway.KeyID(),
	}, nil
}

func validateCheckout(req entity.CheckoutRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidRequest)
	}
	if len(req.Products) == 0 {
		return fmt.Errorf("%w: invalid or empty products array", ErrInvalidRequest)
	}
	for i, line := range req.Products {
		switch {
		case line.ProductID == "":
			return fmt.Errorf("%w: products[%d]: missing product id", ErrInvalidRequest, i)
		case line.Quantity <= 0:
			return fmt.Errorf("%w: products[%d]: quantity must be positive", ErrInvalidRequest, i)
		case line.Quantity > maxLineQuantity:
			return fmt.Errorf("%w: products[%d]: quantity must not exceed %d", ErrInvalidRequest, i, maxLineQuantity)
		case line.Price < 0:
			return fmt.Errorf("%w: products[%d]: price must not be negative", ErrInvalidRequest, i)
		}
	}
	return nil
}

// addLine returns total + price*quantity, or false when the result does not
// fit in Money.
func addLine(total, price entity.Money, quantity int) (entity.Money, bool) {
	if price < 0 || quantity < 0 {
		return 0, false
	}
	if price > 0 && entity.Money(quantity) > (math.MaxInt64-total)/price {
		return 0, false
	}
	return total + price*entity.Money(quantity), true
}
