package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront-service/internal/entity"
)

// OrderService turns a captured payment into exactly one order.
type OrderService struct {
	orders OrderStore
	carts  CartStore
	events OrderEventPublisher
	now    func() time.Time
}

// NewOrderService creates a new instance of OrderService. carts and events
// may be nil.
func NewOrderService(orders OrderStore, carts CartStore, events OrderEventPublisher) *OrderService {
	return &OrderService{
		orders: orders,
		carts:  carts,
		events: events,
		now:    time.Now,
	}
}

// Finalize records the order for a captured payment and redeems its coupon in
// the same transaction. Finalizing a payment again returns the first order.
func (s *OrderService) Finalize(ctx context.Context, meta entity.SessionMetadata, gatewayOrderID, gatewayPaymentID string, amount entity.Money, currency string) (*entity.Order, error) {
	now := s.now().UTC()
	order := &entity.Order{
		ID:               uuid.NewString(),
		UserID:           meta.UserID,
		Items:            meta.Items,
		TotalAmount:      amount,
		Currency:         currency,
		CouponCode:       meta.CouponCode,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		CreatedAt:        now,
	}

	result, created, err := s.orders.Finalize(ctx, order, now)
	if err != nil {
		logger.Error().Err(err).Str("payment_id", gatewayPaymentID).Msg("Error finalizing order")
		return nil, upstream(err)
	}
	if !created {
		logger.Info().Str("payment_id", gatewayPaymentID).Str("order_id", result.ID).Msg("Payment already finalized")
		return result, nil
	}

	logger.Info().
		Str("order_id", result.ID).
		Str("user_id", result.UserID).
		Str("payment_id", gatewayPaymentID).
		Str("state", string(entity.StateFinalized)).
		Msg("Order finalized")

	s.afterFinalize(ctx, result)
	return result, nil
}

// afterFinalize runs the steps that must not undo a committed order.
func (s *OrderService) afterFinalize(ctx context.Context, order *entity.Order) {
	if s.carts != nil {
		if err := s.carts.Clear(ctx, order.UserID); err != nil {
			logger.Error().Err(err).Str("user_id", order.UserID).Msg("Error clearing cart after order")
		}
	}
	if s.events != nil {
		if err := s.events.PublishOrderEvent(ctx, order, "finalized"); err != nil {
			logger.Error().Err(err).Str("order_id", order.ID).Msg("Error publishing order event")
		}
	}
}
