package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "reward-consumer").Logger()

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CouponIssuer is satisfied by *service.CouponService.
type CouponIssuer interface {
	IssueCoupon(ctx context.Context, userID string, discountPercentage int) (*entity.Coupon, error)
}

// Consumer turns reward events from the checkout into coupons.
type Consumer struct {
	reader MessageReader
	issuer CouponIssuer
}

func NewConsumer(reader MessageReader, issuer CouponIssuer) *Consumer {
	return &Consumer{reader: reader, issuer: issuer}
}

// Run reads reward events until ctx is cancelled, then closes the reader.
func (c *Consumer) Run(ctx context.Context) {
	defer func() {
		if err := c.reader.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing reader")
		}
	}()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info().Msg("Reward consumer stopped")
				return
			}
			logger.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage issues the coupon for one event. Bad payloads are logged and
// skipped.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var event entity.RewardEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}
	if event.UserID == "" {
		logger.Error().Str("key", string(msg.Key)).Msg("Reward event without user id")
		return
	}

	coupon, err := c.issuer.IssueCoupon(ctx, event.UserID, event.DiscountPercentage)
	if err != nil {
		logger.Error().Err(err).Str("user_id", event.UserID).Msg("Error issuing coupon")
		return
	}
	if coupon != nil {
		logger.Info().Str("user_id", event.UserID).Int64("offset", msg.Offset).Msg("Reward coupon issued")
	}
}
