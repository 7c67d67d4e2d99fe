package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
)

// KafkaOrderPublisher writes finalized orders to the order topic.
type KafkaOrderPublisher struct {
	writer *kafka.Writer
}

func NewKafkaOrderPublisher(writer *kafka.Writer) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{writer: writer}
}

func (p *KafkaOrderPublisher) PublishOrderEvent(ctx context.Context, order *entity.Order, key string) error {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	// order-finalized-<uuid>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%s", key, order.ID)),
		Value: orderJSON,
	}

	return p.writer.WriteMessages(ctx, msg)
}

// KafkaRewardPublisher hands reward events to the coupon issuer consumer.
// Messages are keyed by user so one user's events stay ordered.
type KafkaRewardPublisher struct {
	writer *kafka.Writer
}

func NewKafkaRewardPublisher(writer *kafka.Writer) *KafkaRewardPublisher {
	return &KafkaRewardPublisher{writer: writer}
}

func (p *KafkaRewardPublisher) PublishReward(ctx context.Context, event entity.RewardEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.UserID), Value: value})
}

// AsyncRewardPublisher issues coupons on a goroutine in this process. It is
// used when no Kafka brokers are configured.
type AsyncRewardPublisher struct {
	issuer  *CouponService
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncRewardPublisher(issuer *CouponService) *AsyncRewardPublisher {
	return &AsyncRewardPublisher{issuer: issuer, timeout: 10 * time.Second}
}

// PublishReward returns immediately. Issuance runs detached from the request
// context.
func (p *AsyncRewardPublisher) PublishReward(_ context.Context, event entity.RewardEvent) error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if _, err := p.issuer.IssueCoupon(ctx, event.UserID, event.DiscountPercentage); err != nil {
			logger.Error().Err(err).Str("user_id", event.UserID).Msg("Error issuing reward coupon")
		}
	}()
	return nil
}

// Wait blocks until every issued goroutine is done.
func (p *AsyncRewardPublisher) Wait() {
	p.wg.Wait()
}
