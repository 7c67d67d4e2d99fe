package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

func TestAsyncRewardPublisher_IssuesCoupon(t *testing.T) {
	store := newFakeCouponStore()
	pub := NewAsyncRewardPublisher(newCouponService(store, true))

	require.NoError(t, pub.PublishReward(context.Background(), entity.RewardEvent{UserID: "u1", DiscountPercentage: 10, Amount: 300000}))
	require.NoError(t, pub.PublishReward(context.Background(), entity.RewardEvent{UserID: "u1", DiscountPercentage: 10, Amount: 300000}))
	pub.Wait()

	assert.Equal(t, 1, store.count())
	assert.True(t, store.get("u1").IsActive)
}

func TestAsyncRewardPublisher_OutlivesRequestContext(t *testing.T) {
	store := newFakeCouponStore()
	pub := NewAsyncRewardPublisher(newCouponService(store, true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, pub.PublishReward(ctx, entity.RewardEvent{UserID: "u1", DiscountPercentage: 10}))
	pub.Wait()

	assert.Equal(t, 1, store.count())
}
