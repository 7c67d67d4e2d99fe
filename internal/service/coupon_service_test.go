package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

func newCouponService(store CouponStore, reissue bool) *CouponService {
	return NewCouponService(store, CouponConfig{DiscountPercent: 10, Validity: 30 * 24 * time.Hour, ReissueInactive: reissue})
}

func TestIssueCoupon_New(t *testing.T) {
	store := newFakeCouponStore()
	svc := newCouponService(store, true)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	c, err := svc.IssueCoupon(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.True(t, strings.HasPrefix(c.Code, "GIFT"))
	assert.Len(t, c.Code, 10)
	assert.Equal(t, strings.ToUpper(c.Code), c.Code)
	assert.Equal(t, 10, c.DiscountPercentage)
	assert.Equal(t, now.Add(30*24*time.Hour), c.ExpirationDate)
	assert.True(t, c.IsActive)
}

func TestIssueCoupon_TwiceKeepsOneRecord(t *testing.T) {
	store := newFakeCouponStore()
	svc := newCouponService(store, true)

	first, err := svc.IssueCoupon(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.IssueCoupon(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, first.Code, store.get("u1").Code)
}

func TestIssueCoupon_ConcurrentCallsIssueOnce(t *testing.T) {
	store := newFakeCouponStore()
	svc := newCouponService(store, true)

	var wg sync.WaitGroup
	var mu sync.Mutex
	issued := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.IssueCoupon(context.Background(), "u1", 10)
			assert.NoError(t, err)
			if c != nil {
				mu.Lock()
				issued++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, issued)
	assert.Equal(t, 1, store.count())
}

func TestIssueCoupon_InactiveRecord(t *testing.T) {
	old := entity.Coupon{Code: "GIFTOLD001", DiscountPercentage: 10, UserID: "u1", IsActive: false, ExpirationDate: time.Now().Add(time.Hour)}

	t.Run("reissued in place", func(t *testing.T) {
		store := newFakeCouponStore()
		store.put(old)
		c, err := newCouponService(store, true).IssueCoupon(context.Background(), "u1", 10)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.NotEqual(t, "GIFTOLD001", store.get("u1").Code)
		assert.True(t, store.get("u1").IsActive)
		assert.Equal(t, 1, store.count())
	})

	t.Run("kept when reissue disabled", func(t *testing.T) {
		store := newFakeCouponStore()
		store.put(old)
		c, err := newCouponService(store, false).IssueCoupon(context.Background(), "u1", 10)
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.Equal(t, "GIFTOLD001", store.get("u1").Code)
	})
}

func TestIssueCoupon_DegeneratePercentUsesDefault(t *testing.T) {
	for _, pct := range []int{0, -5, 101} {
		store := newFakeCouponStore()
		c, err := newCouponService(store, true).IssueCoupon(context.Background(), "u1", pct)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, 10, c.DiscountPercentage, "pct %d", pct)
	}
}

func TestIssueCoupon_RetriesCodeCollision(t *testing.T) {
	store := newFakeCouponStore()
	store.dupCodes = 1

	c, err := newCouponService(store, true).IssueCoupon(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 1, store.count())
}

func TestIssueCoupon_StoreFailure(t *testing.T) {
	store := newFakeCouponStore()
	store.err = errStoreDown

	_, err := newCouponService(store, true).IssueCoupon(context.Background(), "u1", 10)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCouponService_ValidateAndActive(t *testing.T) {
	store := newFakeCouponStore()
	svc := newCouponService(store, true)
	now := time.Now()
	store.put(entity.Coupon{Code: "GIFTAAAAAA", DiscountPercentage: 10, UserID: "u1", IsActive: true, ExpirationDate: now.Add(time.Hour)})
	store.put(entity.Coupon{Code: "GIFTEXPIRE", DiscountPercentage: 10, UserID: "u2", IsActive: true, ExpirationDate: now.Add(-time.Hour)})

	c, err := svc.Validate(context.Background(), "u1", "GIFTAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 10, c.DiscountPercentage)

	_, err = svc.Validate(context.Background(), "u1", "GIFTBBBBBB")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Validate(context.Background(), "u2", "GIFTEXPIRE")
	assert.ErrorIs(t, err, ErrNotFound)

	// a code is scoped to its owner
	_, err = svc.Validate(context.Background(), "u2", "GIFTAAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := svc.ActiveCoupon(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "GIFTAAAAAA", active.Code)

	active, err = svc.ActiveCoupon(context.Background(), "u2")
	require.NoError(t, err)
	assert.Nil(t, active)

	active, err = svc.ActiveCoupon(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, active)
}
