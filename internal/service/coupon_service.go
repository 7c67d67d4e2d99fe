package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	couponPrefix     = "GIFT"
	couponSuffixLen  = 6
	couponAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxIssueAttempts = 3
)

type CouponConfig struct {
	DiscountPercent int
	Validity        time.Duration
	ReissueInactive bool
}

// CouponService owns the one-coupon-per-user rule.
type CouponService struct {
	coupons CouponStore
	cfg     CouponConfig
	now     func() time.Time
}

func NewCouponService(coupons CouponStore, cfg CouponConfig) *CouponService {
	if cfg.DiscountPercent <= 0 || cfg.DiscountPercent > 100 {
		cfg.DiscountPercent = 10
	}
	if cfg.Validity <= 0 {
		cfg.Validity = 30 * 24 * time.Hour
	}
	return &CouponService{coupons: coupons, cfg: cfg, now: time.Now}
}

// IssueCoupon gives userID a fresh coupon unless they already hold one. It
// returns nil, nil when nothing was issued, so calling it twice is harmless.
func (s *CouponService) IssueCoupon(ctx context.Context, userID string, discountPercentage int) (*entity.Coupon, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	if discountPercentage <= 0 || discountPercentage > 100 {
		discountPercentage = s.cfg.DiscountPercent
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		code, err := generateCouponCode()
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()
		coupon := &entity.Coupon{
			Code:               code,
			DiscountPercentage: discountPercentage,
			ExpirationDate:     now.Add(s.cfg.Validity),
			UserID:             userID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		issued, err := s.coupons.Issue(ctx, coupon, s.cfg.ReissueInactive)
		switch {
		case err == nil && issued:
			logger.Info().Str("user_id", userID).Str("code", code).Msg("Coupon issued")
			return coupon, nil
		case err == nil:
			logger.Debug().Str("user_id", userID).Msg("User already holds a coupon, skipping")
			return nil, nil
		case errors.Is(err, repository.ErrDuplicate):
			// Either another issuer won the race for this user or the code
			// collided with someone else's.
			existing, findErr := s.coupons.FindByUser(ctx, userID)
			if findErr == nil && existing != nil && (existing.IsActive || !s.cfg.ReissueInactive) {
				return nil, nil
			}
			if findErr != nil && !errors.Is(findErr, repository.ErrNotFound) {
				return nil, upstream(findErr)
			}
		default:
			logger.Error().Err(err).Str("user_id", userID).Msg("Error issuing coupon")
			return nil, upstream(err)
		}
	}
	return nil, upstream(errors.New("could not allocate a unique coupon code"))
}

// ActiveCoupon returns the user's usable coupon, or nil.
func (s *CouponService) ActiveCoupon(ctx context.Context, userID string) (*entity.Coupon, error) {
	coupon, err := s.coupons.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, upstream(err)
	}
	if !coupon.Usable(s.now()) {
		return nil, nil
	}
	return coupon, nil
}

// Applicable resolves a code the user typed at checkout. Unknown, inactive
// and expired codes yield nil without error.
func (s *CouponService) Applicable(ctx context.Context, userID, code string) (*entity.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	coupon, err := s.coupons.FindActive(ctx, userID, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, upstream(err)
	}
	if !coupon.Usable(s.now()) {
		return nil, nil
	}
	return coupon, nil
}

// Validate is Applicable for the coupon endpoint: a code that cannot be used
// is ErrNotFound.
func (s *CouponService) Validate(ctx context.Context, userID, code string) (*entity.Coupon, error) {
	coupon, err := s.Applicable(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrNotFound
	}
	return coupon, nil
}

func generateCouponCode() (string, error) {
	var b strings.Builder
	b.WriteString(couponPrefix)
	size := big.NewInt(int64(len(couponAlphabet)))
	for i := 0; i < couponSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(couponAlphabet[n.Int64()])
	}
	return b.String(), nil
}
