package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
)

type CouponReader interface {
	ActiveCoupon(ctx context.Context, userID string) (*entity.Coupon, error)
	Validate(ctx context.Context, userID, code string) (*entity.Coupon, error)
}

type CouponHandler struct {
	coupons CouponReader
}

func NewCouponHandler(coupons CouponReader) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

// GetCoupon returns the caller's usable coupon or null --> GET /api/coupons
func (h *CouponHandler) GetCoupon(c echo.Context) error {
	coupon, err := h.coupons.ActiveCoupon(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, coupon)
}

// ValidateCoupon --> POST /api/coupons/validate
func (h *CouponHandler) ValidateCoupon(c echo.Context) error {
	body := struct {
		Code string `json:"code"`
	}{}
	if err := c.Bind(&body); err != nil {
		return badPayload(c)
	}

	coupon, err := h.coupons.Validate(c.Request().Context(), userID(c), body.Code)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(200, map[string]interface{}{
		"message":            "Coupon is valid",
		"code":               coupon.Code,
		"discountPercentage": coupon.DiscountPercentage,
	})
}
