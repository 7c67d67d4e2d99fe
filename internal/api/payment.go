package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
)

type CheckoutStarter interface {
	StartCheckout(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutSession, error)
}

type PaymentVerifier interface {
	VerifyAndFinalize(ctx context.Context, sessionID, paymentID, signature string) (*entity.Order, error)
}

type PaymentHandler struct {
	checkout CheckoutStarter
	payments PaymentVerifier
}

func NewPaymentHandler(checkout CheckoutStarter, payments PaymentVerifier) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, payments: payments}
}

// CreateCheckoutSession opens a gateway session --> POST /api/payments/create-checkout-session
func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
	req := entity.CheckoutRequest{}
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	req.UserID = userID(c)

	session, err := h.checkout.StartCheckout(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(200, session)
}

// CheckoutSuccess confirms a payment --> POST /api/payments/checkout-success
func (h *PaymentHandler) CheckoutSuccess(c echo.Context) error {
	confirmation := entity.PaymentConfirmation{}
	if err := c.Bind(&confirmation); err != nil {
		return badPayload(c)
	}

	order, err := h.payments.VerifyAndFinalize(c.Request().Context(), confirmation.GatewaySessionID, confirmation.GatewayPaymentID, confirmation.Signature)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(200, map[string]interface{}{
		"success": true,
		"message": "Payment successful, order created",
		"orderId": order.ID,
	})
}
