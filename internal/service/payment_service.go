package service

import (
	"context"
	"fmt"

	"storefront-service/internal/entity"
	"storefront-service/internal/gateway"
)

// PaymentService confirms a payment reported by the browser against the
// gateway before anything is written.
type PaymentService struct {
	gateway   PaymentGateway
	secret    string
	finalizer *OrderService
}

func NewPaymentService(gw PaymentGateway, secret string, finalizer *OrderService) *PaymentService {
	return &PaymentService{gateway: gw, secret: secret, finalizer: finalizer}
}

// VerifyAndFinalize checks the signature, then the gateway's own view of the
// payment, and only then finalizes the order.
func (s *PaymentService) VerifyAndFinalize(ctx context.Context, sessionID, paymentID, signature string) (*entity.Order, error) {
	if sessionID == "" || paymentID == "" || signature == "" {
		return nil, fmt.Errorf("%w: session id, payment id and signature are required", ErrInvalidRequest)
	}

	if !gateway.VerifySignature(s.secret, sessionID, paymentID, signature) {
		logger.Warn().Str("session_id", sessionID).Str("payment_id", paymentID).Msg("Rejected payment with invalid signature")
		return nil, ErrInvalidSignature
	}

	payment, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		logger.Error().Err(err).Str("payment_id", paymentID).Msg("Error fetching payment")
		return nil, upstream(err)
	}
	if payment.OrderID != sessionID {
		logger.Warn().Str("session_id", sessionID).Str("payment_id", paymentID).Str("payment_order_id", payment.OrderID).Msg("Payment does not belong to session")
		return nil, fmt.Errorf("%w: payment does not belong to session", ErrInvalidRequest)
	}

	if state := entity.StateForPaymentStatus(payment.Status); !state.CanTransition(entity.StateFinalized) {
		logger.Info().Str("payment_id", paymentID).Str("status", payment.Status).Str("state", string(state)).Msg("Payment not captured")
		return nil, &PaymentStatusError{Status: payment.Status}
	}

	order, err := s.gateway.FetchOrder(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("Error fetching gateway order")
		return nil, upstream(err)
	}

	meta, err := gateway.DecodeMetadata(order.Notes)
	if err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("Unreadable session metadata")
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return s.finalizer.Finalize(ctx, meta, order.ID, payment.ID, entity.Money(order.Amount), order.Currency)
}
