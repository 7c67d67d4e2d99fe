package entity

// LineItem is a cart line as sent by the client. Price is what the client
// believes the unit price is; checkout charges the catalog price instead.
type LineItem struct {
	ProductID string `json:"productId"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	UserID     string     `json:"-"`
	Products   []LineItem `json:"products"`
	CouponCode string     `json:"couponCode,omitempty"`
}

// CheckoutSession is returned to the client to open the gateway payment dialog.
// Amount is in the smallest currency unit.
type CheckoutSession struct {
	SessionID  string `json:"sessionId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	GatewayKey string `json:"gatewayKey"`
}

type PaymentConfirmation struct {
	GatewaySessionID string `json:"gatewaySessionId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// SessionMetadata is what the initiator stores with the gateway session so the
// verifier can rebuild the order after payment.
type SessionMetadata struct {
	UserID     string
	CouponCode string
	Items      []OrderItem
}

// RewardEvent asks the coupon issuer to consider a user for a coupon.
type RewardEvent struct {
	UserID             string `json:"user_id"`
	DiscountPercentage int    `json:"discount_percentage"`
	Amount             Money  `json:"amount"`
}

type CheckoutState string

const (
	StateInitiated       CheckoutState = "initiated"
	StateAwaitingPayment CheckoutState = "awaiting_payment"
	StateCaptured        CheckoutState = "captured"
	StateFinalized       CheckoutState = "finalized"
	StateFailed          CheckoutState = "failed"
	StateCancelled       CheckoutState = "cancelled"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	StateInitiated:       {StateAwaitingPayment},
	StateAwaitingPayment: {StateCaptured, StateFailed, StateCancelled},
	StateCaptured:        {StateFinalized},
}

// CanTransition reports whether a checkout may move from s to next.
// finalized, failed and cancelled are terminal.
func (s CheckoutState) CanTransition(next CheckoutState) bool {
	for _, allowed := range checkoutTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s CheckoutState) Terminal() bool {
	return len(checkoutTransitions[s]) == 0
}

// StateForPaymentStatus maps a gateway payment status onto the checkout state
// machine.
func StateForPaymentStatus(status string) CheckoutState {
	switch status {
	case "captured":
		return StateCaptured
	case "failed", "refunded":
		return StateFailed
	case "cancelled":
		return StateCancelled
	default:
		// created, authorized, pending
		return StateAwaitingPayment
	}
}
