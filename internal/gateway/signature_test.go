package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	good := Sign("secret", "order_S1", "pay_P1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{name: "valid", orderID: "order_S1", paymentID: "pay_P1", signature: good, want: true},
		{name: "other payment", orderID: "order_S1", paymentID: "pay_P2", signature: good, want: false},
		{name: "other order", orderID: "order_S2", paymentID: "pay_P1", signature: good, want: false},
		{name: "flipped digit", orderID: "order_S1", paymentID: "pay_P1", signature: flip(good), want: false},
		{name: "not hex", orderID: "order_S1", paymentID: "pay_P1", signature: "zz", want: false},
		{name: "empty", orderID: "order_S1", paymentID: "pay_P1", signature: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature("secret", tt.orderID, tt.paymentID, tt.signature))
		})
	}

	assert.False(t, VerifySignature("other-secret", "order_S1", "pay_P1", good))
}

func flip(sig string) string {
	b := []byte(sig)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	return string(b)
}
