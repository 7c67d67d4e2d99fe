// Package cartstore is the client side of the storefront checkout. A Store
// keeps the shopper's cart in memory, previews coupon discounts and drives the
// create-checkout-session and checkout-success endpoints.
package cartstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrNotInCart       = errors.New("product not in cart")
)

// APIError is a non-2xx answer from the storefront API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront api: %d %s", e.StatusCode, e.Message)
}

type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

type Item struct {
	Product
	Quantity int
}

// Coupon is a validated coupon held by the cart until checkout.
type Coupon struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discountPercentage"`
}

// Session is what the payment dialog needs. Amount is in the smallest
// currency unit.
type Session struct {
	SessionID  string `json:"sessionId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	GatewayKey string `json:"gatewayKey"`
}

type Option func(*Store)

func WithHTTPClient(hc *http.Client) Option {
	return func(s *Store) { s.http = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(s *Store) { s.token = token }
}

// Store is safe for concurrent use.
type Store struct {
	baseURL string
	token   string
	http    *http.Client

	mu     sync.Mutex
	items  []Item
	coupon *Coupon
}

func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add puts one more unit of p into the cart.
func (s *Store) Add(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == p.ID {
			s.items[i].Quantity++
			return
		}
	}
	s.items = append(s.items, Item{Product: p, Quantity: 1})
}

func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(productID)
}

func (s *Store) remove(productID string) {
	for i := range s.items {
		if s.items[i].ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity of a line; zero removes it.
func (s *Store) UpdateQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != productID {
			continue
		}
		if quantity == 0 {
			s.remove(productID)
		} else {
			s.items[i].Quantity = quantity
		}
		return nil
	}
	return ErrNotInCart
}

// Clear empties the cart and drops any applied coupon.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.coupon = nil
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotal()
}

func (s *Store) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Total previews the amount checkout will charge. The server re-prices the
// cart, so this is a preview only.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.subtotal()
	if s.coupon == nil {
		return total
	}
	discount := total.Mul(decimal.NewFromInt(int64(s.coupon.DiscountPercentage))).Div(decimal.NewFromInt(100)).Round(0)
	return total.Sub(discount)
}

func (s *Store) Coupon() *Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil {
		return nil
	}
	c := *s.coupon
	return &c
}

// ApplyCoupon validates code with the server and keeps it for checkout.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (*Coupon, error) {
	var coupon Coupon
	if err := s.post(ctx, "/api/coupons/validate", map[string]string{"code": code}, &coupon); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.coupon = &coupon
	s.mu.Unlock()
	return &coupon, nil
}

func (s *Store) RemoveCoupon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = nil
}

type checkoutLine struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type checkoutBody struct {
	Products   []checkoutLine `json:"products"`
	CouponCode string         `json:"couponCode,omitempty"`
}

// Checkout opens a gateway session for the current cart.
func (s *Store) Checkout(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}
	body := checkoutBody{Products: make([]checkoutLine, 0, len(s.items))}
	for _, it := range s.items {
		body.Products = append(body.Products, checkoutLine{ProductID: it.ID, Price: it.Price, Quantity: it.Quantity})
	}
	if s.coupon != nil {
		body.CouponCode = s.coupon.Code
	}
	s.mu.Unlock()

	var session Session
	if err := s.post(ctx, "/api/payments/create-checkout-session", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Confirm hands the gateway's payment callback to the server and returns the
// order id. The cart is cleared once the order exists.
func (s *Store) Confirm(ctx context.Context, sessionID, paymentID, signature string) (string, error) {
	req := map[string]string{
		"gatewaySessionId": sessionID,
		"gatewayPaymentId": paymentID,
		"signature":        signature,
	}
	var resp struct {
		Success bool   `json:"success"`
		OrderID string `json:"orderId"`
	}
	if err := s.post(ctx, "/api/payments/checkout-success", req, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.OrderID == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: "order was not created"}
	}
	s.Clear()
	return resp.OrderID, nil
}

func (s *Store) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Message == "" {
			body.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: body.Message}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
