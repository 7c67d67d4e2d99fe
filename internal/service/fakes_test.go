package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/gateway"
	"storefront-service/internal/repository"
)

type fakeCouponStore struct {
	mu       sync.Mutex
	byUser   map[string]*entity.Coupon
	dupCodes int
	err      error
}

func newFakeCouponStore() *fakeCouponStore {
	return &fakeCouponStore{byUser: map[string]*entity.Coupon{}}
}

func (f *fakeCouponStore) put(c entity.Coupon) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[c.UserID] = &c
}

func (f *fakeCouponStore) get(userID string) *entity.Coupon {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byUser[userID]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (f *fakeCouponStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byUser)
}

func (f *fakeCouponStore) FindByUser(_ context.Context, userID string) (*entity.Coupon, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c := f.get(userID); c != nil {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCouponStore) FindActive(_ context.Context, userID, code string) (*entity.Coupon, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := f.get(userID)
	if c == nil || c.Code != code || !c.IsActive {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCouponStore) Issue(_ context.Context, coupon *entity.Coupon, reissueInactive bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.dupCodes > 0 {
		f.dupCodes--
		return false, repository.ErrDuplicate
	}
	if existing, ok := f.byUser[coupon.UserID]; ok && (existing.IsActive || !reissueInactive) {
		return false, nil
	}
	coupon.IsActive = true
	stored := *coupon
	f.byUser[coupon.UserID] = &stored
	return true, nil
}

func (f *fakeCouponStore) deactivate(userID, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byUser[userID]; ok && c.Code == code {
		c.IsActive = false
	}
}

// fakeOrderStore mimics the finalize transaction: unique payment id, coupon
// deactivation in the same step.
type fakeOrderStore struct {
	mu        sync.Mutex
	byPayment map[string]*entity.Order
	coupons   *fakeCouponStore
	err       error
}

func newFakeOrderStore(coupons *fakeCouponStore) *fakeOrderStore {
	return &fakeOrderStore{byPayment: map[string]*entity.Order{}, coupons: coupons}
}

func (f *fakeOrderStore) Finalize(_ context.Context, order *entity.Order, _ time.Time) (*entity.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	if existing, ok := f.byPayment[order.GatewayPaymentID]; ok {
		return existing, false, nil
	}
	f.byPayment[order.GatewayPaymentID] = order
	if order.CouponCode != "" && f.coupons != nil {
		f.coupons.deactivate(order.UserID, order.CouponCode)
	}
	return order, true, nil
}

func (f *fakeOrderStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byPayment)
}

type fakeGateway struct {
	mu           sync.Mutex
	secret       string
	orders       map[string]*gateway.Order
	payments     map[string]*gateway.Payment
	createErr    error
	fetchErr     error
	created      []gateway.CreateOrderRequest
	fetchedCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		secret:   "gw-secret",
		orders:   map[string]*gateway.Order{},
		payments: map[string]*gateway.Payment{},
	}
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

func (f *fakeGateway) CreateOrder(_ context.Context, req gateway.CreateOrderRequest) (*gateway.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	o := &gateway.Order{
		ID:       fmt.Sprintf("order_%d", len(f.created)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeGateway) FetchOrder(_ context.Context, orderID string) (*gateway.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, &gateway.APIError{StatusCode: 400, Code: "BAD_REQUEST_ERROR"}
	}
	return o, nil
}

func (f *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, &gateway.APIError{StatusCode: 400, Code: "BAD_REQUEST_ERROR"}
	}
	return p, nil
}

// pay records a payment against a session the way the gateway would and
// returns the signature the browser receives.
func (f *fakeGateway) pay(sessionID, paymentID, status string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[sessionID]
	f.payments[paymentID] = &gateway.Payment{ID: paymentID, OrderID: sessionID, Amount: o.Amount, Currency: o.Currency, Status: status}
	return gateway.Sign(f.secret, sessionID, paymentID)
}

func (f *fakeGateway) calls() (created, fetched int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created), f.fetchedCalls
}

type fakeRewards struct {
	mu     sync.Mutex
	events []entity.RewardEvent
	err    error
}

func (f *fakeRewards) PublishReward(_ context.Context, event entity.RewardEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

type fakeEvents struct {
	mu     sync.Mutex
	orders []*entity.Order
}

func (f *fakeEvents) PublishOrderEvent(_ context.Context, order *entity.Order, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return nil
}

type fakePricer map[string]entity.Money

func (f fakePricer) PriceOf(_ context.Context, ids []string) (map[string]entity.Money, error) {
	out := map[string]entity.Money{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeProductStore struct {
	mu            sync.Mutex
	products      map[string]*entity.Product
	featuredCalls int
	err           error
}

func newFakeProductStore(products ...*entity.Product) *fakeProductStore {
	f := &fakeProductStore{products: map[string]*entity.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductStore) list(keep func(*entity.Product) bool) ([]*entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*entity.Product{}
	for _, p := range f.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) GetProducts(context.Context) ([]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(*entity.Product) bool { return true })
}

func (f *fakeProductStore) GetProductByID(_ context.Context, id string) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProductStore) GetProductsByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]*entity.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, f.err
}

func (f *fakeProductStore) GetProductsByCategory(_ context.Context, category string) ([]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(p *entity.Product) bool { return p.Category == category })
}

func (f *fakeProductStore) GetFeaturedProducts(context.Context) ([]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.featuredCalls++
	return f.list(func(p *entity.Product) bool { return p.IsFeatured })
}

func (f *fakeProductStore) GetRandomProducts(_ context.Context, limit int) ([]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.list(func(*entity.Product) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, err
}

func (f *fakeProductStore) CreateProduct(_ context.Context, product *entity.Product) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductStore) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductStore) ToggleFeatured(_ context.Context, id string, now time.Time) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.IsFeatured = !p.IsFeatured
	p.UpdatedAt = now
	return p, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated int
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
	f.invalidated++
	return nil
}

var errStoreDown = errors.New("store down")

func signFor(g *fakeGateway, sessionID, paymentID string) string {
	return gateway.Sign(g.secret, sessionID, paymentID)
}
