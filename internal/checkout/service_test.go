package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wovenshop/storefront/internal/cart"
	"github.com/wovenshop/storefront/internal/events"
	"github.com/wovenshop/storefront/internal/order"
	"github.com/wovenshop/storefront/internal/promo"
)

type memOrders struct {
	created []order.Order
}

func (m *memOrders) Create(_ context.Context, o order.Order) (order.Order, error) {
	o.ID = uuid.New()
	o.Status = order.StatusPending
	o.CreatedAt = time.Now().UTC()
	m.created = append(m.created, o)
	return o, nil
}

type checkoutPromoRepo struct {
	promotion   promo.Promotion
	lookupErr   error
	redemptions map[uuid.UUID]bool
	increments  int
}

func (r *checkoutPromoRepo) GetByCode(_ context.Context, storeID, code string) (promo.Promotion, error) {
	if r.lookupErr != nil {
		return promo.Promotion{}, r.lookupErr
	}
	if r.promotion.StoreID != storeID || r.promotion.Code != code {
		return promo.Promotion{}, promo.ErrNotFound
	}
	return r.promotion, nil
}

func (r *checkoutPromoRepo) Create(_ context.Context, p promo.Promotion) (promo.Promotion, error) {
	return p, nil
}
func (r *checkoutPromoRepo) Update(_ context.Context, p promo.Promotion) (promo.Promotion, error) {
	return p, nil
}
func (r *checkoutPromoRepo) ListByStore(_ context.Context, _ string) ([]promo.Promotion, error) {
	return nil, nil
}
func (r *checkoutPromoRepo) InsertRedemption(_ context.Context, _ uuid.UUID, orderID uuid.UUID, _ int64) (bool, error) {
	if r.redemptions == nil {
		r.redemptions = make(map[uuid.UUID]bool)
	}
	if r.redemptions[orderID] {
		return false, nil
	}
	r.redemptions[orderID] = true
	return true, nil
}
func (r *checkoutPromoRepo) IncrementUsedCount(_ context.Context, _ uuid.UUID) error {
	r.increments++
	return nil
}

type memTx struct {
	orders *memOrders
	promos promo.Repository
	err    error
}

func (m *memTx) RunInTx(_ context.Context, fn func(orders OrderWriter, promos promo.Repository) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(m.orders, m.promos)
}

func fixture(repo *checkoutPromoRepo) (*Service, *memOrders, *cart.Service) {
	promos := &promo.Service{Repo: repo, Now: func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}}
	carts := &cart.Service{Storage: cart.NewMemoryStorage(), Promos: promos}
	orders := &memOrders{}
	svc := &Service{
		Carts:       carts,
		Promos:      promos,
		Tx:          &memTx{orders: orders, promos: repo},
		ShippingFee: 900,
	}
	return svc, orders, carts
}

func percentagePromotion() promo.Promotion {
	return promo.Promotion{
		ID:      uuid.New(),
		StoreID: "s1",
		Code:    "SAVE10",
		Kind:    promo.KindPercentage,
		Value:   10,
		Scope:   promo.ScopeEntireOrder,
		Active:  true,
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc, _, _ := fixture(&checkoutPromoRepo{})
	_, err := svc.PlaceOrder(context.Background(), "s1", "sess", Request{Email: "a@b.co", Name: "A"})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderWithPercentageDiscount(t *testing.T) {
	repo := &checkoutPromoRepo{promotion: percentagePromotion()}
	svc, orders, carts := fixture(repo)
	ctx := context.Background()

	carts.AddItem(ctx, "s1", "sess", cart.Line{ProductID: "P1", Name: "Scarf", UnitPrice: 1_000}, 2)
	_, err := carts.ApplyCode(ctx, "s1", "sess", "SAVE10")
	require.NoError(t, err)

	var published []events.Event
	bus := &events.Bus{}
	bus.Subscribe(events.TopicOrderCreated, func(_ context.Context, e events.Event) { published = append(published, e) })
	bus.Subscribe(events.TopicPromoRedeemed, func(_ context.Context, e events.Event) { published = append(published, e) })
	svc.Bus = bus

	placed, err := svc.PlaceOrder(ctx, "s1", "sess", Request{Email: "a@b.co", Name: "A"})
	require.NoError(t, err)

	assert.Equal(t, int64(2_000), placed.Subtotal)
	assert.Equal(t, int64(200), placed.Discount)
	assert.Equal(t, int64(900), placed.Shipping)
	assert.Equal(t, int64(2_700), placed.Total)
	assert.Equal(t, "SAVE10", placed.PromoCode)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, 2, placed.Items[0].Quantity)

	require.Len(t, orders.created, 1)
	assert.Equal(t, 1, repo.increments, "usage counter moves exactly once")
	assert.Len(t, published, 2)

	after := carts.Get(ctx, "s1", "sess")
	assert.Zero(t, after.ItemCount, "cart cleared after commit")
}

func TestPlaceOrderWaivesShippingForFreeShippingCode(t *testing.T) {
	p := percentagePromotion()
	p.Code = "SHIPFREE"
	p.Kind = promo.KindFreeShipping
	p.Value = 0
	repo := &checkoutPromoRepo{promotion: p}
	svc, _, carts := fixture(repo)
	ctx := context.Background()

	carts.AddItem(ctx, "s1", "sess", cart.Line{ProductID: "P1", UnitPrice: 1_000}, 1)
	_, err := carts.ApplyCode(ctx, "s1", "sess", "SHIPFREE")
	require.NoError(t, err)

	placed, err := svc.PlaceOrder(ctx, "s1", "sess", Request{Email: "a@b.co", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), placed.Shipping)
	assert.Equal(t, int64(1_000), placed.Total)
}

func TestPlaceOrderRejectsStaleDiscount(t *testing.T) {
	repo := &checkoutPromoRepo{promotion: percentagePromotion()}
	svc, orders, carts := fixture(repo)
	ctx := context.Background()

	carts.AddItem(ctx, "s1", "sess", cart.Line{ProductID: "P1", UnitPrice: 1_000}, 1)
	_, err := carts.ApplyCode(ctx, "s1", "sess", "SAVE10")
	require.NoError(t, err)

	// Seller deactivates the promotion before the shopper pays.
	repo.promotion.Active = false

	_, err = svc.PlaceOrder(ctx, "s1", "sess", Request{Email: "a@b.co", Name: "A"})
	require.ErrorIs(t, err, promo.ErrNotActive)
	assert.Empty(t, orders.created)

	after := carts.Get(ctx, "s1", "sess")
	assert.Equal(t, 1, after.ItemCount, "failed checkout leaves the cart intact")
}

func TestPlaceOrderLookupFailure(t *testing.T) {
	repo := &checkoutPromoRepo{promotion: percentagePromotion()}
	svc, orders, carts := fixture(repo)
	ctx := context.Background()

	carts.AddItem(ctx, "s1", "sess", cart.Line{ProductID: "P1", UnitPrice: 1_000}, 1)
	_, err := carts.ApplyCode(ctx, "s1", "sess", "SAVE10")
	require.NoError(t, err)

	repo.lookupErr = errors.New("connection refused")
	_, err = svc.PlaceOrder(ctx, "s1", "sess", Request{Email: "a@b.co", Name: "A"})
	require.ErrorIs(t, err, promo.ErrLookupFailure)
	assert.Empty(t, orders.created)
}

func TestPlaceOrderWithoutDiscount(t *testing.T) {
	svc, orders, carts := fixture(&checkoutPromoRepo{})
	ctx := context.Background()

	carts.AddItem(ctx, "s1", "sess", cart.Line{ProductID: "P1", UnitPrice: 500}, 3)
	placed, err := svc.PlaceOrder(ctx, "s1", "sess", Request{Email: "a@b.co", Name: "A"})
	require.NoError(t, err)

	assert.Equal(t, int64(1_500), placed.Subtotal)
	assert.Equal(t, int64(0), placed.Discount)
	assert.Equal(t, int64(2_400), placed.Total)
	assert.Empty(t, placed.PromoCode)
	require.Len(t, orders.created, 1)
}

func TestPlaceOrderTxFailureKeepsCart(t *testing.T) {
	svc, _, carts := fixture(&checkoutPromoRepo{})
	svc.Tx = &memTx{err: errors.New("serialization failure")}
	ctx := context.Background()

	carts.AddItem(ctx, "s1", "sess", cart.Line{ProductID: "P1", UnitPrice: 500}, 1)
	_, err := svc.PlaceOrder(ctx, "s1", "sess", Request{Email: "a@b.co", Name: "A"})
	require.Error(t, err)

	after := carts.Get(ctx, "s1", "sess")
	assert.Equal(t, 1, after.ItemCount)
}
