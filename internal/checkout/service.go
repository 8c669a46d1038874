package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wovenshop/storefront/internal/cart"
	"github.com/wovenshop/storefront/internal/catalog"
	"github.com/wovenshop/storefront/internal/events"
	"github.com/wovenshop/storefront/internal/order"
	"github.com/wovenshop/storefront/internal/pricing"
	"github.com/wovenshop/storefront/internal/promo"
)

// ErrEmptyCart rejects checkout when the session's cart has no lines.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// OrderWriter is the slice of order persistence checkout needs inside the
// transaction.
type OrderWriter interface {
	Create(ctx context.Context, o order.Order) (order.Order, error)
}

// TxRunner executes fn inside a single database transaction, handing it
// repositories bound to that transaction. The order row, its items, the
// redemption row, and the usage counter all commit or roll back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(orders OrderWriter, promos promo.Repository) error) error
}

// Request carries the shopper details collected at checkout.
type Request struct {
	Email   string
	Name    string
	Address string
}

// Service turns a session cart into a placed order.
type Service struct {
	Carts       *cart.Service
	Promos      *promo.Service
	Catalog     *catalog.Service
	Tx          TxRunner
	Bus         *events.Bus
	ShippingFee int64
	Logger      *zerolog.Logger
}

// PlaceOrder re-evaluates the applied promotion against live promotion state,
// computes final totals, and persists the order atomically with its
// redemption. The cart is cleared only after the transaction commits; a failed
// checkout leaves the cart untouched.
func (s *Service) PlaceOrder(ctx context.Context, storeID, sessionID string, req Request) (order.Order, error) {
	snapshot := s.Carts.Get(ctx, storeID, sessionID)
	if snapshot.ItemCount == 0 {
		return order.Order{}, ErrEmptyCart
	}

	var applied *promo.Applied
	if snapshot.Discount != nil {
		fresh, err := s.Promos.Evaluate(ctx, storeID, snapshot.Discount.Code, snapshot.Subtotal, promoLines(snapshot.Lines))
		if err != nil {
			// The stored snapshot is stale at best; no money moves on it.
			return order.Order{}, fmt.Errorf("checkout promotion re-evaluation: %w", err)
		}
		applied = &fresh
	}

	items := make([]pricing.Item, 0, len(snapshot.Lines))
	for _, l := range snapshot.Lines {
		items = append(items, pricing.Item{Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	var discount int64
	freeShipping := false
	if applied != nil {
		discount = applied.Amount
		freeShipping = applied.Kind == promo.KindFreeShipping
	}
	summary := pricing.Compute(items, discount, s.ShippingFee, freeShipping)

	draft := order.Order{
		StoreID:  storeID,
		Email:    req.Email,
		Name:     req.Name,
		Address:  req.Address,
		Subtotal: summary.Subtotal,
		Discount: summary.Discount,
		Shipping: summary.Shipping,
		Total:    summary.Total,
	}
	if applied != nil {
		draft.PromoCode = applied.Code
		id := applied.PromotionID
		draft.PromotionID = &id
	}
	for _, l := range snapshot.Lines {
		draft.Items = append(draft.Items, order.Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			Variant:   l.Variant,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}

	var placed order.Order
	err := s.Tx.RunInTx(ctx, func(orders OrderWriter, promos promo.Repository) error {
		created, err := orders.Create(ctx, draft)
		if err != nil {
			return err
		}
		placed = created
		if applied != nil {
			return s.Promos.Redeem(ctx, promos, storeID, applied.Code, created.ID, summary.Discount)
		}
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}

	s.afterCommit(ctx, storeID, sessionID, placed, applied)
	return placed, nil
}

// afterCommit runs the non-transactional follow-ups. All of them are best
// effort; the order already exists.
func (s *Service) afterCommit(ctx context.Context, storeID, sessionID string, placed order.Order, applied *promo.Applied) {
	s.Carts.Clear(ctx, storeID, sessionID)

	if s.Catalog != nil {
		for _, it := range placed.Items {
			if err := s.Catalog.AdjustStock(ctx, storeID, it.ProductID, -it.Quantity); err != nil {
				s.logWarn(err, storeID, "stock adjustment after checkout")
			}
		}
	}

	if s.Bus == nil {
		return
	}
	itemCount := 0
	for _, it := range placed.Items {
		itemCount += it.Quantity
	}
	if err := s.Bus.Publish(ctx, storeID, events.TopicOrderCreated, events.OrderCreated{
		OrderID:   placed.ID,
		Email:     placed.Email,
		ItemCount: itemCount,
		Subtotal:  placed.Subtotal,
		Discount:  placed.Discount,
		Total:     placed.Total,
		PromoCode: placed.PromoCode,
	}); err != nil {
		s.logWarn(err, storeID, "publish order.created")
	}
	if applied != nil {
		if err := s.Bus.Publish(ctx, storeID, events.TopicPromoRedeemed, events.PromoRedeemed{
			PromotionID: applied.PromotionID,
			Code:        applied.Code,
			OrderID:     placed.ID,
			Amount:      placed.Discount,
		}); err != nil {
			s.logWarn(err, storeID, "publish promo.redeemed")
		}
	}
}

func (s *Service) logWarn(err error, storeID, msg string) {
	if s.Logger != nil {
		s.Logger.Warn().Err(err).Str("store_id", storeID).Msg(msg)
	}
}

func promoLines(lines []cart.Line) []promo.Line {
	out := make([]promo.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, promo.Line{ProductID: l.ProductID, ProductCreatedAt: l.ProductCreatedAt})
	}
	return out
}
