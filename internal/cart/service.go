package cart

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/wovenshop/storefront/internal/promo"
)

// ErrEmptyCart is returned when an operation needs at least one line.
var ErrEmptyCart = errors.New("cart is empty")

// Snapshot is the cart state handed to handlers and checkout.
type Snapshot struct {
	Lines          []Line         `json:"lines"`
	ItemCount      int            `json:"itemCount"`
	Subtotal       int64          `json:"subtotal"`
	DiscountAmount int64          `json:"discountAmount"`
	Total          int64          `json:"total"`
	Discount       *promo.Applied `json:"discount,omitempty"`
}

// Service orchestrates load, mutate, and persist for session-scoped carts.
// Each browsing session owns exactly one cart; concurrent tabs reconcile
// last-write-wins through storage.
type Service struct {
	Storage Storage
	Promos  *promo.Service
	Logger  *zerolog.Logger
}

func cartKey(storeID, sessionID string) string {
	return "cart:" + storeID + ":" + sessionID
}

// load restores the cart from storage. Read failures and corrupt payloads are
// logged and replaced with an empty cart; they never surface to the shopper.
func (s *Service) load(ctx context.Context, storeID, sessionID string) Cart {
	if s.Storage == nil {
		return Cart{}
	}
	data, ok, err := s.Storage.Load(ctx, cartKey(storeID, sessionID))
	if err != nil {
		s.logErr(err, storeID, "load cart")
		return Cart{}
	}
	if !ok {
		return Cart{}
	}
	c, err := Decode(data)
	if err != nil {
		s.logErr(err, storeID, "decode stored cart")
		return Cart{}
	}
	return c
}

// persist writes the cart back. Write failures are logged; the in-memory cart
// remains the source of truth for the rest of the session.
func (s *Service) persist(ctx context.Context, storeID, sessionID string, c *Cart) {
	if s.Storage == nil {
		return
	}
	data, err := Encode(c)
	if err != nil {
		s.logErr(err, storeID, "encode cart")
		return
	}
	if err := s.Storage.Save(ctx, cartKey(storeID, sessionID), data); err != nil {
		s.logErr(err, storeID, "save cart")
	}
}

func (s *Service) logErr(err error, storeID, msg string) {
	if s.Logger != nil {
		s.Logger.Error().Err(err).Str("store_id", storeID).Msg(msg)
	}
}

// Get returns the current cart snapshot.
func (s *Service) Get(ctx context.Context, storeID, sessionID string) Snapshot {
	c := s.load(ctx, storeID, sessionID)
	return s.snapshot(&c)
}

// AddItem merges an item into the cart and persists.
func (s *Service) AddItem(ctx context.Context, storeID, sessionID string, item Line, qty int) Snapshot {
	c := s.load(ctx, storeID, sessionID)
	c.AddItem(item, qty)
	s.revalidateDiscount(ctx, storeID, &c)
	s.persist(ctx, storeID, sessionID, &c)
	return s.snapshot(&c)
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, storeID, sessionID, key string, qty int) Snapshot {
	c := s.load(ctx, storeID, sessionID)
	c.SetQuantity(key, qty)
	s.revalidateDiscount(ctx, storeID, &c)
	s.persist(ctx, storeID, sessionID, &c)
	return s.snapshot(&c)
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, storeID, sessionID, key string) Snapshot {
	c := s.load(ctx, storeID, sessionID)
	c.RemoveItem(key)
	s.revalidateDiscount(ctx, storeID, &c)
	s.persist(ctx, storeID, sessionID, &c)
	return s.snapshot(&c)
}

// Clear empties the cart. Checkout calls this only after the order committed.
func (s *Service) Clear(ctx context.Context, storeID, sessionID string) {
	if s.Storage == nil {
		return
	}
	if err := s.Storage.Delete(ctx, cartKey(storeID, sessionID)); err != nil {
		s.logErr(err, storeID, "clear cart")
	}
}

// ApplyCode evaluates a promotion code against the current cart and, when
// eligible, attaches the resulting discount. The cart stays usable either way.
func (s *Service) ApplyCode(ctx context.Context, storeID, sessionID, code string) (Snapshot, error) {
	c := s.load(ctx, storeID, sessionID)
	if c.ItemCount() == 0 {
		return s.snapshot(&c), ErrEmptyCart
	}
	if s.Promos == nil {
		return s.snapshot(&c), errors.New("cart service: promotions not configured")
	}
	applied, err := s.Promos.Evaluate(ctx, storeID, code, c.Subtotal(), c.PromoLines())
	if err != nil {
		return s.snapshot(&c), err
	}
	c.ApplyDiscount(applied)
	s.persist(ctx, storeID, sessionID, &c)
	return s.snapshot(&c), nil
}

// RemoveCode drops the applied discount.
func (s *Service) RemoveCode(ctx context.Context, storeID, sessionID string) Snapshot {
	c := s.load(ctx, storeID, sessionID)
	c.RemoveDiscount()
	s.persist(ctx, storeID, sessionID, &c)
	return s.snapshot(&c)
}

// revalidateDiscount re-runs evaluation after a cart mutation and silently
// drops a discount that no longer qualifies, e.g. when the only product that
// matched a specific_products code was removed.
func (s *Service) revalidateDiscount(ctx context.Context, storeID string, c *Cart) {
	applied := c.Discount()
	if applied == nil || s.Promos == nil {
		return
	}
	if c.ItemCount() == 0 {
		c.RemoveDiscount()
		return
	}
	fresh, err := s.Promos.Evaluate(ctx, storeID, applied.Code, c.Subtotal(), c.PromoLines())
	if err != nil {
		if errors.Is(err, promo.ErrLookupFailure) {
			// Keep the snapshot when the store is unreachable; checkout
			// re-evaluates before money moves.
			return
		}
		if s.Logger != nil {
			s.Logger.Info().Str("store_id", storeID).Str("code", applied.Code).Err(err).Msg("applied discount no longer eligible")
		}
		c.RemoveDiscount()
		return
	}
	c.ApplyDiscount(fresh)
}

func (s *Service) snapshot(c *Cart) Snapshot {
	return Snapshot{
		Lines:          c.Lines(),
		ItemCount:      c.ItemCount(),
		Subtotal:       c.Subtotal(),
		DiscountAmount: c.DiscountAmount(),
		Total:          c.Total(),
		Discount:       c.Discount(),
	}
}
