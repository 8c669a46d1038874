package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wovenshop/storefront/internal/catalog"
	"github.com/wovenshop/storefront/internal/events"
	"github.com/wovenshop/storefront/internal/obs"
)

// LowStockLister is the catalog read the scanner depends on.
type LowStockLister interface {
	ListLowStock(ctx context.Context) ([]catalog.Product, error)
}

// AlertLog deduplicates alerts so a product sitting at low stock does not page
// the seller on every scan.
type AlertLog interface {
	LastAlert(ctx context.Context, productID string) (stock int, at time.Time, ok bool, err error)
	RecordAlert(ctx context.Context, productID string, stock int) error
}

// DefaultCooldown is how long a product stays quiet after an alert unless its
// stock drops further.
const DefaultCooldown = 24 * time.Hour

// Scanner walks the catalog for products at or below their low stock threshold
// and publishes an alert event per product that needs one.
type Scanner struct {
	Products LowStockLister
	Alerts   AlertLog
	Bus      *events.Bus
	Cooldown time.Duration
	Now      func() time.Time
	Logger   *zerolog.Logger
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scanner) cooldown() time.Duration {
	if s.Cooldown > 0 {
		return s.Cooldown
	}
	return DefaultCooldown
}

// Scan runs one pass and returns the number of alerts published. A product
// alerts when it has never alerted, when its stock dropped since the last
// alert, or when the cooldown elapsed.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	products, err := s.Products.ListLowStock(ctx)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, p := range products {
		due, err := s.alertDue(ctx, p)
		if err != nil {
			s.logWarn(err, p, "alert log read")
			continue
		}
		if !due {
			continue
		}
		if s.Bus != nil {
			if err := s.Bus.Publish(ctx, p.StoreID, events.TopicLowStock, events.LowStock{
				ProductID:   p.ID,
				ProductName: p.Name,
				Stock:       p.Stock,
				Threshold:   p.LowStockThreshold,
			}); err != nil {
				s.logWarn(err, p, "publish low stock event")
				continue
			}
		}
		if s.Alerts != nil {
			if err := s.Alerts.RecordAlert(ctx, p.ID, p.Stock); err != nil {
				s.logWarn(err, p, "alert log write")
			}
		}
		if obs.LowStockAlertsTotal != nil {
			obs.LowStockAlertsTotal.Inc()
		}
		published++
	}
	return published, nil
}

func (s *Scanner) alertDue(ctx context.Context, p catalog.Product) (bool, error) {
	if s.Alerts == nil {
		return true, nil
	}
	lastStock, at, ok, err := s.Alerts.LastAlert(ctx, p.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	if p.Stock < lastStock {
		return true, nil
	}
	return s.now().Sub(at) >= s.cooldown(), nil
}

func (s *Scanner) logWarn(err error, p catalog.Product, msg string) {
	if s.Logger != nil {
		s.Logger.Warn().Err(err).Str("store_id", p.StoreID).Str("product_id", p.ID).Msg(msg)
	}
}
