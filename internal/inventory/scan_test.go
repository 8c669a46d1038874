package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wovenshop/storefront/internal/catalog"
	"github.com/wovenshop/storefront/internal/events"
)

type staticLister struct {
	products []catalog.Product
}

func (l staticLister) ListLowStock(context.Context) ([]catalog.Product, error) {
	return l.products, nil
}

type memAlertLog struct {
	alerts map[string]struct {
		stock int
		at    time.Time
	}
}

func newMemAlertLog() *memAlertLog {
	return &memAlertLog{alerts: map[string]struct {
		stock int
		at    time.Time
	}{}}
}

func (l *memAlertLog) LastAlert(_ context.Context, productID string) (int, time.Time, bool, error) {
	a, ok := l.alerts[productID]
	return a.stock, a.at, ok, nil
}

func (l *memAlertLog) RecordAlert(_ context.Context, productID string, stock int) error {
	l.alerts[productID] = struct {
		stock int
		at    time.Time
	}{stock, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	return nil
}

func collector(bus *events.Bus) *[]events.Event {
	var got []events.Event
	bus.Subscribe(events.TopicLowStock, func(_ context.Context, e events.Event) {
		got = append(got, e)
	})
	return &got
}

func testScanner(products []catalog.Product, log AlertLog) (*Scanner, *[]events.Event) {
	bus := &events.Bus{}
	got := collector(bus)
	return &Scanner{
		Products: staticLister{products: products},
		Alerts:   log,
		Bus:      bus,
		Now: func() time.Time {
			return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		},
	}, got
}

func TestScanAlertsOnce(t *testing.T) {
	products := []catalog.Product{
		{ID: "P1", StoreID: "s1", Name: "Scarf", Stock: 2, LowStockThreshold: 5},
	}
	scanner, got := testScanner(products, newMemAlertLog())
	ctx := context.Background()

	published, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Len(t, *got, 1)

	// Second sweep with unchanged stock stays quiet.
	published, err = scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, published)
	assert.Len(t, *got, 1)
}

func TestScanRealertsWhenStockDrops(t *testing.T) {
	log := newMemAlertLog()
	scanner, got := testScanner([]catalog.Product{
		{ID: "P1", StoreID: "s1", Name: "Scarf", Stock: 2, LowStockThreshold: 5},
	}, log)
	ctx := context.Background()

	_, err := scanner.Scan(ctx)
	require.NoError(t, err)

	scanner.Products = staticLister{products: []catalog.Product{
		{ID: "P1", StoreID: "s1", Name: "Scarf", Stock: 1, LowStockThreshold: 5},
	}}
	published, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Len(t, *got, 2)
}

func TestScanRealertsAfterCooldown(t *testing.T) {
	log := newMemAlertLog()
	scanner, got := testScanner([]catalog.Product{
		{ID: "P1", StoreID: "s1", Name: "Scarf", Stock: 2, LowStockThreshold: 5},
	}, log)
	ctx := context.Background()

	_, err := scanner.Scan(ctx)
	require.NoError(t, err)

	scanner.Now = func() time.Time {
		return time.Date(2025, 6, 16, 13, 0, 0, 0, time.UTC)
	}
	published, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Len(t, *got, 2)
}
