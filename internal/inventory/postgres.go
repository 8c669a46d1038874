package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx behaviour the alert log needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresAlertLog stores the last alert per product.
type PostgresAlertLog struct {
	db DBTX
}

// NewPostgresAlertLog constructs an alert log bound to the given connection.
func NewPostgresAlertLog(db DBTX) *PostgresAlertLog {
	return &PostgresAlertLog{db: db}
}

// LastAlert implements AlertLog.
func (l *PostgresAlertLog) LastAlert(ctx context.Context, productID string) (int, time.Time, bool, error) {
	var stock int
	var at time.Time
	err := l.db.QueryRow(ctx, `
SELECT stock, notified_at FROM low_stock_notifications WHERE product_id = $1
`, productID).Scan(&stock, &at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, false, nil
		}
		return 0, time.Time{}, false, err
	}
	return stock, at, true, nil
}

// RecordAlert implements AlertLog.
func (l *PostgresAlertLog) RecordAlert(ctx context.Context, productID string, stock int) error {
	_, err := l.db.Exec(ctx, `
INSERT INTO low_stock_notifications (product_id, stock, notified_at)
VALUES ($1, $2, now())
ON CONFLICT (product_id) DO UPDATE SET stock = EXCLUDED.stock, notified_at = now()
`, productID, stock)
	return err
}
