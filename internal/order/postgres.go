package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx behaviour the repository needs. Checkout binds the
// repository to its transaction so the order and its redemption commit
// together.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements order persistence on top of Postgres.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository constructs a repository bound to the given connection.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *PostgresRepository) WithTx(tx pgx.Tx) *PostgresRepository {
	return &PostgresRepository{db: tx}
}

const orderColumns = `id, store_id, email, name, address, subtotal, discount, shipping, total,
	promo_code, promotion_id, status, created_at`

// Create inserts an order and its items.
func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO orders (store_id, email, name, address, subtotal, discount, shipping, total,
	promo_code, promotion_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+orderColumns+`
`, o.StoreID, o.Email, o.Name, o.Address, o.Subtotal, o.Discount, o.Shipping, o.Total,
		nullString(o.PromoCode), o.PromotionID, StatusPending)
	created, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	for _, it := range o.Items {
		var item Item
		err := r.db.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, name, variant, unit_price, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_id, name, variant, unit_price, quantity
`, created.ID, it.ProductID, it.Name, it.Variant, it.UnitPrice, it.Quantity).
			Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Variant, &item.UnitPrice, &item.Quantity)
		if err != nil {
			return Order{}, err
		}
		created.Items = append(created.Items, item)
	}
	return created, nil
}

// GetByID fetches an order with its items, scoped to a store.
func (r *PostgresRepository) GetByID(ctx context.Context, storeID string, id uuid.UUID) (Order, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE store_id = $1 AND id = $2
`, storeID, id)
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	rows, err := r.db.Query(ctx, `
SELECT id, order_id, product_id, name, variant, unit_price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY id
`, o.ID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Variant, &it.UnitPrice, &it.Quantity); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// ListByStore returns a store's orders, newest first, without items.
func (r *PostgresRepository) ListByStore(ctx context.Context, storeID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE store_id = $1
ORDER BY created_at DESC
LIMIT $2
`, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus moves an order to a new lifecycle status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, storeID string, id uuid.UUID, status Status) error {
	tag, err := r.db.Exec(ctx, `
UPDATE orders SET status = $3 WHERE store_id = $1 AND id = $2
`, storeID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var promoCode *string
	err := row.Scan(
		&o.ID, &o.StoreID, &o.Email, &o.Name, &o.Address, &o.Subtotal, &o.Discount,
		&o.Shipping, &o.Total, &promoCode, &o.PromotionID, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if promoCode != nil {
		o.PromoCode = *promoCode
	}
	return o, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
