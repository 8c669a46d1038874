package promo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx behaviour the repository needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it, which lets checkout bind the repository to its
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository on top of Postgres.
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

const promotionColumns = `id, store_id, code, kind, value, scope, product_ids, min_purchase,
	starts_at, ends_at, max_uses, used_count, new_products_only, active, created_at, updated_at`

// GetByCode fetches the single promotion for a (store, code) pair.
func (r *PostgresRepository) GetByCode(ctx context.Context, storeID, code string) (Promotion, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+promotionColumns+`
FROM promotions
WHERE store_id = $1 AND code = $2
`, storeID, NormalizeCode(code))
	return scanPromotion(row)
}

// Create inserts a new promotion.
func (r *PostgresRepository) Create(ctx context.Context, p Promotion) (Promotion, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO promotions (store_id, code, kind, value, scope, product_ids, min_purchase,
	starts_at, ends_at, max_uses, new_products_only, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING `+promotionColumns+`
`, p.StoreID, NormalizeCode(p.Code), p.Kind, p.Value, p.Scope, p.ProductIDs, p.MinPurchase,
		p.StartsAt, p.EndsAt, p.MaxUses, p.NewProductsOnly, p.Active)
	return scanPromotion(row)
}

// Update replaces the mutable fields of an existing promotion.
func (r *PostgresRepository) Update(ctx context.Context, p Promotion) (Promotion, error) {
	row := r.db.QueryRow(ctx, `
UPDATE promotions
SET kind = $3, value = $4, scope = $5, product_ids = $6, min_purchase = $7,
	starts_at = $8, ends_at = $9, max_uses = $10, new_products_only = $11, active = $12,
	updated_at = now()
WHERE store_id = $1 AND code = $2
RETURNING `+promotionColumns+`
`, p.StoreID, NormalizeCode(p.Code), p.Kind, p.Value, p.Scope, p.ProductIDs, p.MinPurchase,
		p.StartsAt, p.EndsAt, p.MaxUses, p.NewProductsOnly, p.Active)
	return scanPromotion(row)
}

// ListByStore returns all promotions owned by a store, newest first.
func (r *PostgresRepository) ListByStore(ctx context.Context, storeID string) ([]Promotion, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+promotionColumns+`
FROM promotions
WHERE store_id = $1
ORDER BY created_at DESC
`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertRedemption records a redemption once per (promotion, order).
func (r *PostgresRepository) InsertRedemption(ctx context.Context, promotionID uuid.UUID, orderID uuid.UUID, amount int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
INSERT INTO promo_redemptions (promotion_id, order_id, amount)
VALUES ($1, $2, $3)
ON CONFLICT (promotion_id, order_id) DO NOTHING
`, promotionID, orderID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementUsedCount bumps the promotion usage counter.
func (r *PostgresRepository) IncrementUsedCount(ctx context.Context, promotionID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
UPDATE promotions SET used_count = used_count + 1, updated_at = now() WHERE id = $1
`, promotionID)
	return err
}

func scanPromotion(row pgx.Row) (Promotion, error) {
	var p Promotion
	err := row.Scan(
		&p.ID, &p.StoreID, &p.Code, &p.Kind, &p.Value, &p.Scope, &p.ProductIDs, &p.MinPurchase,
		&p.StartsAt, &p.EndsAt, &p.MaxUses, &p.UsedCount, &p.NewProductsOnly, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Promotion{}, ErrNotFound
		}
		return Promotion{}, err
	}
	return p, nil
}
