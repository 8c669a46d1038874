package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx behaviour the repository needs.
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

const productColumns = `id, store_id, name, slug, description, price, image, stock,
	low_stock_threshold, created_at, updated_at`

// GetStore fetches a store record by its identifier.
func (r *PostgresRepository) GetStore(ctx context.Context, storeID string) (Store, error) {
	var s Store
	err := r.db.QueryRow(ctx, `
SELECT id, name, email, created_at FROM stores WHERE id = $1
`, storeID).Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Store{}, ErrNotFound
		}
		return Store{}, err
	}
	return s, nil
}

// GetProduct fetches a product by id or slug within a store, variants included.
func (r *PostgresRepository) GetProduct(ctx context.Context, storeID, idOrSlug string) (Product, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+productColumns+`
FROM products
WHERE store_id = $1 AND (id = $2 OR slug = $2)
`, storeID, idOrSlug)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, err
	}
	if err := r.attachVariants(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// ListProducts returns a store's catalog, newest first.
func (r *PostgresRepository) ListProducts(ctx context.Context, storeID string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+productColumns+`
FROM products
WHERE store_id = $1
ORDER BY created_at DESC
`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product and its variants.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO products (store_id, name, slug, description, price, image, stock, low_stock_threshold)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+productColumns+`
`, p.StoreID, p.Name, p.Slug, p.Description, p.Price, p.Image, p.Stock, p.LowStockThreshold)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, err
	}
	if err := r.replaceVariants(ctx, created.ID, p.Variants); err != nil {
		return Product{}, err
	}
	if err := r.attachVariants(ctx, &created); err != nil {
		return Product{}, err
	}
	return created, nil
}

// UpdateProduct replaces the mutable fields of a product and its variants.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRow(ctx, `
UPDATE products
SET name = $3, slug = $4, description = $5, price = $6, image = $7, stock = $8,
	low_stock_threshold = $9, updated_at = now()
WHERE store_id = $1 AND id = $2
RETURNING `+productColumns+`
`, p.StoreID, p.ID, p.Name, p.Slug, p.Description, p.Price, p.Image, p.Stock, p.LowStockThreshold)
	updated, err := scanProduct(row)
	if err != nil {
		return Product{}, err
	}
	if err := r.replaceVariants(ctx, updated.ID, p.Variants); err != nil {
		return Product{}, err
	}
	if err := r.attachVariants(ctx, &updated); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// AdjustStock decrements base stock, clamping at zero.
func (r *PostgresRepository) AdjustStock(ctx context.Context, storeID, productID string, delta int) error {
	_, err := r.db.Exec(ctx, `
UPDATE products
SET stock = GREATEST(stock + $3, 0), updated_at = now()
WHERE store_id = $1 AND id = $2
`, storeID, productID, delta)
	return err
}

// ListLowStock returns products at or below their configured threshold.
func (r *PostgresRepository) ListLowStock(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+productColumns+`
FROM products
WHERE low_stock_threshold > 0 AND stock <= low_stock_threshold
ORDER BY store_id, stock ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) attachVariants(ctx context.Context, p *Product) error {
	rows, err := r.db.Query(ctx, `
SELECT id, attrs, price, stock
FROM product_variants
WHERE product_id = $1
ORDER BY id
`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.Attrs, &v.Price, &v.Stock); err != nil {
			return err
		}
		p.Variants = append(p.Variants, v)
	}
	return rows.Err()
}

func (r *PostgresRepository) replaceVariants(ctx context.Context, productID string, variants []Variant) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, v := range variants {
		_, err := r.db.Exec(ctx, `
INSERT INTO product_variants (product_id, attrs, price, stock)
VALUES ($1, $2, $3, $4)
`, productID, v.Attrs, v.Price, v.Stock)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.StoreID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Image,
		&p.Stock, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}
