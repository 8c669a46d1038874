package checkout

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wovenshop/storefront/internal/order"
	"github.com/wovenshop/storefront/internal/promo"
)

// PgTxRunner implements TxRunner on a pgx connection pool by rebinding the
// order and promotion repositories to a single transaction.
type PgTxRunner struct {
	Pool   *pgxpool.Pool
	Orders *order.PostgresRepository
	Promos *promo.PostgresRepository
}

// RunInTx begins a transaction, runs fn with tx-bound repositories, and
// commits when fn returns nil.
func (r *PgTxRunner) RunInTx(ctx context.Context, fn func(orders OrderWriter, promos promo.Repository) error) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(r.Orders.WithTx(tx), r.Promos.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
