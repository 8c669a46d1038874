package events

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx behaviour the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore appends events to the domain_events table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore constructs a store bound to the given connection.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert appends an event and returns it with id and timestamp filled in.
func (s *PostgresStore) Insert(ctx context.Context, e Event) (Event, error) {
	err := s.db.QueryRow(ctx, `
INSERT INTO domain_events (store_id, topic, payload)
VALUES ($1, $2, $3)
RETURNING id, created_at
`, e.StoreID, e.Topic, e.Payload).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Event{}, err
	}
	return e, nil
}

// ListByStore returns a store's recent events, newest first.
func (s *PostgresStore) ListByStore(ctx context.Context, storeID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
SELECT id, store_id, topic, payload, created_at
FROM domain_events
WHERE store_id = $1
ORDER BY created_at DESC
LIMIT $2
`, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.StoreID, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
