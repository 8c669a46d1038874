package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository captures the persistence operations the evaluator depends on.
type Repository interface {
	GetByCode(ctx context.Context, storeID, code string) (Promotion, error)
	Create(ctx context.Context, p Promotion) (Promotion, error)
	Update(ctx context.Context, p Promotion) (Promotion, error)
	ListByStore(ctx context.Context, storeID string) ([]Promotion, error)
	// InsertRedemption records one redemption per (promotion, order) pair and
	// reports whether the row was inserted. Re-delivery of the same order is a
	// no-op so the usage counter moves exactly once per placed order.
	InsertRedemption(ctx context.Context, promotionID uuid.UUID, orderID uuid.UUID, amount int64) (bool, error)
	IncrementUsedCount(ctx context.Context, promotionID uuid.UUID) error
}

// Service evaluates promotion codes against carts and settles redemptions.
type Service struct {
	Repo   Repository
	Now    func() time.Time
	Logger *zerolog.Logger
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Evaluate decides whether code is redeemable for the given store and cart and
// computes the discount it yields. Evaluation is read-only: calling it twice
// with identical inputs yields identical output and mutates nothing.
func (s *Service) Evaluate(ctx context.Context, storeID, code string, cartSubtotal int64, lines []Line) (Applied, error) {
	if s == nil || s.Repo == nil {
		return Applied{}, errors.New("promo service not configured")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Applied{}, ErrInvalidCode
	}
	promotion, err := s.Repo.GetByCode(ctx, storeID, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Applied{}, ErrInvalidCode
		}
		if s.Logger != nil {
			s.Logger.Error().Err(err).Str("store_id", storeID).Str("code", normalized).Msg("promotion lookup")
		}
		return Applied{}, fmt.Errorf("%w: %v", ErrLookupFailure, err)
	}
	if err := promotion.CheckEligibility(s.now(), cartSubtotal, lines); err != nil {
		return Applied{}, err
	}
	return Applied{
		PromotionID: promotion.ID,
		Code:        promotion.Code,
		Kind:        promotion.Kind,
		Value:       promotion.Value,
		Amount:      promotion.Amount(cartSubtotal),
	}, nil
}

// Redeem settles a redemption for a placed order. The caller passes a
// transaction-bound repository so the redemption row and the counter increment
// commit atomically with the order itself.
func (s *Service) Redeem(ctx context.Context, repo Repository, storeID, code string, orderID uuid.UUID, amount int64) error {
	if s == nil {
		return errors.New("promo service not configured")
	}
	if repo == nil {
		repo = s.Repo
	}
	normalized := NormalizeCode(code)
	if normalized == "" || orderID == uuid.Nil {
		return nil
	}
	promotion, err := repo.GetByCode(ctx, storeID, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if amount < 0 {
		amount = 0
	}
	inserted, err := repo.InsertRedemption(ctx, promotion.ID, orderID, amount)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	return repo.IncrementUsedCount(ctx, promotion.ID)
}
