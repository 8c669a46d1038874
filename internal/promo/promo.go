package promo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the supported discount variants.
type Kind string

const (
	// KindPercentage discounts a percentage of the cart subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed discounts a fixed amount, never below zero.
	KindFixed Kind = "fixed"
	// KindFreeShipping waives the shipping fee at checkout. The discount
	// amount at this layer is always zero.
	KindFreeShipping Kind = "free_shipping"
)

// Scope determines which part of the order a promotion discounts.
type Scope string

const (
	// ScopeEntireOrder applies the promotion to the whole cart.
	ScopeEntireOrder Scope = "entire_order"
	// ScopeSpecificProducts restricts the promotion to an explicit product allow-list.
	ScopeSpecificProducts Scope = "specific_products"
)

// NewProductWindow is the rolling window for the new-products-only condition.
const NewProductWindow = 30 * 24 * time.Hour

var (
	// ErrInvalidCode is returned when no promotion matches the (store, code) pair.
	ErrInvalidCode = errors.New("promotion code not found")
	// ErrNotActive is returned when the promotion has been disabled by the seller.
	ErrNotActive = errors.New("promotion not active")
	// ErrNotYetValid is returned before the promotion's start date.
	ErrNotYetValid = errors.New("promotion not yet valid")
	// ErrExpired is returned after the promotion's end date.
	ErrExpired = errors.New("promotion expired")
	// ErrUsageLimitReached indicates the promotion exhausted its redemption cap.
	ErrUsageLimitReached = errors.New("promotion usage limit reached")
	// ErrBelowMinimum indicates the cart subtotal did not meet the minimum purchase.
	ErrBelowMinimum = errors.New("minimum purchase not met")
	// ErrNotApplicableToCart indicates no cart line intersects the product allow-list.
	ErrNotApplicableToCart = errors.New("promotion not applicable to cart")
	// ErrNoEligibleNewProduct indicates the new-products-only condition failed.
	ErrNoEligibleNewProduct = errors.New("no eligible new product in cart")
	// ErrLookupFailure wraps I/O errors from the promotion store.
	ErrLookupFailure = errors.New("promotion lookup failed")
	// ErrNotFound is the repository sentinel for a missing record.
	ErrNotFound = errors.New("promotion not found")
)

// Promotion is a seller-defined discount rule redeemed via a code.
type Promotion struct {
	ID              uuid.UUID  `json:"id"`
	StoreID         string     `json:"storeId"`
	Code            string     `json:"code"`
	Kind            Kind       `json:"kind"`
	Value           int64      `json:"value"`
	Scope           Scope      `json:"scope"`
	ProductIDs      []string   `json:"productIds,omitempty"`
	MinPurchase     *int64     `json:"minPurchase,omitempty"`
	StartsAt        *time.Time `json:"startsAt,omitempty"`
	EndsAt          *time.Time `json:"endsAt,omitempty"`
	MaxUses         *int32     `json:"maxUses,omitempty"`
	UsedCount       int32      `json:"usedCount"`
	NewProductsOnly bool       `json:"newProductsOnly"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Line is the slice of cart state the evaluator needs per line item.
type Line struct {
	ProductID        string
	ProductCreatedAt *time.Time
}

// Applied is the successful outcome of evaluating a code against a cart.
type Applied struct {
	PromotionID uuid.UUID `json:"promotionId"`
	Code        string    `json:"code"`
	Kind        Kind      `json:"kind"`
	Value       int64     `json:"value"`
	Amount      int64     `json:"amount"`
}

// NormalizeCode canonicalizes a user-submitted code for lookup and storage.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckEligibility runs the validation pipeline in its fixed order, returning
// the first failing condition. The order is part of the contract: it decides
// which message the shopper sees when several conditions fail at once.
func (p Promotion) CheckEligibility(now time.Time, cartSubtotal int64, lines []Line) error {
	if !p.Active {
		return ErrNotActive
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return ErrNotYetValid
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return ErrExpired
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return ErrUsageLimitReached
	}
	if p.MinPurchase != nil && cartSubtotal < *p.MinPurchase {
		return fmt.Errorf("minimum purchase of %s required: %w", FormatAmount(*p.MinPurchase), ErrBelowMinimum)
	}
	if p.Scope == ScopeSpecificProducts && !p.matchesAnyProduct(lines) {
		return ErrNotApplicableToCart
	}
	if p.NewProductsOnly && !anyNewProduct(now, lines) {
		return ErrNoEligibleNewProduct
	}
	return nil
}

func (p Promotion) matchesAnyProduct(lines []Line) bool {
	if len(p.ProductIDs) == 0 {
		return false
	}
	allowed := make(map[string]struct{}, len(p.ProductIDs))
	for _, id := range p.ProductIDs {
		allowed[id] = struct{}{}
	}
	for _, line := range lines {
		if _, ok := allowed[line.ProductID]; ok {
			return true
		}
	}
	return false
}

func anyNewProduct(now time.Time, lines []Line) bool {
	for _, line := range lines {
		if line.ProductCreatedAt == nil {
			continue
		}
		// Inclusive window: a product created exactly 30 days ago still counts.
		if now.Sub(*line.ProductCreatedAt) <= NewProductWindow {
			return true
		}
	}
	return false
}

// Amount computes the discount value for a cart subtotal. Only meaningful
// after CheckEligibility passed.
func (p Promotion) Amount(cartSubtotal int64) int64 {
	switch p.Kind {
	case KindPercentage:
		if p.Value <= 0 {
			return 0
		}
		return cartSubtotal * p.Value / 100
	case KindFixed:
		if p.Value <= 0 {
			return 0
		}
		if p.Value > cartSubtotal {
			return cartSubtotal
		}
		return p.Value
	case KindFreeShipping:
		// The shipping waiver is applied by checkout pricing, not here.
		return 0
	default:
		return 0
	}
}

// UserMessage maps an evaluation failure to the inline message shown to the shopper.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCode):
		return "That code is not valid for this store."
	case errors.Is(err, ErrNotActive):
		return "This promotion is no longer active."
	case errors.Is(err, ErrNotYetValid):
		return "This promotion is not valid yet."
	case errors.Is(err, ErrExpired):
		return "This promotion has expired."
	case errors.Is(err, ErrUsageLimitReached):
		return "This promotion has reached its usage limit."
	case errors.Is(err, ErrBelowMinimum):
		return err.Error()
	case errors.Is(err, ErrNotApplicableToCart):
		return "This promotion does not apply to the items in your cart."
	case errors.Is(err, ErrNoEligibleNewProduct):
		return "This promotion only applies to recently added products."
	case errors.Is(err, ErrLookupFailure):
		return "Failed to apply code. Please try again."
	default:
		return "Failed to apply code. Please try again."
	}
}

// FormatAmount renders a minor-unit amount as a major.minor decimal string.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
