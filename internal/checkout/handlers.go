package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/wovenshop/storefront/internal/cart"
	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/obs"
	"github.com/wovenshop/storefront/internal/promo"
	"github.com/wovenshop/storefront/internal/store"
)

// Handler exposes the shopper-facing checkout endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type checkoutRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Address string `json:"address" validate:"omitempty,max=500"`
}

// PlaceOrder turns the session cart into an order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	sessionID := cart.SessionID(w, r)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}

	placed, err := h.Svc.PlaceOrder(r.Context(), storeID, sessionID, Request{
		Email:   req.Email,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			countFailure("empty_cart")
			common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "Your cart is empty.", nil)
		case errors.Is(err, promo.ErrLookupFailure):
			countFailure("promo_unavailable")
			common.JSONError(w, http.StatusBadGateway, "PROMO_UNAVAILABLE", "Promotion service is unavailable, please retry.", nil)
		case isEligibilityError(err):
			// The discount went stale between apply and checkout; the shopper
			// has to remove or replace the code before paying.
			countFailure("promo_stale")
			common.JSONError(w, http.StatusConflict, "PROMO_NOT_ELIGIBLE", promo.UserMessage(err), nil)
		default:
			countFailure("internal")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to place order", nil)
		}
		return
	}
	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.Inc()
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": placed})
}

func countFailure(reason string) {
	if obs.CheckoutFailuresTotal != nil {
		obs.CheckoutFailuresTotal.WithLabelValues(reason).Inc()
	}
}

func isEligibilityError(err error) bool {
	for _, sentinel := range []error{
		promo.ErrInvalidCode, promo.ErrNotActive, promo.ErrNotYetValid, promo.ErrExpired,
		promo.ErrUsageLimitReached, promo.ErrBelowMinimum, promo.ErrNotApplicableToCart,
		promo.ErrNoEligibleNewProduct,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
