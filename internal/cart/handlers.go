package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/obs"
	"github.com/wovenshop/storefront/internal/promo"
	"github.com/wovenshop/storefront/internal/store"
)

// SessionCookie names the cookie carrying the anonymous session identifier.
const SessionCookie = "wovenshop_session"

// ProductProvider resolves a product (and optional variant selection) into a
// cart line with a snapshotted unit price. Implemented by the catalog.
type ProductProvider interface {
	ProductLine(ctx context.Context, storeID, productID string, variant map[string]string) (Line, error)
}

// ErrProductNotFound is returned by ProductProvider implementations.
var ErrProductNotFound = errors.New("product not found")

// Handler exposes the shopper-facing cart endpoints.
type Handler struct {
	Svc      *Service
	Products ProductProvider
	Validate *validator.Validate
}

type addItemRequest struct {
	ProductID string            `json:"productId" validate:"required"`
	Variant   map[string]string `json:"variant"`
	Quantity  int               `json:"quantity" validate:"omitempty,gte=1"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// Get returns the current cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, sessionID, ok := h.scope(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Get(r.Context(), storeID, sessionID)})
}

// AddItem adds a product (with optional variant selection) to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	storeID, sessionID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req addItemRequest
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
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	line, err := h.Products.ProductLine(r.Context(), storeID, req.ProductID, req.Variant)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve product", nil)
		return
	}
	snapshot := h.Svc.AddItem(r.Context(), storeID, sessionID, line, req.Quantity)
	common.JSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

// SetQuantity overwrites a line quantity; zero removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	storeID, sessionID, ok := h.scope(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	if key == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "line key is required", nil)
		return
	}
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	snapshot := h.Svc.SetQuantity(r.Context(), storeID, sessionID, key, req.Quantity)
	common.JSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

// RemoveItem deletes a line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	storeID, sessionID, ok := h.scope(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	snapshot := h.Svc.RemoveItem(r.Context(), storeID, sessionID, key)
	common.JSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

// ApplyCode validates a promotion code against the cart and attaches it.
func (h *Handler) ApplyCode(w http.ResponseWriter, r *http.Request) {
	storeID, sessionID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req applyCodeRequest
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
	snapshot, err := h.Svc.ApplyCode(r.Context(), storeID, sessionID, req.Code)
	if err != nil {
		status := http.StatusUnprocessableEntity
		result := "rejected"
		if errors.Is(err, promo.ErrLookupFailure) {
			status = http.StatusBadGateway
			result = "unavailable"
		}
		countEvaluation(result)
		message := promo.UserMessage(err)
		if errors.Is(err, ErrEmptyCart) {
			message = "Your cart is empty."
		}
		common.JSONError(w, status, "NOT_ELIGIBLE", message, map[string]any{"cart": snapshot})
		return
	}
	countEvaluation("applied")
	common.JSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

func countEvaluation(result string) {
	if obs.PromoEvaluationsTotal != nil {
		obs.PromoEvaluationsTotal.WithLabelValues(result).Inc()
	}
}

// RemoveCode drops the applied discount.
func (h *Handler) RemoveCode(w http.ResponseWriter, r *http.Request) {
	storeID, sessionID, ok := h.scope(w, r)
	if !ok {
		return
	}
	snapshot := h.Svc.RemoveCode(r.Context(), storeID, sessionID)
	common.JSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return "", "", false
	}
	return storeID, SessionID(w, r), true
}

// SessionID resolves the browsing session identifier from header or cookie,
// minting a new one (and setting the cookie) on first contact.
func SessionID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-ID")); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if id := strings.TrimSpace(cookie.Value); id != "" {
			return id
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
