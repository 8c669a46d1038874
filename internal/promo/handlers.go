package promo

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/store"
)

// Handler exposes seller-facing promotion management plus a preview endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type promotionPayload struct {
	Code            string     `json:"code" validate:"required,min=2,max=64"`
	Kind            string     `json:"kind" validate:"required,oneof=percentage fixed free_shipping"`
	Value           int64      `json:"value" validate:"gte=0"`
	Scope           string     `json:"scope" validate:"omitempty,oneof=entire_order specific_products"`
	ProductIDs      []string   `json:"productIds" validate:"omitempty,dive,required"`
	MinPurchase     *int64     `json:"minPurchase" validate:"omitempty,gte=0"`
	StartsAt        *time.Time `json:"startsAt"`
	EndsAt          *time.Time `json:"endsAt"`
	MaxUses         *int32     `json:"maxUses" validate:"omitempty,gte=1"`
	NewProductsOnly bool       `json:"newProductsOnly"`
	Active          *bool      `json:"active"`
}

type previewRequest struct {
	Code         string        `json:"code" validate:"required"`
	CartSubtotal int64         `json:"cartSubtotal" validate:"gte=0"`
	Lines        []previewLine `json:"lines"`
}

type previewLine struct {
	ProductID string     `json:"productId" validate:"required"`
	CreatedAt *time.Time `json:"createdAt"`
}

// Create inserts a new promotion for the resolved store.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	payload, err := h.decodePayload(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Svc.Repo.Create(r.Context(), payloadToPromotion(storeID, payload))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "promotion code already exists for this store", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create promotion", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update mutates the promotion identified by code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	code := NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	payload, err := h.decodePayload(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	payload.Code = code
	updated, err := h.Svc.Repo.Update(r.Context(), payloadToPromotion(storeID, payload))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promotion not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update promotion", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// List returns all promotions for the resolved store.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	promotions, err := h.Svc.Repo.ListByStore(r.Context(), storeID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list promotions", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promotions})
}

// Preview evaluates a code against a hypothetical cart without touching state.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	var req previewRequest
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
	lines := make([]Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, Line{ProductID: l.ProductID, ProductCreatedAt: l.CreatedAt})
	}
	applied, err := h.Svc.Evaluate(r.Context(), storeID, req.Code, req.CartSubtotal, lines)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, ErrLookupFailure) {
			status = http.StatusBadGateway
		}
		common.JSONError(w, status, "NOT_ELIGIBLE", UserMessage(err), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": applied})
}

func (h *Handler) decodePayload(r *http.Request) (promotionPayload, error) {
	var payload promotionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return promotionPayload{}, errors.New("invalid payload")
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			return promotionPayload{}, err
		}
	}
	if Scope(payload.Scope) == ScopeSpecificProducts && len(payload.ProductIDs) == 0 {
		return promotionPayload{}, errors.New("productIds are required for specific_products scope")
	}
	return payload, nil
}

func payloadToPromotion(storeID string, payload promotionPayload) Promotion {
	scope := Scope(payload.Scope)
	if scope == "" {
		scope = ScopeEntireOrder
	}
	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	return Promotion{
		StoreID:         storeID,
		Code:            NormalizeCode(payload.Code),
		Kind:            Kind(payload.Kind),
		Value:           payload.Value,
		Scope:           scope,
		ProductIDs:      payload.ProductIDs,
		MinPurchase:     payload.MinPurchase,
		StartsAt:        payload.StartsAt,
		EndsAt:          payload.EndsAt,
		MaxUses:         payload.MaxUses,
		NewProductsOnly: payload.NewProductsOnly,
		Active:          active,
	}
}
