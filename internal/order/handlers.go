package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/store"
)

// Repository is the read surface the seller endpoints depend on.
type Repository interface {
	GetByID(ctx context.Context, storeID string, id uuid.UUID) (Order, error)
	ListByStore(ctx context.Context, storeID string, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, storeID string, id uuid.UUID, status Status) error
}

// Handler exposes seller-facing order endpoints.
type Handler struct {
	Repo     Repository
	Validate *validator.Validate
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid fulfilled cancelled"`
}

// List returns the resolved store's orders, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.Repo.ListByStore(r.Context(), storeID, limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orders})
}

// Get returns a single order with its items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Repo.GetByID(r.Context(), storeID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to fetch order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// UpdateStatus moves an order through its lifecycle.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req updateStatusRequest
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
	if err := h.Repo.UpdateStatus(r.Context(), storeID, id, Status(req.Status)); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order", nil)
		return
	}
	o, err := h.Repo.GetByID(r.Context(), storeID, id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to fetch order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}
