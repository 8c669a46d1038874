package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/store"
)

// Handler exposes public catalog reads and seller-facing writes.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type variantPayload struct {
	Attrs map[string]string `json:"attrs" validate:"required,min=1"`
	Price *int64            `json:"price" validate:"omitempty,gte=0"`
	Stock int               `json:"stock" validate:"gte=0"`
}

type productPayload struct {
	Name              string           `json:"name" validate:"required,min=1,max=200"`
	Slug              string           `json:"slug" validate:"omitempty,max=200"`
	Description       string           `json:"description"`
	Price             int64            `json:"price" validate:"gte=0"`
	Image             string           `json:"image" validate:"omitempty,url"`
	Stock             int              `json:"stock" validate:"gte=0"`
	LowStockThreshold int              `json:"lowStockThreshold" validate:"gte=0"`
	Variants          []variantPayload `json:"variants" validate:"omitempty,dive"`
}

// List returns the resolved store's catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	products, err := h.Svc.List(r.Context(), storeID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// Get returns a single product by id or slug.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	product, err := h.Svc.Get(r.Context(), storeID, chi.URLParam(r, "idOrSlug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to fetch product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// Create inserts a product into the resolved store's catalog.
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
	created, err := h.Svc.Create(r.Context(), payloadToProduct(storeID, "", payload))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "product slug already exists for this store", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create product", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update mutates the product identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	storeID, ok := store.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store could not be resolved from request", nil)
		return
	}
	productID := chi.URLParam(r, "id")
	payload, err := h.decodePayload(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Svc.Update(r.Context(), payloadToProduct(storeID, productID, payload))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) decodePayload(r *http.Request) (productPayload, error) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return productPayload{}, errors.New("invalid payload")
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			return productPayload{}, err
		}
	}
	return payload, nil
}

func payloadToProduct(storeID, productID string, payload productPayload) Product {
	variants := make([]Variant, 0, len(payload.Variants))
	for _, v := range payload.Variants {
		variants = append(variants, Variant{Attrs: v.Attrs, Price: v.Price, Stock: v.Stock})
	}
	return Product{
		ID:                productID,
		StoreID:           storeID,
		Name:              payload.Name,
		Slug:              payload.Slug,
		Description:       payload.Description,
		Price:             payload.Price,
		Image:             payload.Image,
		Stock:             payload.Stock,
		LowStockThreshold: payload.LowStockThreshold,
		Variants:          variants,
	}
}
