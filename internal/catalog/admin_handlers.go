package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/events"
	"github.com/atacadocell/backend-atacado/internal/kit"
	"github.com/atacadocell/backend-atacado/internal/pricing"
	"github.com/atacadocell/backend-atacado/internal/store"
)

type productAdminStore interface {
	productProvider
	Create(ctx context.Context, p store.Product) (store.Product, error)
	Update(ctx context.Context, p store.Product) (store.Product, error)
	Delete(ctx context.Context, id int64) error
}

type kitAdminStore interface {
	kitProvider
	Create(ctx context.Context, k store.Kit) (store.Kit, error)
	Update(ctx context.Context, k store.Kit) (store.Kit, error)
	Delete(ctx context.Context, id int64) error
}

// AdminHandler exposes the back-office catalog management endpoints.
type AdminHandler struct {
	Products productAdminStore
	Kits     kitAdminStore
	Bus      *events.Bus
	Cache    *Cache
}

func (h *AdminHandler) invalidateLists(ctx context.Context) {
	_ = h.Cache.InvalidatePrefix(ctx, "catalog:list:")
}

// Routes mounts the admin catalog endpoints on the router.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	r.Post("/kits", h.CreateKit)
	r.Put("/kits/{id}", h.UpdateKit)
	r.Delete("/kits/{id}", h.DeleteKit)
}

type productRequest struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	ImageURL      string `json:"imageUrl"`
	Price         int64  `json:"price"`
	SpecialPrice  int64  `json:"specialPrice"`
	SpecialMinQty int    `json:"specialMinQty"`
	Active        *bool  `json:"active"`
}

func (req productRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Slug) == "" {
		return errors.New("name and slug are required")
	}
	if req.Price <= 0 {
		return errors.New("price must be positive")
	}
	if (req.SpecialPrice > 0) != (req.SpecialMinQty > 0) {
		return errors.New("specialPrice and specialMinQty must be set together")
	}
	if req.SpecialPrice > 0 && req.SpecialPrice >= req.Price {
		return errors.New("specialPrice must be below price")
	}
	return nil
}

func (req productRequest) toProduct(id int64) store.Product {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return store.Product{
		ID:            id,
		Name:          strings.TrimSpace(req.Name),
		Slug:          strings.TrimSpace(req.Slug),
		Description:   req.Description,
		Category:      strings.TrimSpace(req.Category),
		ImageURL:      strings.TrimSpace(req.ImageURL),
		Price:         req.Price,
		SpecialPrice:  req.SpecialPrice,
		SpecialMinQty: req.SpecialMinQty,
		Active:        active,
	}
}

// CreateProduct registers a new catalog product.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := req.validate(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	created, err := h.Products.Create(r.Context(), req.toProduct(0))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already in use", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	h.invalidateLists(r.Context())
	common.JSON(w, http.StatusCreated, toProductView(created, true))
}

// UpdateProduct rewrites a product.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := req.validate(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	updated, err := h.Products.Update(r.Context(), req.toProduct(id))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		case errors.Is(err, store.ErrConflict):
			common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already in use", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		}
		return
	}
	h.invalidateLists(r.Context())
	common.JSON(w, http.StatusOK, toProductView(updated, true))
}

// DeleteProduct deactivates a product.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	if err := h.Products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	h.invalidateLists(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type kitRequest struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Active      *bool      `json:"active"`
	Items       []kit.Item `json:"items"`
}

// CreateKit registers a curated kit. The kit must satisfy the same minimums
// enforced at checkout so the catalog never advertises an invalid bundle.
func (h *AdminHandler) CreateKit(w http.ResponseWriter, r *http.Request) {
	var req kitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	k, errs, err := h.buildKit(r.Context(), 0, req)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	if len(errs) > 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid kit", errs)
		return
	}
	created, err := h.Kits.Create(r.Context(), k)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already in use", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	h.emitKitUpdated(r.Context(), created)
	common.JSON(w, http.StatusCreated, created)
}

// UpdateKit rewrites a kit and its items.
func (h *AdminHandler) UpdateKit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	var req kitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	k, errs, err := h.buildKit(r.Context(), id, req)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	if len(errs) > 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid kit", errs)
		return
	}
	updated, err := h.Kits.Update(r.Context(), k)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "kit not found", nil)
		case errors.Is(err, store.ErrConflict):
			common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already in use", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		}
		return
	}
	h.emitKitUpdated(r.Context(), updated)
	common.JSON(w, http.StatusOK, updated)
}

// DeleteKit removes a kit.
func (h *AdminHandler) DeleteKit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	if err := h.Kits.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "kit not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) buildKit(ctx context.Context, id int64, req kitRequest) (store.Kit, []string, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Slug) == "" {
		return store.Kit{}, []string{"name and slug are required"}, nil
	}
	ids := make([]int64, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := h.Products.GetByIDs(ctx, ids)
	if err != nil {
		return store.Kit{}, nil, err
	}
	inputs := make([]pricing.Product, 0, len(products))
	for _, p := range products {
		inputs = append(inputs, p.Pricing())
	}
	summary := kit.Validate(inputs, req.Items)
	if !summary.IsValid {
		return store.Kit{}, summary.Errors, nil
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return store.Kit{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Slug:        strings.TrimSpace(req.Slug),
		Description: req.Description,
		Active:      active,
		Items:       req.Items,
	}, nil, nil
}

func (h *AdminHandler) emitKitUpdated(ctx context.Context, k store.Kit) {
	if h.Bus == nil {
		return
	}
	payload := map[string]any{"kitId": k.ID, "name": k.Name, "slug": k.Slug, "active": k.Active}
	_, _ = h.Bus.Emit(ctx, events.TopicKitUpdated, strconv.FormatInt(k.ID, 10), payload)
}
