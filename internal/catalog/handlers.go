package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atacadocell/backend-atacado/internal/auth"
	"github.com/atacadocell/backend-atacado/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	Service *Service
}

// Products handles GET /api/v1/products with filters and pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	params, err := h.Service.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	_, unlocked := auth.LeadID(r.Context())
	result, err := h.Service.ListProducts(r.Context(), params, unlocked)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, common.ListEnvelope(result.Items, result.Page, result.Limit, result.Total))
}

// ProductDetail handles GET /api/v1/products/{slug}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	leadID, unlocked := auth.LeadID(r.Context())
	detail, err := h.Service.GetProduct(r.Context(), chi.URLParam(r, "slug"), unlocked, leadID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// Kits handles GET /api/v1/kits.
func (h *Handler) Kits(w http.ResponseWriter, r *http.Request) {
	_, unlocked := auth.LeadID(r.Context())
	kits, err := h.Service.ListKits(r.Context(), unlocked)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": kits})
}

// KitDetail handles GET /api/v1/kits/{slug}.
func (h *Handler) KitDetail(w http.ResponseWriter, r *http.Request) {
	_, unlocked := auth.LeadID(r.Context())
	kit, err := h.Service.GetKit(r.Context(), chi.URLParam(r, "slug"), unlocked)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": kit})
}
