package order

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atacadocell/backend-atacado/internal/common"
)

// AdminHandler exposes the back-office order endpoints.
type AdminHandler struct {
	Service *Service
}

// Routes mounts the admin order API under the given router.
func (h AdminHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.PatchStatus)
}

// List handles GET /api/v1/admin/orders with an optional status filter.
func (h AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	page, perPage := common.ParsePagination(r, 20)
	orders, total, err := h.Service.List(r.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o, false))
	}
	common.JSON(w, http.StatusOK, common.ListEnvelope(out, page, perPage, total))
}

// Get handles GET /api/v1/admin/orders/{id} with full line detail.
func (h AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toOrderResponse(o, true)})
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	o, err := h.Service.UpdateStatus(r.Context(), id, strings.ToUpper(strings.TrimSpace(req.Status)))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toOrderResponse(o, false)})
}
