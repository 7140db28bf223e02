package lead

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/store"
)

// Handler exposes the public lead capture endpoint.
type Handler struct {
	Service *Service
}

// Capture handles the contact form submission.
func (h Handler) Capture(w http.ResponseWriter, r *http.Request) {
	var in CaptureInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Service.Capture(r.Context(), in)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not register contact", nil)
		return
	}
	common.JSON(w, http.StatusCreated, result)
}

// AdminHandler exposes the back-office lead listing.
type AdminHandler struct {
	Service *Service
}

type leadResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// List returns captured leads newest first.
func (h AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	leads, total, err := h.Service.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	out := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, leadResponse{
			ID:        store.UUIDString(l.ID),
			Name:      l.Name,
			Phone:     l.Phone,
			Source:    l.Source,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		})
	}
	common.JSON(w, http.StatusOK, common.ListEnvelope(out, page, perPage, total))
}
