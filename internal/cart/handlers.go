package cart

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/store"
)

// Handler exposes the public cart endpoints.
type Handler struct {
	Service *Service
}

// Routes mounts the cart API under the given router.
func (h Handler) Routes(r chi.Router) {
	r.Post("/", h.Ensure)
	r.Get("/{cartID}", h.Quote)
	r.Post("/{cartID}/items", h.AddItem)
	r.Patch("/{cartID}/items/{itemID}", h.UpdateQty)
	r.Delete("/{cartID}/items/{itemID}", h.RemoveItem)
}

type ensureRequest struct {
	AnonID string `json:"anonId"`
}

type cartResponse struct {
	ID        string `json:"id"`
	AnonID    string `json:"anonId"`
	ExpiresAt string `json:"expiresAt"`
}

// Ensure handles POST /api/v1/cart: returns the cart for the anonymous id,
// minting a fresh id when the client did not carry one yet.
func (h Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	var payload ensureRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
			return
		}
	}
	anonID := strings.TrimSpace(payload.AnonID)
	if anonID == "" {
		anonID = uuid.NewString()
	}
	cart, err := h.Service.Ensure(r.Context(), anonID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartResponse(cart)})
}

type itemRequest struct {
	ProductID int64 `json:"productId"`
	Qty       int   `json:"qty"`
}

// AddItem handles POST /api/v1/cart/{cartID}/items.
func (h Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartID")
	if !ok {
		return
	}
	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if _, err := h.Service.AddItem(r.Context(), cartID, payload.ProductID, payload.Qty); err != nil {
		common.WriteError(w, err)
		return
	}
	h.writeQuote(w, r, cartID)
}

// UpdateQty handles PATCH /api/v1/cart/{cartID}/items/{itemID}.
func (h Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if _, err := h.Service.UpdateQty(r.Context(), cartID, itemID, payload.Qty); err != nil {
		common.WriteError(w, err)
		return
	}
	h.writeQuote(w, r, cartID)
}

// RemoveItem handles DELETE /api/v1/cart/{cartID}/items/{itemID}.
func (h Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.Service.RemoveItem(r.Context(), cartID, itemID); err != nil {
		common.WriteError(w, err)
		return
	}
	h.writeQuote(w, r, cartID)
}

// Quote handles GET /api/v1/cart/{cartID}: the priced cart with the
// savings-advisor suggestions attached.
func (h Handler) Quote(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartID")
	if !ok {
		return
	}
	h.writeQuote(w, r, cartID)
}

func (h Handler) writeQuote(w http.ResponseWriter, r *http.Request, cartID pgtype.UUID) {
	quote, err := h.Service.Quote(r.Context(), cartID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

func toCartResponse(c store.Cart) cartResponse {
	return cartResponse{
		ID:        store.UUIDString(c.ID),
		AnonID:    c.AnonID,
		ExpiresAt: c.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (pgtype.UUID, bool) {
	parsed, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid "+name, nil)
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, true
}
