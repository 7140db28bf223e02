package order

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/atacadocell/backend-atacado/internal/auth"
	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/store"
)

// Handler exposes the public order submission endpoint.
type Handler struct {
	Service *Service
}

type itemResponse struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
	Savings   int64  `json:"savings"`
	IsSpecial bool   `json:"isSpecialPrice"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	CustomerName  string         `json:"customerName"`
	Phone         string         `json:"phone"`
	Status        string         `json:"status"`
	TotalPrice    int64          `json:"totalPrice"`
	TotalSavings  int64          `json:"totalSavings"`
	TotalQuantity int            `json:"totalQuantity"`
	Message       string         `json:"message,omitempty"`
	Items         []itemResponse `json:"items,omitempty"`
	CreatedAt     string         `json:"createdAt"`
	UpdatedAt     string         `json:"updatedAt"`
}

// Checkout handles POST /api/v1/orders.
func (h Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	created, err := h.Service.Checkout(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toOrderResponse(created, true)})
}

// Mine handles GET /api/v1/orders for a customer holding a catalog token.
func (h Handler) Mine(w http.ResponseWriter, r *http.Request) {
	leadID, ok := auth.LeadID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "catalog token required", nil)
		return
	}
	orders, err := h.Service.ListForLead(r.Context(), leadID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o, false))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func toOrderResponse(o store.Order, withMessage bool) orderResponse {
	resp := orderResponse{
		ID:            store.UUIDString(o.ID),
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		Status:        o.Status,
		TotalPrice:    o.TotalPrice,
		TotalSavings:  o.TotalSavings,
		TotalQuantity: o.TotalQuantity,
		CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     o.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if withMessage {
		resp.Message = o.Message
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, itemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
			Savings:   it.Savings,
			IsSpecial: it.IsSpecial,
		})
	}
	return resp
}

func parseUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
