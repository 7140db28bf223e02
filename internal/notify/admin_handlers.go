package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/events"
	"github.com/atacadocell/backend-atacado/internal/store"
)

// AdminHandler exposes management endpoints for webhook configuration and monitoring.
type AdminHandler struct {
	Webhooks store.Webhooks
}

type endpointRequest struct {
	URL    string   `json:"url"`
	Secret string   `json:"secret"`
	Topics []string `json:"topics"`
}

type endpointResponse struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Topics []string `json:"topics"`
	Active bool     `json:"active"`
}

func toEndpointResponse(ep store.WebhookEndpoint) endpointResponse {
	topics := ep.Topics
	if topics == nil {
		topics = []string{}
	}
	return endpointResponse{
		ID:     store.UUIDString(ep.ID),
		URL:    ep.URL,
		Topics: topics,
		Active: ep.Active,
	}
}

// Routes mounts the admin webhook endpoints on the router.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/webhooks", h.ListEndpoints)
	r.Post("/webhooks", h.CreateEndpoint)
	r.Patch("/webhooks/{id}", h.SetEndpointActive)
	r.Delete("/webhooks/{id}", h.DeleteEndpoint)
	r.Get("/webhooks/dlq", h.ListDLQ)
}

// CreateEndpoint registers a new webhook endpoint.
func (h *AdminHandler) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var req endpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Secret) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "url and secret are required", nil)
		return
	}
	if err := validateURL(req.URL); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	topics, err := normaliseTopics(req.Topics)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	endpoint, err := h.Webhooks.Create(r.Context(), req.URL, req.Secret, topics)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, toEndpointResponse(endpoint))
}

// ListEndpoints returns configured webhook endpoints.
func (h *AdminHandler) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.Webhooks.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	out := make([]endpointResponse, 0, len(endpoints))
	for _, ep := range endpoints {
		out = append(out, toEndpointResponse(ep))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// SetEndpointActive toggles delivery for an endpoint.
func (h *AdminHandler) SetEndpointActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "active is required", nil)
		return
	}
	if err := h.Webhooks.SetActive(r.Context(), id, *req.Active); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		common.JSONError(w, status, "INTERNAL", err.Error(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEndpoint removes an endpoint by ID.
func (h *AdminHandler) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	if err := h.Webhooks.Delete(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		common.JSONError(w, status, "INTERNAL", err.Error(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDLQ returns deliveries that exhausted their retries.
func (h *AdminHandler) ListDLQ(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	entries, err := h.Webhooks.ListDLQ(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	type dlqResponse struct {
		ID         string `json:"id"`
		EndpointID string `json:"endpointId"`
		EventID    string `json:"eventId"`
		LastError  string `json:"lastError"`
		CreatedAt  string `json:"createdAt"`
	}
	out := make([]dlqResponse, 0, len(entries))
	for _, d := range entries {
		out = append(out, dlqResponse{
			ID:         store.UUIDString(d.ID),
			EndpointID: store.UUIDString(d.EndpointID),
			EventID:    store.UUIDString(d.EventID),
			LastError:  d.LastError,
			CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func normaliseTopics(topics []string) ([]string, error) {
	known := make(map[string]struct{})
	for _, t := range events.DefaultTopics() {
		known[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(topics))
	result := make([]string, 0, len(topics))
	for _, topic := range topics {
		trimmed := strings.TrimSpace(strings.ToLower(topic))
		if trimmed == "" {
			continue
		}
		if _, ok := known[trimmed]; !ok {
			return nil, errors.New("unknown topic: " + trimmed)
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result, nil
}

func parseUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
