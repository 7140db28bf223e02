package lead

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/events"
	"github.com/atacadocell/backend-atacado/internal/obs"
	"github.com/atacadocell/backend-atacado/internal/store"
)

// TokenIssuer mints catalog tokens for captured leads.
type TokenIssuer interface {
	IssueCatalogToken(leadID string) (string, time.Time, error)
}

// Store persists captured leads.
type Store interface {
	Create(ctx context.Context, name, phone, source string) (store.Lead, error)
	List(ctx context.Context, limit, offset int) ([]store.Lead, int64, error)
}

// Service captures leads and unlocks catalog pricing for them.
type Service struct {
	Store    Store
	Tokens   TokenIssuer
	Bus      *events.Bus
	Validate *validator.Validate
}

// CaptureInput is the contact form payload.
type CaptureInput struct {
	Name   string `json:"name" validate:"required,min=2,max=120"`
	Phone  string `json:"phone" validate:"required,min=10,max=20"`
	Source string `json:"source" validate:"omitempty,max=120"`
}

// CaptureResult carries the catalog token granted to the new lead.
type CaptureResult struct {
	LeadID    string    `json:"leadId"`
	Token     string    `json:"catalogToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Capture validates the contact, stores it and issues a catalog token.
func (s *Service) Capture(ctx context.Context, in CaptureInput) (CaptureResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Source = strings.TrimSpace(in.Source)
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return CaptureResult{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
	}
	in.Phone = phone
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return CaptureResult{}, common.NewAppError("VALIDATION_ERROR", "invalid contact details", http.StatusBadRequest, err)
		}
	}

	lead, err := s.Store.Create(ctx, in.Name, in.Phone, in.Source)
	if err != nil {
		if obs.LeadsCapturedTotal != nil {
			obs.LeadsCapturedTotal.WithLabelValues("error").Inc()
		}
		return CaptureResult{}, fmt.Errorf("create lead: %w", err)
	}

	leadID := store.UUIDString(lead.ID)
	token, expiresAt, err := s.Tokens.IssueCatalogToken(leadID)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("issue catalog token: %w", err)
	}

	if s.Bus != nil {
		// capture already succeeded, event fan-out is best effort
		payload := map[string]any{"leadId": leadID, "name": lead.Name, "phone": lead.Phone}
		_, _ = s.Bus.Emit(ctx, events.TopicLeadCaptured, leadID, payload)
	}
	if obs.LeadsCapturedTotal != nil {
		obs.LeadsCapturedTotal.WithLabelValues("ok").Inc()
	}
	return CaptureResult{LeadID: leadID, Token: token, ExpiresAt: expiresAt}, nil
}

// List returns captured leads for the back office.
func (s *Service) List(ctx context.Context, limit, offset int) ([]store.Lead, int64, error) {
	return s.Store.List(ctx, limit, offset)
}
