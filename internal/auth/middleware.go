package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atacadocell/backend-atacado/internal/common"
)

var errNoToken = errors.New("auth: token missing")

type leadIDKey struct{}

// WithLeadID stores the catalog token subject on the context.
func WithLeadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, leadIDKey{}, id)
}

// LeadID extracts the catalog token subject from the context if present.
func LeadID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(leadIDKey{}).(string)
	return id, ok && id != ""
}

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Service *Service
}

// RequireStaff enforces a valid back-office token.
func (m Middleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		staffID, err := m.Service.ParseStaffToken(token)
		if err != nil {
			var appErr *common.AppError
			if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
				common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithStaffID(r.Context(), staffID)))
	})
}

// CatalogGate attaches the lead id to the context when a valid catalog token
// is presented. Requests without one still pass through so the catalog can be
// browsed without prices.
func (m Middleware) CatalogGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		leadID, err := m.Service.ParseCatalogToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithLeadID(r.Context(), leadID)))
	})
}

func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
