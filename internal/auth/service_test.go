package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/store"
)

type stubStaff struct {
	user store.StaffUser
	err  error
}

func (s stubStaff) GetByEmail(context.Context, string) (store.StaffUser, error) {
	return s.user, s.err
}

func newTestService(t *testing.T, staff StaffStore) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Staff:           staff,
		Secret:          "test-secret-test-secret",
		StaffTokenTTL:   time.Hour,
		CatalogTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesStaffToken(t *testing.T) {
	hash, err := HashPassword("s3nha-forte")
	require.NoError(t, err)
	svc := newTestService(t, stubStaff{user: store.StaffUser{
		ID:           store.NewUUID(),
		Email:        "ana@example.com",
		PasswordHash: hash,
		Name:         "Ana",
	}})

	result, err := svc.Login(context.Background(), "Ana@Example.com", "s3nha-forte")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "Ana", result.Name)

	staffID, err := svc.ParseStaffToken(result.Token)
	require.NoError(t, err)
	require.NotEmpty(t, staffID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("certa")
	require.NoError(t, err)
	svc := newTestService(t, stubStaff{user: store.StaffUser{
		ID:           store.NewUUID(),
		Email:        "ana@example.com",
		PasswordHash: hash,
	}})

	_, err = svc.Login(context.Background(), "ana@example.com", "errada")
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestCatalogTokenScopeIsEnforced(t *testing.T) {
	svc := newTestService(t, stubStaff{err: store.ErrNotFound})

	token, _, err := svc.IssueCatalogToken("lead-1")
	require.NoError(t, err)

	leadID, err := svc.ParseCatalogToken(token)
	require.NoError(t, err)
	require.Equal(t, "lead-1", leadID)

	// a catalog token must not open the back office
	_, err = svc.ParseStaffToken(token)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService(t, stubStaff{err: store.ErrNotFound})
	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })

	token, _, err := svc.IssueCatalogToken("lead-1")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseCatalogToken(token)
	require.Error(t, err)
}

func TestCatalogGateAllowsAnonymous(t *testing.T) {
	svc := newTestService(t, stubStaff{err: store.ErrNotFound})
	mw := Middleware{Service: svc}

	var sawLead bool
	handler := mw.CatalogGate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawLead = LeadID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, sawLead)

	token, _, err := svc.IssueCatalogToken("lead-9")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, sawLead)
}

func TestRequireStaffRejectsMissingToken(t *testing.T) {
	svc := newTestService(t, stubStaff{err: store.ErrNotFound})
	mw := Middleware{Service: svc}

	handler := mw.RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
