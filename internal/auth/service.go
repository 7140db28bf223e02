package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/store"
)

const (
	defaultStaffTTL   = 12 * time.Hour
	defaultCatalogTTL = 30 * 24 * time.Hour

	// Token scopes. Staff tokens unlock the back office, catalog tokens only
	// unlock wholesale prices on the public catalog.
	ScopeStaff   = "staff"
	ScopeCatalog = "catalog"

	scopeClaim = "scope"
)

// StaffStore resolves back-office accounts for login.
type StaffStore interface {
	GetByEmail(ctx context.Context, email string) (store.StaffUser, error)
}

// Service issues and validates the two token kinds used by the API.
type Service struct {
	staff      StaffStore
	secret     []byte
	staffTTL   time.Duration
	catalogTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	validator  TokenValidator
	issuer     string
	audience   string
}

// Config configures the auth service.
type Config struct {
	Staff           StaffStore
	Secret          string
	StaffTokenTTL   time.Duration
	CatalogTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// LoginResult bundles the token material returned after a successful staff login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	staffTTL := cfg.StaffTokenTTL
	if staffTTL <= 0 {
		staffTTL = defaultStaffTTL
	}
	catalogTTL := cfg.CatalogTokenTTL
	if catalogTTL <= 0 {
		catalogTTL = defaultCatalogTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "atacado-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "atacado-site"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		staff:      cfg.Staff,
		secret:     []byte(secret),
		staffTTL:   staffTTL,
		catalogTTL: catalogTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies staff credentials and issues a back-office token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if s.staff == nil {
		return LoginResult{}, errors.New("auth: staff store not configured")
	}
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	user, err := s.staff.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	token, expiresAt, err := s.sign(store.UUIDString(user.ID), ScopeStaff, s.staffTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign staff token: %w", err)
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, Name: user.Name, Email: user.Email}, nil
}

// IssueCatalogToken issues the price-unlocking token handed out after a lead
// leaves their contact details.
func (s *Service) IssueCatalogToken(leadID string) (string, time.Time, error) {
	if strings.TrimSpace(leadID) == "" {
		return "", time.Time{}, errors.New("auth: lead id is required")
	}
	return s.sign(leadID, ScopeCatalog, s.catalogTTL)
}

// ParseStaffToken validates a back-office token and returns the staff user id.
func (s *Service) ParseStaffToken(token string) (string, error) {
	return s.parse(token, ScopeStaff)
}

// ParseCatalogToken validates a catalog token and returns the lead id.
func (s *Service) ParseCatalogToken(token string) (string, error) {
	return s.parse(token, ScopeCatalog)
}

func (s *Service) sign(subject, scope string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.validator.ClockSkew)).
		Expiration(expiresAt).
		Claim(scopeClaim, scope).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) parse(token, wantScope string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, wantScope, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

// HashPassword hashes a staff password for storage.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}
