package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func buildToken(t *testing.T, scope string, issuedAt, notBefore, expires time.Time) jwt.Token {
	t.Helper()
	builder := jwt.NewBuilder().
		Issuer("atacado-api").
		Audience([]string{"atacado-site"}).
		Subject("sub").
		IssuedAt(issuedAt).
		NotBefore(notBefore).
		Expiration(expires)
	if scope != "" {
		builder = builder.Claim(scopeClaim, scope)
	}
	token, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return token
}

func TestTokenValidatorValidateSuccess(t *testing.T) {
	now := time.Now()
	token := buildToken(t, ScopeCatalog, now, now, now.Add(time.Minute))

	validator := TokenValidator{Issuer: "atacado-api", Audience: "atacado-site", ClockSkew: time.Second, Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, ScopeCatalog, now); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTokenValidatorScopeMismatch(t *testing.T) {
	now := time.Now()
	token := buildToken(t, ScopeCatalog, now, now, now.Add(time.Minute))

	validator := TokenValidator{Issuer: "atacado-api", Audience: "atacado-site", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, ScopeStaff, now); err == nil {
		t.Fatal("catalog token must not grant staff scope")
	}
}

func TestTokenValidatorMissingScope(t *testing.T) {
	now := time.Now()
	token := buildToken(t, "", now, now, now.Add(time.Minute))

	validator := TokenValidator{Issuer: "atacado-api", Audience: "atacado-site", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, ScopeCatalog, now); err == nil {
		t.Fatal("scopeless token must be rejected")
	}
}

func TestTokenValidatorIssuerMismatch(t *testing.T) {
	now := time.Now()
	token, _ := jwt.NewBuilder().
		Issuer("other").
		Audience([]string{"atacado-site"}).
		Subject("sub").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Minute)).
		Claim(scopeClaim, ScopeStaff).
		Build()

	validator := TokenValidator{Issuer: "atacado-api", Audience: "atacado-site", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, ScopeStaff, now); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestTokenValidatorExpiry(t *testing.T) {
	now := time.Now()
	token := buildToken(t, ScopeStaff, now.Add(-2*time.Hour), now.Add(-2*time.Hour), now.Add(-time.Minute))

	validator := TokenValidator{Issuer: "atacado-api", Audience: "atacado-site", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, ScopeStaff, now); err == nil {
		t.Fatal("expected expiration error")
	}
}

func TestTokenValidatorNotBefore(t *testing.T) {
	now := time.Now()
	token := buildToken(t, ScopeStaff, now, now.Add(5*time.Minute), now.Add(10*time.Minute))

	validator := TokenValidator{Issuer: "atacado-api", Audience: "atacado-site", Algorithm: jwa.HS256, ClockSkew: time.Second}
	if err := validator.Validate(token, jwa.HS256, ScopeStaff, now); err == nil {
		t.Fatal("expected not-before validation error")
	}
}

func TestTokenValidatorAlgorithmMismatch(t *testing.T) {
	now := time.Now()
	token := buildToken(t, ScopeStaff, now, now, now.Add(time.Minute))

	validator := TokenValidator{Issuer: "atacado-api", Audience: "atacado-site", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.RS256, ScopeStaff, now); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
}
