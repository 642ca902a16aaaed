package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"solitaire-go/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret", JWTIssuer: "solitaire-go", JWTTTL: time.Hour}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(7, "alice", cfg)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAndValidateToken(tok, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 7 || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejectsWrongSecretOrIssuer(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(1, "bob", cfg)
	if err != nil {
		t.Fatal(err)
	}
	other := cfg
	other.JWTSecret = "different"
	if _, err := ParseAndValidateToken(tok, other); err == nil {
		t.Error("wrong secret accepted")
	}
	other = cfg
	other.JWTIssuer = "someone-else"
	if _, err := ParseAndValidateToken(tok, other); err == nil {
		t.Error("wrong issuer accepted")
	}
	if _, err := GenerateToken(1, "bob", config.Config{}); err == nil {
		t.Error("empty secret accepted")
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if err := ComparePasswordHash(hash, "correct horse"); err != nil {
		t.Errorf("compare: %v", err)
	}
	if err := ComparePasswordHash(hash, "wrong horse"); err == nil {
		t.Error("wrong password accepted")
	}
	for _, bad := range []string{"", "short", strings.Repeat("x", 73)} {
		_, err := HashPassword(bad)
		if !IsPasswordValidationError(err) {
			t.Errorf("HashPassword(%d bytes) err = %v", len(bad), err)
		}
	}
}

func signed(t *testing.T, claims Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTokenRejectsForeignClaims(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	base := Claims{
		UserID: 3,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			Subject:   "3",
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	if _, err := ParseAndValidateToken(signed(t, base, jwt.SigningMethodHS256, []byte(cfg.JWTSecret)), cfg); err != nil {
		t.Fatalf("baseline rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Claims)
	}{
		{"other audience", func(c *Claims) { c.Audience = jwt.ClaimStrings{"elsewhere"} }},
		{"no expiry", func(c *Claims) { c.ExpiresAt = nil }},
		{"expired", func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour)) }},
		{"subject mismatch", func(c *Claims) { c.Subject = "4" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			if _, err := ParseAndValidateToken(signed(t, c, jwt.SigningMethodHS256, []byte(cfg.JWTSecret)), cfg); err == nil {
				t.Error("token accepted")
			}
		})
	}

	if _, err := ParseAndValidateToken(signed(t, base, jwt.SigningMethodHS512, []byte(cfg.JWTSecret)), cfg); err == nil {
		t.Error("HS512 token accepted")
	}
	if _, err := ParseAndValidateToken("x", config.Config{}); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("empty secret: %v", err)
	}
}
