package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-which-is-long-enough-for-hs512"

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator(testSecret, "pitchside")
}

func TestGenerateAndValidateToken(t *testing.T) {
	a := newTestAuthenticator()

	token, err := a.GenerateToken(42, "ann@example.com", "USER", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("got user id %d, want 42", claims.UserID)
	}
	if claims.Email != "ann@example.com" {
		t.Errorf("got email %q, want ann@example.com", claims.Email)
	}
	if claims.Role != "USER" {
		t.Errorf("got role %q, want USER", claims.Role)
	}
}

func TestValidateTokenTwoIssuancesBothValid(t *testing.T) {
	a := newTestAuthenticator()

	t1, err := a.GenerateToken(7, "a@x.com", "USER", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	t2, err := a.GenerateToken(7, "a@x.com", "USER", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	for _, tok := range []string{t1, t2} {
		if _, err := a.ValidateToken(tok); err != nil {
			t.Errorf("token should validate, got %v", err)
		}
	}
}

func TestValidateTokenExpired(t *testing.T) {
	a := newTestAuthenticator()

	// Zero validity puts exp at issuance time; a token is invalid from
	// exactly its expiry instant onward.
	token, err := a.GenerateToken(1, "a@x.com", "USER", 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := a.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}

func TestValidateTokenTampered(t *testing.T) {
	a := newTestAuthenticator()

	token, err := a.GenerateToken(1, "a@x.com", "USER", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	forged := strings.Replace(string(payload), `"USER"`, `"ADMIN"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	if _, err := a.ValidateToken(strings.Join(parts, ".")); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("got %v, want ErrSignatureInvalid", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	a := newTestAuthenticator()
	other := NewJWTAuthenticator("a-completely-different-secret-value", "pitchside")

	token, err := other.GenerateToken(1, "a@x.com", "USER", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := a.ValidateToken(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("got %v, want ErrSignatureInvalid", err)
	}
}

func TestValidateTokenUnsupportedMethod(t *testing.T) {
	a := newTestAuthenticator()

	claims := jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := a.ValidateToken(token); !errors.Is(err, ErrTokenUnsupported) {
		t.Errorf("got %v, want ErrTokenUnsupported", err)
	}
}

func TestValidateTokenMalformed(t *testing.T) {
	a := newTestAuthenticator()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "abc.def"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.ValidateToken(tc.token); !errors.Is(err, ErrTokenMalformed) {
				t.Errorf("got %v, want ErrTokenMalformed", err)
			}
		})
	}
}
