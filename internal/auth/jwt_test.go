package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer, err := NewIssuer([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	now := time.Date(2025, 11, 8, 9, 0, 0, 0, time.UTC)

	token, expires, err := issuer.Issue("user-1", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", expires)
	}

	userID, err := issuer.Parse(token, now.Add(30*time.Minute))
	if err != nil || userID != "user-1" {
		t.Fatalf("Parse = %q, %v", userID, err)
	}
}

func TestIssuer_Rejections(t *testing.T) {
	t.Parallel()

	issuer, _ := NewIssuer([]byte("secret"), time.Hour)
	other, _ := NewIssuer([]byte("other"), time.Hour)
	now := time.Date(2025, 11, 8, 9, 0, 0, 0, time.UTC)
	token, _, _ := issuer.Issue("user-1", now)

	if _, err := issuer.Parse(token, now.Add(2*time.Hour)); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if _, err := other.Parse(token, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
	if _, err := issuer.Parse(token+"x", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
	if _, err := issuer.Parse("", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuerName, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		UserID:           "user-1",
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := issuer.Parse(unsigned, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected unsigned token to be rejected, got %v", err)
	}
}

func TestNewIssuer_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer(nil, time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	issuer, err := NewIssuer([]byte("s"), 0)
	if err != nil || issuer.TTL() != 24*time.Hour {
		t.Fatalf("expected default ttl, got %v %v", issuer.TTL(), err)
	}
	if _, _, err := issuer.Issue(" ", time.Now()); err == nil || !strings.Contains(err.Error(), "user id") {
		t.Fatalf("expected user id error, got %v", err)
	}
}
