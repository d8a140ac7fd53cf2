package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func signed(t *testing.T, c Claims) string {
	t.Helper()
	tok, err := Sign(secret, c)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestVerify_ValidToken(t *testing.T) {
	v, err := NewVerifier(Config{Secret: secret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "vet-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ClinicID: "clinic-1",
		Role:     "vet",
	})

	claims, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if claims.UserID != "vet-1" || claims.ClinicID != "clinic-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	v, _ := NewVerifier(Config{Secret: secret})
	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "vet-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := v.Verify(context.Background(), tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v, _ := NewVerifier(Config{Secret: []byte("other")})
	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "vet-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := v.Verify(context.Background(), tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	v, _ := NewVerifier(Config{Secret: secret})
	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ClinicID: "clinic-1",
	})

	if _, err := v.Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewVerifier(Config{}); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
