// Package jwtauth verifica tokens HS256 emitidos por el backend del portal.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vet-discharge-portal/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSecret     = errors.New("jwt secret not configured")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims del token: sub = usuario (vet/staff).
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	ClinicID string `json:"clinic_id"`
	Role     string `json:"role"`
}

type Config struct {
	Secret   []byte
	Issuer   string // opcional
	Audience string // opcional
}

type Verifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Verifier{secret: cfg.Secret, opts: opts}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil || !parsed.Valid {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	return auth.Claims{
		UserID:   strings.TrimSpace(claims.Subject),
		Email:    strings.TrimSpace(claims.Email),
		ClinicID: strings.TrimSpace(claims.ClinicID),
		Role:     strings.TrimSpace(claims.Role),
	}, nil
}

// Sign emite un token para el usuario; lo usan los tests y el CLI de soporte.
func Sign(secret []byte, c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}
