package hosted

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vet-discharge-portal/internal/platform/httpclient"
	"vet-discharge-portal/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("auth provider not configured")
	ErrUnauthorized  = errors.New("auth provider rejected token")
	ErrUpstream      = errors.New("auth provider upstream error")
)

// Config del proveedor de auth hospedado.
type Config struct {
	BaseURL string
	APIKey  string

	// Header de la API key; default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.New(httpclient.Options{BaseURL: cfg.BaseURL, Timeout: timeout, Name: "auth-provider"})
	if errors.Is(err, httpclient.ErrNoBaseURL) {
		// Sin URL el cliente existe pero IsConfigured() es false.
		return &Client{apiKeyHeader: h}, nil
	}
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http.BaseURL() != "" && c.apiKey != ""
}

type verifyResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	ClinicID string `json:"clinic_id"`
	Role     string `json:"role"`
}

// VerifyToken valida el token contra el proveedor y trae los claims del staff.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	const verifyPath = "/v1/tokens/verify"

	h := http.Header{}
	h.Set(c.apiKeyHeader, c.apiKey)
	h.Set("Authorization", "Bearer "+token)

	var out verifyResponse
	err := c.http.PostJSON(ctx, verifyPath, h, map[string]string{"token": token}, &out)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.Rejected() {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrUpstream)
	}

	return auth.Claims{
		UserID:   out.UserID,
		Email:    strings.TrimSpace(out.Email),
		ClinicID: strings.TrimSpace(out.ClinicID),
		Role:     strings.TrimSpace(out.Role),
	}, nil
}
