package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 10 * time.Second

	// maxBody acota lo que se lee de una respuesta.
	maxBody = 1 << 20
)

var ErrNoBaseURL = errors.New("httpclient: base url required")

// Options de un cliente saliente. Name identifica al upstream en spans.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Name      string
}

// Client es el cliente JSON de los adapters que llaman servicios externos.
// Cada request abre un span client y propaga el contexto de traza.
type Client struct {
	http    *http.Client
	baseURL string
	name    string
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNoBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("httpclient: invalid base url: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	name := opts.Name
	if name == "" {
		name = "upstream"
	}

	return &Client{
		http:    &http.Client{Timeout: timeout, Transport: opts.Transport},
		baseURL: base,
		name:    name,
	}, nil
}

func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// StatusError es una respuesta no-2xx del upstream.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Rejected indica 401/403: el upstream respondió y dijo que no.
func (e *StatusError) Rejected() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// PostJSON envía in como JSON a path (relativo a BaseURL) y decodifica en out (si no es nil).
func (c *Client) PostJSON(ctx context.Context, path string, header http.Header, in, out any) error {
	return c.do(ctx, http.MethodPost, path, header, in, out)
}

// GetJSON decodifica la respuesta de path en out.
func (c *Client) GetJSON(ctx context.Context, path string, header http.Header, out any) error {
	return c.do(ctx, http.MethodGet, path, header, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, in, out any) error {
	if c == nil || c.http == nil {
		return errors.New("httpclient: nil client")
	}

	ctx, span := otel.Tracer("httpclient").Start(ctx, c.name+" "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("peer.service", c.name),
		))
	defer span.End()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("httpclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		if resp.StatusCode >= 500 {
			span.SetStatus(codes.Error, se.Error())
		}
		return se
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: decode: %w", err)
	}
	return nil
}
