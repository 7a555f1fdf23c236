// Package httpapi implements the backend collaborator interfaces over the
// storefront REST API: product availability, order creation, and the gateway
// session/verification endpoints.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shoplane/storefront-core/checkout"
	"github.com/shoplane/storefront-core/gateway"
	"github.com/shoplane/storefront-core/orders"
	"github.com/shoplane/storefront-core/stock"
)

// TokenSource supplies the current bearer token; the session guard satisfies
// it. An empty token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

var (
	_ stock.AvailabilityClient = (*Client)(nil)
	_ orders.Creator           = (*Client)(nil)
	_ gateway.BackendClient    = (*Client)(nil)
)

// Client is a typed REST client for the storefront backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// ClientOption modifies a Client at construction time.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

func NewClient(baseURL string, tokens TokenSource, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[httpapi.NewClient] base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Availability implements stock.AvailabilityClient.
func (c *Client) Availability(ctx context.Context, productID string) (*stock.Availability, error) {
	var availability stock.Availability
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/"+productID+"/availability", nil, &availability); err != nil {
		return nil, errors.Wrap(err, "[Client.Availability]")
	}
	return &availability, nil
}

// Create implements orders.Creator.
func (c *Client) Create(ctx context.Context, req *orders.CreateOrderRequest) (*orders.Order, error) {
	var order orders.Order
	if err := c.doJSON(ctx, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, errors.Wrap(err, "[Client.Create]")
	}
	return &order, nil
}

// CreateGatewaySession implements gateway.BackendClient.
func (c *Client) CreateGatewaySession(ctx context.Context, id checkout.GatewayID, amount float64) (*gateway.Session, error) {
	body := map[string]any{
		"gateway": string(id),
		"amount":  amount,
	}
	var sess gateway.Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/payments/session", body, &sess); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateGatewaySession]")
	}
	return &sess, nil
}

// VerifyPayment implements gateway.BackendClient.
func (c *Client) VerifyPayment(ctx context.Context, confirmation gateway.Confirmation) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/payments/verify", confirmation, nil); err != nil {
		return errors.Wrap(err, "[Client.VerifyPayment]")
	}
	return nil
}

// LookupPaymentStatus implements gateway.BackendClient.
func (c *Client) LookupPaymentStatus(ctx context.Context, externalOrderRef string) (*gateway.PaymentStatus, error) {
	var status gateway.PaymentStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/payments/status/"+externalOrderRef, nil, &status); err != nil {
		return nil, errors.Wrap(err, "[Client.LookupPaymentStatus]")
	}
	return &status, nil
}

// doJSON sends one request and decodes a JSON response into out (when out is
// non-nil). Non-2xx responses become errors carrying the status and a bounded
// slice of the body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, method+" "+path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
