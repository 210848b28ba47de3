// Package gateway is the HTTP client for the external payment processor. It
// implements session creation and the authoritative status pull the
// reconciliation engine relies on. Every call is bounded by the configured
// timeout; a timeout or transport failure is an indeterminate answer, never a
// failed payment.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/atwebdev/storefront-service/internal/config"
	"github.com/atwebdev/storefront-service/internal/entities"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

type Client struct {
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
	httpClient *http.Client
}

func NewClient(cfg config.Gateway) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type createSessionRequest struct {
	AmountCents   int64             `json:"amount_cents"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata"`
}

type sessionResponse struct {
	ID            string            `json:"id"`
	URL           string            `json:"url,omitempty"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent string            `json:"payment_intent,omitempty"`
	Metadata      map[string]string `json:"metadata"`
}

func (c *Client) CreateSession(ctx context.Context, order entities.Order, customerEmail string) (entities.CheckoutSession, error) {
	payload := createSessionRequest{
		AmountCents:   order.Total.Mul(centsFactor).IntPart(),
		Currency:      "usd",
		CustomerEmail: customerEmail,
		SuccessURL:    c.successURL,
		CancelURL:     c.cancelURL,
		Metadata: map[string]string{
			"order_id": order.ID,
			"user_id":  order.UserID,
		},
	}

	var res sessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", payload, &res); err != nil {
		return entities.CheckoutSession{}, err
	}
	return entities.CheckoutSession{ID: res.ID, URL: res.URL}, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (entities.GatewaySession, error) {
	var res sessionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &res); err != nil {
		return entities.GatewaySession{}, err
	}
	return entities.GatewaySession{
		ID:            res.ID,
		OrderID:       res.Metadata["order_id"],
		PaymentIntent: res.PaymentIntent,
		Paid:          res.PaymentStatus == "paid",
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entities.ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway responded %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
