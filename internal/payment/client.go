// Package payment talks to the external payment processor.  The engine
// never captures charges; it only looks up what a charge can still
// transfer (net of platform and processing fees) and asks the processor to
// move money back.  Both calls are plain JSON over HTTP with bearer-key
// auth.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Processor is the slice of the payment service the refund ledger depends
// on.  Handlers accept this interface so tests can substitute a fake.
type Processor interface {
	// GetCharge returns the charge behind a payment reference.
	GetCharge(ctx context.Context, paymentRef string) (*Charge, error)
	// CreateRefund asks the processor to return amountCents from the
	// charge.  The idempotency key makes client retries safe.
	CreateRefund(ctx context.Context, paymentRef string, amountCents int64, reason, idempotencyKey string) (*RefundResult, error)
}

// Charge is the processor's view of a captured payment.
type Charge struct {
	Ref                  string `json:"ref"`
	AmountCents          int64  `json:"amount_cents"`
	NetTransferableCents int64  `json:"net_transferable_cents"`
	Currency             string `json:"currency"`
}

// RefundResult reports the outcome of a refund request.
type RefundResult struct {
	Ref         string `json:"ref"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
}

// Client is the HTTP implementation of Processor.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client for the given processor endpoint.  A 10 second
// timeout bounds every call; refund requests are short server-to-server
// exchanges and anything slower is treated as an infrastructure failure.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewIdempotencyKey returns a fresh key for a refund attempt.
func NewIdempotencyKey() string { return uuid.NewString() }

func (c *Client) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("payment: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("payment: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payment: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("payment: decode response: %w", err)
		}
	}
	return nil
}

// GetCharge implements Processor.
func (c *Client) GetCharge(ctx context.Context, paymentRef string) (*Charge, error) {
	var ch Charge
	if err := c.do(ctx, http.MethodGet, "/v1/charges/"+paymentRef, nil, "", &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// CreateRefund implements Processor.
func (c *Client) CreateRefund(ctx context.Context, paymentRef string, amountCents int64, reason, idempotencyKey string) (*RefundResult, error) {
	body := map[string]any{
		"charge_ref":   paymentRef,
		"amount_cents": amountCents,
		"reason":       reason,
	}
	var res RefundResult
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", body, idempotencyKey, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// APIError is a non-2xx answer from the processor.  4xx means the request
// itself was rejected and retrying unchanged will not help; 5xx is an
// infrastructure failure.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment: processor returned %d: %s", e.Status, e.Body)
}

// Retriable reports whether the failure is on the processor's side.
func (e *APIError) Retriable() bool { return e.Status >= 500 }

// ErrNotConfigured is returned when no processor credentials were supplied
// at startup.  The service still runs; only refund endpoints are affected.
var ErrNotConfigured = errors.New("payment: processor not configured")

// Unconfigured is the Processor used when PAYMENT_API_URL is unset.  Every
// call fails with ErrNotConfigured.
type Unconfigured struct{}

// GetCharge implements Processor.
func (Unconfigured) GetCharge(context.Context, string) (*Charge, error) {
	return nil, ErrNotConfigured
}

// CreateRefund implements Processor.
func (Unconfigured) CreateRefund(context.Context, string, int64, string, string) (*RefundResult, error) {
	return nil, ErrNotConfigured
}
