package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientGetCharge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/charges/ch_123" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ref":"ch_123","amount_cents":10000,"net_transferable_cents":9400,"currency":"USD"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1")
	charge, err := c.GetCharge(context.Background(), "ch_123")
	if err != nil {
		t.Fatalf("GetCharge: %v", err)
	}
	if charge.NetTransferableCents != 9400 {
		t.Errorf("NetTransferableCents = %d, want 9400", charge.NetTransferableCents)
	}
}

func TestClientCreateRefund(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/refunds" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("missing Idempotency-Key header")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ref":"re_9","status":"SUCCEEDED","amount_cents":2500}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1")
	res, err := c.CreateRefund(context.Background(), "ch_123", 2500, "event cancelled", NewIdempotencyKey())
	if err != nil {
		t.Fatalf("CreateRefund: %v", err)
	}
	if res.Ref != "re_9" || res.Status != "SUCCEEDED" || res.AmountCents != 2500 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestClientAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		retriable bool
	}{
		{"client error is final", http.StatusUnprocessableEntity, false},
		{"server error is retriable", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "key-1")
			_, err := c.GetCharge(context.Background(), "ch_x")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Retriable() != tt.retriable {
				t.Errorf("Retriable = %v, want %v", apiErr.Retriable(), tt.retriable)
			}
		})
	}
}

func TestUnconfigured(t *testing.T) {
	t.Parallel()

	var p Processor = Unconfigured{}
	if _, err := p.GetCharge(context.Background(), "ch"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("GetCharge error = %v, want ErrNotConfigured", err)
	}
	if _, err := p.CreateRefund(context.Background(), "ch", 100, "r", "k"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CreateRefund error = %v, want ErrNotConfigured", err)
	}
}
