package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/venuecraft/table-booking/internal/payment"
	"github.com/venuecraft/table-booking/internal/repository"
)

func TestRequestRefundValidation(t *testing.T) {
	// Validation runs before any database or processor access, so repos
	// over a nil handle and the unconfigured processor stub are safe here.
	h := NewRefundHandler(repository.NewBookingRepo(nil), repository.NewRefundRepo(nil), payment.Unconfigured{})

	cases := []struct {
		name     string
		body     string
		wantFrag string
	}{
		{"zero amount", `{"order_id": "ord_1", "amount_cents": 0, "reason": "no-show"}`, "amount_cents must be positive"},
		{"negative amount", `{"order_id": "ord_1", "amount_cents": -500, "reason": "no-show"}`, "amount_cents must be positive"},
		{"missing reason", `{"order_id": "ord_1", "amount_cents": 500}`, "reason is required"},
		{"blank reason", `{"order_id": "ord_1", "amount_cents": 500, "reason": "  "}`, "reason is required"},
		{"neither scope", `{"amount_cents": 500, "reason": "no-show"}`, "exactly one of booking_id or order_id"},
		{"both scopes", `{"booking_id": 3, "order_id": "ord_1", "amount_cents": 500, "reason": "no-show"}`, "exactly one of booking_id or order_id"},
		{"blank order id", `{"order_id": "  ", "amount_cents": 500, "reason": "no-show"}`, "order_id must not be blank"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newStaffContext(t, http.MethodPost, tc.body, "id", "1")
			if err := h.RequestRefund(c); err != nil {
				t.Fatalf("RequestRefund returned error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.wantFrag) {
				t.Fatalf("body %q does not mention %q", rec.Body.String(), tc.wantFrag)
			}
		})
	}
}
