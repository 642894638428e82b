package model

import "testing"

func amount(v int64) *int64 { return &v }

func TestTransferableTotal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bookings []TableBooking
		want     int64
	}{
		{
			name: "sums non-cancelled amounts",
			bookings: []TableBooking{
				{Status: StatusSeated, AmountCents: amount(5000)},
				{Status: StatusConfirmed, AmountCents: amount(3000)},
			},
			want: 8000,
		},
		{
			name: "cancelled bookings are excluded",
			bookings: []TableBooking{
				{Status: StatusSeated, AmountCents: amount(5000)},
				{Status: StatusCancelled, AmountCents: amount(3000)},
			},
			want: 5000,
		},
		{
			name: "completed bookings still count",
			bookings: []TableBooking{
				{Status: StatusCompleted, AmountCents: amount(4500)},
			},
			want: 4500,
		},
		{
			name: "unpaid bookings contribute nothing",
			bookings: []TableBooking{
				{Status: StatusSeated},
				{Status: StatusSeated, AmountCents: amount(2000)},
			},
			want: 2000,
		},
		{name: "empty order", bookings: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransferableTotal(tt.bookings); got != tt.want {
				t.Errorf("TransferableTotal = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClampTransferable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		total, processorNet int64
		want                int64
	}{
		{"processor figure lower wins", 18000, 15000, 15000},
		{"local figure lower wins", 12000, 15000, 12000},
		{"equal", 15000, 15000, 15000},
		{"processor reports nothing left", 18000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampTransferable(tt.total, tt.processorNet); got != tt.want {
				t.Errorf("ClampTransferable(%d, %d) = %d, want %d", tt.total, tt.processorNet, got, tt.want)
			}
		})
	}
}

func TestRefundTotals(t *testing.T) {
	t.Parallel()

	refunds := []Refund{
		{Status: RefundSucceeded, AmountCents: 5000},
		{Status: RefundPending, AmountCents: 4000},
		{Status: RefundFailed, AmountCents: 9000},
		{Status: RefundCancelled, AmountCents: 1000},
	}

	if got := SucceededTotal(refunds); got != 5000 {
		t.Errorf("SucceededTotal = %d, want 5000", got)
	}
	// A pending reservation holds its amount even before the processor
	// answers; failed and cancelled rows release theirs.
	if got := OutstandingTotal(refunds); got != 9000 {
		t.Errorf("OutstandingTotal = %d, want 9000", got)
	}
	if got := OutstandingTotal(nil); got != 0 {
		t.Errorf("OutstandingTotal(nil) = %d, want 0", got)
	}
}

func TestReservationAccounting(t *testing.T) {
	t.Parallel()

	// Two 10000-cent requests race against an 18000-cent pool.  The first
	// reservation lands as PENDING, so the second sees only 8000 remaining
	// and must be rejected regardless of processor timing.
	const transferable = 18000
	first := []Refund{{Status: RefundPending, AmountCents: 10000}}

	remaining := RemainingRefundable(transferable, OutstandingTotal(first))
	if remaining != 8000 {
		t.Fatalf("remaining after first reservation = %d, want 8000", remaining)
	}
	if second := int64(10000); second <= remaining {
		t.Errorf("second request for %d passed with only %d remaining", second, remaining)
	}

	// The pool does not grow when the first reservation confirms.
	first[0].Status = RefundSucceeded
	if got := RemainingRefundable(transferable, OutstandingTotal(first)); got != 8000 {
		t.Errorf("remaining after confirmation = %d, want 8000", got)
	}
	// A rejected reservation hands its amount back.
	first[0].Status = RefundFailed
	if got := RemainingRefundable(transferable, OutstandingTotal(first)); got != transferable {
		t.Errorf("remaining after failure = %d, want %d", got, transferable)
	}
}

func TestRemainingRefundable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		transferable, refunded int64
		want                   int64
	}{
		{"nothing refunded", 8000, 0, 8000},
		{"partial", 8000, 3000, 5000},
		{"exhausted", 8000, 8000, 0},
		{"over-refunded clamps to zero", 8000, 9000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingRefundable(tt.transferable, tt.refunded); got != tt.want {
				t.Errorf("RemainingRefundable(%d, %d) = %d, want %d", tt.transferable, tt.refunded, got, tt.want)
			}
		})
	}
}
