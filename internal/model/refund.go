package model

import "time"

// Refund statuses as reported by the payment processor.
const (
	RefundPending   = "PENDING"
	RefundSucceeded = "SUCCEEDED"
	RefundFailed    = "FAILED"
	RefundCancelled = "CANCELLED"
)

// TransferableTotal is the amount an order can still claim against the
// processor: the sum of its non-cancelled bookings' amounts.  A cancelled
// booking's money stays with the order until refunded, but does not count
// toward the refundable pool.
func TransferableTotal(bookings []TableBooking) int64 {
	var total int64
	for _, b := range bookings {
		if b.Status == StatusCancelled || b.AmountCents == nil {
			continue
		}
		total += *b.AmountCents
	}
	return total
}

// ClampTransferable bounds the locally computed transferable total by the
// processor's reported net transferable figure.  The processor sees fees
// and transfers the ledger cannot, so the lower figure wins.
func ClampTransferable(total, processorNet int64) int64 {
	if processorNet < total {
		return processorNet
	}
	return total
}

// RemainingRefundable is what is left of the transferable total after the
// refunds already issued or reserved.  Never negative.
func RemainingRefundable(transferable, refunded int64) int64 {
	remaining := transferable - refunded
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SucceededTotal sums the refunds the processor has confirmed.
func SucceededTotal(refunds []Refund) int64 {
	var total int64
	for _, r := range refunds {
		if r.Status == RefundSucceeded {
			total += r.AmountCents
		}
	}
	return total
}

// OutstandingTotal sums the refunds that hold a claim on the refundable
// pool: confirmed ones and PENDING reservations whose processor call is
// still in flight.  FAILED and CANCELLED rows release their claim.
func OutstandingTotal(refunds []Refund) int64 {
	var total int64
	for _, r := range refunds {
		if r.Status == RefundSucceeded || r.Status == RefundPending {
			total += r.AmountCents
		}
	}
	return total
}

// Refund is a ledger entry for money returned against a booking or a
// multi-booking order.  A row is born PENDING as a reservation against the
// refundable pool before the processor is asked to move money, then flips
// to SUCCEEDED or FAILED with the processor's answer.  Rows are never
// deleted, so the sum of outstanding (PENDING + SUCCEEDED) amounts can
// never exceed the transferable total even under concurrent requests.
type Refund struct {
	ID           uint64    // refunds.id
	BookingID    *uint64   // refunds.booking_id (nullable)
	OrderID      *string   // refunds.order_id (nullable)
	AmountCents  int64     // refunds.amount_cents
	Reason       string    // refunds.reason
	ProcessorRef string    // refunds.processor_ref
	Status       string    // refunds.status
	ActorName    string    // refunds.actor_name
	CreatedAt    time.Time // refunds.created_at
}
