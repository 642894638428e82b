package model

import "time"

// Booking statuses.  A booking moves forward through
// REQUESTED -> APPROVED -> CONFIRMED -> SEATED -> ARRIVED -> COMPLETED and
// may be CANCELLED from any non-terminal state.  COMPLETED and CANCELLED
// are terminal.
const (
	StatusRequested = "REQUESTED"
	StatusApproved  = "APPROVED"
	StatusConfirmed = "CONFIRMED"
	StatusSeated    = "SEATED"
	StatusArrived   = "ARRIVED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// transitions is the explicit allow-list for status changes.  COMPLETED is
// deliberately absent from ARRIVED's generic successors: completion carries
// a mandatory rating and goes through its own operation.
var transitions = map[string][]string{
	StatusRequested: {StatusApproved, StatusCancelled},
	StatusApproved:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusSeated, StatusCancelled},
	StatusSeated:    {StatusArrived, StatusCancelled},
	StatusArrived:   {StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ValidStatus reports whether s is one of the known booking statuses.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether a booking in status s can never change again.
func IsTerminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a generic status change from -> to is
// allowed.  Completion is excluded here; use CanComplete.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanComplete reports whether a booking in the given status may be
// completed.  Only ARRIVED bookings qualify.
func CanComplete(status string) bool {
	return status == StatusArrived
}

// AutoAdvancesOnAssign reports whether assigning a table should push the
// booking to SEATED.  Bookings that are already seated or arrived keep
// their status when moved between tables.
func AutoAdvancesOnAssign(status string) bool {
	switch status {
	case StatusRequested, StatusApproved, StatusConfirmed:
		return true
	}
	return false
}

// TableBooking is the central entity of the engine: one party occupying (or
// holding) one table at one event.  TableNumber is nil until the party is
// assigned a table; for server holds the desired table lives in
// RequestedTable instead and the booking never consumes inventory.
//
// On completion the live TableNumber is cleared so the table can be resold
// and the name is preserved in CompletedTableNumber for history.  Bookings
// are never hard-deleted; cancellation is a status.
type TableBooking struct {
	ID                   uint64     // table_bookings.id
	EventID              uint64     // table_bookings.event_id
	EventSectionID       uint64     // table_bookings.event_section_id
	TableNumber          *string    // table_bookings.table_number (nullable)
	RequestedTable       *string    // table_bookings.requested_table (nullable)
	CustomerName         string     // table_bookings.customer_name
	CustomerEmail        *string    // table_bookings.customer_email (nullable)
	CustomerPhone        *string    // table_bookings.customer_phone (nullable)
	AmountCents          *int64     // table_bookings.amount_cents (nullable)
	OrderID              *string    // table_bookings.order_id (nullable)
	PaymentRef           *string    // table_bookings.payment_ref (nullable)
	Status               string     // table_bookings.status
	CompletedTableNumber *string    // table_bookings.completed_table_number
	CreatedAt            time.Time  // table_bookings.created_at
	UpdatedAt            time.Time  // table_bookings.updated_at
}

// BookingNote is an append-only annotation on a booking.  Notes are never
// edited or removed.
type BookingNote struct {
	ID        uint64    // booking_notes.id
	BookingID uint64    // booking_notes.booking_id
	Content   string    // booking_notes.content
	Author    string    // booking_notes.author
	CreatedAt time.Time // booking_notes.created_at
}

// BookingFeedback stores the mandatory rating (1..5) and optional free-text
// comment submitted when a booking is completed.  It is written in the same
// transaction as the completion status change.
type BookingFeedback struct {
	ID        uint64    // booking_feedback.id
	BookingID uint64    // booking_feedback.booking_id
	Rating    int       // booking_feedback.rating
	Comment   *string   // booking_feedback.comment (nullable)
	Author    string    // booking_feedback.author
	CreatedAt time.Time // booking_feedback.created_at
}
