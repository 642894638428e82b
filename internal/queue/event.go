// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into notifications.
package queue

// Queue names for booking lifecycle notifications.  Approval and
// cancellation are the two transitions customers are told about.
const (
	QueueBookingApproved  = "booking.approved"
	QueueBookingCancelled = "booking.cancelled"
)

// BookingEvent is published when a booking is approved or cancelled.  It
// carries enough for the notification worker to address an email or SMS
// without querying the primary database.
type BookingEvent struct {
	BookingID     uint64  `json:"booking_id"`
	EventID       uint64  `json:"event_id"`
	SectionName   string  `json:"section_name"`
	TableNumber   *string `json:"table_number,omitempty"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	Status        string  `json:"status"`
	ActorName     string  `json:"actor_name"`
	OccurredAt    string  `json:"occurred_at"`
}
