package repository

import (
	"context"
	"database/sql"
	"errors"
)

// EventRepo reads the minimal event projection the engine needs.  Events
// are created and managed elsewhere; this repository only answers "which
// business owns this event" for tenant scoping.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// BusinessID resolves an event to its owning business.  ErrEventNotFound is
// returned when no such event exists.
func (r *EventRepo) BusinessID(ctx context.Context, eventID uint64) (uint64, error) {
	const q = `SELECT business_id FROM events WHERE id = ?`
	var bizID uint64
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(&bizID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}
	return bizID, nil
}

// EnsureOwned verifies that the event exists and belongs to the given
// business.  Cross-tenant events are reported as ErrEventNotFound so the
// response does not leak their existence.
func (r *EventRepo) EnsureOwned(ctx context.Context, eventID, businessID uint64) error {
	bizID, err := r.BusinessID(ctx, eventID)
	if err != nil {
		return err
	}
	if bizID != businessID {
		return ErrEventNotFound
	}
	return nil
}
