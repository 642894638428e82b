// Package repository defines sentinel errors shared across repositories so
// handlers can map failures to specific HTTP responses.  Not-found errors
// double as the answer for cross-tenant access: a row owned by another
// business is reported exactly like a row that does not exist.
package repository

import "errors"

// ErrForbidden is returned when the caller's role or tenant does not permit
// an operation on an existing resource.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// dependent state, such as deleting a section that events still reference.
// Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound is returned when an event does not exist or belongs to a
// different business.
var ErrEventNotFound = errors.New("event not found")

// ErrSectionNotFound is returned when a catalog section does not exist or
// belongs to a different business.
var ErrSectionNotFound = errors.New("section not found")

// ErrEventSectionNotFound is returned when an event has no inventory row
// for the requested section.
var ErrEventSectionNotFound = errors.New("event section not found")

// ErrBookingNotFound is returned when a booking does not exist or is scoped
// to a different business.
var ErrBookingNotFound = errors.New("booking not found")
