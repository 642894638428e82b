package model

import "time"

// Section is a business-owned template describing a named seating area.
// Events materialize a copy of the section into event_sections when table
// service is enabled, so edits here never affect events already set up.
//
// Fields:
//  ID          – primary key identifier.
//  BusinessID  – owning business (tenant scope).
//  Name        – display name shown to staff and customers.
//  TableCount  – number of physical tables in the section.
//  CustomNames – optional per-table names; when empty, tables are
//                numbered 1..TableCount.
//  Capacity    – optional default seats per table.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Section struct {
	ID          uint64    // sections.id
	BusinessID  uint64    // sections.business_id
	Name        string    // sections.name
	TableCount  int       // sections.table_count
	CustomNames []string  // sections.custom_names (JSON list, nullable)
	Capacity    *int      // sections.capacity (nullable)
	CreatedAt   time.Time // sections.created_at
	UpdatedAt   time.Time // sections.updated_at
}

// Event is the minimal projection of an event row that the booking engine
// needs.  Event creation, recurrence and ticketing live in other services;
// the engine only reads the owning business for tenant scoping.
type Event struct {
	ID         uint64 // events.id
	BusinessID uint64 // events.business_id
}
