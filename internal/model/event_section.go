package model

import "time"

// EventSection is the per-event materialization of a catalog section.  One
// row exists per (event, section) once table service is enabled for the
// event.  The section name is snapshotted at setup time so later catalog
// renames do not rewrite history.
//
// AvailableTables is a denormalized counter kept in [0, TableCount].  It is
// advisory: the floor resolver recomputes availability from live bookings
// and the closed/linked lists, and that computation is what conflict checks
// trust.
//
// ClosedTables, LinkedPairs and ServerAssignments are small wholesale lists
// stored as JSON columns on the row and read-modify-written under the same
// transaction as any accompanying booking mutation.  Linked pairs are
// attached to the row on which the link was created but apply event-wide.
type EventSection struct {
	ID                uint64    // event_sections.id
	EventID           uint64    // event_sections.event_id
	SectionID         uint64    // event_sections.section_id
	Name              string    // event_sections.name (snapshot)
	PriceCents        int64     // event_sections.price_cents
	MinSpendCents     *int64    // event_sections.min_spend_cents (nullable)
	TableCount        int       // event_sections.table_count
	AvailableTables   int       // event_sections.available_tables
	Capacity          *int      // event_sections.capacity (nullable override)
	PerCustomerCap    *int      // event_sections.per_customer_cap (nullable)
	Enabled           bool      // event_sections.enabled
	CustomNames       []string  // event_sections.custom_names (JSON, snapshot)
	ClosedTables      []string  // event_sections.closed_tables (JSON)
	LinkedPairs       []LinkedPair
	ServerAssignments []ServerAssignment
	CreatedAt         time.Time // event_sections.created_at
	UpdatedAt         time.Time // event_sections.updated_at
}

// LinkedPair joins two tables, possibly across sections, so staff can sell
// them as one combined unit.  The pair is unordered: (A5, B2) and (B2, A5)
// are the same link.  A table appearing in any pair is excluded from
// standalone availability until unlinked.
type LinkedPair struct {
	SectionID       uint64 `json:"section_id"`
	Table           string `json:"table"`
	TargetSectionID uint64 `json:"target_section_id"`
	TargetTable     string `json:"target_table"`
}

// ServerAssignment routes a table to one or more staff members.  It is
// purely informational and never affects availability.
type ServerAssignment struct {
	Table   string   `json:"table"`
	UserIDs []uint64 `json:"user_ids"`
}
