package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/floor"
	"github.com/venuecraft/table-booking/internal/model"
	"github.com/venuecraft/table-booking/internal/repository"
)

// FloorHandler serves the live floor view and the table configuration
// operations: closing, linking, server assignment and counter
// reconciliation.  Configuration writes follow the same discipline as
// booking writes: lock the inventory row, re-derive the floor inside the
// transaction, persist the new list wholesale.
type FloorHandler struct {
	EventRepo        *repository.EventRepo
	EventSectionRepo *repository.EventSectionRepo
	BookingRepo      *repository.BookingRepo
}

// NewFloorHandler constructs a FloorHandler.  All dependencies must be
// non-nil.
func NewFloorHandler(eventRepo *repository.EventRepo, sectionRepo *repository.EventSectionRepo, bookingRepo *repository.BookingRepo) *FloorHandler {
	if eventRepo == nil || sectionRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewFloorHandler")
	}
	return &FloorHandler{EventRepo: eventRepo, EventSectionRepo: sectionRepo, BookingRepo: bookingRepo}
}

type floorTable struct {
	Name      string           `json:"name"`
	State     floor.TableState `json:"state"`
	BookingID *uint64          `json:"booking_id,omitempty"`
	ServerIDs []uint64         `json:"server_ids,omitempty"`
}

type floorSection struct {
	ID              uint64       `json:"id"`
	Name            string       `json:"name"`
	PriceCents      int64        `json:"price_cents"`
	TableCount      int          `json:"table_count"`
	AvailableTables int          `json:"available_tables"`
	Enabled         bool         `json:"enabled"`
	Tables          []floorTable `json:"tables"`
}

// GetFloor handles GET /v1/events/:id/floor.  The response derives every
// table's state from the resolver at read time, so it reflects bookings
// and configuration even when the cached counter has drifted; the stored
// counter is included so the drift is visible.
func (h *FloorHandler) GetFloor(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if err := h.EventRepo.EnsureOwned(ctx, eventID, bizID); err != nil {
		return eventLookupError(c, err)
	}
	sections, err := h.EventSectionRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pairs, err := h.EventSectionRepo.EventLinkedPairs(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]floorSection, 0, len(sections))
	for _, section := range sections {
		active, err := h.BookingRepo.ActiveAssignments(ctx, section.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		names := floor.TableNames(section.TableCount, section.CustomNames)
		states := floor.Resolve(section.ID, names, section.ClosedTables, pairs, active)

		servers := make(map[string][]uint64, len(section.ServerAssignments))
		for _, a := range section.ServerAssignments {
			servers[a.Table] = a.UserIDs
		}

		tables := make([]floorTable, 0, len(names))
		for _, name := range names {
			t := floorTable{Name: name, State: states[name], ServerIDs: servers[name]}
			if t.State == floor.StateBooked {
				if holder, ok := floor.Holder(active, name); ok {
					t.BookingID = &holder
				}
			}
			tables = append(tables, t)
		}
		out = append(out, floorSection{
			ID:              section.ID,
			Name:            section.Name,
			PriceCents:      section.PriceCents,
			TableCount:      section.TableCount,
			AvailableTables: section.AvailableTables,
			Enabled:         section.Enabled,
			Tables:          tables,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "sections": out})
}

type closeTableRequest struct {
	TableNumber string `json:"table_number"`
	Closed      *bool  `json:"closed"`
}

// CloseTable handles POST /v1/event-sections/:id/close.  closed=true takes
// the table out of service, closed=false reopens it.  Re-closing a closed
// table (or reopening an open one) succeeds with already_applied=true, so
// retried requests converge instead of erroring.  Closing does not evict a
// seated party; the closed state simply wins in the resolver until the
// booking ends.
func (h *FloorHandler) CloseTable(c echo.Context) error {
	body := new(closeTableRequest)
	section, tx, done := h.beginSectionMutation(c, body)
	if done != nil {
		return done
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ctx := c.Request().Context()

	if body.Closed == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "closed is required"})
	}
	table := strings.TrimSpace(body.TableNumber)
	if !tableKnown(section, table) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table", "table_number": table})
	}

	closed, changed := floor.ToggleClosed(section.ClosedTables, table, *body.Closed)
	if !changed {
		return c.JSON(http.StatusOK, echo.Map{
			"section_id":      section.ID,
			"table_number":    table,
			"closed":          *body.Closed,
			"already_applied": true,
		})
	}
	if err := h.EventSectionRepo.SaveClosedTablesTx(ctx, tx, section.ID, closed); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save closed tables"})
	}
	section.ClosedTables = closed
	if err := h.recountTx(ctx, tx, section, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"section_id":      section.ID,
		"table_number":    table,
		"closed":          *body.Closed,
		"already_applied": false,
	})
}

type linkTablesRequest struct {
	TableNumber       string `json:"table_number"`
	TargetSectionID   uint64 `json:"target_section_id"`
	TargetTableNumber string `json:"target_table_number"`
}

// LinkTables handles POST /v1/event-sections/:id/link.  Both endpoints of
// the pair must be available tables of the same event; either side being
// closed, booked or already linked elsewhere rejects the request.  Linking
// the same unordered pair twice succeeds with already_applied=true.  The
// pair is stored on this section's row but excludes both tables event-wide.
//
// Unlike the single-row mutations this handler locks two inventory rows, so
// it cannot use the shared preamble: the locks are taken in ascending-id
// order to keep concurrent A->B and B->A links from deadlocking.
func (h *FloorHandler) LinkTables(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sectionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	body := new(linkTablesRequest)
	if err := c.Bind(body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	table := strings.TrimSpace(body.TableNumber)
	targetTable := strings.TrimSpace(body.TargetTableNumber)
	if table == "" || targetTable == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number and target_table_number are required"})
	}
	targetSectionID := body.TargetSectionID
	if targetSectionID == 0 {
		targetSectionID = sectionID
	}
	if targetSectionID == sectionID && table == targetTable {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot link a table to itself"})
	}

	ctx := c.Request().Context()
	owned, err := h.EventSectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		return sectionLookupError(c, err)
	}
	if err := h.EventRepo.EnsureOwned(ctx, owned.EventID, bizID); err != nil {
		return eventLookupError(c, err)
	}

	tx, err := h.EventSectionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	locked := make(map[uint64]*model.EventSection, 2)
	for _, id := range lockOrder(sectionID, targetSectionID) {
		es, err := h.EventSectionRepo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return sectionLookupError(c, err)
		}
		locked[id] = es
	}
	section, target := locked[sectionID], locked[targetSectionID]
	if target.EventID != section.EventID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target section belongs to a different event"})
	}
	if !tableKnown(section, table) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table", "table_number": table})
	}
	if !tableKnown(target, targetTable) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table", "table_number": targetTable})
	}

	pairs, err := h.EventSectionRepo.EventLinkedPairsTx(ctx, tx, section.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load linked tables"})
	}
	pair := model.LinkedPair{
		SectionID:       section.ID,
		Table:           table,
		TargetSectionID: targetSectionID,
		TargetTable:     targetTable,
	}
	if _, added := floor.AddLink(pairs, pair); !added {
		return c.JSON(http.StatusOK, echo.Map{"pair": pair, "already_applied": true})
	}

	// Both endpoints must be free right now, judged against the pair set
	// without the new link.
	if conflict := h.requireAvailable(c, ctx, tx, section, table, pairs); conflict != nil {
		return conflict
	}
	if conflict := h.requireAvailable(c, ctx, tx, target, targetTable, pairs); conflict != nil {
		return conflict
	}

	// The new pair lives on this section's row.
	own, _ := floor.AddLink(section.LinkedPairs, pair)
	if err := h.EventSectionRepo.SaveLinkedPairsTx(ctx, tx, section.ID, own); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save linked tables"})
	}
	section.LinkedPairs = own

	if err := h.recountTx(ctx, tx, section, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
	}
	if target.ID != section.ID {
		if err := h.recountTx(ctx, tx, target, nil); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"pair": pair, "already_applied": false})
}

type unlinkTableRequest struct {
	TableNumber string `json:"table_number"`
}

// UnlinkTable handles POST /v1/event-sections/:id/unlink.  Pairs are stored
// on the row where the link was created, which may not be this one, so the
// handler locks every section of the event and strips the table's pairs
// wherever they live.  Unlinking a table with no links succeeds with
// already_applied=true.
func (h *FloorHandler) UnlinkTable(c echo.Context) error {
	body := new(unlinkTableRequest)
	section, tx, done := h.beginSectionMutation(c, body)
	if done != nil {
		return done
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ctx := c.Request().Context()

	table := strings.TrimSpace(body.TableNumber)
	if !tableKnown(section, table) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table", "table_number": table})
	}

	sections, err := h.EventSectionRepo.ListByEventForUpdateTx(ctx, tx, section.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totalRemoved := 0
	for i := range sections {
		remaining, removed := floor.RemoveLinks(sections[i].LinkedPairs, section.ID, table)
		if removed == 0 {
			continue
		}
		if err := h.EventSectionRepo.SaveLinkedPairsTx(ctx, tx, sections[i].ID, remaining); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save linked tables"})
		}
		sections[i].LinkedPairs = remaining
		totalRemoved += removed
	}
	if totalRemoved == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"section_id":      section.ID,
			"table_number":    table,
			"already_applied": true,
		})
	}
	// Removing a pair can free tables in any section, so recount all of
	// them while the locks are held.
	for i := range sections {
		if err := h.recountTx(ctx, tx, &sections[i], nil); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"section_id":      section.ID,
		"table_number":    table,
		"removed":         totalRemoved,
		"already_applied": false,
	})
}

type assignServersRequest struct {
	TableNumber string   `json:"table_number"`
	UserIDs     []uint64 `json:"user_ids"`
}

// AssignServers handles PUT /v1/event-sections/:id/servers.  The request
// replaces the server list for one table; an empty user_ids clears it.
// Server assignment never affects table state or the counter.
func (h *FloorHandler) AssignServers(c echo.Context) error {
	body := new(assignServersRequest)
	section, tx, done := h.beginSectionMutation(c, body)
	if done != nil {
		return done
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ctx := c.Request().Context()

	table := strings.TrimSpace(body.TableNumber)
	if !tableKnown(section, table) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table", "table_number": table})
	}
	list := floor.SetServers(section.ServerAssignments, table, body.UserIDs)
	if err := h.EventSectionRepo.SaveServerAssignmentsTx(ctx, tx, section.ID, list); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save server assignments"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"section_id":   section.ID,
		"table_number": table,
		"user_ids":     body.UserIDs,
	})
}

// Recount handles POST /v1/event-sections/:id/recount.  It rebuilds the
// advisory counter from the resolver, repairing drift accumulated by
// cancellations and manual edits.
func (h *FloorHandler) Recount(c echo.Context) error {
	var body struct{}
	section, tx, done := h.beginSectionMutation(c, &body)
	if done != nil {
		return done
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ctx := c.Request().Context()

	if err := h.recountTx(ctx, tx, section, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"section_id":       section.ID,
		"available_tables": section.AvailableTables,
	})
}

// beginSectionMutation is the shared preamble of the configuration
// endpoints: bind the body, verify tenant ownership of the section's event,
// open a transaction and lock the inventory row.  On failure it writes the
// response and returns it as done; the caller returns done directly.  On
// success the caller owns the transaction.
func (h *FloorHandler) beginSectionMutation(c echo.Context, body any) (section *model.EventSection, tx *sql.Tx, done error) {
	bizID, err := getBusinessID(c)
	if err != nil {
		return nil, nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sectionID, err := pathID(c, "id")
	if err != nil {
		return nil, nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	if err := c.Bind(body); err != nil {
		return nil, nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	owned, err := h.EventSectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		return nil, nil, sectionLookupError(c, err)
	}
	if err := h.EventRepo.EnsureOwned(ctx, owned.EventID, bizID); err != nil {
		return nil, nil, eventLookupError(c, err)
	}

	tx, err = h.EventSectionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	section, err = h.EventSectionRepo.GetForUpdateTx(ctx, tx, sectionID)
	if err != nil {
		_ = tx.Rollback()
		return nil, nil, sectionLookupError(c, err)
	}
	return section, tx, nil
}

// recountTx rebuilds the counter for one section inside the caller's
// transaction.  pairs may be passed when the caller already holds the
// event-wide set; nil loads it.  The section's AvailableTables field is
// updated in place.
func (h *FloorHandler) recountTx(ctx context.Context, tx *sql.Tx, section *model.EventSection, pairs []model.LinkedPair) error {
	if pairs == nil {
		var err error
		pairs, err = h.EventSectionRepo.EventLinkedPairsTx(ctx, tx, section.EventID)
		if err != nil {
			return err
		}
	}
	active, err := h.BookingRepo.ActiveAssignmentsTx(ctx, tx, section.ID)
	if err != nil {
		return err
	}
	names := floor.TableNames(section.TableCount, section.CustomNames)
	states := floor.Resolve(section.ID, names, section.ClosedTables, pairs, active)
	available := floor.CountAvailable(states)
	if err := h.EventSectionRepo.SetAvailableTx(ctx, tx, section.ID, available); err != nil {
		return err
	}
	section.AvailableTables = available
	return nil
}

// requireAvailable rejects the request unless the table resolves to
// AVAILABLE under the given pair set.  Used by linking, where an occupied
// or closed endpoint must not silently become linked.
func (h *FloorHandler) requireAvailable(c echo.Context, ctx context.Context, tx *sql.Tx, section *model.EventSection, table string, pairs []model.LinkedPair) error {
	active, err := h.BookingRepo.ActiveAssignmentsTx(ctx, tx, section.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load table assignments"})
	}
	names := floor.TableNames(section.TableCount, section.CustomNames)
	states := floor.Resolve(section.ID, names, section.ClosedTables, pairs, active)
	switch states[table] {
	case floor.StateAvailable:
		return nil
	case floor.StateClosed:
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is closed", "table_number": table})
	case floor.StateLinked:
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is already linked", "table_number": table})
	default:
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is occupied", "table_number": table})
	}
}

// lockOrder returns the distinct section ids in ascending order, the order
// in which LinkTables acquires its row locks.
func lockOrder(a, b uint64) []uint64 {
	if a == b {
		return []uint64{a}
	}
	if a < b {
		return []uint64{a, b}
	}
	return []uint64{b, a}
}

// tableKnown reports whether the name belongs to the section's table set.
func tableKnown(section *model.EventSection, table string) bool {
	for _, n := range floor.TableNames(section.TableCount, section.CustomNames) {
		if n == table {
			return true
		}
	}
	return false
}
