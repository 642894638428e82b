package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/venuecraft/table-booking/internal/model"
)

// EventSectionRepo provides access to event_sections, the per-event
// materialization of the section catalog.  The row carries the advisory
// available_tables counter and the three wholesale JSON list columns
// (closed tables, linked pairs, server assignments).  Mutations that must
// stay consistent with booking writes run through the ...Tx variants so the
// handler can hold one transaction across both.
type EventSectionRepo struct {
	db *sql.DB
}

// NewEventSectionRepo returns a new EventSectionRepo bound to the given
// database.
func NewEventSectionRepo(db *sql.DB) *EventSectionRepo { return &EventSectionRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *EventSectionRepo) DB() *sql.DB { return r.db }

const eventSectionCols = `id, event_id, section_id, name, price_cents, min_spend_cents, table_count,
	available_tables, capacity, per_customer_cap, enabled, custom_names, closed_tables,
	linked_pairs, server_assignments, created_at, updated_at`

type rowScanner interface{ Scan(...any) error }

func scanEventSection(row rowScanner) (*model.EventSection, error) {
	var es model.EventSection
	var minSpend, capacity, perCap sql.NullInt64
	var customNames, closed, pairs, servers sql.NullString
	err := row.Scan(
		&es.ID, &es.EventID, &es.SectionID, &es.Name, &es.PriceCents, &minSpend, &es.TableCount,
		&es.AvailableTables, &capacity, &perCap, &es.Enabled, &customNames, &closed,
		&pairs, &servers, &es.CreatedAt, &es.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if minSpend.Valid {
		v := minSpend.Int64
		es.MinSpendCents = &v
	}
	if capacity.Valid {
		v := int(capacity.Int64)
		es.Capacity = &v
	}
	if perCap.Valid {
		v := int(perCap.Int64)
		es.PerCustomerCap = &v
	}
	if err := unmarshalList(customNames, &es.CustomNames); err != nil {
		return nil, err
	}
	if err := unmarshalList(closed, &es.ClosedTables); err != nil {
		return nil, err
	}
	if err := unmarshalList(pairs, &es.LinkedPairs); err != nil {
		return nil, err
	}
	if err := unmarshalList(servers, &es.ServerAssignments); err != nil {
		return nil, err
	}
	return &es, nil
}

func unmarshalList(col sql.NullString, dst any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

func marshalList(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// CreateTx materializes one catalog section for an event inside the given
// transaction.  The counter starts at the full table count.  The generated
// ID is populated on the model.
func (r *EventSectionRepo) CreateTx(ctx context.Context, tx *sql.Tx, es *model.EventSection) error {
	namesJSON, err := marshalList(es.CustomNames, len(es.CustomNames) == 0)
	if err != nil {
		return err
	}
	const q = `INSERT INTO event_sections
	           (event_id, section_id, name, price_cents, min_spend_cents, table_count,
	            available_tables, capacity, per_customer_cap, enabled, custom_names)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		es.EventID, es.SectionID, es.Name, es.PriceCents, nullableInt64(es.MinSpendCents),
		es.TableCount, es.TableCount, nullableInt(es.Capacity), nullableInt(es.PerCustomerCap),
		es.Enabled, namesJSON,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	es.ID = uint64(id)
	es.AvailableTables = es.TableCount
	return nil
}

// GetByID loads an inventory row outside any transaction.  Used for reads
// that tolerate slightly stale counters.
func (r *EventSectionRepo) GetByID(ctx context.Context, id uint64) (*model.EventSection, error) {
	const q = `SELECT ` + eventSectionCols + ` FROM event_sections WHERE id = ?`
	es, err := scanEventSection(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventSectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return es, nil
}

// GetForUpdateTx loads an inventory row with a row lock.  Every mutation
// that needs a consistent view of the lists and active bookings (assigning
// a table, toggling closed, linking) locks the row first; the lock is what
// makes the first concurrent writer win and the second observe its result.
func (r *EventSectionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.EventSection, error) {
	const q = `SELECT ` + eventSectionCols + ` FROM event_sections WHERE id = ? FOR UPDATE`
	es, err := scanEventSection(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventSectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return es, nil
}

// ListByEvent returns all inventory rows of an event ordered by name.
func (r *EventSectionRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.EventSection, error) {
	const q = `SELECT ` + eventSectionCols + ` FROM event_sections WHERE event_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sections := make([]model.EventSection, 0)
	for rows.Next() {
		es, err := scanEventSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *es)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

// ListByEventForUpdateTx returns all inventory rows of an event with row
// locks, ordered by id so concurrent callers acquire the locks in the same
// order.  Used by mutations that may touch several rows (unlinking).
func (r *EventSectionRepo) ListByEventForUpdateTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]model.EventSection, error) {
	const q = `SELECT ` + eventSectionCols + ` FROM event_sections WHERE event_id = ? ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sections := make([]model.EventSection, 0)
	for rows.Next() {
		es, err := scanEventSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *es)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

// EventLinkedPairsTx returns the union of linked pairs across every section
// of the event.  Pairs are stored on the row where the link was created but
// exclude tables event-wide, so resolver calls need the full set.
func (r *EventSectionRepo) EventLinkedPairsTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]model.LinkedPair, error) {
	const q = `SELECT linked_pairs FROM event_sections WHERE event_id = ? AND linked_pairs IS NOT NULL`
	rows, err := tx.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var all []model.LinkedPair
	for rows.Next() {
		var col sql.NullString
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		var pairs []model.LinkedPair
		if err := unmarshalList(col, &pairs); err != nil {
			return nil, err
		}
		all = append(all, pairs...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return all, nil
}

// EventLinkedPairs is the read-only variant of EventLinkedPairsTx for
// display paths.
func (r *EventSectionRepo) EventLinkedPairs(ctx context.Context, eventID uint64) ([]model.LinkedPair, error) {
	const q = `SELECT linked_pairs FROM event_sections WHERE event_id = ? AND linked_pairs IS NOT NULL`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var all []model.LinkedPair
	for rows.Next() {
		var col sql.NullString
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		var pairs []model.LinkedPair
		if err := unmarshalList(col, &pairs); err != nil {
			return nil, err
		}
		all = append(all, pairs...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return all, nil
}

// UpdateConfigTx rewrites the business-editable fields of an inventory row
// (price, minimum spend, caps, enabled flag).
func (r *EventSectionRepo) UpdateConfigTx(ctx context.Context, tx *sql.Tx, es *model.EventSection) error {
	const q = `UPDATE event_sections
	           SET price_cents = ?, min_spend_cents = ?, capacity = ?, per_customer_cap = ?, enabled = ?
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		es.PriceCents, nullableInt64(es.MinSpendCents), nullableInt(es.Capacity),
		nullableInt(es.PerCustomerCap), es.Enabled, es.ID,
	)
	return err
}

// SaveClosedTablesTx writes the closed-table list wholesale.
func (r *EventSectionRepo) SaveClosedTablesTx(ctx context.Context, tx *sql.Tx, id uint64, closed []string) error {
	col, err := marshalList(closed, len(closed) == 0)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE event_sections SET closed_tables = ? WHERE id = ?`, col, id)
	return err
}

// SaveLinkedPairsTx writes the linked-pair list wholesale.
func (r *EventSectionRepo) SaveLinkedPairsTx(ctx context.Context, tx *sql.Tx, id uint64, pairs []model.LinkedPair) error {
	col, err := marshalList(pairs, len(pairs) == 0)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE event_sections SET linked_pairs = ? WHERE id = ?`, col, id)
	return err
}

// SaveServerAssignmentsTx writes the server-assignment list wholesale.
func (r *EventSectionRepo) SaveServerAssignmentsTx(ctx context.Context, tx *sql.Tx, id uint64, list []model.ServerAssignment) error {
	col, err := marshalList(list, len(list) == 0)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE event_sections SET server_assignments = ? WHERE id = ?`, col, id)
	return err
}

// AdjustAvailableTx applies a delta to the advisory counter, clamped to
// [0, table_count] in SQL so concurrent deltas can never push it out of
// range.
func (r *EventSectionRepo) AdjustAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	const q = `UPDATE event_sections
	           SET available_tables = LEAST(table_count, GREATEST(0, available_tables + ?))
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, delta, id)
	return err
}

// SetAvailableTx overwrites the counter with a recomputed figure, used by
// the reconciliation endpoint.
func (r *EventSectionRepo) SetAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, available int) error {
	const q = `UPDATE event_sections
	           SET available_tables = LEAST(table_count, GREATEST(0, ?))
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, available, id)
	return err
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
