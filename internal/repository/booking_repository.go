package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/venuecraft/table-booking/internal/floor"
	"github.com/venuecraft/table-booking/internal/model"
)

// BookingRepo provides CRUD for table_bookings plus the append-only note
// and feedback tables.  Status and table mutations always run inside a
// caller-owned transaction together with the inventory row lock, so the
// write-side methods are ...Tx variants.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingCols = `id, event_id, event_section_id, table_number, requested_table,
	customer_name, customer_email, customer_phone, amount_cents, order_id, payment_ref,
	status, completed_table_number, created_at, updated_at`

func scanBooking(row rowScanner) (*model.TableBooking, error) {
	var b model.TableBooking
	var table, requested, email, phone, orderID, payRef, completed sql.NullString
	var amount sql.NullInt64
	err := row.Scan(
		&b.ID, &b.EventID, &b.EventSectionID, &table, &requested,
		&b.CustomerName, &email, &phone, &amount, &orderID, &payRef,
		&b.Status, &completed, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.TableNumber = nullStr(table)
	b.RequestedTable = nullStr(requested)
	b.CustomerEmail = nullStr(email)
	b.CustomerPhone = nullStr(phone)
	b.OrderID = nullStr(orderID)
	b.PaymentRef = nullStr(payRef)
	b.CompletedTableNumber = nullStr(completed)
	if amount.Valid {
		v := amount.Int64
		b.AmountCents = &v
	}
	return &b, nil
}

func nullStr(col sql.NullString) *string {
	if !col.Valid {
		return nil
	}
	v := col.String
	return &v
}

func strArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Arg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// CreateTx inserts a booking within the given transaction and populates the
// generated ID and timestamps on the model.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.TableBooking) error {
	const q = `INSERT INTO table_bookings
	           (event_id, event_section_id, table_number, requested_table, customer_name,
	            customer_email, customer_phone, amount_cents, order_id, payment_ref, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.EventID, b.EventSectionID, strArg(b.TableNumber), strArg(b.RequestedTable),
		b.CustomerName, strArg(b.CustomerEmail), strArg(b.CustomerPhone),
		int64Arg(b.AmountCents), strArg(b.OrderID), strArg(b.PaymentRef), b.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT ` + bookingCols + ` FROM table_bookings WHERE id = ?`
	created, err := scanBooking(tx.QueryRowContext(ctx, sel, b.ID))
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

// GetForBusiness loads one booking, enforcing tenant scope through the
// events join.  Cross-tenant bookings are reported as ErrBookingNotFound.
func (r *BookingRepo) GetForBusiness(ctx context.Context, bookingID, businessID uint64) (*model.TableBooking, error) {
	const q = `SELECT b.id, b.event_id, b.event_section_id, b.table_number, b.requested_table,
	                  b.customer_name, b.customer_email, b.customer_phone, b.amount_cents, b.order_id,
	                  b.payment_ref, b.status, b.completed_table_number, b.created_at, b.updated_at
	           FROM table_bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.id = ? AND e.business_id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, bookingID, businessID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetForUpdateTx loads one booking with a row lock inside the given
// transaction.  Tenant scope must already be verified by the caller.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.TableBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM table_bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListByEvent returns all bookings of an event, newest first.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.TableBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM table_bookings WHERE event_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.TableBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByOrder returns every booking sharing the given order id, including
// cancelled ones; callers filter by status for refund math.
func (r *BookingRepo) ListByOrder(ctx context.Context, orderID string) ([]model.TableBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM table_bookings WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.TableBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByOrderForUpdateTx locks every booking of an order inside the given
// transaction, ordered by id so concurrent callers acquire the locks in the
// same order.  Refund requests lock the order this way so the pool check
// and the ledger reservation are serialized.
func (r *BookingRepo) ListByOrderForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) ([]model.TableBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM table_bookings WHERE order_id = ? ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.TableBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ActiveAssignmentsTx returns (booking id, table) for every booking in the
// section that currently occupies a table: status neither CANCELLED nor
// COMPLETED and a non-null table_number.  This is the resolver's input for
// the booked state and must be read under the same transaction as the
// inventory row lock for the conflict check to be trustworthy.
func (r *BookingRepo) ActiveAssignmentsTx(ctx context.Context, tx *sql.Tx, eventSectionID uint64) ([]floor.Assignment, error) {
	const q = `SELECT id, table_number FROM table_bookings
	           WHERE event_section_id = ? AND table_number IS NOT NULL
	             AND status NOT IN (?, ?)`
	rows, err := tx.QueryContext(ctx, q, eventSectionID, model.StatusCancelled, model.StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []floor.Assignment
	for rows.Next() {
		var a floor.Assignment
		if err := rows.Scan(&a.BookingID, &a.Table); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveAssignments is the read-only variant of ActiveAssignmentsTx for
// display paths that tolerate a slightly stale floor.
func (r *BookingRepo) ActiveAssignments(ctx context.Context, eventSectionID uint64) ([]floor.Assignment, error) {
	const q = `SELECT id, table_number FROM table_bookings
	           WHERE event_section_id = ? AND table_number IS NOT NULL
	             AND status NOT IN (?, ?)`
	rows, err := r.db.QueryContext(ctx, q, eventSectionID, model.StatusCancelled, model.StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []floor.Assignment
	for rows.Next() {
		var a floor.Assignment
		if err := rows.Scan(&a.BookingID, &a.Table); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTableTx rewrites the assignment fields after a (re)assignment:
// section, live table and status.  A nil table unassigns.
func (r *BookingRepo) UpdateTableTx(ctx context.Context, tx *sql.Tx, bookingID, eventSectionID uint64, table *string, status string) error {
	const q = `UPDATE table_bookings SET event_section_id = ?, table_number = ?, status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, eventSectionID, strArg(table), status, bookingID)
	return err
}

// UpdateStatusTx rewrites only the status.  Transition validity is the
// handler's responsibility.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, status string) error {
	const q = `UPDATE table_bookings SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, bookingID)
	return err
}

// CompleteTx finalizes a booking: status COMPLETED, live table cleared and
// its name snapshotted into completed_table_number for history.
func (r *BookingRepo) CompleteTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	const q = `UPDATE table_bookings
	           SET status = ?, completed_table_number = table_number, table_number = NULL
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, model.StatusCompleted, bookingID)
	return err
}

// CreateFeedbackTx inserts the completion feedback row inside the same
// transaction as CompleteTx, so a feedback failure rolls the completion
// back with it.
func (r *BookingRepo) CreateFeedbackTx(ctx context.Context, tx *sql.Tx, fb *model.BookingFeedback) error {
	const q = `INSERT INTO booking_feedback (booking_id, rating, comment, author) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, fb.BookingID, fb.Rating, strArg(fb.Comment), fb.Author)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fb.ID = uint64(id)
	return nil
}

// AddNote appends a note to a booking.  Notes are append-only; there is no
// update or delete.
func (r *BookingRepo) AddNote(ctx context.Context, note *model.BookingNote) error {
	const q = `INSERT INTO booking_notes (booking_id, content, author) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, note.BookingID, note.Content, note.Author)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	note.ID = uint64(id)
	return nil
}

// ListNotes returns a booking's notes oldest first.
func (r *BookingRepo) ListNotes(ctx context.Context, bookingID uint64) ([]model.BookingNote, error) {
	const q = `SELECT id, booking_id, content, author, created_at FROM booking_notes
	           WHERE booking_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notes := make([]model.BookingNote, 0)
	for rows.Next() {
		var n model.BookingNote
		if err := rows.Scan(&n.ID, &n.BookingID, &n.Content, &n.Author, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}
