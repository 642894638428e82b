package repository

import (
	"context"
	"database/sql"

	"github.com/venuecraft/table-booking/internal/model"
)

// RefundRepo provides access to the refund ledger.  A row is inserted as
// PENDING inside the same transaction that checks the refundable pool, so
// the reservation counts against concurrent requests before the processor
// is asked to move money; after the processor answers, the row flips to
// SUCCEEDED or FAILED.  Rows are never deleted.
type RefundRepo struct {
	db *sql.DB
}

// NewRefundRepo returns a new RefundRepo bound to the given database.
func NewRefundRepo(db *sql.DB) *RefundRepo { return &RefundRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *RefundRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a ledger entry within the given transaction and
// populates the generated ID.  The caller holds the booking row locks, so
// the insert and the pool check commit or roll back together.
func (r *RefundRepo) CreateTx(ctx context.Context, tx *sql.Tx, ref *model.Refund) error {
	const q = `INSERT INTO refunds (booking_id, order_id, amount_cents, reason, processor_ref, status, actor_name)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	var bookingID any
	if ref.BookingID != nil {
		bookingID = *ref.BookingID
	}
	res, err := tx.ExecContext(ctx, q,
		bookingID, strArg(ref.OrderID), ref.AmountCents, ref.Reason,
		ref.ProcessorRef, ref.Status, ref.ActorName,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ref.ID = uint64(id)
	return nil
}

// OutstandingTotalByOrderTx sums the refunds that count against an order's
// pool: SUCCEEDED rows plus PENDING reservations whose outcome is not yet
// known.
func (r *RefundRepo) OutstandingTotalByOrderTx(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents), 0) FROM refunds
	           WHERE order_id = ? AND status IN (?, ?)`
	var total int64
	err := tx.QueryRowContext(ctx, q, orderID, model.RefundPending, model.RefundSucceeded).Scan(&total)
	return total, err
}

// OutstandingTotalByBookingTx is the standalone-booking variant of
// OutstandingTotalByOrderTx.
func (r *RefundRepo) OutstandingTotalByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents), 0) FROM refunds
	           WHERE booking_id = ? AND order_id IS NULL AND status IN (?, ?)`
	var total int64
	err := tx.QueryRowContext(ctx, q, bookingID, model.RefundPending, model.RefundSucceeded).Scan(&total)
	return total, err
}

// UpdateResult records the processor's answer on a PENDING row: the final
// status, the processor's reference and the amount it actually moved.
func (r *RefundRepo) UpdateResult(ctx context.Context, id uint64, status, processorRef string, amountCents int64) error {
	const q = `UPDATE refunds SET status = ?, processor_ref = ?, amount_cents = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, status, processorRef, amountCents, id)
	return err
}

// ListByOrder returns the full refund history of an order, oldest first.
func (r *RefundRepo) ListByOrder(ctx context.Context, orderID string) ([]model.Refund, error) {
	const q = `SELECT id, booking_id, order_id, amount_cents, reason, processor_ref, status, actor_name, created_at
	           FROM refunds WHERE order_id = ? ORDER BY created_at, id`
	return r.list(ctx, q, orderID)
}

// ListByBooking returns the refund history of a standalone booking.
func (r *RefundRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Refund, error) {
	const q = `SELECT id, booking_id, order_id, amount_cents, reason, processor_ref, status, actor_name, created_at
	           FROM refunds WHERE booking_id = ? ORDER BY created_at, id`
	return r.list(ctx, q, bookingID)
}

func (r *RefundRepo) list(ctx context.Context, query string, arg any) ([]model.Refund, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	refunds := make([]model.Refund, 0)
	for rows.Next() {
		var ref model.Refund
		var bookingID sql.NullInt64
		var orderID sql.NullString
		if err := rows.Scan(&ref.ID, &bookingID, &orderID, &ref.AmountCents, &ref.Reason,
			&ref.ProcessorRef, &ref.Status, &ref.ActorName, &ref.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			v := uint64(bookingID.Int64)
			ref.BookingID = &v
		}
		ref.OrderID = nullStr(orderID)
		refunds = append(refunds, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refunds, nil
}
