package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/floor"
	"github.com/venuecraft/table-booking/internal/model"
	"github.com/venuecraft/table-booking/internal/repository"
)

// BookingHandler owns the booking lifecycle: creation, table assignment,
// status changes and completion.  Every mutation runs its
// read-validate-write sequence in one transaction with the inventory row
// locked, so the resolver verdict it acts on cannot be invalidated by a
// concurrent writer; the first writer to take the lock wins and the second
// observes its result.
type BookingHandler struct {
	EventRepo        *repository.EventRepo
	EventSectionRepo *repository.EventSectionRepo
	BookingRepo      *repository.BookingRepo
	RefundRepo       *repository.RefundRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must be
// non-nil.
func NewBookingHandler(eventRepo *repository.EventRepo, sectionRepo *repository.EventSectionRepo, bookingRepo *repository.BookingRepo, refundRepo *repository.RefundRepo) *BookingHandler {
	if eventRepo == nil || sectionRepo == nil || bookingRepo == nil || refundRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{
		EventRepo:        eventRepo,
		EventSectionRepo: sectionRepo,
		BookingRepo:      bookingRepo,
		RefundRepo:       refundRepo,
	}
}

type createBookingRequest struct {
	SectionID     uint64  `json:"section_id"`
	TableNumber   *string `json:"table_number"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail *string `json:"customer_email"`
	CustomerPhone *string `json:"customer_phone"`
	AmountCents   *int64  `json:"amount_cents"`
	OrderID       *string `json:"order_id"`
	PaymentRef    *string `json:"payment_ref"`
	Status        string  `json:"status"`
}

// CreateBooking handles POST /v1/events/:id/bookings.  It creates an
// occupying booking: paid checkout rows arrive with an amount and payment
// reference and enter at SEATED, staff walk-ins at SEATED, advance
// reservations at CONFIRMED or REQUESTED.  When a table is requested the
// handler re-resolves the section inside the transaction and rejects the
// table with a conflict if it is closed, linked or held by another active
// booking.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.CustomerName = strings.TrimSpace(body.CustomerName)
	if body.CustomerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_name is required"})
	}
	if body.SectionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "section_id is required"})
	}
	if body.AmountCents != nil && *body.AmountCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must not be negative"})
	}
	status := body.Status
	if status == "" {
		status = model.StatusSeated
	}
	switch status {
	case model.StatusSeated, model.StatusConfirmed, model.StatusRequested:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid initial status"})
	}

	ctx := c.Request().Context()
	if err := h.EventRepo.EnsureOwned(ctx, eventID, bizID); err != nil {
		return eventLookupError(c, err)
	}

	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	section, err := h.EventSectionRepo.GetForUpdateTx(ctx, tx, body.SectionID)
	if err != nil {
		return sectionLookupError(c, err)
	}
	if section.EventID != eventID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section does not belong to event"})
	}
	if !section.Enabled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "section is not open for bookings"})
	}

	if body.TableNumber != nil {
		if conflict := h.checkTable(c, ctx, tx, section, *body.TableNumber, 0); conflict != nil {
			return conflict
		}
	}

	// Checkout may pay for several tables in one transaction; generate an
	// order id for paid bookings that arrive without one so refunds always
	// have an order to reconcile against.
	orderID := body.OrderID
	if orderID == nil && body.AmountCents != nil {
		generated := uuid.NewString()
		orderID = &generated
	}

	booking := &model.TableBooking{
		EventID:        eventID,
		EventSectionID: section.ID,
		TableNumber:    body.TableNumber,
		CustomerName:   body.CustomerName,
		CustomerEmail:  body.CustomerEmail,
		CustomerPhone:  body.CustomerPhone,
		AmountCents:    body.AmountCents,
		OrderID:        orderID,
		PaymentRef:     body.PaymentRef,
		Status:         status,
	}
	if err := h.BookingRepo.CreateTx(ctx, tx, booking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	if body.TableNumber != nil {
		if err := h.EventSectionRepo.AdjustAvailableTx(ctx, tx, section.ID, -1); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

// CreateHoldBooking handles POST /v1/events/:id/bookings/hold.  Server
// staff use it to pencil a party onto a table: the desired table is stored
// in requested_table, the live assignment stays empty, no inventory is
// consumed and the duplicate-table check does not apply.  A host or
// manager later converts the hold by assigning the table for real.
func (h *BookingHandler) CreateHoldBooking(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.CustomerName = strings.TrimSpace(body.CustomerName)
	if body.CustomerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_name is required"})
	}
	if body.SectionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "section_id is required"})
	}

	ctx := c.Request().Context()
	if err := h.EventRepo.EnsureOwned(ctx, eventID, bizID); err != nil {
		return eventLookupError(c, err)
	}
	section, err := h.EventSectionRepo.GetByID(ctx, body.SectionID)
	if err != nil {
		return sectionLookupError(c, err)
	}
	if section.EventID != eventID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section does not belong to event"})
	}

	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking := &model.TableBooking{
		EventID:        eventID,
		EventSectionID: section.ID,
		RequestedTable: body.TableNumber,
		CustomerName:   body.CustomerName,
		CustomerEmail:  body.CustomerEmail,
		CustomerPhone:  body.CustomerPhone,
		AmountCents:    body.AmountCents,
		Status:         model.StatusConfirmed,
	}
	if err := h.BookingRepo.CreateTx(ctx, tx, booking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

type assignTableRequest struct {
	TableNumber *string `json:"table_number"`
	SectionID   *uint64 `json:"section_id"`
}

// AssignTable handles PATCH /v1/bookings/:id/table.  A null table_number
// unassigns; a section_id moves the booking to another section of the same
// event.  The target section row is locked and re-resolved before the
// write, so two actors racing for one table serialize on the lock and the
// loser gets a conflict instead of overwriting.  Bookings not yet seated
// auto-advance to SEATED when a table is assigned.
func (h *BookingHandler) AssignTable(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body assignTableRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// An unassignment frees the current table in place; pairing it with a
	// section move has no coherent meaning, so make the caller pick one.
	if body.TableNumber == nil && body.SectionID != nil && *body.SectionID != 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot change section while unassigning; provide a table_number or omit section_id"})
	}

	ctx := c.Request().Context()
	if _, err := h.BookingRepo.GetForBusiness(ctx, bookingID, bizID); err != nil {
		return bookingLookupError(c, err)
	}

	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := h.BookingRepo.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return bookingLookupError(c, err)
	}
	if booking.Status == model.StatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
	}
	if booking.Status == model.StatusCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is completed"})
	}

	targetSectionID := booking.EventSectionID
	if body.SectionID != nil && *body.SectionID != 0 {
		targetSectionID = *body.SectionID
	}
	section, err := h.EventSectionRepo.GetForUpdateTx(ctx, tx, targetSectionID)
	if err != nil {
		return sectionLookupError(c, err)
	}
	if section.EventID != booking.EventID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section does not belong to event"})
	}

	hadTable := booking.TableNumber != nil
	movingSections := targetSectionID != booking.EventSectionID

	if body.TableNumber == nil {
		// Unassign: the party keeps its booking but frees the table.
		if err := h.BookingRepo.UpdateTableTx(ctx, tx, bookingID, booking.EventSectionID, nil, booking.Status); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
		}
		if hadTable {
			if err := h.EventSectionRepo.AdjustAvailableTx(ctx, tx, booking.EventSectionID, +1); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
			}
		}
		if err := tx.Commit(); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
		}
		committed = true
		return c.JSON(http.StatusOK, echo.Map{"booking_id": bookingID, "table_number": nil})
	}

	table := strings.TrimSpace(*body.TableNumber)
	if table == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number must not be blank"})
	}
	if conflict := h.checkTable(c, ctx, tx, section, table, bookingID); conflict != nil {
		return conflict
	}

	status := booking.Status
	if model.AutoAdvancesOnAssign(status) {
		status = model.StatusSeated
	}
	if err := h.BookingRepo.UpdateTableTx(ctx, tx, bookingID, targetSectionID, &table, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}

	// Counter bookkeeping.  These are best-effort caches clamped in SQL;
	// the resolver remains the source of truth.
	switch {
	case movingSections && hadTable:
		if err := h.EventSectionRepo.AdjustAvailableTx(ctx, tx, booking.EventSectionID, +1); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
		}
		if err := h.EventSectionRepo.AdjustAvailableTx(ctx, tx, targetSectionID, -1); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
		}
	case !hadTable:
		if err := h.EventSectionRepo.AdjustAvailableTx(ctx, tx, targetSectionID, -1); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":   bookingID,
		"section_id":   targetSectionID,
		"table_number": table,
		"status":       status,
	})
}

// checkTable runs the resolver for the section inside the caller's
// transaction and writes the rejection response when the table is not
// assignable.  selfID exempts the booking's own current table so
// re-asserting an assignment is not a conflict.  A nil return means the
// table is free to take.
func (h *BookingHandler) checkTable(c echo.Context, ctx context.Context, tx *sql.Tx, section *model.EventSection, table string, selfID uint64) error {
	names := floor.TableNames(section.TableCount, section.CustomNames)
	known := false
	for _, n := range names {
		if n == table {
			known = true
			break
		}
	}
	if !known {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table", "table_number": table})
	}
	pairs, err := h.EventSectionRepo.EventLinkedPairsTx(ctx, tx, section.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load linked tables"})
	}
	active, err := h.BookingRepo.ActiveAssignmentsTx(ctx, tx, section.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load table assignments"})
	}
	states := floor.Resolve(section.ID, names, section.ClosedTables, pairs, active)
	switch states[table] {
	case floor.StateClosed:
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is closed", "table_number": table})
	case floor.StateLinked:
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is linked to another table", "table_number": table})
	case floor.StateBooked:
		if holder, ok := floor.Holder(active, table); ok && holder != selfID {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table already assigned", "table_number": table})
		}
	}
	return nil
}

// Lookup error mappers shared by the booking handlers.  Infrastructure
// failures are deliberately indistinct 500s; not-found answers are the
// same for missing rows and foreign tenants.

func eventLookupError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrEventNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

func sectionLookupError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrEventSectionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

func bookingLookupError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrBookingNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
