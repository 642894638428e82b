package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/model"
	"github.com/venuecraft/table-booking/internal/payment"
	"github.com/venuecraft/table-booking/internal/repository"
)

// RefundHandler reconciles refunds against the payment processor and keeps
// the refund ledger.  A request first reserves its amount as a PENDING
// ledger row in the same transaction that locks the scope's bookings and
// checks the pool, so two concurrent requests cannot both pass the cap; only
// then is the processor asked to move money, and the row flips to SUCCEEDED
// or FAILED with its answer.  An unknown outcome leaves the row PENDING,
// which keeps the pool conservatively reserved until someone reconciles.
type RefundHandler struct {
	BookingRepo *repository.BookingRepo
	RefundRepo  *repository.RefundRepo
	Processor   payment.Processor
}

// NewRefundHandler constructs a RefundHandler.  All dependencies must be
// non-nil.
func NewRefundHandler(bookingRepo *repository.BookingRepo, refundRepo *repository.RefundRepo, processor payment.Processor) *RefundHandler {
	if bookingRepo == nil || refundRepo == nil || processor == nil {
		panic("nil dependency passed to NewRefundHandler")
	}
	return &RefundHandler{BookingRepo: bookingRepo, RefundRepo: refundRepo, Processor: processor}
}

type refundRequest struct {
	BookingID   *uint64 `json:"booking_id"`
	OrderID     *string `json:"order_id"`
	AmountCents int64   `json:"amount_cents"`
	Reason      string  `json:"reason"`
}

// RequestRefund handles POST /v1/refunds.  The scope is either one booking
// or a whole order.  The refundable pool is the live transferable total
// (sum of the order's non-cancelled booking amounts, capped by what the
// processor says the charge can still transfer) minus refunds already
// issued or reserved; a request over the remainder is rejected with the
// remainder in the response so the desk can retry with the right figure.
func (h *RefundHandler) RequestRefund(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body refundRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.AmountCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
	}
	body.Reason = strings.TrimSpace(body.Reason)
	if body.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}
	if (body.BookingID == nil) == (body.OrderID == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exactly one of booking_id or order_id is required"})
	}

	ctx := c.Request().Context()

	// Resolve the scope to the set of bookings sharing the money and a
	// payment reference to refund against.
	var bookings []model.TableBooking
	var orderID *string
	if body.OrderID != nil {
		id := strings.TrimSpace(*body.OrderID)
		if id == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id must not be blank"})
		}
		orderID = &id
		bookings, err = h.BookingRepo.ListByOrder(ctx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if len(bookings) == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		// Tenant scope: any booking of the order must belong to the caller.
		if _, err := h.BookingRepo.GetForBusiness(ctx, bookings[0].ID, bizID); err != nil {
			return bookingLookupError(c, err)
		}
	} else {
		booking, err := h.BookingRepo.GetForBusiness(ctx, *body.BookingID, bizID)
		if err != nil {
			return bookingLookupError(c, err)
		}
		if booking.OrderID != nil {
			// A booking paid as part of an order shares its money with the
			// siblings; refund at order scope.
			orderID = booking.OrderID
			bookings, err = h.BookingRepo.ListByOrder(ctx, *booking.OrderID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
		} else {
			bookings = []model.TableBooking{*booking}
		}
	}

	paymentRef := ""
	for _, b := range bookings {
		if b.PaymentRef != nil && *b.PaymentRef != "" {
			paymentRef = *b.PaymentRef
			break
		}
	}
	if paymentRef == "" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no payment on file for this scope"})
	}

	// The processor's net figure accounts for fees and prior transfers the
	// ledger cannot see; the lower bound wins.  Asked for before the locks
	// so no HTTP call runs while booking rows are held.
	charge, err := h.Processor.GetCharge(ctx, paymentRef)
	if err != nil {
		return processorError(c, err)
	}

	tx, err := h.RefundRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the scope's bookings and re-read them under the lock; the pool
	// check and the PENDING reservation below commit atomically, so a
	// concurrent request for the same scope waits here and then sees this
	// reservation in the outstanding total.
	var outstanding int64
	if orderID != nil {
		bookings, err = h.BookingRepo.ListByOrderForUpdateTx(ctx, tx, *orderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		outstanding, err = h.RefundRepo.OutstandingTotalByOrderTx(ctx, tx, *orderID)
	} else {
		locked, lockErr := h.BookingRepo.GetForUpdateTx(ctx, tx, bookings[0].ID)
		if lockErr != nil {
			return bookingLookupError(c, lockErr)
		}
		bookings = []model.TableBooking{*locked}
		outstanding, err = h.RefundRepo.OutstandingTotalByBookingTx(ctx, tx, locked.ID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	transferable := model.ClampTransferable(model.TransferableTotal(bookings), charge.NetTransferableCents)
	remaining := model.RemainingRefundable(transferable, outstanding)
	if body.AmountCents > remaining {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                      "amount exceeds remaining refundable total",
			"remaining_refundable_cents": remaining,
		})
	}

	record := &model.Refund{
		OrderID:     orderID,
		AmountCents: body.AmountCents,
		Reason:      body.Reason,
		Status:      model.RefundPending,
		ActorName:   actorName(c),
	}
	if orderID == nil {
		record.BookingID = &bookings[0].ID
	} else if body.BookingID != nil {
		record.BookingID = body.BookingID
	}
	if err := h.RefundRepo.CreateTx(ctx, tx, record); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	result, err := h.Processor.CreateRefund(ctx, paymentRef, body.AmountCents, body.Reason, payment.NewIdempotencyKey())
	if err != nil {
		var apiErr *payment.APIError
		if errors.As(err, &apiErr) && !apiErr.Retriable() {
			// Definitive rejection: release the reservation.
			if updErr := h.RefundRepo.UpdateResult(ctx, record.ID, model.RefundFailed, "", record.AmountCents); updErr != nil {
				log.Printf("refund: failed to mark refund %d FAILED: %v", record.ID, updErr)
			}
			return processorError(c, err)
		}
		// Unknown outcome: the row stays PENDING so the pool stays reserved
		// until someone reconciles against processor history.
		log.Printf("refund: processor outcome unknown for refund %d: %v; reservation kept", record.ID, err)
		return processorError(c, err)
	}

	status := result.Status
	if status == "" {
		status = model.RefundSucceeded
	}
	// The money has moved; losing the outcome is the worst failure left, so
	// the update gets one retry and a loud log line before we give up and
	// hand the caller the processor reference to reconcile manually.  The
	// row stays PENDING, which still counts against the pool.
	if err := h.RefundRepo.UpdateResult(ctx, record.ID, status, result.Ref, result.AmountCents); err != nil {
		log.Printf("refund: result update failed for processor ref %s: %v; retrying", result.Ref, err)
		time.Sleep(100 * time.Millisecond)
		if err := h.RefundRepo.UpdateResult(ctx, record.ID, status, result.Ref, result.AmountCents); err != nil {
			log.Printf("refund: result update failed twice for processor ref %s: %v", result.Ref, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":         "refund processed but outcome not recorded; reconcile with processor",
				"processor_ref": result.Ref,
			})
		}
	}
	record.Status = status
	record.ProcessorRef = result.Ref
	record.AmountCents = result.AmountCents
	return c.JSON(http.StatusCreated, echo.Map{
		"refund":                     record,
		"remaining_refundable_cents": model.RemainingRefundable(transferable, outstanding+record.AmountCents),
	})
}

// ListRefunds handles GET /v1/refunds?order_id=... or ?booking_id=...
func (h *RefundHandler) ListRefunds(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if orderID := c.QueryParam("order_id"); orderID != "" {
		bookings, err := h.BookingRepo.ListByOrder(ctx, orderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if len(bookings) == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		if _, err := h.BookingRepo.GetForBusiness(ctx, bookings[0].ID, bizID); err != nil {
			return bookingLookupError(c, err)
		}
		refunds, err := h.RefundRepo.ListByOrder(ctx, orderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"refunds": refunds})
	}
	bookingID := c.QueryParam("booking_id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id or booking_id is required"})
	}
	id, err := parseUintParam(bookingID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking_id"})
	}
	if _, err := h.BookingRepo.GetForBusiness(ctx, id, bizID); err != nil {
		return bookingLookupError(c, err)
	}
	refunds, err := h.RefundRepo.ListByBooking(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"refunds": refunds})
}

// processorError maps payment client failures: a 4xx from the processor is
// the caller's problem, everything else is a gateway fault worth retrying.
func processorError(c echo.Context, err error) error {
	if errors.Is(err, payment.ErrNotConfigured) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment processor not configured"})
	}
	var apiErr *payment.APIError
	if errors.As(err, &apiErr) && !apiErr.Retriable() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "payment processor rejected the request"})
	}
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment processor unavailable"})
}
