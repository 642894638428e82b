package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/model"
	"github.com/venuecraft/table-booking/internal/queue"
	notifier "github.com/venuecraft/table-booking/internal/service"
)

type changeStatusRequest struct {
	Status string `json:"status"`
}

// ChangeStatus handles PATCH /v1/bookings/:id/status.  The target status is
// validated against the fixed enum and the transition allow-list.
// COMPLETED is rejected here because completion carries a mandatory rating
// and has its own endpoint.  Approvals and cancellations publish a
// notification event after commit; a publish failure is logged and
// swallowed, never rolled back into the transition.
func (h *BookingHandler) ChangeStatus(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body changeStatusRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	target := normalizeStatus(body.Status)
	if !model.ValidStatus(target) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if target == model.StatusCompleted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "completion requires a rating; use the complete endpoint"})
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
	if !model.CanTransition(booking.Status, target) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "status change not allowed",
			"status": booking.Status,
			"target": target,
		})
	}
	if err := h.BookingRepo.UpdateStatusTx(ctx, tx, bookingID, target); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	if target == model.StatusApproved || target == model.StatusCancelled {
		go h.publishStatusEvent(booking, target, actorName(c))
	}
	return c.JSON(http.StatusOK, echo.Map{"booking_id": bookingID, "status": target})
}

// publishStatusEvent sends the fire-and-forget notification for approvals
// and cancellations.  The section name is loaded best-effort; a missing
// name still produces a usable notification.
func (h *BookingHandler) publishStatusEvent(booking *model.TableBooking, status, actor string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sectionName := ""
	if section, err := h.EventSectionRepo.GetByID(ctx, booking.EventSectionID); err == nil {
		sectionName = section.Name
	}
	event := queue.BookingEvent{
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		SectionName:   sectionName,
		TableNumber:   booking.TableNumber,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		CustomerPhone: booking.CustomerPhone,
		Status:        status,
		ActorName:     actor,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	var err error
	if status == model.StatusApproved {
		err = notifier.PublishBookingApproved(ctx, event)
	} else {
		err = notifier.PublishBookingCancelled(ctx, event)
	}
	if err != nil {
		log.Printf("booking: notification publish failed for booking %d: %v", booking.ID, err)
	}
}

type completeBookingRequest struct {
	Rating   int     `json:"rating"`
	Feedback *string `json:"feedback"`
}

// Complete handles POST /v1/bookings/:id/complete.  Only ARRIVED bookings
// can complete.  The assigned table name is snapshotted into the
// historical field, the live assignment is cleared so the table can be
// resold, and the mandatory rating (plus optional feedback) is written in
// the same transaction: if feedback persistence fails the completion rolls
// back with it.
func (h *BookingHandler) Complete(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body completeBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Rating < 1 || body.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
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
	if !model.CanComplete(booking.Status) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "only arrived bookings can be completed",
			"status": booking.Status,
		})
	}
	if err := h.BookingRepo.CompleteTx(ctx, tx, bookingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete booking"})
	}
	feedback := &model.BookingFeedback{
		BookingID: bookingID,
		Rating:    body.Rating,
		Comment:   body.Feedback,
		Author:    actorName(c),
	}
	if err := h.BookingRepo.CreateFeedbackTx(ctx, tx, feedback); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record feedback"})
	}
	if booking.TableNumber != nil {
		if err := h.EventSectionRepo.AdjustAvailableTx(ctx, tx, booking.EventSectionID, +1); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":             bookingID,
		"status":                 model.StatusCompleted,
		"completed_table_number": booking.TableNumber,
		"rating":                 body.Rating,
	})
}

type addNoteRequest struct {
	Content string `json:"content"`
}

// AddNote handles POST /v1/bookings/:id/notes.  Notes are append-only and
// carry the author's name from the token.
func (h *BookingHandler) AddNote(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body addNoteRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Content = strings.TrimSpace(body.Content)
	if body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.BookingRepo.GetForBusiness(ctx, bookingID, bizID); err != nil {
		return bookingLookupError(c, err)
	}
	note := &model.BookingNote{
		BookingID: bookingID,
		Content:   body.Content,
		Author:    actorName(c),
	}
	if err := h.BookingRepo.AddNote(ctx, note); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add note"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"note": note})
}
