package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/model"
)

// ListBookings handles GET /v1/events/:id/bookings.  Optional ?status=
// filters by one status value.
func (h *BookingHandler) ListBookings(c echo.Context) error {
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
	bookings, err := h.BookingRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if status := normalizeStatus(c.QueryParam("status")); status != "" {
		if !model.ValidStatus(status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
		}
		filtered := make([]model.TableBooking, 0, len(bookings))
		for _, b := range bookings {
			if b.Status == status {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// GetBooking handles GET /v1/bookings/:id.  The response bundles the
// booking with its notes, its order siblings (other bookings paid in the
// same checkout), the refund history and the amount still refundable, so
// the desk view needs a single round trip.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	booking, err := h.BookingRepo.GetForBusiness(ctx, bookingID, bizID)
	if err != nil {
		return bookingLookupError(c, err)
	}
	notes, err := h.BookingRepo.ListNotes(ctx, bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	siblings := []model.TableBooking{}
	var refunds []model.Refund
	var transferable int64
	if booking.OrderID != nil {
		order, err := h.BookingRepo.ListByOrder(ctx, *booking.OrderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		for _, b := range order {
			if b.ID != booking.ID {
				siblings = append(siblings, b)
			}
		}
		transferable = model.TransferableTotal(order)
		refunds, err = h.RefundRepo.ListByOrder(ctx, *booking.OrderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	} else {
		transferable = model.TransferableTotal([]model.TableBooking{*booking})
		refunds, err = h.RefundRepo.ListByBooking(ctx, bookingID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if refunds == nil {
		refunds = []model.Refund{}
	}

	// PENDING reservations count against the remainder the same way they do
	// on the write path, so the desk never quotes money a concurrent refund
	// may already be claiming.
	return c.JSON(http.StatusOK, echo.Map{
		"booking":                    booking,
		"notes":                      notes,
		"order_bookings":             siblings,
		"refunds":                    refunds,
		"refunded_cents":             model.SucceededTotal(refunds),
		"remaining_refundable_cents": model.RemainingRefundable(transferable, model.OutstandingTotal(refunds)),
	})
}
