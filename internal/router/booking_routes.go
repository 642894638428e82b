package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/handler"
	"github.com/venuecraft/table-booking/internal/middleware"
	"github.com/venuecraft/table-booking/internal/model"
)

// RegisterBookings registers the booking lifecycle endpoints.  Creating
// bookings, moving parties between tables, changing statuses and completing
// visits is gated by the table-management capability.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.CanManageTables),
	)

	g.POST("/events/:id/bookings", b.CreateBooking)
	g.PATCH("/bookings/:id/table", b.AssignTable)
	g.PATCH("/bookings/:id/status", b.ChangeStatus)
	g.POST("/bookings/:id/complete", b.Complete)
}

// RegisterHolds registers the server-staff hold endpoint.  Wait staff
// pencil a party onto a desired table without occupying inventory.
func RegisterHolds(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.IsServerRole),
	)

	g.POST("/events/:id/bookings/hold", b.CreateHoldBooking)
}

// RegisterBookingReads registers the read and annotation endpoints open to
// every staff role: anyone on shift can look a booking up or leave a note.
func RegisterBookingReads(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.IsStaffRole),
	)

	g.GET("/events/:id/bookings", b.ListBookings)
	g.GET("/bookings/:id", b.GetBooking)
	g.POST("/bookings/:id/notes", b.AddNote)
}
