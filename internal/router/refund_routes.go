package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/handler"
	"github.com/venuecraft/table-booking/internal/middleware"
	"github.com/venuecraft/table-booking/internal/model"
)

// RegisterRefunds registers the refund endpoints.  Moving money back is
// gated by the refund capability.
func RegisterRefunds(e *echo.Echo, r *handler.RefundHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.CanRefund),
	)

	g.POST("/refunds", r.RequestRefund)
	g.GET("/refunds", r.ListRefunds)
}
