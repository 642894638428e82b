package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/handler"
	"github.com/venuecraft/table-booking/internal/middleware"
	"github.com/venuecraft/table-booking/internal/model"
)

// RegisterFloor registers the floor view, readable by every staff role.
// cache may be nil when Redis is not configured; the view then hits the
// database on every request.
func RegisterFloor(e *echo.Echo, f *handler.FloorHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.IsStaffRole),
	}
	if cache != nil {
		mws = append(mws, cache)
	}
	g := e.Group("/v1", mws...)

	g.GET("/events/:id/floor", f.GetFloor)
}

// RegisterTableOps registers closing, linking and counter reconciliation.
// These change which tables can be sold, so they require the
// table-management capability.
func RegisterTableOps(e *echo.Echo, f *handler.FloorHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.CanManageTables),
	)

	g.POST("/event-sections/:id/close", f.CloseTable)
	g.POST("/event-sections/:id/link", f.LinkTables)
	g.POST("/event-sections/:id/unlink", f.UnlinkTable)
	g.POST("/event-sections/:id/recount", f.Recount)
}

// RegisterServerAssignments registers the per-table staff roster, gated by
// the section-configuration capability.
func RegisterServerAssignments(e *echo.Echo, f *handler.FloorHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.CanConfigureSections),
	)

	g.PUT("/event-sections/:id/servers", f.AssignServers)
}
