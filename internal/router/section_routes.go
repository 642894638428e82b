package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/handler"
	"github.com/venuecraft/table-booking/internal/middleware"
	"github.com/venuecraft/table-booking/internal/model"
)

// RegisterSections registers the section catalog and event inventory
// configuration endpoints, gated by the section-configuration capability.
func RegisterSections(e *echo.Echo, s *handler.SectionHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireCapability(model.CanConfigureSections),
	)

	// ---- Catalog ----
	g.POST("/sections", s.CreateSection)
	g.GET("/sections", s.ListSections)
	g.GET("/sections/:id", s.GetSection)
	g.PATCH("/sections/:id", s.UpdateSection)
	g.DELETE("/sections/:id", s.DeleteSection)

	// ---- Event inventory ----
	g.POST("/events/:id/sections", s.EnableEventSections)
	g.PATCH("/event-sections/:id", s.UpdateEventSection)
}
