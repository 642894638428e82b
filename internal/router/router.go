// Package router wires HTTP routes to handlers, grouped by the staff role
// that may call them.  Authentication and role checks are attached at group
// construction, so a handler never runs without its claims in the context.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
