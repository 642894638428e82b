package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireCapability returns a middleware that rejects callers whose "role"
// claim does not satisfy the given capability predicate (model.CanRefund,
// model.CanManageTables, ...).  It assumes StaffAuth has already stored the
// role in the context.  Rejections are plain 403s with no detail about
// which resources exist.
func RequireCapability(allowed func(role string) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed(role) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
