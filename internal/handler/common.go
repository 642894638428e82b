package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/middleware"
)

// Health handles GET /healthz for load balancers and monitoring.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// ctxUint64 extracts a numeric claim stored in the Echo context by the auth
// middleware.  Claims arrive as float64 from JSON tokens but tests may set
// native integers.
func ctxUint64(c echo.Context, key string) (uint64, error) {
	v := c.Get(key)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid claim in context: " + key)
}

// getBusinessID returns the caller's tenant scope.
func getBusinessID(c echo.Context) (uint64, error) {
	return ctxUint64(c, middleware.CtxBusinessID)
}

// normalizeStatus canonicalizes a client-supplied status value; statuses
// are matched case-insensitively everywhere they are accepted.
func normalizeStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// actorName returns the display name used for audit fields: the name
// claim, falling back to email, falling back to "staff".
func actorName(c echo.Context) string {
	if s, ok := c.Get(middleware.CtxActorName).(string); ok && s != "" {
		return s
	}
	if s, ok := c.Get(middleware.CtxActorEmail).(string); ok && s != "" {
		return s
	}
	return "staff"
}

// parseUintParam parses a positive numeric query value.
func parseUintParam(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid numeric value")
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
