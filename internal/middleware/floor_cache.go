package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/venuecraft/table-booking/internal/config"
)

// bodyCapture tees the response body so a successful render can be stored
// in Redis after it has been sent to the client.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewFloorCache caches successful GET responses of the floor-state
// endpoint for a few seconds.  The floor view is read by every staff
// device on a poll loop while the underlying data changes only when a
// booking or config write lands; a short TTL absorbs the poll traffic
// without letting staff look at a stale floor for long.  Writes never go
// through this cache and always re-resolve inside their transaction, so a
// stale read can cost at most one rejected assignment, never a double
// booking.  When Redis is unavailable the middleware is a pass-through.
func NewFloorCache(cfg config.FloorCacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := floorCacheKey(cfg.Prefix, c)
			ctx := c.Request().Context()

			if cached, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, cached)
			}

			cw := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK {
				_ = rdb.SetEx(context.Background(), key, cw.buf.Bytes(), cfg.TTL).Err()
			}
			return nil
		}
	}
}

// floorCacheKey scopes entries by business, route and query so tenants can
// never read each other's cached floors.
func floorCacheKey(prefix string, c echo.Context) string {
	biz := fmt.Sprint(c.Get(CtxBusinessID))
	tail := biz + ":" + c.Path() + ":" + c.Request().URL.RawQuery + ":" + c.Param("id")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}
