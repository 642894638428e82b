package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by StaffAuth.  The identity service issues the
// tokens; this middleware only verifies them and exposes the claims the
// engine needs for scoping and audit fields.
const (
	CtxUserID     = "user_id"
	CtxBusinessID = "business_id"
	CtxRole       = "role"
	CtxActorName  = "actor_name"
	CtxActorEmail = "actor_email"
)

// StaffAuth returns an Echo middleware that validates a Bearer access token
// and injects the caller's id, business, role, name and email into the
// request context.  The secret must match the identity service's signing
// key.  Handlers read the values via c.Get(CtxRole) etc.
func StaffAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// A staff token without a business scope cannot be authorized
			// for anything in a multi-tenant engine.
			if claims["biz"] == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has no business scope"})
			}

			c.Set(CtxUserID, claims["sub"])
			c.Set(CtxBusinessID, claims["biz"])
			c.Set(CtxRole, claims["role"])
			c.Set(CtxActorName, claims["name"])
			c.Set(CtxActorEmail, claims["email"])
			return next(c)
		}
	}
}
