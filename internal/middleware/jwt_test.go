package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runStaffAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := StaffAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c
}

func TestStaffAuth(t *testing.T) {
	t.Run("valid token populates claims", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub":  float64(7),
			"biz":  float64(42),
			"role": "MANAGER",
			"name": "Dana",
		})
		rec, c := runStaffAuth(t, "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if role, _ := c.Get(CtxRole).(string); role != "MANAGER" {
			t.Errorf("role claim = %v", c.Get(CtxRole))
		}
		if biz, _ := c.Get(CtxBusinessID).(float64); biz != 42 {
			t.Errorf("business claim = %v", c.Get(CtxBusinessID))
		}
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _ := runStaffAuth(t, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _ := runStaffAuth(t, "Bearer not-a-token")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("token without business scope", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"sub": float64(7), "role": "MANAGER"})
		rec, _ := runStaffAuth(t, "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestRequireCapability(t *testing.T) {
	run := func(role any, allowed func(string) bool) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(CtxRole, role)
		}
		handler := RequireCapability(allowed)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			t.Fatalf("middleware returned error: %v", err)
		}
		return rec.Code
	}

	if got := run(model.RoleHost, model.CanManageTables); got != http.StatusOK {
		t.Errorf("capable role: status = %d", got)
	}
	if got := run(model.RoleServer, model.CanRefund); got != http.StatusForbidden {
		t.Errorf("incapable role: status = %d", got)
	}
	if got := run(nil, model.IsStaffRole); got != http.StatusForbidden {
		t.Errorf("missing role: status = %d", got)
	}
}
