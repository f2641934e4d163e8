package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader map[int64]*authz.Principal

func (s stubLoader) LoadPrincipal(_ context.Context, id int64) (*authz.Principal, error) {
	return s[id], nil
}

func setup(t *testing.T) (*fiber.App, *auth.JWTManager) {
	t.Helper()
	jwtm := auth.NewJWTManager(&config.JWTConfig{Secret: "s", Expire: 60})
	loader := stubLoader{
		1: {UserID: 1, Role: authz.RoleSuperAdmin, Active: true},
		2: {UserID: 2, Role: authz.RoleStaff, ShopID: 5, Active: true, Permissions: []authz.Grant{
			{EntitlementCode: "INV_MGMT", Permissions: authz.Permissions{Read: true}},
		}},
		3: {UserID: 3, Role: authz.RoleStaff, Active: false},
	}
	engine := authz.NewEngine()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Recovery(), RequestID())
	policy := authz.Allow("inventory.update", authz.RoleSuperAdmin, authz.RoleStaff).Require("INV_MGMT", authz.VerbUpdate)
	app.Patch("/items", JWTAuth(jwtm, loader), Guard(engine, policy), func(c *fiber.Ctx) error {
		return c.SendString("updated")
	})
	app.Get("/items", OptionalAuth(jwtm, loader), func(c *fiber.Ctx) error {
		if p := GetPrincipal(c); p != nil {
			return c.SendString(string(p.Role))
		}
		return c.SendString("anonymous")
	})
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	return app, jwtm
}

func do(t *testing.T, app *fiber.App, method, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func token(t *testing.T, m *auth.JWTManager, id int64) string {
	t.Helper()
	tok, err := m.GenerateToken(auth.Identity{UserID: id})
	require.NoError(t, err)
	return tok
}

func TestJWTAuthAndGuard(t *testing.T) {
	app, jwtm := setup(t)

	status, _ := do(t, app, http.MethodPatch, "/items", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodPatch, "/items", "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, app, http.MethodPatch, "/items", token(t, jwtm, 3))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Account is inactive")

	status, body = do(t, app, http.MethodPatch, "/items", token(t, jwtm, 2))
	assert.Equal(t, http.StatusForbidden, status)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	assert.Equal(t, "User does not have update permission for INV_MGMT", envelope["message"])

	status, body = do(t, app, http.MethodPatch, "/items", token(t, jwtm, 1))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "updated", body)
}

func TestOptionalAuth(t *testing.T) {
	app, jwtm := setup(t)

	_, body := do(t, app, http.MethodGet, "/items", "")
	assert.Equal(t, "anonymous", body)

	_, body = do(t, app, http.MethodGet, "/items", token(t, jwtm, 2))
	assert.Equal(t, "STAFF", body)

	_, body = do(t, app, http.MethodGet, "/items", "garbage")
	assert.Equal(t, "anonymous", body)
}

func TestRecoveryAndRequestID(t *testing.T) {
	app, _ := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(NewRateLimiter(1, 1).Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	status, _ := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, status)
}
