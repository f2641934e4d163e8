package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgAuth "github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/config"
	"github.com/agrismart/pkg/middleware"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/services/platform/internal/testutil"
	"github.com/agrismart/services/platform/internal/user"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) (*fiber.App, *gorm.DB, *pkgAuth.PasswordHasher) {
	db := testutil.NewDB(t)
	repo := user.NewRepository(db)
	hasher := pkgAuth.NewPasswordHasher(4)
	principals := user.NewPrincipalStore(repo, nil, 0)
	jwtm := pkgAuth.NewJWTManager(&config.JWTConfig{Secret: "test-secret", Issuer: "test", Expire: 3600})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	engine := authz.NewEngine()
	middlewares := map[string]fiber.Handler{
		router.MiddlewareAuth:     middleware.JWTAuth(jwtm, principals),
		router.MiddlewareOptional: middleware.OptionalAuth(jwtm, principals),
	}
	guard := func(p authz.Policy) fiber.Handler { return middleware.Guard(engine, p) }
	router.Register(app, middlewares, guard,
		NewController(repo, user.NewController(repo, hasher, principals), hasher, jwtm))
	return app, db, hasher
}

func call(t *testing.T, app *fiber.App, method, path, body, token string) (int, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp.StatusCode, env
}

func TestSignupLoginMe(t *testing.T) {
	app, _, _ := newApp(t)

	status, env := call(t, app, "POST", "/auth/signup", `{"email":"farmer@x.com","password":"secret1","name":"Farmer","role":"SUPER_ADMIN"}`, "")
	require.Equal(t, http.StatusCreated, status)
	var signup AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &signup))
	assert.Equal(t, authz.RoleCustomer, signup.User.Role)
	assert.Equal(t, "Bearer", signup.TokenType)

	status, env = call(t, app, "POST", "/auth/signup", `{"email":"farmer@x.com","password":"secret1","name":"Again"}`, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User with this email already exists", env.Message)

	status, env = call(t, app, "POST", "/auth/login", `{"email":"farmer@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", env.Message)

	status, env = call(t, app, "POST", "/auth/login", `{"email":"farmer@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, status)
	var login AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)

	status, env = call(t, app, "GET", "/auth/me", "", login.AccessToken)
	require.Equal(t, http.StatusOK, status)
	var me UserInfo
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "farmer@x.com", me.Email)
	assert.NotNil(t, me.Permissions)

	status, _ = call(t, app, "GET", "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = call(t, app, "POST", "/auth/refresh", "", login.AccessToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestSignup_Validation(t *testing.T) {
	app, _, _ := newApp(t)
	status, env := call(t, app, "POST", "/auth/signup", `{"email":"bad","password":"secret1","name":"X"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email must be a valid email address", env.Message)
}

func TestLogin_Inactive(t *testing.T) {
	app, db, hasher := newApp(t)
	u := testutil.CreateUser(t, db, "off@x.com", authz.RoleStaff, 1)
	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)
	require.NoError(t, db.Model(u).Updates(map[string]interface{}{"password": hashed, "is_active": false}).Error)

	status, env := call(t, app, "POST", "/auth/login", `{"email":"off@x.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account is inactive", env.Message)
}

func TestShopLogin(t *testing.T) {
	app, db, hasher := newApp(t)
	shop := testutil.CreateShop(t, db, "S1")
	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)

	staff := testutil.CreateUser(t, db, "staff@x.com", authz.RoleStaff, shop.ID)
	customer := testutil.CreateUser(t, db, "cust@x.com", authz.RoleCustomer, shop.ID)
	require.NoError(t, db.Model(staff).Update("password", hashed).Error)
	require.NoError(t, db.Model(customer).Update("password", hashed).Error)

	body := func(email string, shopID int64) string {
		b, _ := json.Marshal(ShopLoginRequest{Email: email, Password: "secret1", ShopID: shopID})
		return string(b)
	}

	status, env := call(t, app, "POST", "/auth/shop/login", body("staff@x.com", shop.ID), "")
	require.Equal(t, http.StatusOK, status)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, shop.ID, resp.User.ShopID)

	status, env = call(t, app, "POST", "/auth/shop/login", body("cust@x.com", shop.ID), "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User does not have shop access", env.Message)

	status, env = call(t, app, "POST", "/auth/shop/login", body("staff@x.com", shop.ID+1), "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials or shop association", env.Message)
}
