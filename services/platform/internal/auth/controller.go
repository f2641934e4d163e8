package auth

import (
	"context"

	pkgAuth "github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/pkg/validate"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/user"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Controller 认证控制器
type Controller struct {
	users      user.Repository
	registrar  *user.Controller
	hasher     *pkgAuth.PasswordHasher
	jwtManager *pkgAuth.JWTManager
}

// NewController 创建认证控制器
func NewController(users user.Repository, registrar *user.Controller, hasher *pkgAuth.PasswordHasher, jwtManager *pkgAuth.JWTManager) *Controller {
	return &Controller{users: users, registrar: registrar, hasher: hasher, jwtManager: jwtManager}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/auth"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	return []router.Route{
		{Method: "POST", Path: "/signup", Handler: c.signup, Policy: authz.Open("auth:signup")},
		{Method: "POST", Path: "/login", Handler: c.login, Policy: authz.Open("auth:login")},
		{Method: "POST", Path: "/shop/login", Handler: c.shopLogin, Policy: authz.Open("auth:shop-login")},
		{Method: "POST", Path: "/refresh", Handler: c.refresh, Policy: authz.Authenticated("auth:refresh")},
		{Method: "GET", Path: "/me", Handler: c.me, Policy: authz.Authenticated("auth:me")},
	}
}

// @Summary 用户注册
// @Tags 认证
// @Param request body SignupRequest true "注册请求"
// @Router /auth/signup [post]
func (c *Controller) signup(ctx *fiber.Ctx) error {
	var req SignupRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	resp, err := c.Signup(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, resp)
}

// Signup 注册客户账号
func (c *Controller) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	u, err := c.registrar.Register(ctx, &model.User{
		Email:   req.Email,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Role:    authz.RoleCustomer,
	}, req.Password)
	if err != nil {
		return nil, err
	}
	return c.issue(u)
}

// @Summary 用户登录
// @Tags 认证
// @Param request body LoginRequest true "登录请求"
// @Router /auth/login [post]
func (c *Controller) login(ctx *fiber.Ctx) error {
	var req LoginRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	resp, err := c.Login(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, resp)
}

// Login 邮箱密码登录
func (c *Controller) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := c.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if u == nil {
		return nil, errors.Unauthorized("Invalid credentials")
	}
	if err := c.verify(u, req.Password); err != nil {
		return nil, err
	}
	return c.issue(u)
}

// @Summary 店铺后台登录
// @Tags 认证
// @Param request body ShopLoginRequest true "店铺登录请求"
// @Router /auth/shop/login [post]
func (c *Controller) shopLogin(ctx *fiber.Ctx) error {
	var req ShopLoginRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	resp, err := c.ShopLogin(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, resp)
}

// ShopLogin 店铺登录，仅平台和店铺角色可用
func (c *Controller) ShopLogin(ctx context.Context, req *ShopLoginRequest) (*AuthResponse, error) {
	u, err := c.users.FindOne(ctx, map[string]interface{}{"email": req.Email, "shop_id": req.ShopID})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if u == nil {
		return nil, errors.Unauthorized("Invalid credentials or shop association")
	}
	if err := c.verify(u, req.Password); err != nil {
		return nil, err
	}
	if !u.Role.HasShopAccess() {
		return nil, errors.Unauthorized("User does not have shop access")
	}
	return c.issue(u)
}

// @Summary 刷新令牌
// @Tags 认证
// @Router /auth/refresh [post]
func (c *Controller) refresh(ctx *fiber.Ctx) error {
	resp, err := c.Refresh(ctx.UserContext())
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, resp)
}

// Refresh 以当前主体重新签发令牌，角色和店铺取最新值
func (c *Controller) Refresh(ctx context.Context) (*AuthResponse, error) {
	u, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return c.issue(u)
}

// @Summary 当前用户
// @Tags 认证
// @Router /auth/me [get]
func (c *Controller) me(ctx *fiber.Ctx) error {
	u, err := c.current(ctx.UserContext())
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, userInfo(u))
}

func (c *Controller) current(ctx context.Context) (*model.User, error) {
	p, ok := authz.FromContext(ctx)
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	u, err := c.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if u == nil {
		return nil, errors.Unauthorized("User not found")
	}
	if !u.IsActive {
		return nil, errors.Unauthorized("Account is inactive")
	}
	return u, nil
}

func (c *Controller) verify(u *model.User, password string) error {
	if !c.hasher.Check(u.Password, password) {
		return errors.Unauthorized("Invalid credentials")
	}
	if !u.IsActive {
		return errors.Unauthorized("Account is inactive")
	}
	return nil
}

func (c *Controller) issue(u *model.User) (*AuthResponse, error) {
	token, err := c.jwtManager.CreateTokenInfo(pkgAuth.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		ShopID: u.ShopID,
		RoleID: u.RoleID,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	logger.Debug("token issued", zap.Int64("userId", u.ID), zap.String("role", string(u.Role)))
	return &AuthResponse{TokenInfo: token, User: userInfo(u)}, nil
}

func userInfo(u *model.User) *UserInfo {
	perms := u.Permissions
	if perms == nil {
		perms = []authz.Grant{}
	}
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		ShopID:      u.ShopID,
		RoleID:      u.RoleID,
		Permissions: perms,
	}
}
