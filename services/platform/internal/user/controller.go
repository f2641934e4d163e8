package user

import (
	"context"
	"fmt"

	"github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/pkg/validate"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Controller 用户控制器（融合了Service层）
type Controller struct {
	repo       Repository
	hasher     *auth.PasswordHasher
	principals *PrincipalStore
}

// NewController 创建用户控制器
func NewController(repo Repository, hasher *auth.PasswordHasher, principals *PrincipalStore) *Controller {
	return &Controller{repo: repo, hasher: hasher, principals: principals}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/users"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	admins := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin}
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create, Policy: authz.Allow("user:create", admins...)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Allow("user:list", admins...)},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Allow("user:get", admins...)},
		{Method: "PATCH", Path: "/:id", Handler: c.update, Policy: authz.Allow("user:update", admins...)},
		{Method: "DELETE", Path: "/:id", Handler: c.delete, Policy: authz.Allow("user:delete", admins...)},
	}
}

// @Summary 创建用户
// @Tags 用户管理
// @Param request body CreateRequest true "创建用户请求"
// @Router /users [post]
func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	u, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, u)
}

// Create 创建用户，店铺管理员只能在本店创建员工和配送员
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.User, error) {
	p, _ := authz.FromContext(ctx)
	if p.Is(authz.RoleShopAdmin) {
		if req.Role != authz.RoleStaff && req.Role != authz.RoleDelivery {
			return nil, errors.Forbidden("You can only create STAFF and DELIVERY users")
		}
		if req.ShopID != 0 && req.ShopID != p.ShopID {
			return nil, errors.Forbidden("You can only create users for your shop")
		}
		req.ShopID = p.ShopID
	}

	if err := c.checkShop(ctx, req.Role, req.ShopID); err != nil {
		return nil, err
	}

	return c.Register(ctx, &model.User{
		Email:   req.Email,
		Name:    req.Name,
		Role:    req.Role,
		ShopID:  req.ShopID,
		Phone:   req.Phone,
		Address: req.Address,
	}, req.Password)
}

// checkShop 店铺角色必须归属已存在的店铺
func (c *Controller) checkShop(ctx context.Context, role authz.Role, shopID int64) error {
	if shopID == 0 {
		if role.ShopScoped() {
			return errors.BadRequest(fmt.Sprintf("shopId is required for %s users", role))
		}
		return nil
	}
	ok, err := c.repo.ShopExists(ctx, shopID)
	if err != nil {
		return errors.Internal(err)
	}
	if !ok {
		return errors.NotFound("Shop not found")
	}
	return nil
}

// Register 校验邮箱唯一后写入用户，权限快照为空
func (c *Controller) Register(ctx context.Context, u *model.User, password string) (*model.User, error) {
	existing, err := c.repo.FindByEmail(ctx, u.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if existing != nil {
		return nil, errors.Conflict("User with this email already exists")
	}

	hashed, err := c.hasher.Hash(password)
	if err != nil {
		return nil, errors.Internal(err)
	}
	u.Password = hashed
	u.Permissions = []authz.Grant{}
	u.IsActive = true

	if err := c.repo.Create(ctx, u); err != nil {
		return nil, errors.Internal(err)
	}
	logger.Info("user created", zap.Int64("userId", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// @Summary 用户列表
// @Tags 用户管理
// @Router /users [get]
func (c *Controller) list(ctx *fiber.Ctx) error {
	var req ListRequest
	if err := validate.Query(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	result, err := c.List(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.SuccessPage(ctx, result.List, result.Total, result.Page, result.PageSize)
}

// List 用户列表，店铺管理员只看到本店
func (c *Controller) List(ctx context.Context, req *ListRequest) (*dal.PagedResult[model.User], error) {
	p, _ := authz.FromContext(ctx)
	req.ShopID = authz.ScopeOf(p).ShopFilter(req.ShopID)
	result, err := c.repo.List(ctx, req)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return result, nil
}

func (c *Controller) get(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	u, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, u)
}

// Get 查询用户，跨店访问返回 Forbidden
func (c *Controller) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if u == nil {
		return nil, errors.NotFound("User not found")
	}
	p, _ := authz.FromContext(ctx)
	if err := authz.ScopeOf(p).CheckShop(u.ShopID); err != nil {
		return nil, err
	}
	return u, nil
}

// @Summary 更新用户
// @Tags 用户管理
// @Router /users/{id} [patch]
func (c *Controller) update(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	u, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, u)
}

// Update 更新用户资料，店铺管理员不能修改所属店铺
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.User, error) {
	u, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, _ := authz.FromContext(ctx)

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.ShopID != nil && !p.Is(authz.RoleShopAdmin) {
		if err := c.checkShop(ctx, u.Role, *req.ShopID); err != nil {
			return nil, err
		}
		u.ShopID = *req.ShopID
	}

	if err := c.repo.Update(ctx, u); err != nil {
		return nil, errors.Internal(err)
	}
	c.principals.Evict(ctx, u.ID)
	return u, nil
}

// @Summary 删除用户
// @Tags 用户管理
// @Router /users/{id} [delete]
func (c *Controller) delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	if err := c.Delete(ctx.UserContext(), id); err != nil {
		return response.Fail(ctx, err)
	}
	return response.SuccessWithMessage(ctx, "User deleted successfully", nil)
}

// Delete 删除用户，不能删除自己
func (c *Controller) Delete(ctx context.Context, id int64) error {
	u, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if u == nil {
		return errors.NotFound("User not found")
	}
	p, _ := authz.FromContext(ctx)
	if p != nil && p.UserID == u.ID {
		return errors.Forbidden("You cannot delete yourself")
	}
	if err := authz.ScopeOf(p).CheckShop(u.ShopID); err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return errors.Internal(err)
	}
	c.principals.Evict(ctx, id)
	logger.Info("user deleted", zap.Int64("userId", id))
	return nil
}
