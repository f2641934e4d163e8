package entitlement

import (
	"context"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/lifecycle"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/pkg/validate"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Invalidator 跨节点缓存失效
type Invalidator interface {
	Invalidate(module, key string) error
}

// Controller 权益目录控制器
type Controller struct {
	repo        Repository
	invalidator Invalidator
}

// NewController 创建权益目录控制器
func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// UseBroadcaster 接入生命周期缓存广播，其他节点的变更会淘汰本地缓存
func (c *Controller) UseBroadcaster(b *lifecycle.CacheBroadcaster) {
	b.Subscribe(lifecycle.ModuleEntitlement, c.repo.Evict)
	c.invalidator = b
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/entitlements"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	admins := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin}
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create, Policy: authz.Allow("entitlement:create", authz.RoleSuperAdmin)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Allow("entitlement:list", admins...)},
		{Method: "GET", Path: "/code/:code", Handler: c.getByCode, Policy: authz.Allow("entitlement:get-by-code", admins...)},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Allow("entitlement:get", admins...)},
		{Method: "PATCH", Path: "/:id", Handler: c.update, Policy: authz.Allow("entitlement:update", authz.RoleSuperAdmin)},
		{Method: "DELETE", Path: "/:id", Handler: c.delete, Policy: authz.Allow("entitlement:delete", authz.RoleSuperAdmin)},
	}
}

// @Summary 创建权益
// @Tags 权益目录
// @Param request body CreateRequest true "创建权益请求"
// @Router /entitlements [post]
func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	e, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, e)
}

// Create 创建权益，编码统一大写，重复返回 Conflict
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.Entitlement, error) {
	code := authz.NormalizeCode(req.Code)
	existing, err := c.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if existing != nil {
		return nil, errors.Conflict("Entitlement with this code already exists")
	}

	applicable := authz.DefaultApplicable()
	if req.ApplicablePermissions != nil {
		applicable = *req.ApplicablePermissions
	}
	e := &model.Entitlement{
		Code:                  code,
		Name:                  req.Name,
		ModuleCode:            authz.NormalizeCode(req.ModuleCode),
		ModuleName:            req.ModuleName,
		ApplicablePermissions: applicable,
		Category:              req.Category,
		Description:           req.Description,
	}
	if err := c.repo.Create(ctx, e); err != nil {
		return nil, errors.Internal(err)
	}
	logger.Info("entitlement created", zap.String("code", e.Code))
	return e, nil
}

// @Summary 权益列表
// @Tags 权益目录
// @Router /entitlements [get]
func (c *Controller) list(ctx *fiber.Ctx) error {
	list, err := c.repo.FindAllByName(ctx.UserContext())
	if err != nil {
		return response.Fail(ctx, errors.Internal(err))
	}
	return response.Success(ctx, list)
}

func (c *Controller) get(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	e, err := c.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, e)
}

// FindByID 按ID查找
func (c *Controller) FindByID(ctx context.Context, id int64) (*model.Entitlement, error) {
	e, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if e == nil {
		return nil, errors.NotFound("Entitlement not found")
	}
	return e, nil
}

// @Summary 按编码查询权益
// @Tags 权益目录
// @Param code path string true "权益编码，大小写不敏感"
// @Router /entitlements/code/{code} [get]
func (c *Controller) getByCode(ctx *fiber.Ctx) error {
	e, err := c.FindByCode(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, e)
}

// FindByCode 按编码查找
func (c *Controller) FindByCode(ctx context.Context, code string) (*model.Entitlement, error) {
	e, err := c.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if e == nil {
		return nil, errors.NotFound("Entitlement not found")
	}
	return e, nil
}

// @Summary 更新权益
// @Tags 权益目录
// @Router /entitlements/{id} [patch]
func (c *Controller) update(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	e, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, e)
}

// Update 更新权益，不级联到店铺授权和角色
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.Entitlement, error) {
	e, err := c.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCode := e.Code

	if req.Code != nil {
		code := authz.NormalizeCode(*req.Code)
		if code != e.Code {
			dup, err := c.repo.FindByCode(ctx, code)
			if err != nil {
				return nil, errors.Internal(err)
			}
			if dup != nil {
				return nil, errors.Conflict("Entitlement with this code already exists")
			}
			e.Code = code
		}
	}
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.ModuleCode != nil {
		e.ModuleCode = authz.NormalizeCode(*req.ModuleCode)
	}
	if req.ModuleName != nil {
		e.ModuleName = *req.ModuleName
	}
	if req.ApplicablePermissions != nil {
		e.ApplicablePermissions = *req.ApplicablePermissions
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Description != nil {
		e.Description = *req.Description
	}

	if err := c.repo.Update(ctx, e); err != nil {
		return nil, errors.Internal(err)
	}
	c.evict(oldCode)
	if e.Code != oldCode {
		c.evict(e.Code)
	}
	return e, nil
}

// @Summary 删除权益
// @Tags 权益目录
// @Router /entitlements/{id} [delete]
func (c *Controller) delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	if err := c.Delete(ctx.UserContext(), id); err != nil {
		return response.Fail(ctx, err)
	}
	return response.SuccessWithMessage(ctx, "Entitlement deleted successfully", nil)
}

// Delete 删除权益，已引用该编码的店铺授权和角色保持原样
func (c *Controller) Delete(ctx context.Context, id int64) error {
	e, err := c.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return errors.Internal(err)
	}
	c.evict(e.Code)
	logger.Info("entitlement deleted", zap.String("code", e.Code))
	return nil
}

// evict 先淘汰本节点，再广播给其他节点
func (c *Controller) evict(code string) {
	c.repo.Evict(code)
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.Invalidate(lifecycle.ModuleEntitlement, code); err != nil {
		logger.Warn("broadcast entitlement invalidation failed", zap.String("code", code), zap.Error(err))
	}
}
