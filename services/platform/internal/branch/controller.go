package branch

import (
	"context"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/pkg/validate"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/gofiber/fiber/v2"
)

// Controller 分店控制器
type Controller struct {
	repo Repository
}

// NewController 创建分店控制器
func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/branches"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	admins := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin}
	readers := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff, authz.RoleCustomer}
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create, Policy: authz.Allow("branch:create", admins...)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Allow("branch:list", readers...)},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Allow("branch:get", readers...)},
		{Method: "PATCH", Path: "/:id", Handler: c.update, Policy: authz.Allow("branch:update", admins...)},
		{Method: "DELETE", Path: "/:id", Handler: c.delete, Policy: authz.Allow("branch:delete", admins...)},
	}
}

func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	b, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, b)
}

// Create 创建分店，非超级管理员只能为本店创建
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.Branch, error) {
	p, _ := authz.FromContext(ctx)
	if !p.Is(authz.RoleSuperAdmin) {
		if req.ShopID == 0 && p != nil {
			req.ShopID = p.ShopID
		}
		if p == nil || req.ShopID != p.ShopID {
			return nil, errors.Forbidden("You can only create branches for your shop")
		}
	}
	if req.ShopID == 0 {
		return nil, errors.Validation("shopId is required")
	}
	ok, err := c.repo.ShopExists(ctx, req.ShopID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Shop not found")
	}

	b := &model.Branch{Name: req.Name, ShopID: req.ShopID, Location: req.Location, GeoTag: req.GeoTag}
	if err := c.repo.Create(ctx, b); err != nil {
		return nil, errors.Internal(err)
	}
	return b, nil
}

func (c *Controller) list(ctx *fiber.Ctx) error {
	var req ListRequest
	if err := validate.Query(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	list, err := c.List(ctx.UserContext(), req.ShopID)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, list)
}

// List 分店列表，店铺内角色强制过滤为本店
func (c *Controller) List(ctx context.Context, shopID int64) ([]model.Branch, error) {
	p, _ := authz.FromContext(ctx)
	list, err := c.repo.FindByShop(ctx, authz.ScopeOf(p).ShopFilter(shopID))
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

func (c *Controller) get(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	b, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, b)
}

// Get 查询分店，跨店返回 Forbidden
func (c *Controller) Get(ctx context.Context, id int64) (*model.Branch, error) {
	b, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if b == nil {
		return nil, errors.NotFound("Branch not found")
	}
	p, _ := authz.FromContext(ctx)
	if err := authz.ScopeOf(p).CheckShop(b.ShopID); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Controller) update(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	b, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, b)
}

// Update 更新分店
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.Branch, error) {
	b, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Location != nil {
		b.Location = *req.Location
	}
	if req.GeoTag != nil {
		b.GeoTag = req.GeoTag
	}
	if err := c.repo.Update(ctx, b); err != nil {
		return nil, errors.Internal(err)
	}
	return b, nil
}

func (c *Controller) delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	if err := c.Delete(ctx.UserContext(), id); err != nil {
		return response.Fail(ctx, err)
	}
	return response.SuccessWithMessage(ctx, "Branch deleted successfully", nil)
}

// Delete 删除分店
func (c *Controller) Delete(ctx context.Context, id int64) error {
	if _, err := c.Get(ctx, id); err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return errors.Internal(err)
	}
	return nil
}
