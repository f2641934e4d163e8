package category

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

// Controller 商品分类控制器
type Controller struct {
	repo Repository
}

// NewController 创建分类控制器
func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/categories"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create, Policy: authz.Allow("category:create", authz.RoleSuperAdmin)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Open("category:list")},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Open("category:get")},
		{Method: "PATCH", Path: "/:id", Handler: c.update, Policy: authz.Allow("category:update", authz.RoleSuperAdmin)},
		{Method: "DELETE", Path: "/:id", Handler: c.delete, Policy: authz.Allow("category:delete", authz.RoleSuperAdmin)},
	}
}

func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	cat, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, cat)
}

// Create 创建分类，名称唯一
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.Category, error) {
	if err := c.ensureUnique(ctx, req.Name); err != nil {
		return nil, err
	}
	cat := &model.Category{Name: req.Name, Description: req.Description, ImageURL: req.ImageURL}
	if err := c.repo.Create(ctx, cat); err != nil {
		return nil, errors.Internal(err)
	}
	return cat, nil
}

func (c *Controller) ensureUnique(ctx context.Context, name string) error {
	existing, err := c.repo.FindByName(ctx, name)
	if err != nil {
		return errors.Internal(err)
	}
	if existing != nil {
		return errors.Conflict("Category with this name already exists")
	}
	return nil
}

func (c *Controller) list(ctx *fiber.Ctx) error {
	list, err := c.repo.FindAll(ctx.UserContext(), nil, dal.WithOrder("name ASC"))
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
	cat, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, cat)
}

// Get 查询分类
func (c *Controller) Get(ctx context.Context, id int64) (*model.Category, error) {
	cat, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if cat == nil {
		return nil, errors.NotFound("Category not found")
	}
	return cat, nil
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
	cat, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, cat)
}

// Update 更新分类
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.Category, error) {
	cat, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && *req.Name != cat.Name {
		if err := c.ensureUnique(ctx, *req.Name); err != nil {
			return nil, err
		}
		cat.Name = *req.Name
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if req.ImageURL != nil {
		cat.ImageURL = *req.ImageURL
	}
	if err := c.repo.Update(ctx, cat); err != nil {
		return nil, errors.Internal(err)
	}
	return cat, nil
}

func (c *Controller) delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	if _, err := c.Get(ctx.UserContext(), id); err != nil {
		return response.Fail(ctx, err)
	}
	if err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.Fail(ctx, errors.Internal(err))
	}
	return response.SuccessWithMessage(ctx, "Category deleted successfully", nil)
}
