package shop

import (
	"context"

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
	"gorm.io/gorm"
)

// Controller 店铺控制器
type Controller struct {
	repo   Repository
	hasher *auth.PasswordHasher
}

// NewController 创建店铺控制器
func NewController(repo Repository, hasher *auth.PasswordHasher) *Controller {
	return &Controller{repo: repo, hasher: hasher}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/shops"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create, Policy: authz.Allow("shop:create", authz.RoleSuperAdmin)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Open("shop:list")},
		{Method: "GET", Path: "/code/:code", Handler: c.getByCode, Policy: authz.Open("shop:get-by-code")},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Open("shop:get")},
		{Method: "PATCH", Path: "/:id", Handler: c.update, Policy: authz.Allow("shop:update", authz.RoleSuperAdmin)},
		{Method: "DELETE", Path: "/:id", Handler: c.delete, Policy: authz.Allow("shop:delete", authz.RoleSuperAdmin)},
	}
}

// @Summary 创建店铺
// @Tags 店铺管理
// @Param request body CreateRequest true "创建店铺请求"
// @Router /shops [post]
func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	s, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, s)
}

// Create 创建店铺，携带管理员信息时在同一事务中创建店铺管理员
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.Shop, error) {
	dup, err := c.repo.FindConflict(ctx, req.Name, req.Code, 0)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if dup != nil {
		return nil, errors.Conflict("Shop with this name or code already exists")
	}

	var admin *model.User
	if req.withAdmin() {
		if req.AdminEmail == "" || req.AdminPassword == "" || req.AdminName == "" {
			return nil, errors.BadRequest("adminEmail, adminPassword, and adminName are required together when creating a shop admin user")
		}
		taken, err := c.repo.EmailTaken(ctx, req.AdminEmail)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if taken {
			return nil, errors.Conflict("User with this email already exists. Please use a different email for the shop admin.")
		}
		hashed, err := c.hasher.Hash(req.AdminPassword)
		if err != nil {
			return nil, errors.Internal(err)
		}
		admin = &model.User{
			Email:       req.AdminEmail,
			Password:    hashed,
			Name:        req.AdminName,
			Role:        authz.RoleShopAdmin,
			Permissions: []authz.Grant{},
			IsActive:    true,
		}
	}

	s := &model.Shop{
		Name:        req.Name,
		Code:        req.Code,
		Address:     req.Address,
		Email:       req.Email,
		Contact:     req.Contact,
		CategoryIDs: req.Categories,
		LogoURL:     req.LogoURL,
	}
	if s.CategoryIDs == nil {
		s.CategoryIDs = []int64{}
	}
	if req.Theme != nil {
		s.Theme = *req.Theme
	}

	err = c.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		if admin == nil {
			return nil
		}
		admin.ShopID = s.ID
		return tx.Create(admin).Error
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	fields := []zap.Field{zap.Int64("shopId", s.ID), zap.String("code", s.Code)}
	if admin != nil {
		fields = append(fields, zap.Int64("adminId", admin.ID))
	}
	logger.Info("shop created", fields...)
	return s, nil
}

// @Summary 店铺列表
// @Tags 店铺管理
// @Router /shops [get]
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
	s, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, s)
}

// Get 查询店铺
func (c *Controller) Get(ctx context.Context, id int64) (*model.Shop, error) {
	s, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if s == nil {
		return nil, errors.NotFound("Shop not found")
	}
	return s, nil
}

func (c *Controller) getByCode(ctx *fiber.Ctx) error {
	s, err := c.repo.FindByCode(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return response.Fail(ctx, errors.Internal(err))
	}
	if s == nil {
		return response.Fail(ctx, errors.NotFound("Shop not found"))
	}
	return response.Success(ctx, s)
}

// @Summary 更新店铺
// @Tags 店铺管理
// @Router /shops/{id} [patch]
func (c *Controller) update(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	s, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, s)
}

// Update 更新店铺
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.Shop, error) {
	s, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.Code != nil {
		s.Code = *req.Code
	}
	if req.Name != nil || req.Code != nil {
		dup, err := c.repo.FindConflict(ctx, s.Name, s.Code, s.ID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if dup != nil {
			return nil, errors.Conflict("Shop with this name or code already exists")
		}
	}
	if req.Address != nil {
		s.Address = *req.Address
	}
	if req.Email != nil {
		s.Email = *req.Email
	}
	if req.Contact != nil {
		s.Contact = *req.Contact
	}
	if req.Categories != nil {
		s.CategoryIDs = *req.Categories
	}
	if req.LogoURL != nil {
		s.LogoURL = *req.LogoURL
	}
	if req.Theme != nil {
		s.Theme = *req.Theme
	}
	if err := c.repo.Update(ctx, s); err != nil {
		return nil, errors.Internal(err)
	}
	return s, nil
}

// @Summary 删除店铺
// @Tags 店铺管理
// @Router /shops/{id} [delete]
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
	logger.Info("shop deleted", zap.Int64("shopId", id))
	return response.SuccessWithMessage(ctx, "Shop deleted successfully", nil)
}
