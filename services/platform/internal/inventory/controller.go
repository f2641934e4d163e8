package inventory

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
	"github.com/shopspring/decimal"
)

// EntitlementCode 库存模块权益编码
const EntitlementCode = "INV_MGMT"

// Controller 库存控制器
type Controller struct {
	repo Repository
}

// NewController 创建库存控制器
func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/inventory"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	admins := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin}
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create,
			Policy: authz.Allow("inventory:create", admins...).Require(EntitlementCode, authz.VerbCreate)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Open("inventory:list")},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Open("inventory:get")},
		{Method: "PATCH", Path: "/:id", Handler: c.update,
			Policy: authz.Allow("inventory:update", admins...).Require(EntitlementCode, authz.VerbUpdate)},
		{Method: "DELETE", Path: "/:id", Handler: c.delete,
			Policy: authz.Allow("inventory:delete", admins...).Require(EntitlementCode, authz.VerbDelete)},
	}
}

// @Summary 创建商品
// @Tags 库存
// @Router /inventory [post]
func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	p, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, viewOf(p))
}

// Create 创建商品，SKU 在店铺内唯一
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.Product, error) {
	principal, _ := authz.FromContext(ctx)
	if authz.ScopeOf(principal).Restricted() {
		if req.ShopID == 0 {
			req.ShopID = principal.ShopID
		}
		if req.ShopID != principal.ShopID {
			return nil, errors.Forbidden("You can only create products for your shop")
		}
	}
	if req.ShopID == 0 {
		return nil, errors.Validation("shopId is required")
	}
	if err := checkAmounts(req.Price, req.GST); err != nil {
		return nil, err
	}

	existing, err := c.repo.FindBySKU(ctx, req.ShopID, req.SKU)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if existing != nil {
		return nil, errors.Conflict("Product with this SKU already exists in this shop")
	}
	if err := c.checkBranch(ctx, req.BranchID, req.ShopID); err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Unit:        req.Unit,
		Price:       req.Price,
		GST:         req.GST,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ShopID:      req.ShopID,
		BranchID:    req.BranchID,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	}
	if err := c.repo.Create(ctx, p); err != nil {
		return nil, errors.Internal(err)
	}
	return p, nil
}

func checkAmounts(price, gst decimal.Decimal) error {
	if price.IsNegative() {
		return errors.Validation("price must not be negative")
	}
	if gst.IsNegative() || gst.GreaterThan(decimal.NewFromInt(100)) {
		return errors.Validation("gst must be between 0 and 100")
	}
	return nil
}

func (c *Controller) checkBranch(ctx context.Context, branchID, shopID int64) error {
	if branchID == 0 {
		return nil
	}
	ok, err := c.repo.BranchInShop(ctx, branchID, shopID)
	if err != nil {
		return errors.Internal(err)
	}
	if !ok {
		return errors.BadRequest("Branch does not belong to this shop")
	}
	return nil
}

// @Summary 商品列表
// @Tags 库存
// @Router /inventory [get]
func (c *Controller) list(ctx *fiber.Ctx) error {
	var req ListRequest
	if err := validate.Query(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	list, err := c.List(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, viewsOf(list))
}

// List 商品列表，店铺内角色只看到本店
func (c *Controller) List(ctx context.Context, req *ListRequest) ([]model.Product, error) {
	p, _ := authz.FromContext(ctx)
	req.ShopID = authz.ScopeOf(p).ShopFilter(req.ShopID)
	list, err := c.repo.List(ctx, req)
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
	p, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, viewOf(p))
}

// Get 查询商品
func (c *Controller) Get(ctx context.Context, id int64) (*model.Product, error) {
	p, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if p == nil {
		return nil, errors.NotFound("Product not found")
	}
	principal, _ := authz.FromContext(ctx)
	if err := authz.ScopeOf(principal).CheckShop(p.ShopID); err != nil {
		return nil, err
	}
	return p, nil
}

// @Summary 更新商品
// @Tags 库存
// @Router /inventory/{id} [patch]
func (c *Controller) update(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	p, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, viewOf(p))
}

// Update 更新商品
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.Product, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.GST != nil {
		p.GST = *req.GST
	}
	if err := checkAmounts(p.Price, p.GST); err != nil {
		return nil, err
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	if req.BranchID != nil {
		if err := c.checkBranch(ctx, *req.BranchID, p.ShopID); err != nil {
			return nil, err
		}
		p.BranchID = *req.BranchID
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if err := c.repo.Update(ctx, p); err != nil {
		return nil, errors.Internal(err)
	}
	return p, nil
}

func (c *Controller) delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	if err := c.Delete(ctx.UserContext(), id); err != nil {
		return response.Fail(ctx, err)
	}
	return response.SuccessWithMessage(ctx, "Product deleted successfully", nil)
}

// Delete 删除商品
func (c *Controller) Delete(ctx context.Context, id int64) error {
	if _, err := c.Get(ctx, id); err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return errors.Internal(err)
	}
	return nil
}
