package shopentitlement

import (
	"context"
	"fmt"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/pkg/validate"
	"github.com/agrismart/services/platform/internal/entitlement"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Controller 店铺权益控制器
type Controller struct {
	repo         Repository
	entitlements entitlement.Repository
}

// NewController 创建店铺权益控制器
func NewController(repo Repository, entitlements entitlement.Repository) *Controller {
	return &Controller{repo: repo, entitlements: entitlements}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/shops/:shopId/entitlements"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.assign, Policy: authz.Allow("shop-entitlement:assign", authz.RoleSuperAdmin)},
		{Method: "POST", Path: "/bulk", Handler: c.assignBulk, Policy: authz.Allow("shop-entitlement:assign-bulk", authz.RoleSuperAdmin)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Allow("shop-entitlement:list", authz.RoleSuperAdmin, authz.RoleShopAdmin)},
		{Method: "PATCH", Path: "/:entitlementId/permissions", Handler: c.updatePermissions, Policy: authz.Allow("shop-entitlement:update", authz.RoleSuperAdmin)},
		{Method: "DELETE", Path: "/:entitlementId", Handler: c.remove, Policy: authz.Allow("shop-entitlement:remove", authz.RoleSuperAdmin)},
	}
}

// @Summary 为店铺开通权益
// @Tags 店铺权益
// @Param shopId path int true "店铺ID"
// @Param request body AssignRequest true "开通请求"
// @Router /shops/{shopId}/entitlements [post]
func (c *Controller) assign(ctx *fiber.Ctx) error {
	shopID, err := dal.ParseID(ctx.Params("shopId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req AssignRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	se, err := c.Assign(ctx.UserContext(), shopID, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, se)
}

// Assign 开通单个权益
func (c *Controller) Assign(ctx context.Context, shopID int64, req *AssignRequest) (*model.ShopEntitlement, error) {
	ok, err := c.repo.ShopExists(ctx, shopID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Shop not found")
	}

	ent, err := c.entitlements.FindByID(ctx, req.EntitlementID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if ent == nil {
		return nil, errors.NotFound("Entitlement not found")
	}

	existing, err := c.repo.FindByShopAndEntitlement(ctx, shopID, req.EntitlementID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if existing != nil {
		return nil, errors.Conflict("Entitlement already assigned to this shop")
	}

	allowed := ent.ApplicablePermissions.Enabled()
	if req.AllowedPermissions != nil {
		if err := withinCatalog(ent, *req.AllowedPermissions); err != nil {
			return nil, err
		}
		allowed = *req.AllowedPermissions
	}
	var assignedBy int64
	if p, ok := authz.FromContext(ctx); ok {
		assignedBy = p.UserID
	}

	se := &model.ShopEntitlement{
		ShopID:             shopID,
		EntitlementID:      ent.ID,
		EntitlementCode:    authz.NormalizeCode(ent.Code),
		ModuleName:         ent.ModuleName,
		AllowedPermissions: allowed,
		AssignedBy:         assignedBy,
	}
	if err := c.repo.Create(ctx, se); err != nil {
		return nil, errors.Internal(err)
	}
	logger.Info("entitlement assigned to shop",
		zap.Int64("shopId", shopID),
		zap.String("code", se.EntitlementCode),
		zap.Int64("assignedBy", assignedBy),
	)
	return se, nil
}

// @Summary 批量开通权益
// @Tags 店铺权益
// @Router /shops/{shopId}/entitlements/bulk [post]
func (c *Controller) assignBulk(ctx *fiber.Ctx) error {
	shopID, err := dal.ParseID(ctx.Params("shopId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req BulkAssignRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, c.AssignMultiple(ctx.UserContext(), shopID, &req))
}

// AssignMultiple 逐项开通，单项失败不影响其他项
func (c *Controller) AssignMultiple(ctx context.Context, shopID int64, req *BulkAssignRequest) *BulkResult {
	result := &BulkResult{
		Results: make([]model.ShopEntitlement, 0, len(req.Entitlements)),
		Errors:  make([]BulkError, 0),
	}
	for i := range req.Entitlements {
		item := req.Entitlements[i]
		se, err := c.Assign(ctx, shopID, &item)
		if err != nil {
			result.Errors = append(result.Errors, BulkError{
				EntitlementID: item.EntitlementID,
				Error:         errors.GetMessage(err),
			})
			continue
		}
		result.Results = append(result.Results, *se)
	}
	result.Success = len(result.Results)
	result.Failed = len(result.Errors)
	return result
}

// @Summary 店铺权益列表
// @Tags 店铺权益
// @Router /shops/{shopId}/entitlements [get]
func (c *Controller) list(ctx *fiber.Ctx) error {
	shopID, err := dal.ParseID(ctx.Params("shopId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	list, err := c.List(ctx.UserContext(), shopID)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, list)
}

// List 店铺全部授权，店铺管理员仅限本店
func (c *Controller) List(ctx context.Context, shopID int64) ([]model.ShopEntitlement, error) {
	p, _ := authz.FromContext(ctx)
	if err := authz.ScopeOf(p).CheckShop(shopID); err != nil {
		return nil, err
	}
	ok, err := c.repo.ShopExists(ctx, shopID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Shop not found")
	}
	list, err := c.repo.FindByShop(ctx, shopID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// @Summary 替换店铺权益动作上限
// @Tags 店铺权益
// @Router /shops/{shopId}/entitlements/{entitlementId}/permissions [patch]
func (c *Controller) updatePermissions(ctx *fiber.Ctx) error {
	shopID, err := dal.ParseID(ctx.Params("shopId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	entitlementID, err := dal.ParseID(ctx.Params("entitlementId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdatePermissionsRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	se, err := c.UpdatePermissions(ctx.UserContext(), shopID, entitlementID, req.AllowedPermissions)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, se)
}

// UpdatePermissions 整体替换动作上限，已有角色不重新校验
func (c *Controller) UpdatePermissions(ctx context.Context, shopID, entitlementID int64, allowed authz.Permissions) (*model.ShopEntitlement, error) {
	se, err := c.repo.FindByShopAndEntitlement(ctx, shopID, entitlementID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if se == nil {
		return nil, errors.NotFound("Shop entitlement not found")
	}
	ent, err := c.entitlements.FindByID(ctx, entitlementID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if ent == nil {
		return nil, errors.NotFound("Entitlement not found")
	}
	if err := withinCatalog(ent, allowed); err != nil {
		return nil, err
	}
	se.AllowedPermissions = allowed
	if err := c.repo.Update(ctx, se); err != nil {
		return nil, errors.Internal(err)
	}
	return se, nil
}

// @Summary 移除店铺权益
// @Tags 店铺权益
// @Router /shops/{shopId}/entitlements/{entitlementId} [delete]
func (c *Controller) remove(ctx *fiber.Ctx) error {
	shopID, err := dal.ParseID(ctx.Params("shopId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	entitlementID, err := dal.ParseID(ctx.Params("entitlementId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	if err := c.Remove(ctx.UserContext(), shopID, entitlementID); err != nil {
		return response.Fail(ctx, err)
	}
	return response.SuccessWithMessage(ctx, "Entitlement removed from shop successfully", nil)
}

// Remove 移除授权
func (c *Controller) Remove(ctx context.Context, shopID, entitlementID int64) error {
	n, err := c.repo.DeleteByShopAndEntitlement(ctx, shopID, entitlementID)
	if err != nil {
		return errors.Internal(err)
	}
	if n == 0 {
		return errors.NotFound("Shop entitlement not found")
	}
	logger.Info("entitlement removed from shop", zap.Int64("shopId", shopID), zap.Int64("entitlementId", entitlementID))
	return nil
}

// withinCatalog 店铺授权只能收窄目录声明的可用动作
func withinCatalog(ent *model.Entitlement, allowed authz.Permissions) error {
	if v, ok := allowed.Exceeding(ent.ApplicablePermissions.Enabled()); ok {
		return errors.BadRequest(fmt.Sprintf("%s permission not applicable for %s", v.Title(), authz.NormalizeCode(ent.Code)))
	}
	return nil
}
