package role

import (
	"context"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/metrics"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/pkg/validate"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/shopentitlement"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PrincipalEvictor 快照变更后淘汰主体缓存
type PrincipalEvictor interface {
	Evict(ctx context.Context, userIDs ...int64)
}

// Controller 角色控制器
type Controller struct {
	repo       Repository
	grants     shopentitlement.Repository
	principals PrincipalEvictor
}

// NewController 创建角色控制器
func NewController(repo Repository, grants shopentitlement.Repository, principals PrincipalEvictor) *Controller {
	return &Controller{repo: repo, grants: grants, principals: principals}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/roles"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	admins := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin}
	return []router.Route{
		{Method: "POST", Path: "/shop/:shopId", Handler: c.create, Policy: authz.Allow("role:create", admins...)},
		{Method: "GET", Path: "/shop/:shopId", Handler: c.list, Policy: authz.Allow("role:list", admins...)},
		{Method: "POST", Path: "/users/:userId/role/:roleId", Handler: c.assign, Policy: authz.Allow("role:assign", admins...)},
		{Method: "DELETE", Path: "/users/:userId/role", Handler: c.unassign, Policy: authz.Allow("role:unassign", admins...)},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Allow("role:get", admins...)},
		{Method: "PATCH", Path: "/:id", Handler: c.update, Policy: authz.Allow("role:update", admins...)},
		{Method: "DELETE", Path: "/:id", Handler: c.delete, Policy: authz.Allow("role:delete", admins...)},
	}
}

// @Summary 创建店铺角色
// @Tags 角色管理
// @Param shopId path int true "店铺ID"
// @Param request body CreateRequest true "创建角色请求"
// @Router /roles/shop/{shopId} [post]
func (c *Controller) create(ctx *fiber.Ctx) error {
	shopID, err := dal.ParseID(ctx.Params("shopId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	r, err := c.Create(ctx.UserContext(), shopID, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, r)
}

// Create 创建角色，每项权益必须已为店铺开通且动作不超过上限
func (c *Controller) Create(ctx context.Context, shopID int64, req *CreateRequest) (*model.Role, error) {
	ok, err := c.repo.ShopExists(ctx, shopID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Shop not found")
	}

	p, _ := authz.FromContext(ctx)
	if p == nil {
		return nil, errors.NotFound("User not found")
	}
	if !p.Is(authz.RoleSuperAdmin) && p.ShopID != shopID {
		return nil, errors.Forbidden("You can only create roles for your shop")
	}

	code := authz.NormalizeCode(req.RoleCode)
	existing, err := c.repo.FindByShopAndCode(ctx, shopID, code)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if existing != nil {
		return nil, errors.Conflict("Role with this code already exists for this shop")
	}

	entries, err := c.checkEntries(ctx, shopID, req.EntitlementPermissions)
	if err != nil {
		return nil, err
	}

	r := &model.Role{
		ShopID:                 shopID,
		RoleName:               req.RoleName,
		RoleCode:               code,
		CreatedBy:              p.UserID,
		EntitlementPermissions: entries,
		IsActive:               true,
		Description:            req.Description,
	}
	if err := c.repo.Create(ctx, r); err != nil {
		return nil, persistErr(err)
	}
	logger.Info("role created", zap.Int64("shopId", shopID), zap.String("roleCode", code), zap.Int64("createdBy", p.UserID))
	return r, nil
}

// persistErr 并发写入同一店铺编码时唯一索引兜底
func persistErr(err error) error {
	if dal.IsDuplicate(err) {
		return errors.Conflict("Role with this code already exists for this shop")
	}
	return errors.Internal(err)
}

// checkEntries 规范化编码并按店铺授权上限校验
func (c *Controller) checkEntries(ctx context.Context, shopID int64, entries []authz.RoleEntry) ([]authz.RoleEntry, error) {
	ceilings, err := c.grants.Ceilings(ctx, shopID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	normalized := make([]authz.RoleEntry, len(entries))
	for i, e := range entries {
		normalized[i] = e.Normalize()
	}
	if err := authz.CheckCeiling(normalized, ceilings); err != nil {
		return nil, err
	}
	return normalized, nil
}

// @Summary 店铺角色列表
// @Tags 角色管理
// @Router /roles/shop/{shopId} [get]
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

// List 店铺角色，店铺管理员只能查看本店
func (c *Controller) List(ctx context.Context, shopID int64) ([]model.Role, error) {
	p, _ := authz.FromContext(ctx)
	if authz.ScopeOf(p).Restricted() && p.ShopID != shopID {
		return nil, errors.Forbidden("You can only view roles for your shop")
	}
	list, err := c.repo.FindByShop(ctx, shopID)
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
	r, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, r)
}

// Get 查询角色，跨店访问返回 Forbidden
func (c *Controller) Get(ctx context.Context, id int64) (*model.Role, error) {
	r, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if r == nil {
		return nil, errors.NotFound("Role not found")
	}
	p, _ := authz.FromContext(ctx)
	if err := authz.ScopeOf(p).CheckShop(r.ShopID); err != nil {
		return nil, err
	}
	return r, nil
}

// @Summary 更新角色
// @Tags 角色管理
// @Router /roles/{id} [patch]
func (c *Controller) update(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	r, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, r)
}

// Update 更新角色定义，已分配用户的快照保持不变，直到重新分配
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.Role, error) {
	r, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RoleCode != nil {
		code := authz.NormalizeCode(*req.RoleCode)
		if code != r.RoleCode {
			dup, err := c.repo.FindByShopAndCode(ctx, r.ShopID, code)
			if err != nil {
				return nil, errors.Internal(err)
			}
			if dup != nil {
				return nil, errors.Conflict("Role with this code already exists for this shop")
			}
			r.RoleCode = code
		}
	}
	if req.EntitlementPermissions != nil {
		entries, err := c.checkEntries(ctx, r.ShopID, *req.EntitlementPermissions)
		if err != nil {
			return nil, err
		}
		r.EntitlementPermissions = entries
	}
	if req.RoleName != nil {
		r.RoleName = *req.RoleName
	}
	if req.IsActive != nil {
		r.IsActive = *req.IsActive
	}
	if req.Description != nil {
		r.Description = *req.Description
	}

	if err := c.repo.Update(ctx, r); err != nil {
		return nil, persistErr(err)
	}
	logger.Info("role updated", zap.Int64("roleId", r.ID), zap.Int64("shopId", r.ShopID))
	return r, nil
}

// @Summary 删除角色
// @Tags 角色管理
// @Router /roles/{id} [delete]
func (c *Controller) delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	if err := c.Delete(ctx.UserContext(), id); err != nil {
		return response.Fail(ctx, err)
	}
	return response.SuccessWithMessage(ctx, "Role deleted successfully", nil)
}

// Delete 删除未被任何用户引用的角色
func (c *Controller) Delete(ctx context.Context, id int64) error {
	if _, err := c.Get(ctx, id); err != nil {
		return err
	}
	n, err := c.repo.DeleteUnused(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if n == 0 {
		still, err := c.repo.Exists(ctx, map[string]interface{}{"id": id})
		if err != nil {
			return errors.Internal(err)
		}
		if !still {
			return errors.NotFound("Role not found")
		}
		return errors.BadRequest("Cannot delete role. There are users assigned to this role.")
	}
	logger.Info("role deleted", zap.Int64("roleId", id))
	return nil
}

// @Summary 为用户分配角色
// @Tags 角色管理
// @Param userId path int true "用户ID"
// @Param roleId path int true "角色ID"
// @Router /roles/users/{userId}/role/{roleId} [post]
func (c *Controller) assign(ctx *fiber.Ctx) error {
	userID, err := dal.ParseID(ctx.Params("userId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	roleID, err := dal.ParseID(ctx.Params("roleId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	u, err := c.AssignRoleToUser(ctx.UserContext(), userID, roleID)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, u)
}

// AssignRoleToUser 将角色的当前定义复制为用户权限快照
func (c *Controller) AssignRoleToUser(ctx context.Context, userID, roleID int64) (*model.User, error) {
	p, _ := authz.FromContext(ctx)
	u, err := c.repo.AssignToUser(ctx, userID, roleID, func(u *model.User, r *model.Role) error {
		if p.Is(authz.RoleShopAdmin) && (u.ShopID != p.ShopID || r.ShopID != p.ShopID) {
			return errors.ErrAccessDenied
		}
		if u.ShopID != r.ShopID {
			return errors.BadRequest("User and role must belong to the same shop")
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	c.principals.Evict(ctx, u.ID)
	metrics.SnapshotWrites.WithLabelValues("assign").Inc()
	logger.Info("role assigned", zap.Int64("userId", u.ID), zap.Int64("roleId", roleID), zap.Int("grants", len(u.Permissions)))
	return u, nil
}

// @Summary 移除用户角色
// @Tags 角色管理
// @Router /roles/users/{userId}/role [delete]
func (c *Controller) unassign(ctx *fiber.Ctx) error {
	userID, err := dal.ParseID(ctx.Params("userId"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	u, err := c.RemoveRoleFromUser(ctx.UserContext(), userID)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, u)
}

// RemoveRoleFromUser 清空角色和快照
func (c *Controller) RemoveRoleFromUser(ctx context.Context, userID int64) (*model.User, error) {
	p, _ := authz.FromContext(ctx)
	u, err := c.repo.RemoveFromUser(ctx, userID, func(u *model.User) error {
		if p.Is(authz.RoleShopAdmin) && u.ShopID != p.ShopID {
			return errors.ErrAccessDenied
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	c.principals.Evict(ctx, u.ID)
	metrics.SnapshotWrites.WithLabelValues("remove").Inc()
	logger.Info("role removed from user", zap.Int64("userId", u.ID))
	return u, nil
}

// wrap 保留业务错误，其余按内部错误处理
func wrap(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return errors.Internal(err)
}
