package delivery

import (
	"context"
	"time"

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

// Controller 配送控制器
type Controller struct {
	repo Repository
}

// NewController 创建配送控制器
func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/delivery"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	staff := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff}
	withAgent := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff, authz.RoleDelivery}
	viewers := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff, authz.RoleDelivery, authz.RoleCustomer}
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create, Policy: authz.Allow("delivery:create", staff...)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Allow("delivery:list", withAgent...)},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Allow("delivery:get", viewers...)},
		{Method: "PATCH", Path: "/:id", Handler: c.update, Policy: authz.Allow("delivery:update", withAgent...)},
		{Method: "PATCH", Path: "/:id/assign", Handler: c.assign, Policy: authz.Allow("delivery:assign", staff...)},
	}
}

// @Summary 创建配送
// @Tags 配送
// @Router /delivery [post]
func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	d, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, d)
}

// Create 为配送订单创建配送记录，每个订单最多一条
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.Delivery, error) {
	o, err := c.repo.FindOrder(ctx, req.OrderID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if o == nil {
		return nil, errors.NotFound("Order not found")
	}
	p, _ := authz.FromContext(ctx)
	if err := authz.ScopeOf(p).CheckShop(o.ShopID); err != nil {
		return nil, err
	}
	if o.OrderType != model.OrderTypeDelivery {
		return nil, errors.BadRequest("Only delivery orders can have delivery tracking")
	}
	existing, err := c.repo.FindByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if existing != nil {
		return nil, errors.BadRequest("Delivery already exists for this order")
	}
	if req.DeliveryAgentID != 0 {
		if err := c.checkAgent(ctx, req.DeliveryAgentID, o.ShopID); err != nil {
			return nil, err
		}
	}

	d := &model.Delivery{
		OrderID:         req.OrderID,
		DeliveryAgentID: req.DeliveryAgentID,
		Status:          model.DeliveryPending,
		EstimatedTime:   req.EstimatedTime,
		Location:        req.Location,
		Notes:           req.Notes,
	}
	if err := c.repo.Create(ctx, d); err != nil {
		return nil, errors.Internal(err)
	}
	return d, nil
}

// checkAgent 配送员必须存在且属于订单店铺
func (c *Controller) checkAgent(ctx context.Context, agentID, shopID int64) error {
	agent, err := c.repo.FindAgent(ctx, agentID)
	if err != nil {
		return errors.Internal(err)
	}
	if agent == nil {
		return errors.NotFound("Delivery agent not found")
	}
	if agent.ShopID != shopID {
		return errors.BadRequest("Delivery agent must belong to the order's shop")
	}
	return nil
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

// List 配送列表，配送员只看自己的，店铺人员按订单店铺过滤
func (c *Controller) List(ctx context.Context, shopID int64) ([]model.Delivery, error) {
	p, _ := authz.FromContext(ctx)
	var agentID int64
	if p.Is(authz.RoleDelivery) {
		agentID, shopID = p.UserID, 0
	} else {
		shopID = authz.ScopeOf(p).ShopFilter(shopID)
	}
	list, err := c.repo.List(ctx, agentID, shopID)
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
	d, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, d)
}

// Get 查询配送记录
func (c *Controller) Get(ctx context.Context, id int64) (*model.Delivery, error) {
	d, err := c.repo.FindByID(ctx, id, dal.WithPreload("Order"))
	if err != nil {
		return nil, errors.Internal(err)
	}
	if d == nil {
		return nil, errors.NotFound("Delivery not found")
	}
	if err := c.authorize(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// authorize 配送员校验本人，客户校验订单归属，店铺角色校验订单店铺
func (c *Controller) authorize(ctx context.Context, d *model.Delivery) error {
	p, _ := authz.FromContext(ctx)
	scope := authz.ScopeOf(p)
	switch {
	case p.Is(authz.RoleDelivery):
		return scope.CheckOwner(d.DeliveryAgentID)
	case d.Order == nil:
		if p.Is(authz.RoleSuperAdmin) {
			return nil
		}
		return errors.ErrAccessDenied
	case p.Is(authz.RoleCustomer):
		return scope.CheckOwner(d.Order.CustomerID)
	default:
		return scope.CheckShop(d.Order.ShopID)
	}
}

// @Summary 更新配送
// @Tags 配送
// @Router /delivery/{id} [patch]
func (c *Controller) update(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	d, err := c.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, d)
}

// Update 更新配送，首次变为 delivered 时记录送达时间
func (c *Controller) Update(ctx context.Context, id int64, req *UpdateRequest) (*model.Delivery, error) {
	d, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, _ := authz.FromContext(ctx)
	if p.Is(authz.RoleDelivery) {
		req.DeliveryAgentID = nil
	}

	if req.DeliveryAgentID != nil && *req.DeliveryAgentID != d.DeliveryAgentID {
		if d.Order != nil {
			if err := c.checkAgent(ctx, *req.DeliveryAgentID, d.Order.ShopID); err != nil {
				return nil, err
			}
		}
		d.DeliveryAgentID = *req.DeliveryAgentID
	}
	if req.Status != nil {
		if *req.Status == model.DeliveryDelivered && d.Status != model.DeliveryDelivered {
			now := time.Now()
			d.DeliveredAt = &now
		}
		d.Status = *req.Status
	}
	if req.EstimatedTime != nil {
		d.EstimatedTime = req.EstimatedTime
	}
	if req.Location != nil {
		d.Location = req.Location
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}
	if err := c.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *Controller) save(ctx context.Context, d *model.Delivery) error {
	o := d.Order
	d.Order = nil
	err := c.repo.Update(ctx, d)
	d.Order = o
	if err != nil {
		return errors.Internal(err)
	}
	return nil
}

// @Summary 指派配送员
// @Tags 配送
// @Router /delivery/{id}/assign [patch]
func (c *Controller) assign(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req AssignRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	d, err := c.Assign(ctx.UserContext(), id, req.DeliveryAgentID)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, d)
}

// Assign 指派配送员并将状态置为 assigned
func (c *Controller) Assign(ctx context.Context, id, agentID int64) (*model.Delivery, error) {
	p, _ := authz.FromContext(ctx)
	if !p.Is(authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff) {
		return nil, errors.Forbidden("You cannot assign delivery agents")
	}
	d, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Order != nil {
		if err := c.checkAgent(ctx, agentID, d.Order.ShopID); err != nil {
			return nil, err
		}
	}
	d.DeliveryAgentID = agentID
	d.Status = model.DeliveryAssigned
	if err := c.save(ctx, d); err != nil {
		return nil, err
	}
	logger.Info("delivery agent assigned", zap.Int64("deliveryId", d.ID), zap.Int64("agentId", agentID), zap.Int64("by", p.UserID))
	return d, nil
}
