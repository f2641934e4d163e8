package order

import (
	"context"
	"fmt"
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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Controller 订单控制器
type Controller struct {
	repo Repository
	seq  Sequencer
}

// NewController 创建订单控制器
func NewController(repo Repository, seq Sequencer) *Controller {
	return &Controller{repo: repo, seq: seq}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/orders"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	viewers := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff, authz.RoleCustomer}
	return []router.Route{
		{Method: "POST", Path: "", Handler: c.create, Policy: authz.Allow("order:create", authz.RoleCustomer, authz.RoleSuperAdmin)},
		{Method: "GET", Path: "", Handler: c.list, Policy: authz.Allow("order:list", viewers...)},
		{Method: "GET", Path: "/:id", Handler: c.get, Policy: authz.Allow("order:get", viewers...)},
		{Method: "PATCH", Path: "/:id/status", Handler: c.updateStatus,
			Policy: authz.Allow("order:update-status", authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff)},
		{Method: "GET", Path: "/:id/invoice", Handler: c.invoice, Policy: authz.Allow("order:invoice", viewers...)},
	}
}

// @Summary 下单
// @Tags 订单
// @Router /orders [post]
func (c *Controller) create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	o, err := c.Create(ctx.UserContext(), &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Created(ctx, o)
}

// Create 下单：校验库存与店铺归属、扣减库存、计算金额，全部在一个事务内
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*model.Order, error) {
	p, ok := authz.FromContext(ctx)
	if !ok {
		return nil, errors.Unauthorized("")
	}
	if req.Discount.IsNegative() {
		return nil, errors.Validation("discount must not be negative")
	}

	o := &model.Order{
		CustomerID: p.UserID,
		ShopID:     req.ShopID,
		BranchID:   req.BranchID,
		Discount:   req.Discount,
		Status:     model.OrderPending,
		OrderType:  req.OrderType,
		Notes:      req.Notes,
	}
	if req.OrderType == model.OrderTypeDelivery {
		o.DeliveryAddress = req.DeliveryAddress
	}

	n, err := c.seq.Next(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	o.InvoiceNumber = invoiceNumber(time.Now(), n)

	err = c.repo.Transaction(ctx, func(tx *gorm.DB) error {
		items, subtotal, gst, err := reserve(tx, req)
		if err != nil {
			return err
		}
		total := subtotal.Add(gst).Sub(req.Discount)
		if total.IsNegative() {
			return errors.BadRequest("Discount cannot exceed order total")
		}
		o.Items = items
		o.Subtotal = subtotal
		o.GST = gst
		o.TotalAmount = total
		return tx.Create(o).Error
	})
	if err != nil {
		return nil, wrap(err)
	}

	logger.Info("order created",
		zap.Int64("orderId", o.ID),
		zap.Int64("shopId", o.ShopID),
		zap.String("invoice", o.InvoiceNumber),
		zap.String("total", o.TotalAmount.StringFixed(2)))
	return o, nil
}

// reserve 逐项校验并扣减库存，返回明细与合计
func reserve(tx *gorm.DB, req *CreateRequest) ([]model.OrderItem, decimal.Decimal, decimal.Decimal, error) {
	items := make([]model.OrderItem, 0, len(req.Items))
	subtotal, gst := decimal.Zero, decimal.Zero

	for _, it := range req.Items {
		var product model.Product
		if err := tx.Where("id = ?", it.ProductID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, subtotal, gst, errors.NotFound(fmt.Sprintf("Product %d not found", it.ProductID))
			}
			return nil, subtotal, gst, err
		}
		if product.Stock < it.Quantity {
			return nil, subtotal, gst, errors.BadRequest(
				fmt.Sprintf("Insufficient stock for product %s. Available: %d", product.Name, product.Stock))
		}
		if product.ShopID != req.ShopID {
			return nil, subtotal, gst, errors.BadRequest(
				fmt.Sprintf("Product %s does not belong to this shop", product.Name))
		}

		res := tx.Model(&model.Product{}).
			Where("id = ? AND stock >= ?", product.ID, it.Quantity).
			Update("stock", gorm.Expr("stock - ?", it.Quantity))
		if res.Error != nil {
			return nil, subtotal, gst, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, subtotal, gst, errors.BadRequest(
				fmt.Sprintf("Insufficient stock for product %s. Available: %d", product.Name, product.Stock))
		}

		qty := decimal.NewFromInt(int64(it.Quantity))
		itemSubtotal := product.Price.Mul(qty)
		itemGST := itemSubtotal.Mul(product.GST).Div(hundred).Round(2)
		subtotal = subtotal.Add(itemSubtotal)
		gst = gst.Add(itemGST)

		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  it.Quantity,
			UnitPrice: product.Price,
			GST:       product.GST,
			Total:     itemSubtotal.Add(itemGST),
		})
	}
	return items, subtotal, gst, nil
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

// List 订单列表，客户只看自己的订单，店铺角色只看本店
func (c *Controller) List(ctx context.Context, shopID int64) ([]model.Order, error) {
	p, _ := authz.FromContext(ctx)
	var customerID int64
	if p.Is(authz.RoleCustomer) {
		customerID, shopID = p.UserID, 0
	} else {
		shopID = authz.ScopeOf(p).ShopFilter(shopID)
	}
	list, err := c.repo.List(ctx, customerID, shopID)
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
	o, err := c.Get(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, o)
}

// Get 查询订单，他人订单或跨店返回 Forbidden
func (c *Controller) Get(ctx context.Context, id int64) (*model.Order, error) {
	o, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if o == nil {
		return nil, errors.NotFound("Order not found")
	}
	p, _ := authz.FromContext(ctx)
	if p.Is(authz.RoleCustomer) {
		if err := authz.ScopeOf(p).CheckOwner(o.CustomerID); err != nil {
			return nil, err
		}
	}
	if err := authz.ScopeOf(p).CheckShop(o.ShopID); err != nil {
		return nil, err
	}
	return o, nil
}

// @Summary 更新订单状态
// @Tags 订单
// @Router /orders/{id}/status [patch]
func (c *Controller) updateStatus(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	var req UpdateStatusRequest
	if err := validate.Body(ctx, &req); err != nil {
		return response.Fail(ctx, err)
	}
	o, err := c.UpdateStatus(ctx.UserContext(), id, &req)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, o)
}

// UpdateStatus 更新订单状态，仅店铺人员
func (c *Controller) UpdateStatus(ctx context.Context, id int64, req *UpdateStatusRequest) (*model.Order, error) {
	p, _ := authz.FromContext(ctx)
	if !p.Is(authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff) {
		return nil, errors.Forbidden("You cannot update order status")
	}
	o, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	o.Status = req.Status
	if req.Notes != "" {
		o.Notes = req.Notes
	}
	if err := c.repo.Update(ctx, o); err != nil {
		return nil, errors.Internal(err)
	}
	logger.Info("order status changed",
		zap.Int64("orderId", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
		zap.Int64("by", p.UserID))
	return o, nil
}

func (c *Controller) invoice(ctx *fiber.Ctx) error {
	id, err := dal.ParseID(ctx.Params("id"))
	if err != nil {
		return response.Fail(ctx, err)
	}
	inv, err := c.Invoice(ctx.UserContext(), id)
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, inv)
}

// Invoice 生成订单发票，访问规则同 Get
func (c *Controller) Invoice(ctx context.Context, id int64) (*Invoice, error) {
	o, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv := &Invoice{
		InvoiceNumber:   o.InvoiceNumber,
		IssuedAt:        o.CreatedAt,
		OrderID:         o.ID,
		Status:          o.Status,
		OrderType:       o.OrderType,
		Items:           o.Items,
		Subtotal:        o.Subtotal,
		GST:             o.GST,
		Discount:        o.Discount,
		TotalAmount:     o.TotalAmount,
		DeliveryAddress: o.DeliveryAddress,
		Shop:            InvoiceParty{ID: o.ShopID},
		Customer:        InvoiceParty{ID: o.CustomerID},
	}

	shop, err := c.repo.FindShop(ctx, o.ShopID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if shop != nil {
		inv.Shop = InvoiceParty{ID: shop.ID, Name: shop.Name, Email: shop.Email, Phone: shop.Contact, Address: shop.Address}
	}
	customer, err := c.repo.FindCustomer(ctx, o.CustomerID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if customer != nil {
		inv.Customer = InvoiceParty{ID: customer.ID, Name: customer.Name, Email: customer.Email, Phone: customer.Phone, Address: customer.Address}
	}
	return inv, nil
}

func wrap(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return errors.Internal(err)
}
