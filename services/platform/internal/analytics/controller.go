package analytics

import (
	"context"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/pkg/validate"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const topProducts = 5

// Controller 统计控制器
type Controller struct {
	repo Repository
}

// NewController 创建统计控制器
func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/analytics"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	roles := []authz.Role{authz.RoleSuperAdmin, authz.RoleShopAdmin}
	return []router.Route{
		{Method: "GET", Path: "/sales-by-product", Handler: handle(c.SalesByProduct), Policy: authz.Allow("analytics:sales-by-product", roles...)},
		{Method: "GET", Path: "/sales-by-category", Handler: handle(c.SalesByCategory), Policy: authz.Allow("analytics:sales-by-category", roles...)},
		{Method: "GET", Path: "/pickup-vs-delivery", Handler: handle(c.PickupVsDelivery), Policy: authz.Allow("analytics:pickup-vs-delivery", roles...)},
		{Method: "GET", Path: "/revenue", Handler: handle(c.Revenue), Policy: authz.Allow("analytics:revenue", roles...)},
		{Method: "GET", Path: "/sales-by-season", Handler: handle(c.SalesBySeason), Policy: authz.Allow("analytics:sales-by-season", roles...)},
		{Method: "GET", Path: "/dashboard", Handler: handle(c.Dashboard), Policy: authz.Allow("analytics:dashboard", roles...)},
	}
}

// filter 解析查询参数，店铺管理员固定为本店
func filter(ctx *fiber.Ctx) (Filter, error) {
	var q Query
	if err := validate.Query(ctx, &q); err != nil {
		return Filter{}, err
	}
	return q.Filter()
}

func scoped(ctx context.Context, f Filter) Filter {
	p, _ := authz.FromContext(ctx)
	f.ShopID = authz.ScopeOf(p).ShopFilter(f.ShopID)
	return f
}

// handle 统一处理参数解析与响应
func handle[T any](fn func(context.Context, Filter) (T, error)) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		f, err := filter(ctx)
		if err != nil {
			return response.Fail(ctx, err)
		}
		data, err := fn(ctx.UserContext(), f)
		if err != nil {
			return response.Fail(ctx, err)
		}
		return response.Success(ctx, data)
	}
}

func (c *Controller) orders(ctx context.Context, f Filter) ([]model.Order, error) {
	orders, err := c.repo.Orders(ctx, scoped(ctx, f))
	if err != nil {
		return nil, errors.Internal(err)
	}
	return orders, nil
}

// SalesByProduct 按商品统计销量与销售额
func (c *Controller) SalesByProduct(ctx context.Context, f Filter) ([]ProductSales, error) {
	orders, err := c.orders(ctx, f)
	if err != nil {
		return nil, err
	}
	products, err := c.repo.Products(ctx, productIDs(orders))
	if err != nil {
		return nil, errors.Internal(err)
	}
	return salesByProduct(orders, products), nil
}

// SalesByCategory 按分类统计
func (c *Controller) SalesByCategory(ctx context.Context, f Filter) ([]CategorySales, error) {
	orders, err := c.orders(ctx, f)
	if err != nil {
		return nil, err
	}
	products, err := c.repo.Products(ctx, productIDs(orders))
	if err != nil {
		return nil, errors.Internal(err)
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CategoryID)
	}
	categories, err := c.repo.Categories(ctx, ids)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return salesByCategory(orders, products, categories), nil
}

// PickupVsDelivery 自提与配送占比
func (c *Controller) PickupVsDelivery(ctx context.Context, f Filter) (*TypeRatio, error) {
	orders, err := c.orders(ctx, f)
	if err != nil {
		return nil, err
	}
	return typeRatio(orders), nil
}

// Revenue 营收汇总
func (c *Controller) Revenue(ctx context.Context, f Filter) (*Revenue, error) {
	orders, err := c.orders(ctx, f)
	if err != nil {
		return nil, err
	}
	return revenueOf(orders), nil
}

// SalesBySeason 按月与农季统计
func (c *Controller) SalesBySeason(ctx context.Context, f Filter) ([]MonthlySales, error) {
	orders, err := c.orders(ctx, f)
	if err != nil {
		return nil, err
	}
	return salesBySeason(orders), nil
}

// Dashboard 并发汇总看板数据
func (c *Controller) Dashboard(ctx context.Context, f Filter) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.Revenue(gctx, f)
		d.Revenue = r
		return err
	})
	g.Go(func() error {
		r, err := c.PickupVsDelivery(gctx, f)
		d.Ratio = r
		return err
	})
	g.Go(func() error {
		list, err := c.SalesByProduct(gctx, f)
		if len(list) > topProducts {
			list = list[:topProducts]
		}
		d.TopProducts = list
		return err
	})
	g.Go(func() error {
		list, err := c.SalesByCategory(gctx, f)
		d.Categories = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
