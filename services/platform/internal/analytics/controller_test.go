package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type seeded struct {
	db    *gorm.DB
	c     *Controller
	shopA int64
	shopB int64
}

func seed(t *testing.T) *seeded {
	db := testutil.NewDB(t)
	s := &seeded{db: db, c: NewController(NewRepository(db))}
	s.shopA = testutil.CreateShop(t, db, "A").ID
	s.shopB = testutil.CreateShop(t, db, "B").ID

	seeds := &model.Category{Name: "SEEDS"}
	tools := &model.Category{Name: "TOOLS"}
	require.NoError(t, db.Create(seeds).Error)
	require.NoError(t, db.Create(tools).Error)

	paddy := &model.Product{Name: "Paddy", SKU: "P", Unit: "kg", Price: d("100"), GST: d("0"), CategoryID: seeds.ID, ShopID: s.shopA}
	hoe := &model.Product{Name: "Hoe", SKU: "H", Unit: "pc", Price: d("300"), GST: d("0"), CategoryID: tools.ID, ShopID: s.shopA}
	require.NoError(t, db.Create(paddy).Error)
	require.NoError(t, db.Create(hoe).Error)

	n := 0
	order := func(shopID int64, typ model.OrderType, status model.OrderStatus, at time.Time, items ...model.OrderItem) {
		n++
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Total)
		}
		o := &model.Order{
			CustomerID: 9, ShopID: shopID, Items: items, Subtotal: total, GST: d("0"), Discount: d("0"),
			TotalAmount: total, Status: status, OrderType: typ, InvoiceNumber: "INV-" + at.Format("20060102") + "-" + string(rune('a'+n)),
		}
		o.CreatedAt = at
		require.NoError(t, db.Create(o).Error)
	}
	item := func(p *model.Product, qty int64) model.OrderItem {
		return model.OrderItem{ProductID: p.ID, Name: p.Name, Quantity: int(qty), UnitPrice: p.Price, GST: p.GST, Total: p.Price.Mul(decimal.NewFromInt(qty))}
	}

	order(s.shopA, model.OrderTypePickup, model.OrderDelivered, time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC), item(paddy, 2))
	order(s.shopA, model.OrderTypeDelivery, model.OrderPending, time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC), item(hoe, 1), item(paddy, 1))
	order(s.shopA, model.OrderTypeDelivery, model.OrderConfirmed, time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC), item(paddy, 1))
	order(s.shopA, model.OrderTypePickup, model.OrderCancelled, time.Date(2025, 7, 5, 10, 0, 0, 0, time.UTC), item(hoe, 10))
	order(s.shopB, model.OrderTypePickup, model.OrderDelivered, time.Date(2025, 7, 5, 10, 0, 0, 0, time.UTC), item(hoe, 1))
	return s
}

func TestRevenueAndRatio(t *testing.T) {
	s := seed(t)
	adminA := testutil.As(authz.RoleShopAdmin, 5, s.shopA)

	// 店铺管理员即使指定其它店铺也只统计本店，已取消订单不计入
	rev, err := s.c.Revenue(adminA, Filter{ShopID: s.shopB})
	require.NoError(t, err)
	assert.Equal(t, 3, rev.TotalOrders)
	assert.True(t, rev.TotalRevenue.Equal(d("700")), rev.TotalRevenue.String())
	assert.True(t, rev.AverageOrderValue.Equal(d("233.33")), rev.AverageOrderValue.String())

	all, err := s.c.Revenue(testutil.SuperAdmin(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalOrders)

	ratio, err := s.c.PickupVsDelivery(adminA, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, ratio.Total)
	assert.Equal(t, 1, ratio.Pickup.Count)
	assert.Equal(t, 2, ratio.Delivery.Count)
	assert.InDelta(t, 66.67, ratio.Delivery.Percentage, 0.01)
	assert.True(t, ratio.Delivery.Revenue.Equal(d("500")))

	empty, err := s.c.PickupVsDelivery(context.Background(), Filter{ShopID: 404})
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.Pickup.Percentage)
}

func TestSalesBreakdowns(t *testing.T) {
	s := seed(t)
	adminA := testutil.As(authz.RoleShopAdmin, 5, s.shopA)

	products, err := s.c.SalesByProduct(adminA, Filter{})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Paddy", products[0].ProductName)
	assert.Equal(t, 4, products[0].TotalQuantity)
	assert.True(t, products[0].TotalRevenue.Equal(d("400")))
	assert.Equal(t, 3, products[0].OrderCount)

	categories, err := s.c.SalesByCategory(adminA, Filter{})
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "SEEDS", categories[0].CategoryName)
	assert.Equal(t, "TOOLS", categories[1].CategoryName)

	q := Query{StartDate: "2025-07-01", EndDate: "2025-07-31"}
	f, err := q.Filter()
	require.NoError(t, err)
	july, err := s.c.SalesByProduct(adminA, f)
	require.NoError(t, err)
	require.Len(t, july, 2)
	// 同额时按商品ID排序
	assert.Equal(t, "Paddy", july[0].ProductName)
	assert.True(t, july[0].TotalRevenue.Equal(july[1].TotalRevenue))

	q = Query{Year: 2025}
	f, err = q.Filter()
	require.NoError(t, err)
	months, err := s.c.SalesBySeason(adminA, f)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, MonthlySales{Year: 2025, Month: 7, Season: "KHARIF", TotalRevenue: months[0].TotalRevenue, TotalOrders: 2}, months[0])
	assert.Equal(t, "RABI", months[1].Season)

	_, err = (&Query{StartDate: "yesterday"}).Filter()
	assert.Error(t, err)
}

func TestDashboard(t *testing.T) {
	s := seed(t)
	dash, err := s.c.Dashboard(testutil.As(authz.RoleShopAdmin, 5, s.shopA), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, dash.Revenue.TotalOrders)
	assert.Equal(t, 3, dash.Ratio.Total)
	assert.Len(t, dash.TopProducts, 2)
	assert.Len(t, dash.Categories, 2)
}
