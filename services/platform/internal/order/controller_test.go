package order

import (
	"context"
	"regexp"
	"testing"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/database"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	c        *Controller
	shopA    *model.Shop
	shopB    *model.Shop
	seeds    *model.Product
	foreign  *model.Product
	customer context.Context
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	client, _ := testutil.NewRedis(t)
	f := &fixture{
		db:    db,
		c:     NewController(NewRepository(db), NewSequencer(database.NewCacheWithClient(client, "test"))),
		shopA: testutil.CreateShop(t, db, "A"),
		shopB: testutil.CreateShop(t, db, "B"),
	}
	f.seeds = &model.Product{Name: "Paddy Seeds", SKU: "PS-1", Unit: "kg", Price: decimal.RequireFromString("100"),
		GST: decimal.RequireFromString("5"), Stock: 10, CategoryID: 1, ShopID: f.shopA.ID}
	f.foreign = &model.Product{Name: "Sprayer", SKU: "SP-1", Unit: "pc", Price: decimal.RequireFromString("999"),
		GST: decimal.RequireFromString("18"), Stock: 5, CategoryID: 2, ShopID: f.shopB.ID}
	require.NoError(t, db.Create(f.seeds).Error)
	require.NoError(t, db.Create(f.foreign).Error)
	cust := testutil.CreateUser(t, db, "farmer@x.com", authz.RoleCustomer, 0)
	f.customer = testutil.As(authz.RoleCustomer, cust.ID, 0)
	return f
}

func (f *fixture) stock(t *testing.T, id int64) int {
	var p model.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p.Stock
}

func TestCreateOrder(t *testing.T) {
	f := setup(t)

	o, err := f.c.Create(f.customer, &CreateRequest{
		ShopID:          f.shopA.ID,
		Items:           []ItemRequest{{ProductID: f.seeds.ID, Quantity: 3}},
		OrderType:       model.OrderTypeDelivery,
		DeliveryAddress: "Village Road 4",
		Discount:        decimal.RequireFromString("10"),
	})
	require.NoError(t, err)
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("300")))
	assert.True(t, o.GST.Equal(decimal.RequireFromString("15")))
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("305")))
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Regexp(t, regexp.MustCompile(`^INV-\d+-1$`), o.InvoiceNumber)
	assert.Equal(t, 7, f.stock(t, f.seeds.ID))

	pickup, err := f.c.Create(f.customer, &CreateRequest{
		ShopID:          f.shopA.ID,
		Items:           []ItemRequest{{ProductID: f.seeds.ID, Quantity: 1}},
		OrderType:       model.OrderTypePickup,
		DeliveryAddress: "ignored",
	})
	require.NoError(t, err)
	assert.Empty(t, pickup.DeliveryAddress)
	assert.Regexp(t, `-2$`, pickup.InvoiceNumber)
}

func TestCreateOrderRollsBack(t *testing.T) {
	f := setup(t)

	_, err := f.c.Create(f.customer, &CreateRequest{
		ShopID:    f.shopA.ID,
		Items:     []ItemRequest{{ProductID: f.seeds.ID, Quantity: 2}, {ProductID: f.seeds.ID, Quantity: 9}},
		OrderType: model.OrderTypePickup,
	})
	assert.Equal(t, "Insufficient stock for product Paddy Seeds. Available: 8", errors.GetMessage(err))
	assert.Equal(t, 10, f.stock(t, f.seeds.ID))

	_, err = f.c.Create(f.customer, &CreateRequest{
		ShopID:    f.shopA.ID,
		Items:     []ItemRequest{{ProductID: f.seeds.ID, Quantity: 1}, {ProductID: f.foreign.ID, Quantity: 1}},
		OrderType: model.OrderTypePickup,
	})
	assert.Equal(t, "Product Sprayer does not belong to this shop", errors.GetMessage(err))
	assert.Equal(t, 10, f.stock(t, f.seeds.ID))

	_, err = f.c.Create(f.customer, &CreateRequest{
		ShopID:    f.shopA.ID,
		Items:     []ItemRequest{{ProductID: 404, Quantity: 1}},
		OrderType: model.OrderTypePickup,
	})
	assert.Equal(t, "Product 404 not found", errors.GetMessage(err))
	assert.Equal(t, 404, errors.GetCode(err))

	_, err = f.c.Create(f.customer, &CreateRequest{
		ShopID:    f.shopA.ID,
		Items:     []ItemRequest{{ProductID: f.seeds.ID, Quantity: 1}},
		OrderType: model.OrderTypePickup,
		Discount:  decimal.RequireFromString("500"),
	})
	assert.Equal(t, "Discount cannot exceed order total", errors.GetMessage(err))
	assert.Equal(t, 10, f.stock(t, f.seeds.ID))
}

func TestOrderVisibility(t *testing.T) {
	f := setup(t)
	o, err := f.c.Create(f.customer, &CreateRequest{
		ShopID:    f.shopA.ID,
		Items:     []ItemRequest{{ProductID: f.seeds.ID, Quantity: 1}},
		OrderType: model.OrderTypePickup,
	})
	require.NoError(t, err)

	other := testutil.As(authz.RoleCustomer, 999, 0)
	list, err := f.c.List(other, f.shopA.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = f.c.Get(other, o.ID)
	assert.Equal(t, "Access denied", errors.GetMessage(err))

	list, err = f.c.List(f.customer, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	staffB := testutil.As(authz.RoleStaff, 50, f.shopB.ID)
	list, err = f.c.List(staffB, f.shopA.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = f.c.Get(staffB, o.ID)
	assert.Equal(t, 403, errors.GetCode(err))

	_, err = f.c.UpdateStatus(f.customer, o.ID, &UpdateStatusRequest{Status: model.OrderConfirmed})
	assert.Equal(t, "You cannot update order status", errors.GetMessage(err))
	_, err = f.c.UpdateStatus(staffB, o.ID, &UpdateStatusRequest{Status: model.OrderConfirmed})
	assert.Equal(t, 403, errors.GetCode(err))

	staffA := testutil.As(authz.RoleStaff, 51, f.shopA.ID)
	updated, err := f.c.UpdateStatus(staffA, o.ID, &UpdateStatusRequest{Status: model.OrderReady, Notes: "packed"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderReady, updated.Status)
	assert.Equal(t, "packed", updated.Notes)

	inv, err := f.c.Invoice(f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.InvoiceNumber, inv.InvoiceNumber)
	assert.Equal(t, "A", inv.Shop.Name)
	assert.Equal(t, "farmer@x.com", inv.Customer.Email)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Total.Equal(decimal.RequireFromString("105")))
}
