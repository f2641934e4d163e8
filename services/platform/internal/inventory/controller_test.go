package inventory

import (
	"context"
	"testing"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/router"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyOf(t *testing.T, c *Controller, operation string) authz.Policy {
	for _, r := range c.Routes(nil) {
		if r.Policy.Operation == operation {
			return r.Policy
		}
	}
	t.Fatalf("operation %s not registered", operation)
	return authz.Policy{}
}

func findRoute(routes []router.Route, method string) int {
	n := 0
	for _, r := range routes {
		if r.Method == method {
			n++
		}
	}
	return n
}

func TestInventoryPolicies(t *testing.T) {
	c := NewController(nil)
	engine := authz.NewEngine()
	ctx := context.Background()
	create := policyOf(t, c, "inventory:create")

	assert.Equal(t, 2, findRoute(c.Routes(nil), "GET"))
	assert.True(t, policyOf(t, c, "inventory:list").Public)

	noGrant := testutil.Principal(authz.RoleShopAdmin, 2, 1)
	err := engine.Authorize(ctx, noGrant, create)
	assert.Equal(t, "User does not have any permissions assigned", errors.GetMessage(err))

	readOnly := testutil.Principal(authz.RoleShopAdmin, 2, 1, authz.Grant{
		EntitlementCode: EntitlementCode, Permissions: authz.Permissions{Read: true},
	})
	err = engine.Authorize(ctx, readOnly, create)
	assert.Equal(t, "User does not have create permission for INV_MGMT", errors.GetMessage(err))

	writer := testutil.Principal(authz.RoleShopAdmin, 2, 1, authz.Grant{
		EntitlementCode: EntitlementCode, Permissions: authz.Permissions{Read: true, Create: true},
	})
	assert.NoError(t, engine.Authorize(ctx, writer, create))
	assert.Error(t, engine.Authorize(ctx, writer, policyOf(t, c, "inventory:delete")))

	staff := testutil.Principal(authz.RoleStaff, 3, 1, writer.Permissions...)
	assert.Equal(t, "Insufficient role permissions", errors.GetMessage(engine.Authorize(ctx, staff, create)))
	assert.NoError(t, engine.Authorize(ctx, testutil.Principal(authz.RoleSuperAdmin, 1, 0), create))
}

func TestProductLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	c := NewController(NewRepository(db))
	shopA := testutil.CreateShop(t, db, "A")
	shopB := testutil.CreateShop(t, db, "B")
	adminA := testutil.As(authz.RoleShopAdmin, 10, shopA.ID)

	req := func(sku string, shopID int64) *CreateRequest {
		return &CreateRequest{
			Name: "Urea", SKU: sku, Unit: "bag", CategoryID: 1, ShopID: shopID, Stock: 10,
			Price: decimal.RequireFromString("250.00"), GST: decimal.RequireFromString("5"),
		}
	}

	_, err := c.Create(adminA, req("U-1", shopB.ID))
	assert.Equal(t, "You can only create products for your shop", errors.GetMessage(err))

	p, err := c.Create(adminA, req("U-1", 0))
	require.NoError(t, err)
	assert.Equal(t, shopA.ID, p.ShopID)
	assert.True(t, p.GSTAmount().Equal(decimal.RequireFromString("12.5")))
	assert.True(t, p.PriceWithGST().Equal(decimal.RequireFromString("262.5")))

	_, err = c.Create(adminA, req("U-1", shopA.ID))
	assert.Equal(t, "Product with this SKU already exists in this shop", errors.GetMessage(err))

	// 不同店铺可复用 SKU
	other, err := c.Create(testutil.SuperAdmin(), req("U-1", shopB.ID))
	require.NoError(t, err)

	bad := req("U-2", shopA.ID)
	bad.Price = decimal.NewFromInt(-1)
	_, err = c.Create(adminA, bad)
	assert.Equal(t, 400, errors.GetCode(err))

	branch := &model.Branch{Name: "B-north", ShopID: shopB.ID}
	require.NoError(t, db.Create(branch).Error)
	withBranch := req("U-3", shopA.ID)
	withBranch.BranchID = branch.ID
	_, err = c.Create(adminA, withBranch)
	assert.Equal(t, "Branch does not belong to this shop", errors.GetMessage(err))

	list, err := c.List(adminA, &ListRequest{ShopID: shopB.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	list, err = c.List(context.Background(), &ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = c.Get(adminA, other.ID)
	assert.Equal(t, "Access denied", errors.GetMessage(err))
	_, err = c.Get(context.Background(), other.ID)
	assert.NoError(t, err)

	stock := 3
	updated, err := c.Update(adminA, p.ID, &UpdateRequest{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)

	assert.Equal(t, 403, errors.GetCode(c.Delete(adminA, other.ID)))
	require.NoError(t, c.Delete(adminA, p.ID))
	_, err = c.Get(adminA, p.ID)
	assert.Equal(t, "Product not found", errors.GetMessage(err))
}
