package branch

import (
	"testing"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchScoping(t *testing.T) {
	db := testutil.NewDB(t)
	c := NewController(NewRepository(db))
	shopA := testutil.CreateShop(t, db, "A")
	shopB := testutil.CreateShop(t, db, "B")
	adminA := testutil.As(authz.RoleShopAdmin, 10, shopA.ID)

	_, err := c.Create(adminA, &CreateRequest{Name: "x", ShopID: shopB.ID})
	assert.Equal(t, "You can only create branches for your shop", errors.GetMessage(err))

	own, err := c.Create(adminA, &CreateRequest{Name: "North", GeoTag: &model.GeoTag{Lat: 1.5, Lng: 2.5, Radius: 300}})
	require.NoError(t, err)
	assert.Equal(t, shopA.ID, own.ShopID)

	_, err = c.Create(testutil.SuperAdmin(), &CreateRequest{Name: "Orphan", ShopID: 999})
	assert.Equal(t, 404, errors.GetCode(err))
	assert.Equal(t, "Shop not found", errors.GetMessage(err))

	foreign, err := c.Create(testutil.SuperAdmin(), &CreateRequest{Name: "South", ShopID: shopB.ID})
	require.NoError(t, err)

	// 店铺管理员不带 shopId 也只能看到本店
	list, err := c.List(adminA, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "North", list[0].Name)
	assert.Equal(t, 300.0, list[0].GeoTag.Radius)

	list, err = c.List(adminA, shopB.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, shopA.ID, list[0].ShopID)

	list, err = c.List(testutil.As(authz.RoleCustomer, 20, 0), shopB.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = c.Get(adminA, foreign.ID)
	assert.Equal(t, 403, errors.GetCode(err))
	assert.Equal(t, 403, errors.GetCode(c.Delete(adminA, foreign.ID)))
	require.NoError(t, c.Delete(testutil.SuperAdmin(), foreign.ID))
	_, err = c.Get(testutil.SuperAdmin(), foreign.ID)
	assert.Equal(t, "Branch not found", errors.GetMessage(err))
}

func TestBranchList_ShoplessStaffSeesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	c := NewController(NewRepository(db))
	shopA := testutil.CreateShop(t, db, "A")
	_, err := c.Create(testutil.SuperAdmin(), &CreateRequest{Name: "North", ShopID: shopA.ID})
	require.NoError(t, err)

	list, err := c.List(testutil.As(authz.RoleStaff, 40, 0), shopA.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
