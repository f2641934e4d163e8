package authz

import (
	"testing"

	"github.com/agrismart/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestScope(t *testing.T) {
	shopAdmin := &Principal{UserID: 2, Role: RoleShopAdmin, ShopID: 10}
	superAdmin := &Principal{UserID: 1, Role: RoleSuperAdmin}
	customer := &Principal{UserID: 3, Role: RoleCustomer}

	t.Run("shop filter", func(t *testing.T) {
		assert.Equal(t, int64(10), ScopeOf(shopAdmin).ShopFilter(0))
		assert.Equal(t, int64(10), ScopeOf(shopAdmin).ShopFilter(99))
		assert.Equal(t, int64(99), ScopeOf(superAdmin).ShopFilter(99))
		assert.Equal(t, int64(0), ScopeOf(nil).ShopFilter(0))
	})

	t.Run("check shop", func(t *testing.T) {
		assert.NoError(t, ScopeOf(shopAdmin).CheckShop(10))
		err := ScopeOf(shopAdmin).CheckShop(11)
		assert.True(t, errors.Is(err, errors.ErrAccessDenied))
		assert.NoError(t, ScopeOf(superAdmin).CheckShop(11))
	})

	t.Run("shopless scoped principal sees nothing", func(t *testing.T) {
		for _, role := range []Role{RoleShopAdmin, RoleStaff, RoleDelivery} {
			p := &Principal{UserID: 4, Role: role}
			assert.Equal(t, NoShop, ScopeOf(p).ShopFilter(0), role)
			assert.Equal(t, NoShop, ScopeOf(p).ShopFilter(10), role)
			assert.True(t, errors.Is(ScopeOf(p).CheckShop(0), errors.ErrAccessDenied), role)
			assert.True(t, errors.Is(ScopeOf(p).CheckShop(10), errors.ErrAccessDenied), role)
		}
	})

	t.Run("check owner", func(t *testing.T) {
		assert.NoError(t, ScopeOf(customer).CheckOwner(3))
		assert.Error(t, ScopeOf(customer).CheckOwner(4))
	})
}
