package authz

import (
	"context"
	"net/http"
	"testing"

	"github.com/agrismart/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staff(grants ...Grant) *Principal {
	return &Principal{UserID: 7, Email: "s@shop.com", Role: RoleStaff, ShopID: 1, Permissions: grants, Active: true}
}

func assertForbidden(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, errors.GetCode(err))
	assert.Equal(t, msg, errors.GetMessage(err))
}

func TestEngine_EntitlementGate(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	policy := Allow("inventory.update").Require("inv_mgmt", VerbUpdate)

	t.Run("no requirement allows", func(t *testing.T) {
		assert.NoError(t, e.Authorize(ctx, staff(), Authenticated("me")))
	})

	t.Run("missing principal", func(t *testing.T) {
		assertForbidden(t, e.Authorize(ctx, nil, policy), "User not authenticated")
	})

	t.Run("empty snapshot", func(t *testing.T) {
		assertForbidden(t, e.Authorize(ctx, staff(), policy), "User does not have any permissions assigned")
	})

	t.Run("code not in snapshot", func(t *testing.T) {
		p := staff(Grant{EntitlementCode: "ORD_MGMT", Permissions: Permissions{Read: true}})
		assertForbidden(t, e.Authorize(ctx, p, policy), "User does not have access to INV_MGMT")
	})

	t.Run("verb not granted", func(t *testing.T) {
		p := staff(Grant{EntitlementCode: "INV_MGMT", Permissions: Permissions{Read: true}})
		assertForbidden(t, e.Authorize(ctx, p, policy), "User does not have update permission for INV_MGMT")
	})

	t.Run("case insensitive match", func(t *testing.T) {
		p := staff(Grant{EntitlementCode: "inv_mgmt", Permissions: Permissions{Update: true}})
		assert.NoError(t, e.Authorize(ctx, p, policy))
	})
}

func TestEngine_SuperAdminBypassesEntitlements(t *testing.T) {
	e := NewEngine()
	sa := &Principal{UserID: 1, Role: RoleSuperAdmin, Active: true}
	for _, code := range []string{"INV_MGMT", "ORD_MGMT", "ANYTHING"} {
		for _, v := range Verbs {
			assert.NoError(t, e.Authorize(context.Background(), sa, Authenticated("op").Require(code, v)))
		}
	}
}

func TestEngine_RoleGate(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	t.Run("no implicit super admin", func(t *testing.T) {
		sa := &Principal{UserID: 1, Role: RoleSuperAdmin}
		assertForbidden(t, e.Authorize(ctx, sa, Allow("order.create", RoleCustomer)), "Insufficient role permissions")
	})

	t.Run("listed role passes", func(t *testing.T) {
		assert.NoError(t, e.Authorize(ctx, staff(), Allow("order.status", RoleShopAdmin, RoleStaff)))
	})

	t.Run("role gate runs first", func(t *testing.T) {
		p := &Principal{UserID: 3, Role: RoleCustomer}
		policy := Allow("inventory.create", RoleSuperAdmin, RoleShopAdmin).Require("INV_MGMT", VerbCreate)
		assertForbidden(t, e.Authorize(ctx, p, policy), "Insufficient role permissions")
	})
}

type denyAll struct{ calls int }

func (d *denyAll) Allowed(context.Context, Role, Policy) (bool, error) {
	d.calls++
	return false, nil
}

func TestEngine_CustomRoleChecker(t *testing.T) {
	rc := &denyAll{}
	e := NewEngine(WithRoleChecker(rc))
	err := e.Authorize(context.Background(), staff(), Allow("x", RoleStaff))
	assertForbidden(t, err, "Insufficient role permissions")
	assert.Equal(t, 1, rc.calls)

	// 未声明角色门时不调用
	require.NoError(t, e.Authorize(context.Background(), staff(), Authenticated("y")))
	assert.Equal(t, 1, rc.calls)
}
