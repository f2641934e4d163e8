package role

import (
	"context"
	"fmt"
	"testing"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/shopentitlement"
	"github.com/agrismart/services/platform/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type evictRecorder struct {
	ids []int64
}

func (r *evictRecorder) Evict(_ context.Context, userIDs ...int64) {
	r.ids = append(r.ids, userIDs...)
}

type fixture struct {
	c       *Controller
	db      *gorm.DB
	evicted *evictRecorder
	shopA   *model.Shop
	shopB   *model.Shop
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	rec := &evictRecorder{}
	f := &fixture{
		c:       NewController(NewRepository(db), shopentitlement.NewRepository(db), rec),
		db:      db,
		evicted: rec,
		shopA:   testutil.CreateShop(t, db, "A"),
		shopB:   testutil.CreateShop(t, db, "B"),
	}
	f.grant(t, f.shopA.ID, "INV_MGMT", authz.Permissions{Read: true, Create: true, Update: true})
	f.grant(t, f.shopA.ID, "ORD_MGMT", authz.Permissions{Read: true, Create: true, Update: true})
	return f
}

func (f *fixture) grant(t *testing.T, shopID int64, code string, allowed authz.Permissions) {
	all := authz.Applicable{
		Read: authz.Toggle{Enabled: true}, Create: authz.Toggle{Enabled: true}, Update: authz.Toggle{Enabled: true},
		Delete: authz.Toggle{Enabled: true}, Download: authz.Toggle{Enabled: true},
	}
	f.grantWithCatalog(t, shopID, code, all, allowed)
}

// grantWithCatalog 直接写入授权行，不经过店铺授权的目录校验
func (f *fixture) grantWithCatalog(t *testing.T, shopID int64, code string, applicable authz.Applicable, allowed authz.Permissions) {
	ent := &model.Entitlement{Code: fmt.Sprintf("%s_%d", code, shopID), Name: code, ModuleCode: code, ModuleName: code, ApplicablePermissions: applicable}
	require.NoError(t, f.db.Create(ent).Error)
	require.NoError(t, f.db.Create(&model.ShopEntitlement{
		ShopID: shopID, EntitlementID: ent.ID, EntitlementCode: code, ModuleName: code + " module", AllowedPermissions: allowed,
	}).Error)
}

func entry(code string, verbs ...authz.Verb) authz.RoleEntry {
	e := authz.RoleEntry{EntitlementCode: code, ModuleName: code + " module"}
	flag := authz.PermissionFlags{Enabled: true, IsAllowed: true}
	for _, v := range verbs {
		switch v {
		case authz.VerbRead:
			e.Permissions.Read = flag
		case authz.VerbCreate:
			e.Permissions.Create = flag
		case authz.VerbUpdate:
			e.Permissions.Update = flag
		case authz.VerbDelete:
			e.Permissions.Delete = flag
		case authz.VerbDownload:
			e.Permissions.Download = flag
		}
	}
	return e
}

func (f *fixture) shopAdmin(shopID int64) context.Context {
	return testutil.As(authz.RoleShopAdmin, 500, shopID)
}

func TestCreate_CeilingViolation(t *testing.T) {
	f := setup(t)
	_, err := f.c.Create(f.shopAdmin(f.shopA.ID), f.shopA.ID, &CreateRequest{
		RoleCode: "clerk", RoleName: "Clerk",
		EntitlementPermissions: []authz.RoleEntry{entry("inv_mgmt", authz.VerbRead, authz.VerbDelete)},
	})
	require.Error(t, err)
	assert.Equal(t, 400, errors.GetCode(err))
	assert.Equal(t, "Delete permission not allowed for INV_MGMT", errors.GetMessage(err))
}

func TestCreate_CatalogCeiling(t *testing.T) {
	f := setup(t)
	applicable := authz.DefaultApplicable()
	applicable.Delete.Enabled = false
	f.grantWithCatalog(t, f.shopA.ID, "DEL_X", applicable, authz.Permissions{Read: true, Delete: true})

	_, err := f.c.Create(f.shopAdmin(f.shopA.ID), f.shopA.ID, &CreateRequest{
		RoleCode: "remover", RoleName: "Remover",
		EntitlementPermissions: []authz.RoleEntry{entry("DEL_X", authz.VerbRead, authz.VerbDelete)},
	})
	assert.Equal(t, 400, errors.GetCode(err))
	assert.Equal(t, "Delete permission not allowed for DEL_X", errors.GetMessage(err))

	r, err := f.c.Create(f.shopAdmin(f.shopA.ID), f.shopA.ID, &CreateRequest{
		RoleCode: "reader", RoleName: "Reader",
		EntitlementPermissions: []authz.RoleEntry{entry("DEL_X", authz.VerbRead)},
	})
	require.NoError(t, err)

	widened := []authz.RoleEntry{entry("DEL_X", authz.VerbRead, authz.VerbDelete)}
	_, err = f.c.Update(f.shopAdmin(f.shopA.ID), r.ID, &UpdateRequest{EntitlementPermissions: &widened})
	assert.Equal(t, "Delete permission not allowed for DEL_X", errors.GetMessage(err))
}

// staleLookup 模拟并发下重复检查未看到对方已提交的角色
type staleLookup struct {
	Repository
}

func (staleLookup) FindByShopAndCode(context.Context, int64, string) (*model.Role, error) {
	return nil, nil
}

func TestCreate_UniqueIndexConflict(t *testing.T) {
	f := setup(t)
	racy := NewController(staleLookup{NewRepository(f.db)}, shopentitlement.NewRepository(f.db), f.evicted)
	ctx := f.shopAdmin(f.shopA.ID)

	_, err := racy.Create(ctx, f.shopA.ID, &CreateRequest{RoleCode: "R1", RoleName: "R1"})
	require.NoError(t, err)

	_, err = racy.Create(ctx, f.shopA.ID, &CreateRequest{RoleCode: "r1", RoleName: "Again"})
	assert.Equal(t, 409, errors.GetCode(err))
	assert.Equal(t, "Role with this code already exists for this shop", errors.GetMessage(err))

	r2, err := racy.Create(ctx, f.shopA.ID, &CreateRequest{RoleCode: "R2", RoleName: "R2"})
	require.NoError(t, err)
	code := "R1"
	_, err = racy.Update(ctx, r2.ID, &UpdateRequest{RoleCode: &code})
	assert.Equal(t, 409, errors.GetCode(err))
}

func TestCreate_EntitlementNotAssigned(t *testing.T) {
	f := setup(t)
	_, err := f.c.Create(f.shopAdmin(f.shopA.ID), f.shopA.ID, &CreateRequest{
		RoleCode: "clerk", RoleName: "Clerk",
		EntitlementPermissions: []authz.RoleEntry{entry("ANALYTICS", authz.VerbRead)},
	})
	assert.Equal(t, "Entitlement ANALYTICS is not assigned to this shop", errors.GetMessage(err))
}

func TestCreate_ScopeAndConflict(t *testing.T) {
	f := setup(t)
	req := &CreateRequest{RoleCode: "clerk", RoleName: "Clerk", EntitlementPermissions: []authz.RoleEntry{entry("INV_MGMT", authz.VerbRead)}}

	_, err := f.c.Create(f.shopAdmin(f.shopB.ID), f.shopA.ID, req)
	assert.Equal(t, "You can only create roles for your shop", errors.GetMessage(err))

	_, err = f.c.Create(f.shopAdmin(f.shopA.ID), 999, req)
	assert.Equal(t, "Shop not found", errors.GetMessage(err))

	r, err := f.c.Create(f.shopAdmin(f.shopA.ID), f.shopA.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "CLERK", r.RoleCode)
	assert.True(t, r.IsActive)
	assert.Equal(t, int64(500), r.CreatedBy)

	dup := *req
	dup.RoleCode = "Clerk"
	_, err = f.c.Create(testutil.SuperAdmin(), f.shopA.ID, &dup)
	assert.Equal(t, 409, errors.GetCode(err))
	assert.Equal(t, "Role with this code already exists for this shop", errors.GetMessage(err))
}

func TestUpdate_RevalidatesCeiling(t *testing.T) {
	f := setup(t)
	ctx := f.shopAdmin(f.shopA.ID)
	r, err := f.c.Create(ctx, f.shopA.ID, &CreateRequest{RoleCode: "clerk", RoleName: "Clerk",
		EntitlementPermissions: []authz.RoleEntry{entry("INV_MGMT", authz.VerbRead)}})
	require.NoError(t, err)

	widened := []authz.RoleEntry{entry("INV_MGMT", authz.VerbRead, authz.VerbDownload)}
	_, err = f.c.Update(ctx, r.ID, &UpdateRequest{EntitlementPermissions: &widened})
	assert.Equal(t, "Download permission not allowed for INV_MGMT", errors.GetMessage(err))

	_, err = f.c.Update(f.shopAdmin(f.shopB.ID), r.ID, &UpdateRequest{})
	assert.Equal(t, 403, errors.GetCode(err))
}

func TestAssign_SnapshotIsCopy(t *testing.T) {
	f := setup(t)
	ctx := f.shopAdmin(f.shopA.ID)
	u := testutil.CreateUser(t, f.db, "u2@a", authz.RoleStaff, f.shopA.ID)
	r1, err := f.c.Create(ctx, f.shopA.ID, &CreateRequest{RoleCode: "R1", RoleName: "R1",
		EntitlementPermissions: []authz.RoleEntry{entry("ORD_MGMT", authz.VerbRead)}})
	require.NoError(t, err)

	assigned, err := f.c.AssignRoleToUser(ctx, u.ID, r1.ID)
	require.NoError(t, err)
	want := []authz.Grant{{EntitlementCode: "ORD_MGMT", ModuleName: "ORD_MGMT module", Permissions: authz.Permissions{Read: true}}}
	assert.Equal(t, want, assigned.Permissions)
	assert.Equal(t, r1.ID, assigned.RoleID)
	assert.Equal(t, []int64{u.ID}, f.evicted.ids)

	widened := []authz.RoleEntry{entry("ORD_MGMT", authz.VerbRead, authz.VerbCreate)}
	_, err = f.c.Update(ctx, r1.ID, &UpdateRequest{EntitlementPermissions: &widened})
	require.NoError(t, err)

	var stored model.User
	require.NoError(t, f.db.First(&stored, u.ID).Error)
	assert.Equal(t, want, stored.Permissions)

	reassigned, err := f.c.AssignRoleToUser(ctx, u.ID, r1.ID)
	require.NoError(t, err)
	assert.True(t, reassigned.Permissions[0].Permissions.Create)
}

func TestAssign_ShopChecks(t *testing.T) {
	f := setup(t)
	userA := testutil.CreateUser(t, f.db, "a@a", authz.RoleStaff, f.shopA.ID)
	userB := testutil.CreateUser(t, f.db, "b@b", authz.RoleStaff, f.shopB.ID)
	r, err := f.c.Create(testutil.SuperAdmin(), f.shopA.ID, &CreateRequest{RoleCode: "R", RoleName: "R"})
	require.NoError(t, err)

	_, err = f.c.AssignRoleToUser(testutil.SuperAdmin(), userB.ID, r.ID)
	assert.Equal(t, "User and role must belong to the same shop", errors.GetMessage(err))

	_, err = f.c.AssignRoleToUser(f.shopAdmin(f.shopB.ID), userA.ID, r.ID)
	assert.Equal(t, "Access denied", errors.GetMessage(err))

	_, err = f.c.AssignRoleToUser(testutil.SuperAdmin(), 999, r.ID)
	assert.Equal(t, "User not found", errors.GetMessage(err))

	_, err = f.c.AssignRoleToUser(testutil.SuperAdmin(), userA.ID, 999)
	assert.Equal(t, "Role not found", errors.GetMessage(err))
}

func TestDelete_GuardedByAssignedUsers(t *testing.T) {
	f := setup(t)
	ctx := f.shopAdmin(f.shopA.ID)
	u := testutil.CreateUser(t, f.db, "u@a", authz.RoleStaff, f.shopA.ID)
	r, err := f.c.Create(ctx, f.shopA.ID, &CreateRequest{RoleCode: "R1", RoleName: "R1"})
	require.NoError(t, err)
	_, err = f.c.AssignRoleToUser(ctx, u.ID, r.ID)
	require.NoError(t, err)

	err = f.c.Delete(ctx, r.ID)
	assert.Equal(t, 400, errors.GetCode(err))
	assert.Equal(t, "Cannot delete role. There are users assigned to this role.", errors.GetMessage(err))

	cleared, err := f.c.RemoveRoleFromUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, cleared.RoleID)
	assert.Empty(t, cleared.Permissions)

	require.NoError(t, f.c.Delete(ctx, r.ID))
	assert.Equal(t, 404, errors.GetCode(f.c.Delete(ctx, r.ID)))
}

func TestList_ForeignShop(t *testing.T) {
	f := setup(t)
	_, err := f.c.List(f.shopAdmin(f.shopB.ID), f.shopA.ID)
	assert.Equal(t, "You can only view roles for your shop", errors.GetMessage(err))

	list, err := f.c.List(testutil.SuperAdmin(), f.shopA.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
