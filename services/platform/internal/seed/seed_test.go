package seed

import (
	"context"
	"testing"

	"github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/config"
	"github.com/agrismart/services/platform/internal/category"
	"github.com/agrismart/services/platform/internal/entitlement"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/testutil"
	"github.com/agrismart/services/platform/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	hasher := auth.NewPasswordHasher(4)
	cfg := config.SeedConfig{Enabled: true, AdminEmail: "Admin@AgriSmart.com", AdminPassword: "admin123"}
	s := New(cfg, user.NewRepository(db), category.NewRepository(db), entitlement.NewRepository(db), hasher)

	ctx := context.Background()
	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	var admins []model.User
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@agrismart.com", admins[0].Email)
	assert.Equal(t, authz.RoleSuperAdmin, admins[0].Role)
	assert.Equal(t, "Super Admin", admins[0].Name)
	assert.True(t, hasher.Check(admins[0].Password, "admin123"))

	var categories, entitlements int64
	require.NoError(t, db.Model(&model.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&model.Entitlement{}).Count(&entitlements).Error)
	assert.EqualValues(t, 6, categories)
	assert.EqualValues(t, 6, entitlements)

	var orders model.Entitlement
	require.NoError(t, db.Where("code = ?", "ORD_MGMT").First(&orders).Error)
	assert.Equal(t, authz.Permissions{Read: true, Create: true, Update: true, Download: true}, orders.ApplicablePermissions.Enabled())
}

func TestSeedGeneratesPasswordWhenUnset(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := config.SeedConfig{AdminPassword: "${SEED_ADMIN_PASSWORD}"}
	s := New(cfg, user.NewRepository(db), category.NewRepository(db), entitlement.NewRepository(db), auth.NewPasswordHasher(4))
	require.NoError(t, s.Run(context.Background()))

	var admin model.User
	require.NoError(t, db.First(&admin).Error)
	assert.Equal(t, "admin@agrismart.com", admin.Email)
	assert.NotEmpty(t, admin.Password)
}
