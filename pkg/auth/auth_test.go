package auth

import (
	"context"
	"testing"
	"time"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(&config.JWTConfig{Secret: "test-secret", Issuer: "agrismart", Expire: 3600})

	token, err := m.GenerateToken(Identity{UserID: 42, Email: "a@b.com", Role: authz.RoleShopAdmin, ShopID: 5, RoleID: 9})
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, authz.RoleShopAdmin, claims.Role)
	assert.Equal(t, int64(5), claims.ShopID)
	assert.Equal(t, int64(9), claims.RoleID)
	assert.Equal(t, "agrismart", claims.Issuer)
}

func TestJWTManager_Errors(t *testing.T) {
	m := NewJWTManager(&config.JWTConfig{Secret: "test-secret", Expire: -1})
	token, err := m.GenerateToken(Identity{UserID: 1, Role: authz.RoleCustomer})
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	other := NewJWTManager(&config.JWTConfig{Secret: "other", Expire: 60})
	token, err = other.GenerateToken(Identity{UserID: 1})
	require.NoError(t, err)
	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTManager_TokenInfo(t *testing.T) {
	m := NewJWTManager(&config.JWTConfig{Secret: "s", Expire: 120})
	info, err := m.CreateTokenInfo(Identity{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", info.TokenType)
	assert.Equal(t, int64(120), info.ExpiresIn)
	assert.Equal(t, 2*time.Minute, m.GetExpireIn())
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, h.Check(hash, "secret123"))
	assert.False(t, h.Check(hash, "wrong"))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRoleGate_MatchesDeclaredAllowList(t *testing.T) {
	gate, err := NewRoleGate(newTestDB(t), &config.CasbinConfig{})
	require.NoError(t, err)

	policies := []authz.Policy{
		authz.Allow("order.create", authz.RoleCustomer, authz.RoleSuperAdmin),
		authz.Allow("order.status", authz.RoleSuperAdmin, authz.RoleShopAdmin, authz.RoleStaff),
	}
	require.NoError(t, gate.Sync(policies))

	ctx := context.Background()
	for _, p := range policies {
		for _, r := range authz.Roles {
			got, err := gate.Allowed(ctx, r, p)
			require.NoError(t, err)
			assert.Equal(t, p.AllowsRole(r), got, "%s %s", p.Operation, r)
		}
	}

	// 重新同步会替换旧白名单
	require.NoError(t, gate.Sync([]authz.Policy{authz.Allow("order.create", authz.RoleCustomer)}))
	ok, err := gate.Allowed(ctx, authz.RoleSuperAdmin, policies[0])
	require.NoError(t, err)
	assert.False(t, ok)

	roles, err := gate.RolesFor("order.status")
	require.NoError(t, err)
	assert.Equal(t, []string{"SHOP_ADMIN", "STAFF", "SUPER_ADMIN"}, roles)
}

func TestRoleGate_AsEngineChecker(t *testing.T) {
	gate, err := NewRoleGate(newTestDB(t), nil)
	require.NoError(t, err)
	policy := authz.Allow("analytics.revenue", authz.RoleSuperAdmin, authz.RoleShopAdmin)
	require.NoError(t, gate.Sync([]authz.Policy{policy}))

	engine := authz.NewEngine(authz.WithRoleChecker(gate))
	assert.NoError(t, engine.Authorize(context.Background(), &authz.Principal{Role: authz.RoleShopAdmin}, policy))
	assert.Error(t, engine.Authorize(context.Background(), &authz.Principal{Role: authz.RoleStaff}, policy))
}
