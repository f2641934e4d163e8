// Package testutil 测试用的数据库、Redis 和主体构造
package testutil

import (
	"context"
	"testing"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// NewDB 独立的内存 sqlite，已完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// NewRedis 基于 miniredis 的客户端
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// Principal 构造主体
func Principal(role authz.Role, userID, shopID int64, grants ...authz.Grant) *authz.Principal {
	if grants == nil {
		grants = []authz.Grant{}
	}
	return &authz.Principal{
		UserID:      userID,
		Email:       "user@test.local",
		Role:        role,
		ShopID:      shopID,
		Permissions: grants,
		Active:      true,
	}
}

// As 携带主体的上下文
func As(role authz.Role, userID, shopID int64, grants ...authz.Grant) context.Context {
	return authz.WithPrincipal(context.Background(), Principal(role, userID, shopID, grants...))
}

// SuperAdmin 超级管理员上下文
func SuperAdmin() context.Context {
	return As(authz.RoleSuperAdmin, 1, 0)
}

// CreateShop 写入店铺
func CreateShop(t testing.TB, db *gorm.DB, name string) *model.Shop {
	t.Helper()
	shop := &model.Shop{Name: name, Code: name}
	require.NoError(t, db.Create(shop).Error)
	return shop
}

// CreateUser 写入用户
func CreateUser(t testing.TB, db *gorm.DB, email string, role authz.Role, shopID int64) *model.User {
	t.Helper()
	u := &model.User{Email: email, Password: "x", Name: email, Role: role, ShopID: shopID, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}
