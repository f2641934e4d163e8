// Package seed 启动时写入超级管理员、默认分类和权益目录，可重复执行
package seed

import (
	"context"
	"strings"

	"github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/config"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/services/platform/internal/category"
	"github.com/agrismart/services/platform/internal/entitlement"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Categories 默认商品分类
var Categories = []model.Category{
	{Name: "AGRI", Description: "Agricultural products and supplies"},
	{Name: "HARDWARE", Description: "Hardware tools and equipment"},
	{Name: "IRRIGATION", Description: "Irrigation systems and equipment"},
	{Name: "SEEDS", Description: "Various types of seeds"},
	{Name: "FERTILIZERS", Description: "Fertilizers and soil nutrients"},
	{Name: "PESTICIDES", Description: "Pesticides and plant protection"},
}

func applicable(read, create, update, del, download bool) authz.Applicable {
	return authz.Applicable{
		Read:     authz.Toggle{Enabled: read},
		Create:   authz.Toggle{Enabled: create},
		Update:   authz.Toggle{Enabled: update},
		Delete:   authz.Toggle{Enabled: del},
		Download: authz.Toggle{Enabled: download},
	}
}

// Entitlements 默认权益目录
var Entitlements = []model.Entitlement{
	{Code: "INV_MGMT", Name: "Inventory Management", ModuleCode: "INV_MGMT", ModuleName: "Inventory",
		ApplicablePermissions: applicable(true, true, true, true, true), Category: "AGRI",
		Description: "Manage inventory, products, and stock"},
	{Code: "ORD_MGMT", Name: "Order Management", ModuleCode: "ORD_MGMT", ModuleName: "Orders",
		ApplicablePermissions: applicable(true, true, true, false, true), Category: "AGRI",
		Description: "Manage orders and invoices"},
	{Code: "DEL_MGMT", Name: "Delivery Management", ModuleCode: "DEL_MGMT", ModuleName: "Delivery",
		ApplicablePermissions: applicable(true, true, true, false, false), Category: "AGRI",
		Description: "Manage deliveries and tracking"},
	{Code: "ANALYTICS", Name: "Analytics & Reports", ModuleCode: "ANALYTICS", ModuleName: "Analytics",
		ApplicablePermissions: applicable(true, false, false, false, true), Category: "AGRI",
		Description: "View analytics and generate reports"},
	{Code: "USER_MGMT", Name: "User Management", ModuleCode: "USER_MGMT", ModuleName: "Users",
		ApplicablePermissions: applicable(true, true, true, true, false), Category: "SYSTEM",
		Description: "Manage users and roles"},
	{Code: "ROLE_MGMT", Name: "Role Management", ModuleCode: "ROLE_MGMT", ModuleName: "Roles",
		ApplicablePermissions: applicable(true, true, true, true, false), Category: "SYSTEM",
		Description: "Manage roles and permissions"},
}

// Seeder 初始化数据
type Seeder struct {
	cfg          config.SeedConfig
	users        user.Repository
	categories   category.Repository
	entitlements entitlement.Repository
	hasher       *auth.PasswordHasher
}

// New 创建 Seeder
func New(cfg config.SeedConfig, users user.Repository, categories category.Repository,
	entitlements entitlement.Repository, hasher *auth.PasswordHasher) *Seeder {
	return &Seeder{cfg: cfg, users: users, categories: categories, entitlements: entitlements, hasher: hasher}
}

// Run 依次写入管理员、分类、权益，已存在的记录跳过
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.admin(ctx); err != nil {
		return err
	}
	if err := s.seedCategories(ctx); err != nil {
		return err
	}
	return s.seedEntitlements(ctx)
}

func (s *Seeder) admin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.cfg.AdminEmail))
	if email == "" {
		email = "admin@agrismart.com"
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.Debug("super admin already exists", zap.String("email", email))
		return nil
	}

	password := s.cfg.AdminPassword
	if password == "" || strings.HasPrefix(password, "${") {
		password = uuid.NewString()
		logger.Warn("seed admin password not configured, generated one", zap.String("email", email), zap.String("password", password))
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	name := s.cfg.AdminName
	if name == "" {
		name = "Super Admin"
	}
	admin := &model.User{
		Email:       email,
		Password:    hash,
		Name:        name,
		Role:        authz.RoleSuperAdmin,
		Permissions: []authz.Grant{},
		IsActive:    true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	logger.Info("super admin created", zap.String("email", email))
	return nil
}

func (s *Seeder) seedCategories(ctx context.Context) error {
	created := 0
	for _, c := range Categories {
		existing, err := s.categories.FindByName(ctx, c.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		c := c
		if err := s.categories.Create(ctx, &c); err != nil {
			return err
		}
		created++
	}
	logger.Info("categories seeded", zap.Int("created", created), zap.Int("total", len(Categories)))
	return nil
}

func (s *Seeder) seedEntitlements(ctx context.Context) error {
	created := 0
	for _, e := range Entitlements {
		existing, err := s.entitlements.FindByCode(ctx, e.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		e := e
		if err := s.entitlements.Create(ctx, &e); err != nil {
			return err
		}
		created++
	}
	logger.Info("entitlements seeded", zap.Int("created", created), zap.Int("total", len(Entitlements)))
	return nil
}
