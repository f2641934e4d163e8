package auth

import (
	"context"
	"fmt"
	"sort"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/config"
	"github.com/agrismart/pkg/logger"
	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// roleGateModel 主体为平台角色，对象为操作名
const roleGateModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// RoleGate 基于 Casbin 的角色白名单存储，策略形如 p, <ROLE>, <operation>
type RoleGate struct {
	enforcer *casbin.Enforcer
}

// NewRoleGate 使用 GORM 适配器持久化策略
func NewRoleGate(db *gorm.DB, cfg *config.CasbinConfig) (*RoleGate, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	var m model.Model
	if cfg != nil && cfg.ModelPath != "" {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(roleGateModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load casbin policy: %w", err)
	}
	return &RoleGate{enforcer: enforcer}, nil
}

// Allowed 实现 authz.RoleChecker
func (g *RoleGate) Allowed(_ context.Context, role authz.Role, policy authz.Policy) (bool, error) {
	return g.enforcer.Enforce(string(role), policy.Operation)
}

// Sync 以路由声明为准重建每个操作的白名单
func (g *RoleGate) Sync(policies []authz.Policy) error {
	for _, p := range policies {
		if _, err := g.enforcer.RemoveFilteredPolicy(1, p.Operation); err != nil {
			return fmt.Errorf("failed to clear policy for %s: %w", p.Operation, err)
		}
		if len(p.Roles) == 0 {
			continue
		}
		rules := make([][]string, 0, len(p.Roles))
		for _, r := range p.Roles {
			rules = append(rules, []string{string(r), p.Operation})
		}
		if _, err := g.enforcer.AddPolicies(rules); err != nil {
			return fmt.Errorf("failed to add policy for %s: %w", p.Operation, err)
		}
	}
	logger.Info("role gate policies synced", zap.Int("operations", len(policies)))
	return nil
}

// RolesFor 查询操作的白名单
func (g *RoleGate) RolesFor(operation string) ([]string, error) {
	rules, err := g.enforcer.GetFilteredPolicy(1, operation)
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(rules))
	for _, r := range rules {
		roles = append(roles, r[0])
	}
	sort.Strings(roles)
	return roles, nil
}
