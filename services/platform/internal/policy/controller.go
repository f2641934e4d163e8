// Package policy 授权配置查询
package policy

import (
	"context"
	"sync"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/response"
	"github.com/agrismart/pkg/router"
	"github.com/gofiber/fiber/v2"
)

// RoleLister 查询角色门中实际生效的白名单
type RoleLister interface {
	RolesFor(operation string) ([]string, error)
}

// View 单个操作的授权视图
type View struct {
	authz.Policy
	Enforced []string `json:"enforced"`
}

// Controller 授权配置控制器
type Controller struct {
	gate     RoleLister
	mu       sync.RWMutex
	policies []authz.Policy
}

// NewController 创建授权配置控制器
func NewController(gate RoleLister) *Controller {
	return &Controller{gate: gate}
}

// SetPolicies 路由注册完成后写入全部策略
func (c *Controller) SetPolicies(policies []authz.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policies = policies
}

// Prefix 返回路由前缀
func (c *Controller) Prefix() string {
	return "/authz"
}

// Routes 返回路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	return []router.Route{
		{Method: "GET", Path: "/policies", Handler: c.list, Policy: authz.Allow("authz:policies", authz.RoleSuperAdmin)},
	}
}

func (c *Controller) list(ctx *fiber.Ctx) error {
	views, err := c.List(ctx.UserContext())
	if err != nil {
		return response.Fail(ctx, err)
	}
	return response.Success(ctx, views)
}

// List 声明的策略与角色门中的白名单并列返回
func (c *Controller) List(_ context.Context) ([]View, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	views := make([]View, 0, len(c.policies))
	for _, p := range c.policies {
		v := View{Policy: p, Enforced: []string{}}
		if c.gate != nil {
			roles, err := c.gate.RolesFor(p.Operation)
			if err != nil {
				return nil, errors.Internal(err)
			}
			v.Enforced = roles
		}
		views = append(views, v)
	}
	return views, nil
}
