package router

import (
	"sort"
	"strings"

	"github.com/agrismart/pkg/authz"
	"github.com/gofiber/fiber/v2"
)

// 中间件键
const (
	MiddlewareAuth     = "jwt"
	MiddlewareOptional = "optional"
)

// Route 路由配置
type Route struct {
	Method      string           // HTTP方法
	Path        string           // 路径(相对路径或以/开头的绝对路径)
	Handler     fiber.Handler    // 处理函数
	Policy      authz.Policy     // 授权配置
	Middlewares *[]fiber.Handler // 额外的路由级中间件
}

// Registrar 路由注册器接口
type Registrar interface {
	// Prefix 返回路由前缀
	Prefix() string
	// Routes 返回路由配置列表,接收中间件作为参数
	Routes(middlewares map[string]fiber.Handler) []Route
}

// GuardFunc 根据策略生成授权中间件
type GuardFunc func(policy authz.Policy) fiber.Handler

// Register 注册路由，返回全部操作策略
func Register(app fiber.Router, middlewares map[string]fiber.Handler, guard GuardFunc, controllers ...Registrar) []authz.Policy {
	policies := make([]authz.Policy, 0)
	for _, ctrl := range controllers {
		prefix := ctrl.Prefix()
		g := app.Group(prefix)

		for _, route := range ctrl.Routes(middlewares) {
			handlers := buildHandlers(route, middlewares, guard)
			if strings.HasPrefix(route.Path, "/") && !strings.HasPrefix(route.Path, prefix) {
				app.Add(route.Method, route.Path, handlers...)
			} else {
				g.Add(route.Method, route.Path, handlers...)
			}
			if route.Policy.Operation != "" {
				policies = append(policies, route.Policy)
			}
		}
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].Operation < policies[j].Operation })
	return policies
}

// buildHandlers 认证 -> 授权 -> 路由中间件 -> 处理函数
func buildHandlers(route Route, middlewares map[string]fiber.Handler, guard GuardFunc) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, 4)

	if route.Policy.Public {
		if h, ok := middlewares[MiddlewareOptional]; ok && h != nil {
			handlers = append(handlers, h)
		}
	} else if h, ok := middlewares[MiddlewareAuth]; ok && h != nil {
		handlers = append(handlers, h)
	}

	if guard != nil && !route.Policy.Public {
		handlers = append(handlers, guard(route.Policy))
	}

	if route.Middlewares != nil {
		handlers = append(handlers, *route.Middlewares...)
	}
	return append(handlers, route.Handler)
}
