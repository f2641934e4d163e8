package authz

import "context"

// Principal 当前请求的主体
type Principal struct {
	UserID      int64   `json:"userId"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Role        Role    `json:"role"`
	ShopID      int64   `json:"shopId,omitempty"`
	RoleID      int64   `json:"roleId,omitempty"`
	Permissions []Grant `json:"permissions"`
	Active      bool    `json:"isActive"`
}

// Is 是否为给定角色之一
func (p *Principal) Is(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal 写入上下文
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext 从上下文读取主体
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
