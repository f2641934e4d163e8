package authz

// Requirement 权益要求
type Requirement struct {
	Code string `json:"code"`
	Verb Verb   `json:"verb"`
}

// Policy 单个操作的授权配置
// Roles 为空表示不启用角色校验，Entitlement 为空表示不启用权益校验
type Policy struct {
	Operation   string       `json:"operation"`
	Public      bool         `json:"public"`
	Roles       []Role       `json:"roles,omitempty"`
	Entitlement *Requirement `json:"entitlement,omitempty"`
}

// Allow 声明角色白名单
func Allow(operation string, roles ...Role) Policy {
	return Policy{Operation: operation, Roles: roles}
}

// Authenticated 仅要求登录
func Authenticated(operation string) Policy {
	return Policy{Operation: operation}
}

// Open 公开操作，有令牌时仍会解析主体
func Open(operation string) Policy {
	return Policy{Operation: operation, Public: true}
}

// Require 追加权益要求
func (p Policy) Require(code string, verb Verb) Policy {
	p.Entitlement = &Requirement{Code: NormalizeCode(code), Verb: verb}
	return p
}

// AllowsRole 角色是否在白名单中
func (p Policy) AllowsRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
