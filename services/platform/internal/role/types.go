package role

import "github.com/agrismart/pkg/authz"

// CreateRequest 创建角色请求
type CreateRequest struct {
	RoleCode               string            `json:"roleCode" validate:"required,max=64"`
	RoleName               string            `json:"roleName" validate:"required,max=128"`
	EntitlementPermissions []authz.RoleEntry `json:"entitlementPermissions" validate:"dive"`
	Description            string            `json:"description" validate:"max=512"`
}

// UpdateRequest 更新角色请求，提供 entitlementPermissions 时整体替换并重新校验上限
type UpdateRequest struct {
	RoleCode               *string            `json:"roleCode" validate:"omitempty,min=1,max=64"`
	RoleName               *string            `json:"roleName" validate:"omitempty,min=1,max=128"`
	EntitlementPermissions *[]authz.RoleEntry `json:"entitlementPermissions"`
	IsActive               *bool              `json:"isActive"`
	Description            *string            `json:"description" validate:"omitempty,max=512"`
}
