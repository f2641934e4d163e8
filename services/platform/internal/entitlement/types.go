package entitlement

import "github.com/agrismart/pkg/authz"

// CreateRequest 创建权益请求
type CreateRequest struct {
	Code                  string            `json:"code" validate:"required,max=64"`
	Name                  string            `json:"name" validate:"required,max=128"`
	ModuleCode            string            `json:"moduleCode" validate:"required,max=64"`
	ModuleName            string            `json:"moduleName" validate:"required,max=128"`
	ApplicablePermissions *authz.Applicable `json:"applicablePermissions"`
	Category              string            `json:"category" validate:"max=64"`
	Description           string            `json:"description" validate:"max=512"`
}

// UpdateRequest 更新权益请求，未提供的字段保持不变
type UpdateRequest struct {
	Code                  *string           `json:"code" validate:"omitempty,min=1,max=64"`
	Name                  *string           `json:"name" validate:"omitempty,min=1,max=128"`
	ModuleCode            *string           `json:"moduleCode" validate:"omitempty,min=1,max=64"`
	ModuleName            *string           `json:"moduleName" validate:"omitempty,min=1,max=128"`
	ApplicablePermissions *authz.Applicable `json:"applicablePermissions"`
	Category              *string           `json:"category" validate:"omitempty,max=64"`
	Description           *string           `json:"description" validate:"omitempty,max=512"`
}
