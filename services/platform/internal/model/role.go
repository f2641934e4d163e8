package model

import (
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
)

// Role 店铺自定义角色
type Role struct {
	dal.Model
	ShopID                 int64             `gorm:"uniqueIndex:uk_shop_role;not null" json:"shopId"`
	RoleName               string            `gorm:"size:128;not null" json:"roleName"`
	RoleCode               string            `gorm:"size:64;uniqueIndex:uk_shop_role;not null" json:"roleCode"`
	CreatedBy              int64             `json:"createdBy"`
	EntitlementPermissions []authz.RoleEntry `gorm:"serializer:json" json:"entitlementPermissions"`
	IsActive               bool              `gorm:"not null" json:"isActive"`
	Description            string            `gorm:"size:512" json:"description,omitempty"`
}

// TableName 表名
func (Role) TableName() string {
	return "role"
}
