package model

import (
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
)

// Entitlement 平台权益目录
type Entitlement struct {
	dal.Model
	Code                  string           `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name                  string           `gorm:"size:128;not null" json:"name"`
	ModuleCode            string           `gorm:"size:64;not null" json:"moduleCode"`
	ModuleName            string           `gorm:"size:128;not null" json:"moduleName"`
	ApplicablePermissions authz.Applicable `gorm:"serializer:json" json:"applicablePermissions"`
	Category              string           `gorm:"size:64" json:"category,omitempty"`
	Description           string           `gorm:"size:512" json:"description,omitempty"`
}

// TableName 表名
func (Entitlement) TableName() string {
	return "entitlement"
}

// ShopEntitlement 店铺已开通的权益及动作上限
type ShopEntitlement struct {
	dal.Model
	ShopID             int64             `gorm:"uniqueIndex:uk_shop_entitlement;not null" json:"shopId"`
	EntitlementID      int64             `gorm:"uniqueIndex:uk_shop_entitlement;not null" json:"entitlementId"`
	EntitlementCode    string            `gorm:"size:64;index;not null" json:"entitlementCode"`
	ModuleName         string            `gorm:"size:128" json:"moduleName"`
	AllowedPermissions authz.Permissions `gorm:"serializer:json" json:"allowedPermissions"`
	AssignedBy         int64             `json:"assignedBy"`
	Entitlement        *Entitlement      `gorm:"foreignKey:EntitlementID" json:"entitlement,omitempty"`
}

// TableName 表名
func (ShopEntitlement) TableName() string {
	return "shop_entitlement"
}
