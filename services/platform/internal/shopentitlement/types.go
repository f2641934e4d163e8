package shopentitlement

import (
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/services/platform/internal/model"
)

// AssignRequest 为店铺开通权益，未提供上限时取目录的可用动作
type AssignRequest struct {
	EntitlementID      int64              `json:"entitlementId" validate:"required,gt=0"`
	AllowedPermissions *authz.Permissions `json:"allowedPermissions"`
}

// BulkAssignRequest 批量开通
type BulkAssignRequest struct {
	Entitlements []AssignRequest `json:"entitlements" validate:"required,min=1,dive"`
}

// UpdatePermissionsRequest 整体替换动作上限
type UpdatePermissionsRequest struct {
	AllowedPermissions authz.Permissions `json:"allowedPermissions"`
}

// BulkError 批量开通中单项失败
type BulkError struct {
	EntitlementID int64  `json:"entitlementId"`
	Error         string `json:"error"`
}

// BulkResult 批量开通结果，逐项独立，不回滚
type BulkResult struct {
	Success int                     `json:"success"`
	Failed  int                     `json:"failed"`
	Results []model.ShopEntitlement `json:"results"`
	Errors  []BulkError             `json:"errors"`
}
