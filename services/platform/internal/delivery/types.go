package delivery

import (
	"time"

	"github.com/agrismart/services/platform/internal/model"
)

// CreateRequest 创建配送请求
type CreateRequest struct {
	OrderID         int64           `json:"orderId" validate:"required"`
	DeliveryAgentID int64           `json:"deliveryAgentId"`
	EstimatedTime   *time.Time      `json:"estimatedTime"`
	Location        *model.Location `json:"location"`
	Notes           string          `json:"notes" validate:"max=1024"`
}

// UpdateRequest 更新配送请求，配送员提交的 deliveryAgentId 会被忽略
type UpdateRequest struct {
	DeliveryAgentID *int64                `json:"deliveryAgentId"`
	Status          *model.DeliveryStatus `json:"status" validate:"omitempty,oneof=pending assigned picked_up in_transit delivered failed"`
	EstimatedTime   *time.Time            `json:"estimatedTime"`
	Location        *model.Location       `json:"location"`
	Notes           *string               `json:"notes" validate:"omitempty,max=1024"`
}

// AssignRequest 指派配送员请求
type AssignRequest struct {
	DeliveryAgentID int64 `json:"deliveryAgentId" validate:"required"`
}

// ListRequest 配送列表请求
type ListRequest struct {
	ShopID int64 `query:"shopId"`
}
