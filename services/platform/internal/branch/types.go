package branch

import "github.com/agrismart/services/platform/internal/model"

// CreateRequest 创建分店请求，店铺管理员省略 shopId 时取本店
type CreateRequest struct {
	Name     string        `json:"name" validate:"required,max=128"`
	ShopID   int64         `json:"shopId"`
	Location string        `json:"location"`
	GeoTag   *model.GeoTag `json:"geoTag"`
}

// UpdateRequest 更新分店请求
type UpdateRequest struct {
	Name     *string       `json:"name" validate:"omitempty,min=1,max=128"`
	Location *string       `json:"location"`
	GeoTag   *model.GeoTag `json:"geoTag"`
}

// ListRequest 分店列表请求
type ListRequest struct {
	ShopID int64 `query:"shopId"`
}
