package user

import (
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
)

// CreateRequest 创建用户请求
type CreateRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Name     string     `json:"name" validate:"required"`
	Role     authz.Role `json:"role" validate:"required,oneof=SUPER_ADMIN SHOP_ADMIN STAFF DELIVERY CUSTOMER"`
	ShopID   int64      `json:"shopId"`
	Phone    string     `json:"phone"`
	Address  string     `json:"address"`
}

// UpdateRequest 更新用户请求
type UpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"isActive"`
	ShopID   *int64  `json:"shopId"`
}

// ListRequest 用户列表请求
type ListRequest struct {
	dal.Pagination
	ShopID int64      `query:"shopId"`
	Role   authz.Role `query:"role"`
}
