package auth

import (
	pkgAuth "github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
)

// SignupRequest 注册请求，角色固定为 CUSTOMER
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ShopLoginRequest 店铺登录请求
type ShopLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	ShopID   int64  `json:"shopId" validate:"required,gt=0"`
}

// UserInfo 登录用户信息
type UserInfo struct {
	ID          int64         `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        authz.Role    `json:"role"`
	ShopID      int64         `json:"shopId,omitempty"`
	RoleID      int64         `json:"roleId,omitempty"`
	Permissions []authz.Grant `json:"permissions"`
}

// AuthResponse 登录响应
type AuthResponse struct {
	*pkgAuth.TokenInfo
	User *UserInfo `json:"user"`
}
