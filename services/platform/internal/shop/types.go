package shop

import "github.com/agrismart/services/platform/internal/model"

// CreateRequest 创建店铺请求，可同时创建店铺管理员
type CreateRequest struct {
	Name          string       `json:"name" validate:"required,max=128"`
	Code          string       `json:"code" validate:"required,max=64"`
	Address       string       `json:"address"`
	Email         string       `json:"email" validate:"omitempty,email"`
	Contact       string       `json:"contact"`
	Categories    []int64      `json:"categories"`
	LogoURL       string       `json:"logoUrl"`
	Theme         *model.Theme `json:"theme"`
	AdminEmail    string       `json:"adminEmail" validate:"omitempty,email"`
	AdminPassword string       `json:"adminPassword" validate:"omitempty,min=6"`
	AdminName     string       `json:"adminName"`
}

// withAdmin 是否携带管理员信息
func (r *CreateRequest) withAdmin() bool {
	return r.AdminEmail != "" || r.AdminPassword != "" || r.AdminName != ""
}

// UpdateRequest 更新店铺请求
type UpdateRequest struct {
	Name       *string      `json:"name" validate:"omitempty,min=1,max=128"`
	Code       *string      `json:"code" validate:"omitempty,min=1,max=64"`
	Address    *string      `json:"address"`
	Email      *string      `json:"email" validate:"omitempty,email"`
	Contact    *string      `json:"contact"`
	Categories *[]int64     `json:"categories"`
	LogoURL    *string      `json:"logoUrl"`
	Theme      *model.Theme `json:"theme"`
}
