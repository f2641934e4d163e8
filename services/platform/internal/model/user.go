package model

import (
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
)

// User 用户，Permissions 为分配角色时复制的快照
type User struct {
	dal.Model
	Email       string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password    string        `gorm:"size:255;not null" json:"-"`
	Name        string        `gorm:"size:128;not null" json:"name"`
	Phone       string        `gorm:"size:32" json:"phone,omitempty"`
	Address     string        `gorm:"size:512" json:"address,omitempty"`
	Role        authz.Role    `gorm:"size:32;index;not null" json:"role"`
	ShopID      int64         `gorm:"index" json:"shopId,omitempty"`
	RoleID      int64         `gorm:"index" json:"roleId,omitempty"`
	Permissions []authz.Grant `gorm:"serializer:json" json:"permissions"`
	IsActive    bool          `gorm:"not null" json:"isActive"`
}

// TableName 表名
func (User) TableName() string {
	return "user"
}

// Principal 转为请求主体
func (u *User) Principal() *authz.Principal {
	perms := u.Permissions
	if perms == nil {
		perms = []authz.Grant{}
	}
	return &authz.Principal{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		ShopID:      u.ShopID,
		RoleID:      u.RoleID,
		Permissions: perms,
		Active:      u.IsActive,
	}
}
