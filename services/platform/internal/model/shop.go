package model

import "github.com/agrismart/pkg/dal"

// Theme 店铺主题色
type Theme struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
}

// Shop 店铺（租户）
type Shop struct {
	dal.Model
	Name        string  `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Code        string  `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Address     string  `gorm:"size:512" json:"address,omitempty"`
	Email       string  `gorm:"size:255" json:"email,omitempty"`
	Contact     string  `gorm:"size:64" json:"contact,omitempty"`
	CategoryIDs []int64 `gorm:"serializer:json" json:"categories"`
	LogoURL     string  `gorm:"size:512" json:"logoUrl,omitempty"`
	Theme       Theme   `gorm:"serializer:json" json:"theme"`
}

// TableName 表名
func (Shop) TableName() string {
	return "shop"
}

// GeoTag 地理围栏
type GeoTag struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"` // 米
}

// Branch 店铺分店
type Branch struct {
	dal.Model
	Name     string  `gorm:"size:128;not null" json:"name"`
	ShopID   int64   `gorm:"index;not null" json:"shopId"`
	Location string  `gorm:"size:512" json:"location,omitempty"`
	GeoTag   *GeoTag `gorm:"serializer:json" json:"geoTag"`
}

// TableName 表名
func (Branch) TableName() string {
	return "branch"
}

// Category 商品分类
type Category struct {
	dal.Model
	Name        string `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:512" json:"description,omitempty"`
	ImageURL    string `gorm:"size:512" json:"imageUrl,omitempty"`
}

// TableName 表名
func (Category) TableName() string {
	return "category"
}
