package model

import (
	"github.com/agrismart/pkg/dal"
	"github.com/shopspring/decimal"
)

// Product 商品
type Product struct {
	dal.Model
	Name        string          `gorm:"size:255;not null" json:"name"`
	SKU         string          `gorm:"size:64;uniqueIndex:uk_shop_sku;not null" json:"sku"`
	Unit        string          `gorm:"size:32;not null" json:"unit"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	GST         decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"gst"` // 百分比
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	CategoryID  int64           `gorm:"index;not null" json:"categoryId"`
	ShopID      int64           `gorm:"uniqueIndex:uk_shop_sku;not null" json:"shopId"`
	BranchID    int64           `gorm:"index" json:"branchId,omitempty"`
	ImageURL    string          `gorm:"size:512" json:"imageUrl,omitempty"`
	Description string          `gorm:"size:1024" json:"description,omitempty"`
}

// TableName 表名
func (Product) TableName() string {
	return "product"
}

// GSTAmount 单价对应的税额
func (p *Product) GSTAmount() decimal.Decimal {
	return p.Price.Mul(p.GST).Div(decimal.NewFromInt(100)).Round(2)
}

// PriceWithGST 含税单价
func (p *Product) PriceWithGST() decimal.Decimal {
	return p.Price.Add(p.GSTAmount())
}
