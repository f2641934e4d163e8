package inventory

import (
	"github.com/agrismart/services/platform/internal/model"
	"github.com/shopspring/decimal"
)

// CreateRequest 创建商品请求
type CreateRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	SKU         string          `json:"sku" validate:"required,max=64"`
	Unit        string          `json:"unit" validate:"required,max=32"`
	Price       decimal.Decimal `json:"price"`
	GST         decimal.Decimal `json:"gst"`
	Stock       int             `json:"stock" validate:"gte=0"`
	CategoryID  int64           `json:"categoryId" validate:"required"`
	ShopID      int64           `json:"shopId"`
	BranchID    int64           `json:"branchId"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description" validate:"max=1024"`
}

// UpdateRequest 更新商品请求，SKU 与店铺不可修改
type UpdateRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Unit        *string          `json:"unit" validate:"omitempty,min=1,max=32"`
	Price       *decimal.Decimal `json:"price"`
	GST         *decimal.Decimal `json:"gst"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	CategoryID  *int64           `json:"categoryId"`
	BranchID    *int64           `json:"branchId"`
	ImageURL    *string          `json:"imageUrl"`
	Description *string          `json:"description" validate:"omitempty,max=1024"`
}

// ListRequest 商品列表请求
type ListRequest struct {
	ShopID     int64 `query:"shopId"`
	BranchID   int64 `query:"branchId"`
	CategoryID int64 `query:"categoryId"`
}

// ProductView 商品及含税价格
type ProductView struct {
	model.Product
	GSTAmount    decimal.Decimal `json:"gstAmount"`
	PriceWithGST decimal.Decimal `json:"priceWithGst"`
}

func viewOf(p *model.Product) ProductView {
	return ProductView{Product: *p, GSTAmount: p.GSTAmount(), PriceWithGST: p.PriceWithGST()}
}

func viewsOf(list []model.Product) []ProductView {
	views := make([]ProductView, len(list))
	for i := range list {
		views[i] = viewOf(&list[i])
	}
	return views
}
