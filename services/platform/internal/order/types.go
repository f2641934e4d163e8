package order

import (
	"time"

	"github.com/agrismart/services/platform/internal/model"
	"github.com/shopspring/decimal"
)

// ItemRequest 下单明细
type ItemRequest struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// CreateRequest 下单请求
type CreateRequest struct {
	ShopID          int64           `json:"shopId" validate:"required"`
	BranchID        int64           `json:"branchId"`
	Items           []ItemRequest   `json:"items" validate:"required,min=1,dive"`
	OrderType       model.OrderType `json:"orderType" validate:"required,oneof=delivery pickup"`
	DeliveryAddress string          `json:"deliveryAddress" validate:"max=512"`
	Discount        decimal.Decimal `json:"discount"`
	Notes           string          `json:"notes" validate:"max=1024"`
}

// ListRequest 订单列表请求
type ListRequest struct {
	ShopID int64 `query:"shopId"`
}

// UpdateStatusRequest 更新订单状态请求
type UpdateStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=pending confirmed preparing ready out_for_delivery delivered cancelled"`
	Notes  string            `json:"notes" validate:"max=1024"`
}

// InvoiceParty 发票上的店铺或客户信息
type InvoiceParty struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Invoice 发票
type Invoice struct {
	InvoiceNumber   string            `json:"invoiceNumber"`
	IssuedAt        time.Time         `json:"issuedAt"`
	OrderID         int64             `json:"orderId"`
	Status          model.OrderStatus `json:"status"`
	OrderType       model.OrderType   `json:"orderType"`
	Shop            InvoiceParty      `json:"shop"`
	Customer        InvoiceParty      `json:"customer"`
	Items           []model.OrderItem `json:"items"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	GST             decimal.Decimal   `json:"gst"`
	Discount        decimal.Decimal   `json:"discount"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	DeliveryAddress string            `json:"deliveryAddress,omitempty"`
}
