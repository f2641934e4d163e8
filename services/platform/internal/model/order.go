package model

import (
	"time"

	"github.com/agrismart/pkg/dal"
	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// OrderItem 订单明细
type OrderItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	GST       decimal.Decimal `json:"gst"`
	Total     decimal.Decimal `json:"total"`
}

// Order 订单
type Order struct {
	dal.Model
	CustomerID      int64           `gorm:"index;not null" json:"customerId"`
	ShopID          int64           `gorm:"index;not null" json:"shopId"`
	BranchID        int64           `gorm:"index" json:"branchId,omitempty"`
	Items           []OrderItem     `gorm:"serializer:json" json:"items"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	GST             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"gst"`
	Discount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	Status          OrderStatus     `gorm:"size:32;index;not null" json:"status"`
	OrderType       OrderType       `gorm:"size:16;not null" json:"orderType"`
	DeliveryAddress string          `gorm:"size:512" json:"deliveryAddress,omitempty"`
	InvoiceNumber   string          `gorm:"size:64;uniqueIndex" json:"invoiceNumber"`
	Notes           string          `gorm:"size:1024" json:"notes,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "order"
}

// DeliveryStatus 配送状态
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Location 坐标
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Delivery 配送记录，一个订单最多一条
type Delivery struct {
	dal.Model
	OrderID         int64          `gorm:"uniqueIndex;not null" json:"orderId"`
	DeliveryAgentID int64          `gorm:"index" json:"deliveryAgentId,omitempty"`
	Status          DeliveryStatus `gorm:"size:32;index;not null" json:"status"`
	EstimatedTime   *time.Time     `json:"estimatedTime,omitempty"`
	DeliveredAt     *time.Time     `json:"deliveredAt,omitempty"`
	Location        *Location      `gorm:"serializer:json" json:"location,omitempty"`
	Notes           string         `gorm:"size:1024" json:"notes,omitempty"`
	Order           *Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// TableName 表名
func (Delivery) TableName() string {
	return "delivery"
}
