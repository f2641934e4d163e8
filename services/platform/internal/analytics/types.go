package analytics

import (
	"time"

	"github.com/agrismart/pkg/errors"
	"github.com/shopspring/decimal"
)

// Query 统计查询参数
type Query struct {
	ShopID    int64  `query:"shopId"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
	Year      int    `query:"year"`
}

// Filter 解析后的统计条件，零值字段不参与过滤
type Filter struct {
	ShopID int64
	Start  *time.Time
	End    *time.Time
}

const dateLayout = "2006-01-02"

// Filter 解析日期范围，纯日期的结束时间包含当天
func (q *Query) Filter() (Filter, error) {
	f := Filter{ShopID: q.ShopID}
	if q.StartDate != "" {
		t, _, err := parseDate(q.StartDate)
		if err != nil {
			return f, errors.Validation("startDate must be RFC3339 or YYYY-MM-DD")
		}
		f.Start = &t
	}
	if q.EndDate != "" {
		t, dateOnly, err := parseDate(q.EndDate)
		if err != nil {
			return f, errors.Validation("endDate must be RFC3339 or YYYY-MM-DD")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.End = &t
	}
	if q.Year != 0 {
		start := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
		f.Start, f.End = &start, &end
	}
	return f, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(dateLayout, s)
	return t, true, err
}

// ProductSales 单品销售
type ProductSales struct {
	ProductID     int64           `json:"productId"`
	ProductName   string          `json:"productName"`
	CategoryID    int64           `json:"categoryId"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	OrderCount    int             `json:"orderCount"`
}

// CategorySales 分类销售
type CategorySales struct {
	CategoryID    int64           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	OrderCount    int             `json:"orderCount"`
}

// TypeShare 某种订单类型的占比
type TypeShare struct {
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// TypeRatio 自提与配送对比
type TypeRatio struct {
	Pickup   TypeShare `json:"pickup"`
	Delivery TypeShare `json:"delivery"`
	Total    int       `json:"total"`
}

// Revenue 营收汇总
type Revenue struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalOrders       int             `json:"totalOrders"`
	TotalGST          decimal.Decimal `json:"totalGst"`
	TotalDiscount     decimal.Decimal `json:"totalDiscount"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// MonthlySales 按月销售，附带农季
type MonthlySales struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Season       string          `json:"season"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalOrders  int             `json:"totalOrders"`
}

// Dashboard 看板汇总
type Dashboard struct {
	Revenue     *Revenue        `json:"revenue"`
	Ratio       *TypeRatio      `json:"pickupVsDelivery"`
	TopProducts []ProductSales  `json:"topProducts"`
	Categories  []CategorySales `json:"categories"`
}
