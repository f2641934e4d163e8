package analytics

import (
	"slices"

	"github.com/agrismart/services/platform/internal/model"
	"github.com/shopspring/decimal"
)

// productIDs 订单明细中出现的商品
func productIDs(orders []model.Order) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, o := range orders {
		for _, it := range o.Items {
			if _, ok := seen[it.ProductID]; !ok {
				seen[it.ProductID] = struct{}{}
				ids = append(ids, it.ProductID)
			}
		}
	}
	return ids
}

// salesByProduct 按商品汇总明细，已删除的商品不计入
func salesByProduct(orders []model.Order, products map[int64]model.Product) []ProductSales {
	acc := make(map[int64]*ProductSales)
	for _, o := range orders {
		for _, it := range o.Items {
			p, ok := products[it.ProductID]
			if !ok {
				continue
			}
			s, ok := acc[it.ProductID]
			if !ok {
				s = &ProductSales{ProductID: p.ID, ProductName: p.Name, CategoryID: p.CategoryID, TotalRevenue: decimal.Zero}
				acc[it.ProductID] = s
			}
			s.TotalQuantity += it.Quantity
			s.TotalRevenue = s.TotalRevenue.Add(it.Total)
			s.OrderCount++
		}
	}
	out := make([]ProductSales, 0, len(acc))
	for _, s := range acc {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b ProductSales) int {
		if c := b.TotalRevenue.Cmp(a.TotalRevenue); c != 0 {
			return c
		}
		return int(a.ProductID - b.ProductID)
	})
	return out
}

// salesByCategory 按商品所属分类汇总，分类不存在时不计入
func salesByCategory(orders []model.Order, products map[int64]model.Product, categories map[int64]model.Category) []CategorySales {
	acc := make(map[int64]*CategorySales)
	for _, o := range orders {
		for _, it := range o.Items {
			p, ok := products[it.ProductID]
			if !ok {
				continue
			}
			cat, ok := categories[p.CategoryID]
			if !ok {
				continue
			}
			s, ok := acc[cat.ID]
			if !ok {
				s = &CategorySales{CategoryID: cat.ID, CategoryName: cat.Name, TotalRevenue: decimal.Zero}
				acc[cat.ID] = s
			}
			s.TotalQuantity += it.Quantity
			s.TotalRevenue = s.TotalRevenue.Add(it.Total)
			s.OrderCount++
		}
	}
	out := make([]CategorySales, 0, len(acc))
	for _, s := range acc {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b CategorySales) int {
		if c := b.TotalRevenue.Cmp(a.TotalRevenue); c != 0 {
			return c
		}
		return int(a.CategoryID - b.CategoryID)
	})
	return out
}

func typeRatio(orders []model.Order) *TypeRatio {
	r := &TypeRatio{
		Pickup:   TypeShare{Revenue: decimal.Zero},
		Delivery: TypeShare{Revenue: decimal.Zero},
		Total:    len(orders),
	}
	for _, o := range orders {
		share := &r.Pickup
		if o.OrderType == model.OrderTypeDelivery {
			share = &r.Delivery
		}
		share.Count++
		share.Revenue = share.Revenue.Add(o.TotalAmount)
	}
	if r.Total > 0 {
		r.Pickup.Percentage = float64(r.Pickup.Count) / float64(r.Total) * 100
		r.Delivery.Percentage = float64(r.Delivery.Count) / float64(r.Total) * 100
	}
	return r
}

func revenueOf(orders []model.Order) *Revenue {
	r := &Revenue{
		TotalRevenue:      decimal.Zero,
		TotalGST:          decimal.Zero,
		TotalDiscount:     decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TotalOrders:       len(orders),
	}
	for _, o := range orders {
		r.TotalRevenue = r.TotalRevenue.Add(o.TotalAmount)
		r.TotalGST = r.TotalGST.Add(o.GST)
		r.TotalDiscount = r.TotalDiscount.Add(o.Discount)
	}
	if r.TotalOrders > 0 {
		r.AverageOrderValue = r.TotalRevenue.Div(decimal.NewFromInt(int64(r.TotalOrders))).Round(2)
	}
	return r
}

// seasonOf 印度农季：Kharif 6-10月，Rabi 11-3月，Zaid 4-5月
func seasonOf(month int) string {
	switch {
	case month >= 6 && month <= 10:
		return "KHARIF"
	case month == 4 || month == 5:
		return "ZAID"
	default:
		return "RABI"
	}
}

// salesBySeason 按年月汇总，时间升序
func salesBySeason(orders []model.Order) []MonthlySales {
	type key struct{ year, month int }
	acc := make(map[key]*MonthlySales)
	for _, o := range orders {
		k := key{o.CreatedAt.Year(), int(o.CreatedAt.Month())}
		s, ok := acc[k]
		if !ok {
			s = &MonthlySales{Year: k.year, Month: k.month, Season: seasonOf(k.month), TotalRevenue: decimal.Zero}
			acc[k] = s
		}
		s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		s.TotalOrders++
	}
	out := make([]MonthlySales, 0, len(acc))
	for _, s := range acc {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b MonthlySales) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Month - b.Month
	})
	return out
}
