package analytics

import (
	"context"

	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 统计数据读取
type Repository interface {
	Orders(ctx context.Context, f Filter) ([]model.Order, error)
	Products(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	Categories(ctx context.Context, ids []int64) (map[int64]model.Category, error)
}

type repository struct {
	*dal.BaseRepository[model.Order]
}

// NewRepository 创建统计仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Order](db)}
}

// Orders 未取消的订单
func (r *repository) Orders(ctx context.Context, f Filter) ([]model.Order, error) {
	return dal.NewQueryBuilder[model.Order](r.DB()).
		Where("status <> ?", model.OrderCancelled).
		WhereID("shop_id", f.ShopID).
		WhereIf(f.Start != nil, "created_at >= ?", f.Start).
		WhereIf(f.End != nil, "created_at <= ?", f.End).
		Order("created_at ASC").
		Find(ctx)
}

// Products 按ID批量读取商品
func (r *repository) Products(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	list, err := byIDs[model.Product](ctx, r.DB(), ids)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]model.Product, len(list))
	for _, p := range list {
		m[p.ID] = p
	}
	return m, nil
}

// Categories 按ID批量读取分类
func (r *repository) Categories(ctx context.Context, ids []int64) (map[int64]model.Category, error) {
	list, err := byIDs[model.Category](ctx, r.DB(), ids)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]model.Category, len(list))
	for _, c := range list {
		m[c.ID] = c
	}
	return m, nil
}

func byIDs[T any](ctx context.Context, db *gorm.DB, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return dal.NewQueryBuilder[T](db).Where("id IN ?", ids).Find(ctx)
}
