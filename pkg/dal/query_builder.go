package dal

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// QueryBuilder 查询构建器
type QueryBuilder[T any] struct {
	db       *gorm.DB
	wheres   []clause
	orders   []string
	preloads []string
}

type clause struct {
	query any
	args  []any
}

// NewQueryBuilder 创建查询构建器
func NewQueryBuilder[T any](db *gorm.DB) *QueryBuilder[T] {
	return &QueryBuilder[T]{db: db}
}

// Where 添加条件
func (qb *QueryBuilder[T]) Where(query any, args ...any) *QueryBuilder[T] {
	qb.wheres = append(qb.wheres, clause{query: query, args: args})
	return qb
}

// WhereIf 条件成立时添加条件
func (qb *QueryBuilder[T]) WhereIf(condition bool, query any, args ...any) *QueryBuilder[T] {
	if condition {
		return qb.Where(query, args...)
	}
	return qb
}

// WhereID 非零ID时添加等值条件
func (qb *QueryBuilder[T]) WhereID(field string, id int64) *QueryBuilder[T] {
	return qb.WhereIf(id != 0, field+" = ?", id)
}

// Order 添加排序
func (qb *QueryBuilder[T]) Order(order string) *QueryBuilder[T] {
	if order != "" {
		qb.orders = append(qb.orders, order)
	}
	return qb
}

// Preload 添加预加载
func (qb *QueryBuilder[T]) Preload(query string) *QueryBuilder[T] {
	qb.preloads = append(qb.preloads, query)
	return qb
}

// Build 构建查询
func (qb *QueryBuilder[T]) Build(ctx context.Context) *gorm.DB {
	var entity T
	db := qb.db.WithContext(ctx).Model(&entity)
	for _, w := range qb.wheres {
		db = db.Where(w.query, w.args...)
	}
	for _, p := range qb.preloads {
		db = db.Preload(p)
	}
	for _, o := range qb.orders {
		db = db.Order(o)
	}
	return db
}

// Find 查询所有
func (qb *QueryBuilder[T]) Find(ctx context.Context) ([]T, error) {
	entities := make([]T, 0)
	if err := qb.Build(ctx).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// First 查询第一条，不存在返回 nil, nil
func (qb *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	var entity T
	if err := qb.Build(ctx).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

// Count 统计数量
func (qb *QueryBuilder[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := qb.Build(ctx).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Paged 分页查询
func (qb *QueryBuilder[T]) Paged(ctx context.Context, pagination *Pagination) (*PagedResult[T], error) {
	return paginate[T](qb.Build(ctx), pagination)
}
