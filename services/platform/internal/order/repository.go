package order

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/pkg/database"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 订单仓储接口
type Repository interface {
	dal.Repository[model.Order]
	List(ctx context.Context, customerID, shopID int64) ([]model.Order, error)
	FindShop(ctx context.Context, id int64) (*model.Shop, error)
	FindCustomer(ctx context.Context, id int64) (*model.User, error)
}

type repository struct {
	*dal.BaseRepository[model.Order]
}

// NewRepository 创建订单仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Order](db)}
}

// List 按客户或店铺过滤，按创建时间倒序
func (r *repository) List(ctx context.Context, customerID, shopID int64) ([]model.Order, error) {
	return dal.NewQueryBuilder[model.Order](r.DB()).
		WhereID("customer_id", customerID).
		WhereID("shop_id", shopID).
		Order("created_at DESC").
		Order("id DESC").
		Find(ctx)
}

// FindShop 查询店铺
func (r *repository) FindShop(ctx context.Context, id int64) (*model.Shop, error) {
	return dal.NewQueryBuilder[model.Shop](r.DB()).Where("id = ?", id).First(ctx)
}

// FindCustomer 查询客户
func (r *repository) FindCustomer(ctx context.Context, id int64) (*model.User, error) {
	return dal.NewQueryBuilder[model.User](r.DB()).Where("id = ?", id).First(ctx)
}

// Sequencer 发票序号
type Sequencer interface {
	Next(ctx context.Context) (int64, error)
}

type redisSequencer struct {
	cache *database.Cache
}

// NewSequencer 基于 Redis INCR 的序号，多实例共享；cache 为空时退化为进程内计数
func NewSequencer(cache *database.Cache) Sequencer {
	if cache == nil {
		return &localSequencer{}
	}
	return &redisSequencer{cache: cache}
}

func (s *redisSequencer) Next(ctx context.Context) (int64, error) {
	return s.cache.Incr(ctx, "invoice:seq")
}

type localSequencer struct {
	n atomic.Int64
}

func (s *localSequencer) Next(context.Context) (int64, error) {
	return s.n.Add(1), nil
}

func invoiceNumber(now time.Time, n int64) string {
	return fmt.Sprintf("INV-%d-%d", now.UnixMilli(), n)
}
