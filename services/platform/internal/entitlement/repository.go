package entitlement

import (
	"context"
	"time"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

const (
	cacheSize = 256
	cacheTTL  = 10 * time.Minute
)

// Repository 权益目录仓储接口
type Repository interface {
	dal.Repository[model.Entitlement]
	FindByCode(ctx context.Context, code string) (*model.Entitlement, error)
	FindAllByName(ctx context.Context) ([]model.Entitlement, error)
	// Evict 淘汰本地缓存，code 为空时清空
	Evict(code string)
}

// repository 带按编码 LRU 缓存的仓储实现
type repository struct {
	*dal.BaseRepository[model.Entitlement]
	byCode *lru.LRU[string, model.Entitlement]
}

// NewRepository 创建权益仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepository[model.Entitlement](db),
		byCode:         lru.NewLRU[string, model.Entitlement](cacheSize, nil, cacheTTL),
	}
}

// FindByCode 按编码查找，大小写不敏感
func (r *repository) FindByCode(ctx context.Context, code string) (*model.Entitlement, error) {
	code = authz.NormalizeCode(code)
	if e, ok := r.byCode.Get(code); ok {
		return &e, nil
	}
	e, err := r.FindOne(ctx, map[string]interface{}{"code": code})
	if err != nil || e == nil {
		return e, err
	}
	r.byCode.Add(code, *e)
	return e, nil
}

// FindAllByName 全部权益，按名称排序
func (r *repository) FindAllByName(ctx context.Context) ([]model.Entitlement, error) {
	return r.FindAll(ctx, nil, dal.WithOrder("name ASC"))
}

// Evict 淘汰本地缓存
func (r *repository) Evict(code string) {
	if code == "" {
		r.byCode.Purge()
		return
	}
	r.byCode.Remove(authz.NormalizeCode(code))
}
