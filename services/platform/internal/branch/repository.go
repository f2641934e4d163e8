package branch

import (
	"context"

	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 分店仓储接口
type Repository interface {
	dal.Repository[model.Branch]
	FindByShop(ctx context.Context, shopID int64) ([]model.Branch, error)
	ShopExists(ctx context.Context, shopID int64) (bool, error)
}

type repository struct {
	*dal.BaseRepository[model.Branch]
}

// NewRepository 创建分店仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Branch](db)}
}

// FindByShop 分店列表，shopID 为0时返回全部
func (r *repository) FindByShop(ctx context.Context, shopID int64) ([]model.Branch, error) {
	return dal.NewQueryBuilder[model.Branch](r.DB()).
		WhereID("shop_id", shopID).
		Order("id ASC").
		Find(ctx)
}

// ShopExists 店铺是否存在
func (r *repository) ShopExists(ctx context.Context, shopID int64) (bool, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.Shop{}).Where("id = ?", shopID).Count(&count).Error
	return count > 0, err
}
