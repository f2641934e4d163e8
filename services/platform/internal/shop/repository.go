package shop

import (
	"context"

	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 店铺仓储接口
type Repository interface {
	dal.Repository[model.Shop]
	FindByCode(ctx context.Context, code string) (*model.Shop, error)
	// FindConflict 名称或编码已被其他店铺使用
	FindConflict(ctx context.Context, name, code string, excludeID int64) (*model.Shop, error)
	FindAllByName(ctx context.Context) ([]model.Shop, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

type repository struct {
	*dal.BaseRepository[model.Shop]
}

// NewRepository 创建店铺仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Shop](db)}
}

// FindByCode 按编码查找
func (r *repository) FindByCode(ctx context.Context, code string) (*model.Shop, error) {
	return r.FindOne(ctx, map[string]interface{}{"code": code})
}

// FindConflict 查找重名店铺
func (r *repository) FindConflict(ctx context.Context, name, code string, excludeID int64) (*model.Shop, error) {
	return dal.NewQueryBuilder[model.Shop](r.DB()).
		Where("(name = ? OR code = ?)", name, code).
		WhereIf(excludeID != 0, "id <> ?", excludeID).
		First(ctx)
}

// FindAllByName 全部店铺
func (r *repository) FindAllByName(ctx context.Context) ([]model.Shop, error) {
	return r.FindAll(ctx, nil, dal.WithOrder("name ASC"))
}

// EmailTaken 邮箱是否已注册
func (r *repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}
