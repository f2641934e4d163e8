package category

import (
	"context"

	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 分类仓储接口
type Repository interface {
	dal.Repository[model.Category]
	FindByName(ctx context.Context, name string) (*model.Category, error)
}

type repository struct {
	*dal.BaseRepository[model.Category]
}

// NewRepository 创建分类仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Category](db)}
}

// FindByName 按名称查找
func (r *repository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	return r.FindOne(ctx, map[string]interface{}{"name": name})
}
