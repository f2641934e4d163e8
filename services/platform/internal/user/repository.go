package user

import (
	"context"

	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 用户仓储接口
type Repository interface {
	dal.Repository[model.User]
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, req *ListRequest) (*dal.PagedResult[model.User], error)
	ShopExists(ctx context.Context, shopID int64) (bool, error)
}

// repository 用户仓储实现
type repository struct {
	*dal.BaseRepository[model.User]
}

// NewRepository 创建用户仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepository[model.User](db),
	}
}

// FindByEmail 根据邮箱查找
func (r *repository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.FindOne(ctx, map[string]interface{}{"email": email})
}

// List 分页列表
func (r *repository) List(ctx context.Context, req *ListRequest) (*dal.PagedResult[model.User], error) {
	return dal.NewQueryBuilder[model.User](r.DB()).
		WhereID("shop_id", req.ShopID).
		WhereIf(req.Role != "", "role = ?", req.Role).
		Order("id DESC").
		Paged(ctx, dal.NewPagination(req.Page, req.PageSize))
}

// ShopExists 店铺是否存在
func (r *repository) ShopExists(ctx context.Context, shopID int64) (bool, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.Shop{}).Where("id = ?", shopID).Count(&count).Error
	return count > 0, err
}
