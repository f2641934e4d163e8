package inventory

import (
	"context"

	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 商品仓储接口
type Repository interface {
	dal.Repository[model.Product]
	FindBySKU(ctx context.Context, shopID int64, sku string) (*model.Product, error)
	List(ctx context.Context, req *ListRequest) ([]model.Product, error)
	BranchInShop(ctx context.Context, branchID, shopID int64) (bool, error)
}

type repository struct {
	*dal.BaseRepository[model.Product]
}

// NewRepository 创建商品仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Product](db)}
}

// FindBySKU 店铺内按 SKU 查找
func (r *repository) FindBySKU(ctx context.Context, shopID int64, sku string) (*model.Product, error) {
	return r.FindOne(ctx, map[string]interface{}{"shop_id": shopID, "sku": sku})
}

// List 按店铺、分店、分类过滤
func (r *repository) List(ctx context.Context, req *ListRequest) ([]model.Product, error) {
	return dal.NewQueryBuilder[model.Product](r.DB()).
		WhereID("shop_id", req.ShopID).
		WhereID("branch_id", req.BranchID).
		WhereID("category_id", req.CategoryID).
		Order("name ASC").
		Find(ctx)
}

// BranchInShop 分店是否属于店铺
func (r *repository) BranchInShop(ctx context.Context, branchID, shopID int64) (bool, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.Branch{}).
		Where("id = ? AND shop_id = ?", branchID, shopID).
		Count(&count).Error
	return count > 0, err
}
