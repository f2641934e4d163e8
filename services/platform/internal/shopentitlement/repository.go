package shopentitlement

import (
	"context"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 店铺权益仓储接口
type Repository interface {
	dal.Repository[model.ShopEntitlement]
	FindByShopAndEntitlement(ctx context.Context, shopID, entitlementID int64) (*model.ShopEntitlement, error)
	FindByShop(ctx context.Context, shopID int64) ([]model.ShopEntitlement, error)
	DeleteByShopAndEntitlement(ctx context.Context, shopID, entitlementID int64) (int64, error)
	ShopExists(ctx context.Context, shopID int64) (bool, error)
	// Ceilings 店铺各权益的动作上限，以规范化编码为键
	Ceilings(ctx context.Context, shopID int64) (map[string]authz.Permissions, error)
}

type repository struct {
	*dal.BaseRepository[model.ShopEntitlement]
}

// NewRepository 创建店铺权益仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.ShopEntitlement](db)}
}

// FindByShopAndEntitlement 按店铺和权益查找
func (r *repository) FindByShopAndEntitlement(ctx context.Context, shopID, entitlementID int64) (*model.ShopEntitlement, error) {
	return r.FindOne(ctx, map[string]interface{}{"shop_id": shopID, "entitlement_id": entitlementID})
}

// FindByShop 店铺全部授权，附带目录信息
func (r *repository) FindByShop(ctx context.Context, shopID int64) ([]model.ShopEntitlement, error) {
	return r.FindAll(ctx, map[string]interface{}{"shop_id": shopID},
		dal.WithPreload("Entitlement"), dal.WithOrder("id ASC"))
}

// DeleteByShopAndEntitlement 删除授权，返回影响行数
func (r *repository) DeleteByShopAndEntitlement(ctx context.Context, shopID, entitlementID int64) (int64, error) {
	res := r.DB().WithContext(ctx).
		Where("shop_id = ? AND entitlement_id = ?", shopID, entitlementID).
		Delete(&model.ShopEntitlement{})
	return res.RowsAffected, res.Error
}

// ShopExists 店铺是否存在
func (r *repository) ShopExists(ctx context.Context, shopID int64) (bool, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.Shop{}).Where("id = ?", shopID).Count(&count).Error
	return count > 0, err
}

// Ceilings 店铺权益上限，取授权与目录可用动作的交集，目录已删除的权益不授予任何动作
func (r *repository) Ceilings(ctx context.Context, shopID int64) (map[string]authz.Permissions, error) {
	grants, err := r.FindAll(ctx, map[string]interface{}{"shop_id": shopID}, dal.WithPreload("Entitlement"))
	if err != nil {
		return nil, err
	}
	ceilings := make(map[string]authz.Permissions, len(grants))
	for _, g := range grants {
		var catalog authz.Permissions
		if g.Entitlement != nil {
			catalog = g.Entitlement.ApplicablePermissions.Enabled()
		}
		ceilings[authz.NormalizeCode(g.EntitlementCode)] = g.AllowedPermissions.Intersect(catalog)
	}
	return ceilings, nil
}
