package role

import (
	"context"
	"errors"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	apperrors "github.com/agrismart/pkg/errors"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 角色仓储接口
type Repository interface {
	dal.Repository[model.Role]
	FindByShopAndCode(ctx context.Context, shopID int64, code string) (*model.Role, error)
	FindByShop(ctx context.Context, shopID int64) ([]model.Role, error)
	// DeleteUnused 仅在没有用户引用时删除，返回影响行数
	DeleteUnused(ctx context.Context, id int64) (int64, error)
	// AssignToUser 在同一事务内读取用户和角色、校验并写入权限快照
	AssignToUser(ctx context.Context, userID, roleID int64, check func(u *model.User, r *model.Role) error) (*model.User, error)
	// RemoveFromUser 清空用户的角色和快照
	RemoveFromUser(ctx context.Context, userID int64, check func(u *model.User) error) (*model.User, error)
	ShopExists(ctx context.Context, shopID int64) (bool, error)
}

type repository struct {
	*dal.BaseRepository[model.Role]
}

// NewRepository 创建角色仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Role](db)}
}

// FindByShopAndCode 按店铺和编码查找
func (r *repository) FindByShopAndCode(ctx context.Context, shopID int64, code string) (*model.Role, error) {
	return r.FindOne(ctx, map[string]interface{}{"shop_id": shopID, "role_code": authz.NormalizeCode(code)})
}

// FindByShop 店铺全部角色，新建在前
func (r *repository) FindByShop(ctx context.Context, shopID int64) ([]model.Role, error) {
	return r.FindAll(ctx, map[string]interface{}{"shop_id": shopID}, dal.WithOrder("created_at DESC"), dal.WithOrder("id DESC"))
}

// DeleteUnused 条件删除，NOT EXISTS 与分配事务互斥
func (r *repository) DeleteUnused(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		inUse := tx.Model(&model.User{}).Select("1").Where("role_id = ?", id)
		res := tx.Where("id = ?", id).Where("NOT EXISTS (?)", inUse).Delete(&model.Role{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// AssignToUser 写入角色ID和快照
func (r *repository) AssignToUser(ctx context.Context, userID, roleID int64, check func(u *model.User, r *model.Role) error) (*model.User, error) {
	var u model.User
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&u, userID).Error; err != nil {
			return notFound(err, "User not found")
		}
		var role model.Role
		if err := tx.First(&role, roleID).Error; err != nil {
			return notFound(err, "Role not found")
		}
		if err := check(&u, &role); err != nil {
			return err
		}
		u.RoleID = role.ID
		u.Permissions = authz.SnapshotOf(role.EntitlementPermissions)
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RemoveFromUser 清空角色
func (r *repository) RemoveFromUser(ctx context.Context, userID int64, check func(u *model.User) error) (*model.User, error) {
	var u model.User
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&u, userID).Error; err != nil {
			return notFound(err, "User not found")
		}
		if err := check(&u); err != nil {
			return err
		}
		u.RoleID = 0
		u.Permissions = []authz.Grant{}
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ShopExists 店铺是否存在
func (r *repository) ShopExists(ctx context.Context, shopID int64) (bool, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.Shop{}).Where("id = ?", shopID).Count(&count).Error
	return count > 0, err
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(message)
	}
	return err
}
