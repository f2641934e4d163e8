package delivery

import (
	"context"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/dal"
	"github.com/agrismart/services/platform/internal/model"
	"gorm.io/gorm"
)

// Repository 配送仓储接口
type Repository interface {
	dal.Repository[model.Delivery]
	FindByOrder(ctx context.Context, orderID int64) (*model.Delivery, error)
	List(ctx context.Context, agentID, shopID int64) ([]model.Delivery, error)
	FindOrder(ctx context.Context, id int64) (*model.Order, error)
	FindAgent(ctx context.Context, id int64) (*model.User, error)
}

type repository struct {
	*dal.BaseRepository[model.Delivery]
}

// NewRepository 创建配送仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Delivery](db)}
}

// FindByOrder 按订单查找
func (r *repository) FindByOrder(ctx context.Context, orderID int64) (*model.Delivery, error) {
	return r.FindOne(ctx, map[string]interface{}{"order_id": orderID})
}

// List 按配送员或订单所属店铺过滤
func (r *repository) List(ctx context.Context, agentID, shopID int64) ([]model.Delivery, error) {
	db := r.DB()
	return dal.NewQueryBuilder[model.Delivery](db).
		WhereID("delivery_agent_id", agentID).
		WhereIf(shopID != 0, "order_id IN (?)", db.Model(&model.Order{}).Select("id").Where("shop_id = ?", shopID)).
		Preload("Order").
		Order("created_at DESC").
		Order("id DESC").
		Find(ctx)
}

// FindOrder 查询订单
func (r *repository) FindOrder(ctx context.Context, id int64) (*model.Order, error) {
	return dal.NewQueryBuilder[model.Order](r.DB()).Where("id = ?", id).First(ctx)
}

// FindAgent 查询配送员
func (r *repository) FindAgent(ctx context.Context, id int64) (*model.User, error) {
	return dal.NewQueryBuilder[model.User](r.DB()).
		Where("id = ?", id).
		Where("role = ?", authz.RoleDelivery).
		First(ctx)
}
