package authz

import "github.com/agrismart/pkg/errors"

// Scope 店铺范围限制
type Scope struct {
	p *Principal
}

// ScopeOf 以主体构造范围
func ScopeOf(p *Principal) Scope {
	return Scope{p: p}
}

// Restricted 主体是否被限制在自己的店铺
func (s Scope) Restricted() bool {
	return s.p != nil && s.p.Role.ShopScoped()
}

// NoShop 未归属店铺的受限主体使用的过滤值，不匹配任何记录
const NoShop int64 = -1

// ShopFilter 列表查询使用的店铺条件，受限主体强制为自身店铺，0 表示不过滤
func (s Scope) ShopFilter(requested int64) int64 {
	if s.Restricted() {
		if s.p.ShopID == 0 {
			return NoShop
		}
		return s.p.ShopID
	}
	return requested
}

// CheckShop 单资源访问校验，不匹配返回 Forbidden
func (s Scope) CheckShop(resourceShopID int64) error {
	if s.Restricted() && (s.p.ShopID == 0 || s.p.ShopID != resourceShopID) {
		return errors.ErrAccessDenied
	}
	return nil
}

// CheckOwner 客户或配送员只能访问自己的资源
func (s Scope) CheckOwner(ownerID int64) error {
	if s.p != nil && s.p.UserID != ownerID {
		return errors.ErrAccessDenied
	}
	return nil
}
