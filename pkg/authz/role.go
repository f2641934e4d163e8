package authz

// Role 平台角色
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleShopAdmin  Role = "SHOP_ADMIN"
	RoleStaff      Role = "STAFF"
	RoleDelivery   Role = "DELIVERY"
	RoleCustomer   Role = "CUSTOMER"
)

// Roles 全部角色
var Roles = []Role{RoleSuperAdmin, RoleShopAdmin, RoleStaff, RoleDelivery, RoleCustomer}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ShopScoped 是否受店铺范围限制
func (r Role) ShopScoped() bool {
	return r == RoleShopAdmin || r == RoleStaff || r == RoleDelivery
}

// HasShopAccess 可登录店铺后台的角色
func (r Role) HasShopAccess() bool {
	return r == RoleSuperAdmin || r.ShopScoped()
}
