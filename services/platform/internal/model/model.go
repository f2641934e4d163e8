package model

// All 需要迁移的全部模型
func All() []any {
	return []any{
		&Entitlement{},
		&ShopEntitlement{},
		&Role{},
		&User{},
		&Shop{},
		&Branch{},
		&Category{},
		&Product{},
		&Order{},
		&Delivery{},
	}
}
