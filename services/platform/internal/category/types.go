package category

// CreateRequest 创建分类请求
type CreateRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=512"`
	ImageURL    string `json:"imageUrl"`
}

// UpdateRequest 更新分类请求
type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=512"`
	ImageURL    *string `json:"imageUrl"`
}
