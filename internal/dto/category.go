package dto

type CategoryRequest struct {
	CategoryName string `json:"category_name" validate:"required"`
	Icon         string `json:"icon"`
}
