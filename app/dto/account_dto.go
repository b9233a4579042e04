package dto

// UpdateProfileRequest applies partial profile changes.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=50"`
	Company  *string `json:"company" validate:"omitempty,max=100"`
	Industry *string `json:"industry" validate:"omitempty,max=50"`
	UserType *string `json:"user_type" validate:"omitempty,oneof=personal enterprise"`
}
