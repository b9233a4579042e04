package dto

// CreateTemplateRequest registers a new message template.
type CreateTemplateRequest struct {
	Title    string `json:"title" validate:"required,max=100"`
	Content  string `json:"content" validate:"required,max=1000"`
	Type     string `json:"type" validate:"omitempty,max=50"`
	Category string `json:"category" validate:"omitempty,oneof=verification marketing notification"`
}

// UpdateTemplateRequest replaces a template's title and content.
type UpdateTemplateRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required,max=1000"`
}
