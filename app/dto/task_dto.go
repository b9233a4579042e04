package dto

import (
	"time"

	"github.com/junwei-lin/smsflow/models"
)

// CreateTaskRequest registers a bulk-send task. Recipients come either from
// an explicit phone list or from a contact group; content comes either
// verbatim or from a stored template. A nil SendAt sends immediately.
type CreateTaskRequest struct {
	Title      string     `json:"title" validate:"omitempty,max=100"`
	Content    string     `json:"content" validate:"omitempty,max=1000"`
	TemplateID *int64     `json:"template_id" validate:"omitempty,min=1"`
	Phones     []string   `json:"phones" validate:"omitempty,dive,min=3,max=20"`
	Group      string     `json:"group" validate:"omitempty,max=50"`
	SendAt     *time.Time `json:"send_at" validate:"omitempty"`
}

// ExecuteTaskResponse reports the outcome of a finished task, including the
// per-recipient results in send order.
type ExecuteTaskResponse struct {
	TaskID       string              `json:"task_id"`
	Status       string              `json:"status"`
	Total        int                 `json:"total"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	Cost         string              `json:"cost"`
	Results      []models.SendResult `json:"results"`
}

// ListTasksRequest narrows the task listing.
type ListTasksRequest struct {
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed failed"`
}
