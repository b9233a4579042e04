package models

import (
	"time"
)

// TaskStatus is the lifecycle state of a send task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// SendResult is one per-recipient outcome of a task execution, in send
// order. Cost is the unit price for a delivered message and 0 otherwise.
type SendResult struct {
	Phone  string     `json:"phone"`
	Status SendStatus `json:"status"`
	Cost   float64    `json:"cost"`
}

// Task is one bulk-send job. Cost is the quote fixed at creation
// (contact count times unit price, 2 decimals) and does not change with
// per-recipient outcomes. Results is filled during execution, one entry per
// attempted recipient in send order.
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	ContactCount int          `json:"contactCount"`
	Template     string       `json:"template"`
	Content      string       `json:"content"`
	Phones       []string     `json:"phones"`
	SendAt       *time.Time   `json:"sendAt,omitempty"`
	Cost         string       `json:"cost"`
	Status       TaskStatus   `json:"status"`
	SuccessCount int          `json:"successCount"`
	FailedCount  int          `json:"failedCount"`
	Results      []SendResult `json:"results,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	StartedAt    *time.Time   `json:"startedAt,omitempty"`
	FinishedAt   *time.Time   `json:"finishedAt,omitempty"`
}

// IsDue reports whether a pending task should run at the given instant.
func (t *Task) IsDue(now time.Time) bool {
	if t.Status != TaskStatusPending {
		return false
	}
	return t.SendAt == nil || !t.SendAt.After(now)
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status *TaskStatus
}
