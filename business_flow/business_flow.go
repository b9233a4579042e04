// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/junwei-lin/smsflow/models"
)

const RequestIDKey = "X-Request-ID"

// SendProgress is the per-recipient progress notification delivered to
// onProgress callbacks during task execution. Percent is a whole number.
type SendProgress struct {
	Current int               `json:"current"`
	Total   int               `json:"total"`
	Phone   string            `json:"phone"`
	Status  models.SendStatus `json:"status"`
	Percent int               `json:"percent"`
}

// ProgressFunc receives progress notifications synchronously, in send order.
type ProgressFunc func(SendProgress)

// BalanceSummary is the current state of the two balance buckets.
type BalanceSummary struct {
	FreeSmsQuota int `json:"freeSmsQuota"`
	SmsBalance   int `json:"smsBalance"`
	Total        int `json:"total"`
}
