package models

import (
	"time"
)

// SendStatus is the delivery outcome of a single message
type SendStatus string

const (
	SendStatusSuccess SendStatus = "success"
	SendStatusFailed  SendStatus = "failed"
)

// StatusText is the display label for the outcome.
func (s SendStatus) StatusText() string {
	if s == SendStatusSuccess {
		return "发送成功"
	}
	return "发送失败"
}

// SendRecord is one entry of the send history. The list is kept newest-first
// and trimmed to the retention window on every read and write.
type SendRecord struct {
	ID         string     `json:"id"`
	Phone      string     `json:"phone"`
	Message    string     `json:"message"`
	Status     SendStatus `json:"status"`
	StatusText string     `json:"statusText"`
	Cost       float64    `json:"cost"`
	Timestamp  int64      `json:"timestamp"`
	Time       string     `json:"time"`
}

// SentAt converts the millisecond timestamp back to a time value.
func (r *SendRecord) SentAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// SendRecordFilter narrows record listings for statistics windows.
type SendRecordFilter struct {
	Since  *time.Time
	Status *SendStatus
}
