package models

import (
	"time"
)

// OrderStatus is the lifecycle state of a recharge order
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// PaymentOrder is a recharge order relayed to the payment gateway.
// Amount is in yuan; SmsCount is the number of messages credited on success.
type PaymentOrder struct {
	OrderID   string      `json:"orderId"`
	Amount    float64     `json:"amount"`
	Title     string      `json:"title"`
	SmsCount  int         `json:"smsCount"`
	UserID    string      `json:"userId"`
	Status    OrderStatus `json:"status"`
	PayURL    string      `json:"payUrl"`
	CreatedAt time.Time   `json:"createdAt"`
	PaidAt    *time.Time  `json:"paidAt,omitempty"`
}

// RechargeRecord is one entry of the recharge history, newest-first,
// capped at the most recent entries.
type RechargeRecord struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Amount    float64   `json:"amount"`
	SmsCount  int       `json:"smsCount"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
