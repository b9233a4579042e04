package dto

// CreatePaymentRequest creates a recharge order to relay to the gateway.
type CreatePaymentRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Title    string  `json:"title" validate:"required,max=100"`
	SmsCount int     `json:"smsCount" validate:"required,min=1"`
	UserID   string  `json:"userId" validate:"required,max=64"`
}

// CreatePaymentResponse carries the order and its gateway redirect URL.
type CreatePaymentResponse struct {
	OrderID    string `json:"orderId"`
	PaymentURL string `json:"paymentUrl"`
}

// PaymentStatusResponse reports the current order state.
type PaymentStatusResponse struct {
	OrderID  string  `json:"orderId"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	SmsCount int     `json:"smsCount"`
}
