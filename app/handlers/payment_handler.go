// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/junwei-lin/smsflow/app/dto"
	businessflow "github.com/junwei-lin/smsflow/business_flow"
)

// PaymentHandlerInterface defines the contract for payment handlers
type PaymentHandlerInterface interface {
	CreatePayment(c fiber.Ctx) error
	PaymentStatus(c fiber.Ctx) error
	PaymentNotify(c fiber.Ctx) error
	RechargeHistory(c fiber.Ctx) error
}

// PaymentHandler handles payment relay HTTP requests
type PaymentHandler struct {
	paymentFlow businessflow.PaymentFlow
	validator   *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentFlow businessflow.PaymentFlow) *PaymentHandler {
	return &PaymentHandler{
		paymentFlow: paymentFlow,
		validator:   validator.New(),
	}
}

// CreatePayment creates a recharge order and returns the gateway URL.
func (h *PaymentHandler) CreatePayment(c fiber.Ctx) error {
	var req dto.CreatePaymentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "create_payment", 30*time.Second)
	defer cancel()

	order, err := h.paymentFlow.CreateOrder(ctx, &businessflow.CreateOrderInput{
		Amount:   req.Amount,
		Title:    req.Title,
		SmsCount: req.SmsCount,
		UserID:   req.UserID,
		WapURL:   c.Get("Origin"),
	})
	if err != nil {
		switch {
		case businessflow.IsAmountTooLow(err):
			return errorResponse(c, fiber.StatusBadRequest, "Invalid recharge amount", "AMOUNT_TOO_LOW", nil)
		default:
			return errorResponse(c, fiber.StatusBadRequest, "Failed to create order", "ORDER_CREATE_FAILED", err.Error())
		}
	}

	return successResponse(c, fiber.StatusOK, "Order created", dto.CreatePaymentResponse{
		OrderID:    order.OrderID,
		PaymentURL: order.PayURL,
	})
}

// PaymentStatus reports the state of an order.
func (h *PaymentHandler) PaymentStatus(c fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Order ID is required", "MISSING_ORDER_ID", nil)
	}

	ctx, cancel := requestContext(c, "payment_status", 30*time.Second)
	defer cancel()

	order, err := h.paymentFlow.OrderStatus(ctx, orderID)
	if err != nil {
		if businessflow.IsOrderNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Order not found", "ORDER_NOT_FOUND", nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load order", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Order retrieved", dto.PaymentStatusResponse{
		OrderID:  order.OrderID,
		Status:   string(order.Status),
		Amount:   order.Amount,
		SmsCount: order.SmsCount,
	})
}

// PaymentNotify processes the gateway callback. The gateway expects a plain
// "success" or "fail" body, not the JSON envelope.
func (h *PaymentHandler) PaymentNotify(c fiber.Ctx) error {
	params, err := notifyParams(c)
	if err != nil {
		return c.SendString("fail")
	}

	ctx, cancel := requestContext(c, "payment_notify", 30*time.Second)
	defer cancel()

	if err := h.paymentFlow.HandleNotify(ctx, params); err != nil {
		return c.SendString("fail")
	}

	return c.SendString("success")
}

// RechargeHistory returns the persisted recharge records.
func (h *PaymentHandler) RechargeHistory(c fiber.Ctx) error {
	ctx, cancel := requestContext(c, "recharge_history", 30*time.Second)
	defer cancel()

	history, err := h.paymentFlow.RechargeHistory(ctx)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load recharge history", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Recharge history retrieved", history)
}

// notifyParams flattens the callback body into a string map, accepting both
// form-encoded and JSON payloads.
func notifyParams(c fiber.Ctx) (map[string]string, error) {
	body := c.Body()
	params := make(map[string]string)

	contentType := string(c.Request().Header.ContentType())
	if strings.Contains(contentType, "json") {
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				params[k] = val
			case float64:
				params[k] = formatNumber(val)
			case bool:
				if val {
					params[k] = "true"
				} else {
					params[k] = "false"
				}
			}
		}
		return params, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	for k := range values {
		params[k] = values.Get(k)
	}

	return params, nil
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
