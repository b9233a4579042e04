// Package businessflow contains the core business logic and use cases for payment workflows
package businessflow

import (
	"context"
	"crypto/md5"
	"fmt"
	"math/rand/v2"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/junwei-lin/smsflow/config"
	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	"github.com/junwei-lin/smsflow/utils"
)

// gatewayPaidStatus is the gateway's callback status for a settled payment
const gatewayPaidStatus = "OD"

// PaymentFlow relays recharge orders to the payment gateway: creates signed
// orders, answers status queries, and processes signed callbacks. A settled
// callback credits the purchased message count.
type PaymentFlow interface {
	CreateOrder(ctx context.Context, input *CreateOrderInput) (*models.PaymentOrder, error)
	OrderStatus(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	HandleNotify(ctx context.Context, params map[string]string) error
	RechargeHistory(ctx context.Context) ([]models.RechargeRecord, error)
}

// CreateOrderInput carries the fields of a recharge order request.
type CreateOrderInput struct {
	Amount   float64
	Title    string
	SmsCount int
	UserID   string
	WapURL   string
}

// PaymentFlowImpl implements PaymentFlow. Orders live in memory for the
// lifetime of the process; only the recharge history is persisted.
type PaymentFlowImpl struct {
	cfg          *config.PaymentConfig
	balance      BalanceFlow
	rechargeRepo repository.RechargeRepository

	mu     sync.Mutex
	orders map[string]*models.PaymentOrder
}

// NewPaymentFlow creates a new payment relay flow
func NewPaymentFlow(cfg *config.PaymentConfig, balance BalanceFlow, rechargeRepo repository.RechargeRepository) *PaymentFlowImpl {
	return &PaymentFlowImpl{
		cfg:          cfg,
		balance:      balance,
		rechargeRepo: rechargeRepo,
		orders:       make(map[string]*models.PaymentOrder),
	}
}

// CreateOrder validates the request, signs the gateway parameters, and
// registers a pending order with its redirect URL.
func (f *PaymentFlowImpl) CreateOrder(ctx context.Context, input *CreateOrderInput) (*models.PaymentOrder, error) {
	if input.Amount <= 0 {
		return nil, NewBusinessError("AMOUNT_TOO_LOW", "充值金额无效", ErrAmountTooLow)
	}
	if input.SmsCount <= 0 {
		return nil, NewBusinessError("SMS_COUNT_REQUIRED", "充值条数无效", ErrSmsCountRequired)
	}

	orderID := newOrderID()
	now := utils.UTCNow()

	wapURL := input.WapURL
	if wapURL == "" {
		wapURL = f.cfg.ReturnURL
	}

	params := map[string]string{
		"version":        "1.1",
		"appid":          f.cfg.AppID,
		"trade_order_id": orderID,
		"total_fee":      strconv.FormatFloat(input.Amount, 'f', 2, 64),
		"title":          input.Title,
		"time":           strconv.FormatInt(now.Unix(), 10),
		"notify_url":     f.cfg.NotifyURL,
		"nonce_str":      newNonce(),
		"type":           "WAP",
		"wap_url":        wapURL,
		"wap_name":       "短信群发应用",
	}
	params["hash"] = Sign(params, f.cfg.AppSecret)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	order := &models.PaymentOrder{
		OrderID:   orderID,
		Amount:    input.Amount,
		Title:     input.Title,
		SmsCount:  input.SmsCount,
		UserID:    input.UserID,
		Status:    models.OrderStatusPending,
		PayURL:    fmt.Sprintf("%s?%s", f.cfg.GatewayURL, form.Encode()),
		CreatedAt: now,
	}

	f.mu.Lock()
	f.orders[orderID] = order
	f.mu.Unlock()

	return order, nil
}

// OrderStatus returns the current state of an order.
func (f *PaymentFlowImpl) OrderStatus(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, NewBusinessError("ORDER_NOT_FOUND", "订单不存在", ErrOrderNotFound)
	}

	copied := *order
	return &copied, nil
}

// HandleNotify processes a gateway callback: signature and amount are
// verified against the stored order, a settled status credits the purchased
// count exactly once, and repeated callbacks for a settled order are
// acknowledged without re-crediting.
func (f *PaymentFlowImpl) HandleNotify(ctx context.Context, params map[string]string) error {
	received := params["hash"]
	if received == "" || received != Sign(params, f.cfg.AppSecret) {
		return NewBusinessError("INVALID_SIGNATURE", "签名验证失败", ErrInvalidSignature)
	}

	orderID := params["trade_order_id"]

	f.mu.Lock()
	order, ok := f.orders[orderID]
	if !ok {
		f.mu.Unlock()
		return NewBusinessErrorf("ORDER_NOT_FOUND", "订单 %s 不存在", ErrOrderNotFound, orderID)
	}

	fee, err := strconv.ParseFloat(params["total_fee"], 64)
	if err != nil || fee != order.Amount {
		f.mu.Unlock()
		return NewBusinessErrorf("AMOUNT_MISMATCH",
			"金额不匹配：收到 %s，应为 %.2f", ErrAmountMismatch, params["total_fee"], order.Amount)
	}

	if order.Status == models.OrderStatusPaid {
		// Gateway retry for an already-settled order
		f.mu.Unlock()
		return nil
	}

	if params["status"] != gatewayPaidStatus {
		order.Status = models.OrderStatusFailed
		f.mu.Unlock()
		return nil
	}

	order.Status = models.OrderStatusPaid
	order.PaidAt = utils.UTCNowPtr()
	settled := *order
	f.mu.Unlock()

	if _, err := f.balance.Credit(ctx, settled.SmsCount); err != nil {
		return fmt.Errorf("failed to credit balance for order %s: %w", settled.OrderID, err)
	}

	record := models.RechargeRecord{
		ID:        newNonce(),
		OrderID:   settled.OrderID,
		Amount:    settled.Amount,
		SmsCount:  settled.SmsCount,
		Status:    "success",
		Timestamp: utils.UTCNow(),
	}
	if err := f.rechargeRepo.Append(ctx, record); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return nil
}

// RechargeHistory returns the persisted recharge records, newest first.
func (f *PaymentFlowImpl) RechargeHistory(ctx context.Context) ([]models.RechargeRecord, error) {
	return f.rechargeRepo.Load(ctx)
}

// Sign computes the gateway signature: parameters with non-empty values,
// excluding hash itself, sorted by key and joined as k=v pairs with &, then
// the app secret appended and the whole string MD5-hexed.
func Sign(params map[string]string, appSecret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "hash" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, params[k]))
	}

	return fmt.Sprintf("%x", md5.Sum([]byte(strings.Join(pairs, "&")+appSecret)))
}

func newOrderID() string {
	return fmt.Sprintf("SMS_%d_%s", utils.UTCNowUnixMilli(), randomToken(8))
}

func newNonce() string {
	return strconv.FormatInt(utils.UTCNowUnixMilli(), 36) + randomToken(5)
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rand.IntN(len(tokenAlphabet))]
	}
	return string(b)
}
