package businessflow

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junwei-lin/smsflow/config"
	"github.com/junwei-lin/smsflow/repository"
	smstesting "github.com/junwei-lin/smsflow/testing"
)

const testAppSecret = "test-secret"

func newPaymentFlow(t *testing.T) (*PaymentFlowImpl, *BalanceFlowImpl) {
	t.Helper()

	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)
	store := repository.NewLedgerStore(db)

	accountRepo := repository.NewAccountRepository(store)
	require.NoError(t, accountRepo.Save(context.Background(), smstesting.NewTestAccount(0, 0)))
	balance := NewBalanceFlow(accountRepo)

	flow := NewPaymentFlow(&config.PaymentConfig{
		AppID:      "2019000000",
		AppSecret:  testAppSecret,
		GatewayURL: "https://api.example.com/payment/do.html",
		NotifyURL:  "https://sms.example.com/api/payment/notify",
		ReturnURL:  "https://sms.example.com",
	}, balance, repository.NewRechargeRepository(store))

	return flow, balance
}

func TestSign(t *testing.T) {
	params := map[string]string{
		"version":        "1.1",
		"appid":          "2019000000",
		"trade_order_id": "SMS_1_abc",
		"total_fee":      "10.00",
		"empty":          "", // empty values are excluded
	}

	sig := Sign(params, testAppSecret)
	assert.Len(t, sig, 32)

	// Deterministic and independent of the hash field itself
	params["hash"] = sig
	assert.Equal(t, sig, Sign(params, testAppSecret))

	// Any value change invalidates the signature
	params["total_fee"] = "10.01"
	assert.NotEqual(t, sig, Sign(params, testAppSecret))
}

func TestCreateOrder(t *testing.T) {
	flow, _ := newPaymentFlow(t)
	ctx := context.Background()

	order, err := flow.CreateOrder(ctx, &CreateOrderInput{
		Amount:   9.90,
		Title:    "充值300条",
		SmsCount: 300,
		UserID:   "u1",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderID, "SMS_"))
	assert.Equal(t, "pending", string(order.Status))

	// The gateway URL carries the signed parameter set
	parsed, err := url.Parse(order.PayURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "1.1", q.Get("version"))
	assert.Equal(t, "9.90", q.Get("total_fee"))
	assert.Equal(t, order.OrderID, q.Get("trade_order_id"))
	assert.Equal(t, "WAP", q.Get("type"))
	assert.NotEmpty(t, q.Get("hash"))

	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}
	assert.Equal(t, q.Get("hash"), Sign(params, testAppSecret))
}

func TestCreateOrderValidation(t *testing.T) {
	flow, _ := newPaymentFlow(t)
	ctx := context.Background()

	_, err := flow.CreateOrder(ctx, &CreateOrderInput{Amount: 0, SmsCount: 100})
	require.Error(t, err)
	assert.True(t, IsAmountTooLow(err))

	_, err = flow.CreateOrder(ctx, &CreateOrderInput{Amount: 9.90, SmsCount: 0})
	require.Error(t, err)
}

func notifyFor(t *testing.T, order orderRef, status string) map[string]string {
	t.Helper()
	params := map[string]string{
		"trade_order_id": order.id,
		"total_fee":      strconv.FormatFloat(order.amount, 'f', 2, 64),
		"status":         status,
		"nonce_str":      "abc123",
	}
	params["hash"] = Sign(params, testAppSecret)
	return params
}

type orderRef struct {
	id     string
	amount float64
}

func TestHandleNotifyCreditsOnSettlement(t *testing.T) {
	flow, balance := newPaymentFlow(t)
	ctx := context.Background()

	order, err := flow.CreateOrder(ctx, &CreateOrderInput{Amount: 9.90, Title: "充值", SmsCount: 300})
	require.NoError(t, err)

	err = flow.HandleNotify(ctx, notifyFor(t, orderRef{order.OrderID, order.Amount}, "OD"))
	require.NoError(t, err)

	summary, err := balance.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, summary.SmsBalance)

	settled, err := flow.OrderStatus(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "paid", string(settled.Status))
	assert.NotNil(t, settled.PaidAt)

	history, err := flow.RechargeHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.OrderID, history[0].OrderID)
}

func TestHandleNotifyIsIdempotent(t *testing.T) {
	flow, balance := newPaymentFlow(t)
	ctx := context.Background()

	order, err := flow.CreateOrder(ctx, &CreateOrderInput{Amount: 9.90, SmsCount: 300})
	require.NoError(t, err)

	params := notifyFor(t, orderRef{order.OrderID, order.Amount}, "OD")
	require.NoError(t, flow.HandleNotify(ctx, params))
	// Gateway retry: acknowledged without a second credit
	require.NoError(t, flow.HandleNotify(ctx, params))

	summary, err := balance.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, summary.SmsBalance)

	history, err := flow.RechargeHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHandleNotifyRejectsBadSignature(t *testing.T) {
	flow, balance := newPaymentFlow(t)
	ctx := context.Background()

	order, err := flow.CreateOrder(ctx, &CreateOrderInput{Amount: 9.90, SmsCount: 300})
	require.NoError(t, err)

	params := notifyFor(t, orderRef{order.OrderID, order.Amount}, "OD")
	params["hash"] = "0000000000000000000000000000dead"

	err = flow.HandleNotify(ctx, params)
	require.Error(t, err)
	assert.True(t, IsInvalidSignature(err))

	summary, err := balance.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SmsBalance)
}

func TestHandleNotifyRejectsAmountMismatch(t *testing.T) {
	flow, _ := newPaymentFlow(t)
	ctx := context.Background()

	order, err := flow.CreateOrder(ctx, &CreateOrderInput{Amount: 9.90, SmsCount: 300})
	require.NoError(t, err)

	err = flow.HandleNotify(ctx, notifyFor(t, orderRef{order.OrderID, 5.00}, "OD"))
	require.Error(t, err)
	assert.True(t, IsAmountMismatch(err))
}

func TestHandleNotifyUnsettledStatusMarksFailed(t *testing.T) {
	flow, balance := newPaymentFlow(t)
	ctx := context.Background()

	order, err := flow.CreateOrder(ctx, &CreateOrderInput{Amount: 9.90, SmsCount: 300})
	require.NoError(t, err)

	require.NoError(t, flow.HandleNotify(ctx, notifyFor(t, orderRef{order.OrderID, order.Amount}, "CD")))

	got, err := flow.OrderStatus(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "failed", string(got.Status))

	summary, err := balance.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SmsBalance)
}

func TestHandleNotifyUnknownOrder(t *testing.T) {
	flow, _ := newPaymentFlow(t)

	err := flow.HandleNotify(context.Background(), notifyFor(t, orderRef{"SMS_0_missing", 1.00}, "OD"))
	require.Error(t, err)
	assert.True(t, IsOrderNotFound(err))
}

func TestOrderStatusUnknownOrder(t *testing.T) {
	flow, _ := newPaymentFlow(t)

	_, err := flow.OrderStatus(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsOrderNotFound(err))
}
