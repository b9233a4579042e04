package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	smstesting "github.com/junwei-lin/smsflow/testing"
)

func newBalanceFlow(t *testing.T, freeQuota, paidBalance int) *BalanceFlowImpl {
	t.Helper()

	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)

	repo := repository.NewAccountRepository(repository.NewLedgerStore(db))
	acc := smstesting.NewTestAccount(freeQuota, paidBalance)
	require.NoError(t, repo.Save(context.Background(), acc))

	return NewBalanceFlow(repo)
}

func TestCheckBalance(t *testing.T) {
	flow := newBalanceFlow(t, 10, 5)
	ctx := context.Background()

	ok, err := flow.CheckBalance(ctx, 15)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = flow.CheckBalance(ctx, 16)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = flow.CheckBalance(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDebitDrainsPaidBalanceFirst(t *testing.T) {
	flow := newBalanceFlow(t, 100, 10)
	ctx := context.Background()

	summary, err := flow.Debit(ctx, 6)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.SmsBalance)
	assert.Equal(t, 100, summary.FreeSmsQuota)
	assert.Equal(t, 104, summary.Total)
}

func TestDebitSpillsIntoFreeQuota(t *testing.T) {
	flow := newBalanceFlow(t, 100, 10)
	ctx := context.Background()

	summary, err := flow.Debit(ctx, 25)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.SmsBalance)
	assert.Equal(t, 85, summary.FreeSmsQuota)
}

func TestDebitClampsAtZero(t *testing.T) {
	flow := newBalanceFlow(t, 5, 0)
	ctx := context.Background()

	summary, err := flow.Debit(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.FreeSmsQuota)
	assert.Equal(t, 0, summary.SmsBalance)

	// Over-debit never goes negative and never errors
	summary, err = flow.Debit(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.FreeSmsQuota)
	assert.Equal(t, 0, summary.SmsBalance)
	assert.Equal(t, 0, summary.Total)
}

func TestDebitIgnoresNonPositiveCount(t *testing.T) {
	flow := newBalanceFlow(t, 10, 10)
	ctx := context.Background()

	summary, err := flow.Debit(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.Total)

	summary, err = flow.Debit(ctx, -4)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.Total)
}

func TestCreditAddsToPaidBalance(t *testing.T) {
	flow := newBalanceFlow(t, 10, 0)
	ctx := context.Background()

	summary, err := flow.Credit(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 500, summary.SmsBalance)
	assert.Equal(t, 10, summary.FreeSmsQuota)
	assert.Equal(t, 510, summary.Total)
}

func TestBalancePersistsAcrossInstances(t *testing.T) {
	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)
	ctx := context.Background()

	repo := repository.NewAccountRepository(repository.NewLedgerStore(db))
	require.NoError(t, repo.Save(ctx, smstesting.NewTestAccount(50, 20)))

	flow := NewBalanceFlow(repo)
	_, err = flow.Debit(ctx, 30)
	require.NoError(t, err)

	// A fresh engine over the same store sees the debited state
	fresh := NewBalanceFlow(repository.NewAccountRepository(repository.NewLedgerStore(db)))
	summary, err := fresh.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SmsBalance)
	assert.Equal(t, 40, summary.FreeSmsQuota)
}

// failingAccountRepo simulates a broken ledger on save.
type failingAccountRepo struct {
	acc *models.Account
}

func (r *failingAccountRepo) Load(ctx context.Context) (*models.Account, error) {
	return r.acc, nil
}

func (r *failingAccountRepo) Save(ctx context.Context, acc *models.Account) error {
	return errors.New("disk full")
}

func TestDebitSurfacesStorageDegradation(t *testing.T) {
	flow := NewBalanceFlow(&failingAccountRepo{acc: smstesting.NewTestAccount(10, 5)})
	ctx := context.Background()

	summary, err := flow.Debit(ctx, 3)
	require.Error(t, err)
	assert.True(t, IsStorageDegraded(err))

	// In-memory state stays authoritative alongside the warning
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.SmsBalance)

	fresh, err := flow.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.SmsBalance)
}
