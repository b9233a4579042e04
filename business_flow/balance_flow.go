package businessflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
)

// BalanceFlow is the balance accounting engine. Debits drain the paid bucket
// first and clamp at zero; neither bucket ever goes negative.
type BalanceFlow interface {
	CheckBalance(ctx context.Context, required int) (bool, error)
	Debit(ctx context.Context, count int) (*BalanceSummary, error)
	Credit(ctx context.Context, count int) (*BalanceSummary, error)
	Summary(ctx context.Context) (*BalanceSummary, error)
}

// BalanceFlowImpl keeps the account cached in memory and persists after every
// mutation. When persistence fails the in-memory state stays authoritative and
// the failure surfaces as a degraded-storage warning alongside the new summary.
type BalanceFlowImpl struct {
	accountRepo repository.AccountRepository

	mu  sync.Mutex
	acc *models.Account
}

// NewBalanceFlow creates a new balance accounting engine
func NewBalanceFlow(accountRepo repository.AccountRepository) *BalanceFlowImpl {
	return &BalanceFlowImpl{accountRepo: accountRepo}
}

// current returns the cached account, loading it on first use.
// Callers must hold f.mu.
func (f *BalanceFlowImpl) current(ctx context.Context) (*models.Account, error) {
	if f.acc != nil {
		return f.acc, nil
	}

	acc, err := f.accountRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	f.acc = acc

	return acc, nil
}

// CheckBalance reports whether the combined balance covers required messages.
// A non-positive requirement is always affordable. Pure read, no mutation.
func (f *BalanceFlowImpl) CheckBalance(ctx context.Context, required int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, err := f.current(ctx)
	if err != nil {
		return false, err
	}

	return acc.TotalBalance() >= required, nil
}

// Debit deducts count messages, paid balance first then free quota, each
// bucket stopping at zero. Over-debit is silently clamped and never errors.
func (f *BalanceFlowImpl) Debit(ctx context.Context, count int) (*BalanceSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, err := f.current(ctx)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		fromPaid := min(count, acc.SmsBalance)
		acc.SmsBalance -= fromPaid

		fromFree := min(count-fromPaid, acc.FreeSmsQuota)
		acc.FreeSmsQuota -= fromFree
	}

	return f.summaryOf(acc), f.persist(ctx, acc)
}

// Credit adds count messages to the paid balance. No upper bound.
func (f *BalanceFlowImpl) Credit(ctx context.Context, count int) (*BalanceSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, err := f.current(ctx)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		acc.SmsBalance += count
	}

	return f.summaryOf(acc), f.persist(ctx, acc)
}

// Summary returns the current state of both buckets.
func (f *BalanceFlowImpl) Summary(ctx context.Context) (*BalanceSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, err := f.current(ctx)
	if err != nil {
		return nil, err
	}

	return f.summaryOf(acc), nil
}

func (f *BalanceFlowImpl) summaryOf(acc *models.Account) *BalanceSummary {
	return &BalanceSummary{
		FreeSmsQuota: acc.FreeSmsQuota,
		SmsBalance:   acc.SmsBalance,
		Total:        acc.TotalBalance(),
	}
}

func (f *BalanceFlowImpl) persist(ctx context.Context, acc *models.Account) error {
	if err := f.accountRepo.Save(ctx, acc); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}
	return nil
}
