package repository

import (
	"context"

	"github.com/junwei-lin/smsflow/models"
)

// AccountRepositoryImpl implements AccountRepository over the ledger store.
type AccountRepositoryImpl struct {
	account collection[*models.Account]
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(store LedgerStore) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{
		account: collection[*models.Account]{
			store:    store,
			key:      KeyUserInfo,
			fallback: models.DefaultAccount,
		},
	}
}

// Load returns the stored account, or the documented default when the entry
// is missing or unreadable.
func (r *AccountRepositoryImpl) Load(ctx context.Context) (*models.Account, error) {
	acc, err := r.account.load(ctx)
	if acc == nil {
		acc = models.DefaultAccount()
	}
	return acc, err
}

// Save persists the account.
func (r *AccountRepositoryImpl) Save(ctx context.Context, acc *models.Account) error {
	return r.account.save(ctx, acc)
}
