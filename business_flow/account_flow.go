package businessflow

import (
	"context"
	"strings"

	"github.com/junwei-lin/smsflow/models"
)

// AccountFlow exposes the account profile. It is implemented by the balance
// engine so profile updates and balance mutations share one cached account
// and one lock.
type AccountFlow interface {
	Profile(ctx context.Context) (*models.Account, error)
	UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*models.Account, error)
}

// UpdateProfileInput carries optional profile field changes; nil fields are
// left untouched.
type UpdateProfileInput struct {
	Name     *string
	Company  *string
	Industry *string
	UserType *models.AccountType
}

// Profile returns a copy of the current account.
func (f *BalanceFlowImpl) Profile(ctx context.Context) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, err := f.current(ctx)
	if err != nil {
		return nil, err
	}

	copied := *acc
	return &copied, nil
}

// UpdateProfile applies the provided profile fields and persists.
func (f *BalanceFlowImpl) UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, err := f.current(ctx)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		acc.Name = strings.TrimSpace(*input.Name)
	}
	if input.Company != nil {
		acc.Company = strings.TrimSpace(*input.Company)
	}
	if input.Industry != nil {
		acc.Industry = strings.TrimSpace(*input.Industry)
	}
	if input.UserType != nil {
		acc.UserType = *input.UserType
	}

	copied := *acc
	return &copied, f.persist(ctx, acc)
}
