package repository

import (
	"context"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/utils"
)

// RechargeRepositoryImpl implements RechargeRepository over the ledger store.
type RechargeRepositoryImpl struct {
	history collection[[]models.RechargeRecord]
}

// NewRechargeRepository creates a new recharge history repository instance
func NewRechargeRepository(store LedgerStore) *RechargeRepositoryImpl {
	return &RechargeRepositoryImpl{
		history: collection[[]models.RechargeRecord]{
			store:    store,
			key:      KeyRechargeHistory,
			fallback: func() []models.RechargeRecord { return []models.RechargeRecord{} },
		},
	}
}

// Load returns the recharge history, newest first.
func (r *RechargeRepositoryImpl) Load(ctx context.Context) ([]models.RechargeRecord, error) {
	return r.history.load(ctx)
}

// Append inserts a record at the head and trims the list to the cap.
func (r *RechargeRepositoryImpl) Append(ctx context.Context, record models.RechargeRecord) error {
	history, err := r.history.load(ctx)
	if err != nil {
		return err
	}

	history = append([]models.RechargeRecord{record}, history...)
	if len(history) > utils.MaxRechargeHistory {
		history = history[:utils.MaxRechargeHistory]
	}

	return r.history.save(ctx, history)
}
