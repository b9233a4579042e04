package repository

import (
	"context"

	"github.com/junwei-lin/smsflow/models"
)

// SendRecordRepositoryImpl implements SendRecordRepository over the ledger store.
// The list is stored newest-first; retention trimming is the caller's concern.
type SendRecordRepositoryImpl struct {
	records collection[[]models.SendRecord]
}

// NewSendRecordRepository creates a new send record repository instance
func NewSendRecordRepository(store LedgerStore) *SendRecordRepositoryImpl {
	return &SendRecordRepositoryImpl{
		records: collection[[]models.SendRecord]{
			store:    store,
			key:      KeySendRecords,
			fallback: func() []models.SendRecord { return []models.SendRecord{} },
		},
	}
}

// Load returns all stored send records, newest first.
func (r *SendRecordRepositoryImpl) Load(ctx context.Context) ([]models.SendRecord, error) {
	return r.records.load(ctx)
}

// Save persists the full record list.
func (r *SendRecordRepositoryImpl) Save(ctx context.Context, records []models.SendRecord) error {
	return r.records.save(ctx, records)
}
