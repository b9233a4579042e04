package businessflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	"github.com/junwei-lin/smsflow/utils"
)

// RetentionFlow is the record retention manager. The send history is kept
// newest-first and trimmed to the retention window on every read and write,
// so a stale record never survives any access.
type RetentionFlow interface {
	Append(ctx context.Context, record models.SendRecord) error
	Records(ctx context.Context) ([]models.SendRecord, error)
	Purge(records []models.SendRecord, now time.Time) []models.SendRecord
	SweepOnce(ctx context.Context) (removed int, err error)
}

// RetentionFlowImpl implements RetentionFlow over the send record repository.
type RetentionFlowImpl struct {
	recordRepo repository.SendRecordRepository
	retention  time.Duration

	mu sync.Mutex
}

// NewRetentionFlow creates a new record retention manager
func NewRetentionFlow(recordRepo repository.SendRecordRepository, retention time.Duration) *RetentionFlowImpl {
	if retention <= 0 {
		retention = utils.RecordRetention
	}
	return &RetentionFlowImpl{recordRepo: recordRepo, retention: retention}
}

// Append inserts the record at the head, purges expired entries in the same
// pass, and persists the result.
func (f *RetentionFlowImpl) Append(ctx context.Context, record models.SendRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.recordRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load send records: %w", err)
	}

	records = append([]models.SendRecord{record}, records...)
	records = f.Purge(records, utils.UTCNow())

	if err := f.recordRepo.Save(ctx, records); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return nil
}

// Records returns the retained history, newest first. Expired entries are
// filtered out of the result even if the sweep has not caught them yet.
func (f *RetentionFlowImpl) Records(ctx context.Context) ([]models.SendRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.recordRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load send records: %w", err)
	}

	return f.Purge(records, utils.UTCNow()), nil
}

// Purge drops records strictly older than the retention window. Deterministic
// and idempotent: purging an already-purged list is a no-op.
func (f *RetentionFlowImpl) Purge(records []models.SendRecord, now time.Time) []models.SendRecord {
	cutoff := now.Add(-f.retention)

	kept := make([]models.SendRecord, 0, len(records))
	for _, r := range records {
		if !r.SentAt().Before(cutoff) {
			kept = append(kept, r)
		}
	}

	return kept
}

// SweepOnce loads, purges, and persists only when the purge removed
// something. Returns how many records were dropped.
func (f *RetentionFlowImpl) SweepOnce(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.recordRepo.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load send records: %w", err)
	}

	kept := f.Purge(records, utils.UTCNow())
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := f.recordRepo.Save(ctx, kept); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return removed, nil
}
