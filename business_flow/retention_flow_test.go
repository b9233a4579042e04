package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	smstesting "github.com/junwei-lin/smsflow/testing"
	"github.com/junwei-lin/smsflow/utils"
)

func newRetentionFlow(t *testing.T) (*RetentionFlowImpl, repository.SendRecordRepository) {
	t.Helper()

	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)

	repo := repository.NewSendRecordRepository(repository.NewLedgerStore(db))
	return NewRetentionFlow(repo, utils.RecordRetention), repo
}

func TestAppendKeepsNewestFirst(t *testing.T) {
	flow, _ := newRetentionFlow(t)
	ctx := context.Background()

	first := smstesting.NewTestSendRecord(models.SendStatusSuccess, utils.UTCNow().Add(-time.Hour))
	second := smstesting.NewTestSendRecord(models.SendStatusFailed, utils.UTCNow())

	require.NoError(t, flow.Append(ctx, first))
	require.NoError(t, flow.Append(ctx, second))

	records, err := flow.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
}

func TestAppendPurgesExpiredInline(t *testing.T) {
	flow, repo := newRetentionFlow(t)
	ctx := context.Background()

	stale := smstesting.NewTestSendRecord(models.SendStatusSuccess, utils.UTCNow().Add(-8*24*time.Hour))
	require.NoError(t, repo.Save(ctx, []models.SendRecord{stale}))

	fresh := smstesting.NewTestSendRecord(models.SendStatusSuccess, utils.UTCNow())
	require.NoError(t, flow.Append(ctx, fresh))

	// The stale record is gone from the persisted list, not just the view
	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, fresh.ID, persisted[0].ID)
}

func TestRecordsFiltersExpiredOnRead(t *testing.T) {
	flow, repo := newRetentionFlow(t)
	ctx := context.Background()

	stale := smstesting.NewTestSendRecord(models.SendStatusFailed, utils.UTCNow().Add(-30*24*time.Hour))
	fresh := smstesting.NewTestSendRecord(models.SendStatusSuccess, utils.UTCNow())
	require.NoError(t, repo.Save(ctx, []models.SendRecord{fresh, stale}))

	records, err := flow.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fresh.ID, records[0].ID)
}

func TestPurgeIsIdempotent(t *testing.T) {
	flow, _ := newRetentionFlow(t)
	now := utils.UTCNow()

	records := []models.SendRecord{
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now),
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now.Add(-6*24*time.Hour)),
		smstesting.NewTestSendRecord(models.SendStatusFailed, now.Add(-8*24*time.Hour)),
	}

	once := flow.Purge(records, now)
	require.Len(t, once, 2)

	twice := flow.Purge(once, now)
	assert.Equal(t, once, twice)
}

func TestPurgeKeepsRecordExactlyAtCutoff(t *testing.T) {
	flow, _ := newRetentionFlow(t)
	now := utils.UTCNow()

	boundary := smstesting.NewTestSendRecord(models.SendStatusSuccess, now.Add(-utils.RecordRetention))
	kept := flow.Purge([]models.SendRecord{boundary}, now)
	assert.Len(t, kept, 1)
}

func TestSweepOnce(t *testing.T) {
	flow, repo := newRetentionFlow(t)
	ctx := context.Background()

	now := utils.UTCNow()
	require.NoError(t, repo.Save(ctx, []models.SendRecord{
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now),
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now.Add(-10*24*time.Hour)),
		smstesting.NewTestSendRecord(models.SendStatusFailed, now.Add(-9*24*time.Hour)),
	}))

	removed, err := flow.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// A second sweep has nothing left to drop
	removed, err = flow.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
