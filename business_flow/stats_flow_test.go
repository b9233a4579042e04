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

func newStatsFlow(t *testing.T) (*StatsFlowImpl, repository.SendRecordRepository) {
	t.Helper()

	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)
	store := repository.NewLedgerStore(db)

	recordRepo := repository.NewSendRecordRepository(store)
	statsRepo := repository.NewStatsRepository(store)
	retention := NewRetentionFlow(recordRepo, utils.RecordRetention)

	return NewStatsFlow(retention, statsRepo.Load, nil, "", utils.StatsCacheTTL), recordRepo
}

func TestStatisticsForEmptyHistory(t *testing.T) {
	flow, _ := newStatsFlow(t)

	summary, err := flow.StatisticsFor(context.Background(), models.StatsWindowToday)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalSent)
	assert.Equal(t, 0, summary.SuccessRate)
	assert.Equal(t, "0.00", summary.TotalCost)
	assert.NotNil(t, summary.Records)
	assert.Empty(t, summary.Records)
}

func TestStatisticsForCarriesWindowRecords(t *testing.T) {
	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)
	store := repository.NewLedgerStore(db)
	repo := repository.NewSendRecordRepository(store)
	// Retention wider than the aggregation window, so the filter under test
	// is the window, not the purge
	retention := NewRetentionFlow(repo, 30*24*time.Hour)
	flow := NewStatsFlow(retention, repository.NewStatsRepository(store).Load, nil, "", utils.StatsCacheTTL)
	ctx := context.Background()

	now := utils.UTCNow()
	inWeek := smstesting.NewTestSendRecord(models.SendStatusSuccess, now.Add(-2*24*time.Hour))
	older := smstesting.NewTestSendRecord(models.SendStatusFailed, now.Add(-10*24*time.Hour))
	newest := smstesting.NewTestSendRecord(models.SendStatusSuccess, now.Add(-time.Hour))
	require.NoError(t, repo.Save(ctx, []models.SendRecord{newest, inWeek, older}))

	week, err := flow.StatisticsFor(ctx, models.StatsWindowWeek)
	require.NoError(t, err)

	// Only records inside the window, newest first
	assert.Equal(t, 2, week.TotalSent)
	require.Len(t, week.Records, 2)
	assert.Equal(t, newest.ID, week.Records[0].ID)
	assert.Equal(t, inWeek.ID, week.Records[1].ID)

	all, err := flow.StatisticsFor(ctx, models.StatsWindowAll)
	require.NoError(t, err)
	assert.Len(t, all.Records, 3)
}

func TestStatisticsForRoundsSuccessRate(t *testing.T) {
	flow, repo := newStatsFlow(t)
	ctx := context.Background()

	now := utils.UTCNow()
	records := []models.SendRecord{
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now),
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now),
		smstesting.NewTestSendRecord(models.SendStatusFailed, now),
	}
	require.NoError(t, repo.Save(ctx, records))

	summary, err := flow.StatisticsFor(ctx, models.StatsWindowToday)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalSent)
	assert.Equal(t, 2, summary.SuccessCnt)
	assert.Equal(t, 1, summary.FailedCnt)
	// 2/3 = 66.67% rounds to 67
	assert.Equal(t, 67, summary.SuccessRate)
	assert.Equal(t, "0.06", summary.TotalCost)
}

func TestStatisticsForWindows(t *testing.T) {
	flow, repo := newStatsFlow(t)
	ctx := context.Background()

	now := utils.UTCNow()
	records := []models.SendRecord{
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now.Add(-time.Minute)),
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now.Add(-3*24*time.Hour)),
		smstesting.NewTestSendRecord(models.SendStatusFailed, now.Add(-6*24*time.Hour)),
	}
	require.NoError(t, repo.Save(ctx, records))

	week, err := flow.StatisticsFor(ctx, models.StatsWindowWeek)
	require.NoError(t, err)
	assert.Equal(t, 3, week.TotalSent)

	all, err := flow.StatisticsFor(ctx, models.StatsWindowAll)
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalSent)

	today, err := flow.StatisticsFor(ctx, models.StatsWindowToday)
	require.NoError(t, err)
	assert.LessOrEqual(t, today.TotalSent, 1)
}

func TestStatisticsForFullSuccessRate(t *testing.T) {
	flow, repo := newStatsFlow(t)
	ctx := context.Background()

	now := utils.UTCNow()
	require.NoError(t, repo.Save(ctx, []models.SendRecord{
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now),
		smstesting.NewTestSendRecord(models.SendStatusSuccess, now),
	}))

	summary, err := flow.StatisticsFor(ctx, models.StatsWindowAll)
	require.NoError(t, err)
	assert.Equal(t, 100, summary.SuccessRate)
}

func TestStatisticsForRejectsUnknownWindow(t *testing.T) {
	flow, _ := newStatsFlow(t)

	_, err := flow.StatisticsFor(context.Background(), models.StatsWindow("year"))
	require.Error(t, err)
	assert.True(t, IsInvalidStatsWindow(err))
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), windowStart(models.StatsWindowToday, now))
	assert.Equal(t, now.Add(-7*24*time.Hour), windowStart(models.StatsWindowWeek, now))
	assert.Equal(t, now.Add(-30*24*time.Hour), windowStart(models.StatsWindowMonth, now))
	assert.Equal(t, time.Unix(0, 0), windowStart(models.StatsWindowAll, now))
}
