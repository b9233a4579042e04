package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/utils"
)

// StatsFlow is the statistics aggregator: read-only summaries over the
// retained send history.
type StatsFlow interface {
	StatisticsFor(ctx context.Context, window models.StatsWindow) (*models.StatsSummary, error)
	Lifetime(ctx context.Context) (*models.StatsCounters, error)
}

// StatsFlowImpl implements StatsFlow. When a redis client is configured,
// summaries are cached briefly; a nil client bypasses caching entirely.
type StatsFlowImpl struct {
	retention RetentionFlow
	lifetime  func(ctx context.Context) (*models.StatsCounters, error)

	redisClient *redis.Client
	cachePrefix string
	cacheTTL    time.Duration
}

// NewStatsFlow creates a new statistics aggregator. redisClient may be nil.
func NewStatsFlow(
	retention RetentionFlow,
	lifetime func(ctx context.Context) (*models.StatsCounters, error),
	redisClient *redis.Client,
	cachePrefix string,
	cacheTTL time.Duration,
) *StatsFlowImpl {
	if cacheTTL <= 0 {
		cacheTTL = utils.StatsCacheTTL
	}
	return &StatsFlowImpl{
		retention:   retention,
		lifetime:    lifetime,
		redisClient: redisClient,
		cachePrefix: cachePrefix,
		cacheTTL:    cacheTTL,
	}
}

// StatisticsFor aggregates the records inside the window. The success rate
// is a rounded whole percentage (0 when nothing was sent) and the total cost
// is a 2-decimal string.
func (f *StatsFlowImpl) StatisticsFor(ctx context.Context, window models.StatsWindow) (*models.StatsSummary, error) {
	if !window.Valid() {
		return nil, NewBusinessErrorf("INVALID_STATS_WINDOW",
			"unsupported statistics window %q", ErrInvalidStatsWindow, window)
	}

	if cached := f.fromCache(ctx, window); cached != nil {
		return cached, nil
	}

	records, err := f.retention.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load send records: %w", err)
	}

	start := windowStart(window, time.Now())
	summary := &models.StatsSummary{Window: window, Records: []models.SendRecord{}}
	totalCost := 0.0
	for _, r := range records {
		if r.SentAt().Before(start) {
			continue
		}
		summary.TotalSent++
		if r.Status == models.SendStatusSuccess {
			summary.SuccessCnt++
		} else {
			summary.FailedCnt++
		}
		totalCost += r.Cost
		summary.Records = append(summary.Records, r)
	}

	if summary.TotalSent > 0 {
		summary.SuccessRate = int(math.Round(float64(summary.SuccessCnt) / float64(summary.TotalSent) * 100))
	}
	summary.TotalCost = strconv.FormatFloat(totalCost, 'f', 2, 64)

	f.toCache(ctx, window, summary)

	return summary, nil
}

// Lifetime returns the monotonic lifetime counters.
func (f *StatsFlowImpl) Lifetime(ctx context.Context) (*models.StatsCounters, error) {
	return f.lifetime(ctx)
}

// windowStart maps a window to its inclusive lower bound: local midnight for
// today, rolling 7 and 30 days for week and month, the epoch for all.
func windowStart(window models.StatsWindow, now time.Time) time.Time {
	switch window {
	case models.StatsWindowToday:
		return utils.StartOfDay(now)
	case models.StatsWindowWeek:
		return now.Add(-7 * 24 * time.Hour)
	case models.StatsWindowMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Unix(0, 0)
	}
}

func (f *StatsFlowImpl) cacheKey(window models.StatsWindow) string {
	return fmt.Sprintf("%sstats:%s", f.cachePrefix, window)
}

func (f *StatsFlowImpl) fromCache(ctx context.Context, window models.StatsWindow) *models.StatsSummary {
	if f.redisClient == nil {
		return nil
	}

	raw, err := f.redisClient.Get(ctx, f.cacheKey(window)).Bytes()
	if err != nil {
		return nil
	}

	var summary models.StatsSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil
	}

	return &summary
}

func (f *StatsFlowImpl) toCache(ctx context.Context, window models.StatsWindow, summary *models.StatsSummary) {
	if f.redisClient == nil {
		return
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}

	f.redisClient.Set(ctx, f.cacheKey(window), raw, f.cacheTTL)
}
