package repository

import (
	"context"

	"github.com/junwei-lin/smsflow/models"
)

// StatsRepositoryImpl implements StatsRepository over the ledger store.
type StatsRepositoryImpl struct {
	counters collection[*models.StatsCounters]
}

// NewStatsRepository creates a new stats counter repository instance
func NewStatsRepository(store LedgerStore) *StatsRepositoryImpl {
	return &StatsRepositoryImpl{
		counters: collection[*models.StatsCounters]{
			store:    store,
			key:      KeyStats,
			fallback: func() *models.StatsCounters { return &models.StatsCounters{} },
		},
	}
}

// Load returns the lifetime send counters.
func (r *StatsRepositoryImpl) Load(ctx context.Context) (*models.StatsCounters, error) {
	c, err := r.counters.load(ctx)
	if c == nil {
		c = &models.StatsCounters{}
	}
	return c, err
}

// Save persists the lifetime send counters.
func (r *StatsRepositoryImpl) Save(ctx context.Context, counters *models.StatsCounters) error {
	return r.counters.save(ctx, counters)
}
