package models

import (
	"time"
)

// StatsWindow selects the aggregation range for statistics
type StatsWindow string

const (
	StatsWindowToday StatsWindow = "today"
	StatsWindowWeek  StatsWindow = "week"
	StatsWindowMonth StatsWindow = "month"
	StatsWindowAll   StatsWindow = "all"
)

// Valid reports whether the window is one of the supported ranges.
func (w StatsWindow) Valid() bool {
	switch w {
	case StatsWindowToday, StatsWindowWeek, StatsWindowMonth, StatsWindowAll:
		return true
	}
	return false
}

// StatsSummary is an aggregate over send records in a window.
// SuccessRate is a rounded whole percentage, 0 when TotalSent is 0.
// TotalCost is a 2-decimal string. Records holds the window-filtered
// records the aggregate was computed from, newest first.
type StatsSummary struct {
	Window      StatsWindow  `json:"window"`
	TotalSent   int          `json:"totalSent"`
	SuccessCnt  int          `json:"successCount"`
	FailedCnt   int          `json:"failedCount"`
	SuccessRate int          `json:"successRate"`
	TotalCost   string       `json:"totalCost"`
	Records     []SendRecord `json:"records"`
}

// StatsCounters are the monotonic lifetime counters persisted under the
// sms_stats key, updated on every send outcome.
type StatsCounters struct {
	TotalSent   int        `json:"totalSent"`
	TotalFailed int        `json:"totalFailed"`
	LastSent    *time.Time `json:"lastSent,omitempty"`
	Environment string     `json:"environment"`
}
