package utils

import (
	"time"
)

// Pricing and balance constants
const (
	// UnitPrice is the cost charged per successfully delivered message
	UnitPrice = 0.03

	// DefaultFreeQuota is the free message allowance granted to a fresh account
	DefaultFreeQuota = 100

	// DefaultTrialDays is the trial period granted to a fresh account
	DefaultTrialDays = 7
)

// Retention constants
const (
	// RecordRetention is how long send records are kept before being purged
	RecordRetention = 7 * 24 * time.Hour

	// RetentionSweepInterval is how often the background sweep runs
	RetentionSweepInterval = 24 * time.Hour

	// MaxRechargeHistory caps the recharge history list (newest kept)
	MaxRechargeHistory = 50
)

// Send pacing constants
const (
	// SimulatedSendDelay is the inter-message pause for the simulated sender
	SimulatedSendDelay = 500 * time.Millisecond

	// ProviderSendDelay is the inter-message pause for the provider-backed sender
	ProviderSendDelay = 200 * time.Millisecond

	// DefaultSendTimeout bounds a single send attempt
	DefaultSendTimeout = 10 * time.Second
)

// Grouping constants
const (
	// DefaultGroupName is the sentinel group contacts fall back to
	DefaultGroupName = "default"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Cache constants
const (
	// StatsCacheTTL is how long an aggregated statistics snapshot stays cached
	StatsCacheTTL = 30 * time.Second
)
