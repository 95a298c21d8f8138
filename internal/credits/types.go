// package credits owns the per-user AI coaching credit state and its reset rules.
// an hourly pool is refilled once a full interval has passed since the last refill,
// and a daily counter is cleared whenever the calendar date changes.
package credits

import (
	"errors"
	"time"
)

const (
	DefaultHourlyPool     = 5
	DefaultDailyCap       = 20
	DefaultHourlyInterval = time.Hour
)

var (
	// returned by Consume when the state has no credit left to spend
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// credit counters embedded in the user row
type State struct {
	HourlyRemaining int       `json:"hourlyRemaining"`
	HourlyResetAt   time.Time `json:"hourlyResetAt"`
	DailyUsed       int       `json:"dailyUsed"`
	DailyResetAt    time.Time `json:"dailyResetAt"`
}

// reports which windows were refilled by Reconcile
type Reset struct {
	Hourly bool `json:"hourlyReset"`
	Daily  bool `json:"dailyReset"`
}

// limits and calendar used by the ledger
type Policy struct {
	HourlyPool     int
	DailyCap       int
	HourlyInterval time.Duration

	// timezone whose midnight ends a credit day
	Location *time.Location
}

// returns the production limits with UTC day boundaries
func DefaultPolicy() Policy {
	return Policy{
		HourlyPool:     DefaultHourlyPool,
		DailyCap:       DefaultDailyCap,
		HourlyInterval: DefaultHourlyInterval,
		Location:       time.UTC,
	}
}
