package credits

import (
	"fmt"
	"time"
)

// applies reset and consumption rules to credit state
type Ledger struct {
	policy Policy
	now    func() time.Time
}

// creates a ledger, filling zero-valued policy fields with defaults
func NewLedger(policy Policy) *Ledger {
	if policy.HourlyPool <= 0 {
		policy.HourlyPool = DefaultHourlyPool
	}

	if policy.DailyCap <= 0 {
		policy.DailyCap = DefaultDailyCap
	}

	if policy.HourlyInterval <= 0 {
		policy.HourlyInterval = DefaultHourlyInterval
	}

	if policy.Location == nil {
		policy.Location = time.UTC
	}

	return &Ledger{
		policy: policy,
		now:    time.Now,
	}
}

// replaces the clock, used by tests
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Policy() Policy {
	return l.policy
}

// returns the state a freshly created user starts with
func (l *Ledger) NewState() State {
	now := l.now()

	return State{
		HourlyRemaining: l.policy.HourlyPool,
		HourlyResetAt:   now,
		DailyUsed:       0,
		DailyResetAt:    now,
	}
}

// refills the hourly pool and clears the daily counter when their windows have passed.
// counters outside their legal range are clamped back into it.
func (l *Ledger) Reconcile(s *State) Reset {
	now := l.now()
	var reset Reset

	// the hourly timestamp only moves at refill time, so a partial hour never refills
	if now.Sub(s.HourlyResetAt) >= l.policy.HourlyInterval {
		s.HourlyRemaining = l.policy.HourlyPool
		s.HourlyResetAt = now
		reset.Hourly = true
	}

	if !sameDay(now, s.DailyResetAt, l.policy.Location) {
		s.DailyUsed = 0
		s.DailyResetAt = now
		reset.Daily = true
	}

	l.clamp(s)

	return reset
}

// spends one credit. callers must have reconciled and checked the state first.
func (l *Ledger) Consume(s *State) error {
	if s.HourlyRemaining <= 0 || s.DailyUsed >= l.policy.DailyCap {
		return fmt.Errorf("%w: hourly remaining %d, daily used %d/%d",
			ErrInsufficientCredits, s.HourlyRemaining, s.DailyUsed, l.policy.DailyCap)
	}

	s.HourlyRemaining--
	s.DailyUsed++

	return nil
}

func (l *Ledger) HourlyExhausted(s State) bool {
	return s.HourlyRemaining <= 0
}

func (l *Ledger) DailyExhausted(s State) bool {
	return s.DailyUsed >= l.policy.DailyCap
}

// time left until the hourly pool refills, split into minutes and seconds
func (l *Ledger) TimeUntilHourlyReset(s State) (minutes, seconds int) {
	remaining := s.HourlyResetAt.Add(l.policy.HourlyInterval).Sub(l.now())
	if remaining < 0 {
		remaining = 0
	}

	total := int(remaining.Round(time.Second) / time.Second)

	return total / 60, total % 60
}

// time left until the next midnight in the ledger's timezone, split into hours and minutes
func (l *Ledger) TimeUntilDailyReset() (hours, minutes int) {
	now := l.now().In(l.policy.Location)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, l.policy.Location)

	total := int(midnight.Sub(now) / time.Minute)

	return total / 60, total % 60
}

// formats the hourly countdown as M:SS
func (l *Ledger) FormatHourlyReset(s State) string {
	minutes, seconds := l.TimeUntilHourlyReset(s)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// formats the daily countdown as "Hh Mm"
func (l *Ledger) FormatDailyReset() string {
	hours, minutes := l.TimeUntilDailyReset()
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func (l *Ledger) clamp(s *State) {
	if s.HourlyRemaining < 0 {
		s.HourlyRemaining = 0
	}

	if s.HourlyRemaining > l.policy.HourlyPool {
		s.HourlyRemaining = l.policy.HourlyPool
	}

	if s.DailyUsed < 0 {
		s.DailyUsed = 0
	}

	if s.DailyUsed > l.policy.DailyCap {
		s.DailyUsed = l.policy.DailyCap
	}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()

	return ay == by && am == bm && ad == bd
}
