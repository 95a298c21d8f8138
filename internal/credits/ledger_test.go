package credits

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixed afternoon so day boundaries are far away unless a test moves them
var testNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func newTestLedger(now time.Time) *Ledger {
	return NewLedger(DefaultPolicy()).WithClock(func() time.Time { return now })
}

func TestNewLedgerAppliesDefaults(t *testing.T) {
	l := NewLedger(Policy{})
	p := l.Policy()

	assert.Equal(t, 5, p.HourlyPool)
	assert.Equal(t, 20, p.DailyCap)
	assert.Equal(t, time.Hour, p.HourlyInterval)
	assert.Equal(t, time.UTC, p.Location)
}

func TestNewState(t *testing.T) {
	s := newTestLedger(testNow).NewState()

	assert.Equal(t, 5, s.HourlyRemaining)
	assert.Equal(t, 0, s.DailyUsed)
	assert.Equal(t, testNow, s.HourlyResetAt)
	assert.Equal(t, testNow, s.DailyResetAt)
}

func TestReconcileHourlyResetAfterFullInterval(t *testing.T) {
	l := newTestLedger(testNow)
	s := State{
		HourlyRemaining: 0,
		HourlyResetAt:   testNow.Add(-61 * time.Minute),
		DailyUsed:       3,
		DailyResetAt:    testNow,
	}

	reset := l.Reconcile(&s)

	assert.True(t, reset.Hourly)
	assert.False(t, reset.Daily)
	assert.Equal(t, 5, s.HourlyRemaining)
	assert.Equal(t, testNow, s.HourlyResetAt)
	assert.Equal(t, 3, s.DailyUsed)
}

func TestReconcileHourlyExactBoundary(t *testing.T) {
	l := newTestLedger(testNow)
	s := State{HourlyRemaining: 2, HourlyResetAt: testNow.Add(-time.Hour), DailyResetAt: testNow}

	reset := l.Reconcile(&s)

	assert.True(t, reset.Hourly)
	assert.Equal(t, 5, s.HourlyRemaining)
}

func TestReconcilePartialHourGrantsNothing(t *testing.T) {
	l := newTestLedger(testNow)
	resetAt := testNow.Add(-59 * time.Minute)
	s := State{HourlyRemaining: 1, HourlyResetAt: resetAt, DailyResetAt: testNow}

	reset := l.Reconcile(&s)

	assert.False(t, reset.Hourly)
	assert.Equal(t, 1, s.HourlyRemaining)
	assert.Equal(t, resetAt, s.HourlyResetAt)
}

func TestReconcileDailyResetOnNewDate(t *testing.T) {
	l := newTestLedger(testNow)
	s := State{
		HourlyRemaining: 0,
		HourlyResetAt:   testNow.Add(-2 * time.Hour),
		DailyUsed:       20,
		DailyResetAt:    testNow.AddDate(0, 0, -1),
	}

	reset := l.Reconcile(&s)

	assert.True(t, reset.Daily)
	assert.True(t, reset.Hourly)
	assert.Equal(t, 0, s.DailyUsed)
	assert.Equal(t, 5, s.HourlyRemaining)
	assert.False(t, l.HourlyExhausted(s))
	assert.False(t, l.DailyExhausted(s))
}

func TestReconcileDailyIgnoresTimeOfDay(t *testing.T) {
	// 23:59 yesterday to 00:01 today is a new day even though only minutes passed
	now := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	l := newTestLedger(now)
	s := State{
		HourlyRemaining: 3,
		HourlyResetAt:   now.Add(-2 * time.Minute),
		DailyUsed:       7,
		DailyResetAt:    time.Date(2025, 3, 13, 23, 59, 0, 0, time.UTC),
	}

	reset := l.Reconcile(&s)

	assert.True(t, reset.Daily)
	assert.False(t, reset.Hourly)
	assert.Equal(t, 0, s.DailyUsed)
	assert.Equal(t, 3, s.HourlyRemaining)

	// same calendar day far apart in time does not reset
	s = State{HourlyRemaining: 3, HourlyResetAt: now, DailyUsed: 7, DailyResetAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)}
	reset = l.Reconcile(&s)
	assert.False(t, reset.Daily)
	assert.Equal(t, 7, s.DailyUsed)
}

func TestReconcileUsesConfiguredLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 15:30 UTC on the 14th is 00:30 on the 15th in JST
	now := time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
	lastReset := time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC)

	utc := newTestLedger(now)
	s := State{HourlyRemaining: 5, HourlyResetAt: now, DailyUsed: 4, DailyResetAt: lastReset}
	assert.False(t, utc.Reconcile(&s).Daily)

	jst := NewLedger(Policy{Location: tokyo}).WithClock(func() time.Time { return now })
	s = State{HourlyRemaining: 5, HourlyResetAt: now, DailyUsed: 4, DailyResetAt: lastReset}
	assert.True(t, jst.Reconcile(&s).Daily)
	assert.Equal(t, 0, s.DailyUsed)
}

func TestReconcileClampsOutOfRangeCounters(t *testing.T) {
	l := newTestLedger(testNow)
	s := State{HourlyRemaining: 9, HourlyResetAt: testNow, DailyUsed: 25, DailyResetAt: testNow}

	l.Reconcile(&s)

	assert.Equal(t, 5, s.HourlyRemaining)
	assert.Equal(t, 20, s.DailyUsed)

	s = State{HourlyRemaining: -2, HourlyResetAt: testNow, DailyUsed: -1, DailyResetAt: testNow}
	l.Reconcile(&s)

	assert.Equal(t, 0, s.HourlyRemaining)
	assert.Equal(t, 0, s.DailyUsed)
}

func TestConsume(t *testing.T) {
	l := newTestLedger(testNow)
	s := State{HourlyRemaining: 1, HourlyResetAt: testNow, DailyUsed: 19, DailyResetAt: testNow}

	require.NoError(t, l.Consume(&s))
	assert.Equal(t, 0, s.HourlyRemaining)
	assert.Equal(t, 20, s.DailyUsed)

	err := l.Consume(&s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientCredits))
	assert.Equal(t, 0, s.HourlyRemaining)
	assert.Equal(t, 20, s.DailyUsed)
}

func TestConsumeRejectsDailyCapWithHourlyLeft(t *testing.T) {
	l := newTestLedger(testNow)
	s := State{HourlyRemaining: 4, HourlyResetAt: testNow, DailyUsed: 20, DailyResetAt: testNow}

	assert.ErrorIs(t, l.Consume(&s), ErrInsufficientCredits)
	assert.Equal(t, 4, s.HourlyRemaining)
}

func TestConsumeNeverBreaksInvariants(t *testing.T) {
	l := newTestLedger(testNow)
	s := l.NewState()

	for i := 0; i < 50; i++ {
		_ = l.Consume(&s) //nolint:errcheck // exhausting on purpose

		assert.GreaterOrEqual(t, s.HourlyRemaining, 0)
		assert.LessOrEqual(t, s.HourlyRemaining, 5)
		assert.GreaterOrEqual(t, s.DailyUsed, 0)
		assert.LessOrEqual(t, s.DailyUsed, 20)
	}

	assert.Equal(t, 0, s.HourlyRemaining)
	assert.Equal(t, 5, s.DailyUsed)
}

func TestTimeUntilHourlyReset(t *testing.T) {
	l := newTestLedger(testNow)

	s := State{HourlyResetAt: testNow.Add(-47*time.Minute - 30*time.Second)}
	minutes, seconds := l.TimeUntilHourlyReset(s)
	assert.Equal(t, 12, minutes)
	assert.Equal(t, 30, seconds)
	assert.Equal(t, "12:30", l.FormatHourlyReset(s))

	s = State{HourlyResetAt: testNow.Add(-2 * time.Hour)}
	minutes, seconds = l.TimeUntilHourlyReset(s)
	assert.Equal(t, 0, minutes)
	assert.Equal(t, 0, seconds)
	assert.Equal(t, "0:00", l.FormatHourlyReset(s))

	s = State{HourlyResetAt: testNow.Add(-59*time.Minute - 55*time.Second)}
	assert.Equal(t, "0:05", l.FormatHourlyReset(s))
}

func TestTimeUntilDailyReset(t *testing.T) {
	now := time.Date(2025, 3, 14, 18, 45, 0, 0, time.UTC)
	l := newTestLedger(now)

	hours, minutes := l.TimeUntilDailyReset()
	assert.Equal(t, 5, hours)
	assert.Equal(t, 15, minutes)
	assert.Equal(t, "5h 15m", l.FormatDailyReset())
}
