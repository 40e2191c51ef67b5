package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
)

func TestPeriodFor_DecemberRollsIntoNextYear(t *testing.T) {
	p, err := payroll.PeriodFor(2025, time.December)
	require.NoError(t, err)

	assert.Equal(t, generic.NewTimePoint(2025, time.December, 11), p.Start)
	assert.Equal(t, generic.NewTimePoint(2026, time.January, 10), p.End)
	assert.Equal(t, 31, p.DayCount())
}

func TestDefaultPeriod_AfterTheTenth(t *testing.T) {
	// GIVEN: 15 March 2025
	// WHEN: the default period is chosen
	p := payroll.DefaultPeriod(generic.NewTimePoint(2025, time.March, 15))

	// THEN: the period that closed on 10 March
	assert.Equal(t, generic.NewTimePoint(2025, time.February, 11), p.Start)
	assert.Equal(t, generic.NewTimePoint(2025, time.March, 10), p.End)
}

// On or before the 10th the default selection is the period that is still
// open (it ends on the 10th of the current month), not the last closed one.
// Both branches pick the previous month; this pins that behaviour.
func TestDefaultPeriod_OnOrBeforeTheTenth_SelectsOpenPeriod(t *testing.T) {
	// GIVEN: 5 March 2025, before the Feb 11 - Mar 10 period has closed
	p := payroll.DefaultPeriod(generic.NewTimePoint(2025, time.March, 5))

	// THEN: the same period as after the 10th
	assert.Equal(t, generic.NewTimePoint(2025, time.February, 11), p.Start)
	assert.Equal(t, generic.NewTimePoint(2025, time.March, 10), p.End)

	after := payroll.DefaultPeriod(generic.NewTimePoint(2025, time.March, 25))
	assert.Equal(t, after, p, "both branches select identical periods")
}

func TestDefaultPeriod_JanuaryUsesPreviousDecember(t *testing.T) {
	p := payroll.DefaultPeriod(generic.NewTimePoint(2026, time.January, 20))

	assert.Equal(t, generic.NewTimePoint(2025, time.December, 11), p.Start)
	assert.Equal(t, generic.NewTimePoint(2026, time.January, 10), p.End)
}

func TestNavigation(t *testing.T) {
	jan := payroll.MustPeriodFor(2025, time.January)

	prev := payroll.PreviousPeriod(jan)
	assert.Equal(t, generic.NewTimePoint(2024, time.December, 11), prev.Start)
	assert.Equal(t, generic.NewTimePoint(2025, time.January, 10), prev.End)

	next := payroll.NextPeriod(payroll.MustPeriodFor(2025, time.December))
	assert.Equal(t, generic.NewTimePoint(2026, time.January, 11), next.Start)
	assert.Equal(t, generic.NewTimePoint(2026, time.February, 10), next.End)

	assert.Equal(t, jan, payroll.NextPeriod(payroll.PreviousPeriod(jan)))
}

func TestIsPayPeriod(t *testing.T) {
	assert.True(t, payroll.IsPayPeriod(payroll.MustPeriodFor(2025, time.June)))
	assert.False(t, payroll.IsPayPeriod(generic.Period{
		Start: generic.NewTimePoint(2025, time.June, 1),
		End:   generic.NewTimePoint(2025, time.June, 30),
	}))
}

func TestWindowFor_LocalMidnightToLastSecond(t *testing.T) {
	loc, err := generic.LoadLocation("Europe/London")
	require.NoError(t, err)

	w := payroll.WindowFor(payroll.MustPeriodFor(2025, time.January), loc)

	assert.Equal(t, time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC).Unix(), w.Start)
	assert.Equal(t, time.Date(2025, 2, 10, 23, 59, 59, 0, time.UTC).Unix(), w.End)
}
