package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfline/bookstore/inventory"
)

func TestParsePeriod_AcceptsAllKnownValues(t *testing.T) {
	for _, p := range inventory.Periods() {
		parsed, err := inventory.ParsePeriod(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
}

func TestParsePeriod_RejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "2w", "7d", "week", "ALL", "1W"} {
		_, err := inventory.ParsePeriod(raw)
		assert.ErrorIs(t, err, inventory.ErrInvalidPeriod, "raw %q", raw)
	}
}

func TestPeriod_CutoffFrom(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period inventory.Period
		days   int
	}{
		{inventory.PeriodWeek, 7},
		{inventory.PeriodMonth, 30},
		{inventory.PeriodQuarter, 90},
		{inventory.PeriodHalfYear, 180},
		{inventory.PeriodYear, 365},
		{inventory.PeriodFiveYears, 365 * 5},
	}
	for _, tc := range tests {
		cutoff, bounded := tc.period.CutoffFrom(now)
		require.True(t, bounded, "period %s", tc.period)
		assert.Equal(t, now.AddDate(0, 0, -tc.days), cutoff, "period %s", tc.period)
	}
}

func TestPeriod_AllTimeHasNoLowerBound(t *testing.T) {
	_, bounded := inventory.PeriodAllTime.CutoffFrom(time.Now())
	assert.False(t, bounded)
}
