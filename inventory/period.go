package inventory

import "time"

// =============================================================================
// PERIOD - Closed reporting-window enumeration
// =============================================================================

// Period is a named reporting window. The set is closed and every
// consumer switches exhaustively; adding a period is a conscious code
// change in ParsePeriod and CutoffFrom.
type Period string

const (
	PeriodWeek      Period = "1w"
	PeriodMonth     Period = "1m"
	PeriodQuarter   Period = "3m"
	PeriodHalfYear  Period = "6m"
	PeriodYear      Period = "1y"
	PeriodFiveYears Period = "5y"
	PeriodAllTime   Period = "all"
)

// Periods lists every valid period, in ascending window order.
func Periods() []Period {
	return []Period{
		PeriodWeek, PeriodMonth, PeriodQuarter,
		PeriodHalfYear, PeriodYear, PeriodFiveYears, PeriodAllTime,
	}
}

// ParsePeriod validates a raw period string.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodHalfYear,
		PeriodYear, PeriodFiveYears, PeriodAllTime:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// CutoffFrom returns the inclusive lower bound of the window ending at
// now. ok is false for the all-time period, which has no lower bound.
func (p Period) CutoffFrom(now time.Time) (cutoff time.Time, ok bool) {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, 0, -30), true
	case PeriodQuarter:
		return now.AddDate(0, 0, -90), true
	case PeriodHalfYear:
		return now.AddDate(0, 0, -180), true
	case PeriodYear:
		return now.AddDate(0, 0, -365), true
	case PeriodFiveYears:
		return now.AddDate(0, 0, -365*5), true
	case PeriodAllTime:
		return time.Time{}, false
	}
	// Unreachable for values produced by ParsePeriod.
	return time.Time{}, false
}
