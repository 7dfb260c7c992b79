/*
report.go - Top-selling aggregation over the sales register

PURPOSE:
  Ranks books by total units sold within a named period, optionally
  restricted to a genre. Pure read: reporting never touches the
  ledger, only Sale rows and the catalog.

ORDERING:
  Rows are sorted by total quantity descending. Ties are broken by
  book ID ascending so repeated identical queries return identical
  results.

SEE ALSO:
  - period.go: The closed period enumeration
  - store.go: SalesReader contract
*/
package inventory

import (
	"context"
	"time"
)

// DefaultReportLimit is used when the caller doesn't specify one.
const DefaultReportLimit = 10

// Reporter computes sales rankings from a SalesReader.
type Reporter struct {
	sales SalesReader

	// now is swappable for tests.
	now func() time.Time
}

// NewReporter creates a reporter over the given sales store.
func NewReporter(sales SalesReader) *Reporter {
	return &Reporter{sales: sales, now: time.Now}
}

// WithClock returns a copy of the reporter using the given clock.
func (r *Reporter) WithClock(now func() time.Time) *Reporter {
	return &Reporter{sales: r.sales, now: now}
}

// TopSelling returns up to limit books ranked by units sold within the
// period, inclusive of the window's lower bound. genreID restricts the
// ranking to one genre; pass "" for all genres. limit <= 0 falls back
// to DefaultReportLimit.
func (r *Reporter) TopSelling(ctx context.Context, period Period, limit int, genreID string) ([]BookSales, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultReportLimit
	}

	var since *time.Time
	if cutoff, bounded := period.CutoffFrom(r.now()); bounded {
		since = &cutoff
	}

	rows, err := r.sales.TopSelling(ctx, since, genreID, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []BookSales{}
	}
	return rows, nil
}
