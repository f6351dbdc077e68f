// Package billing groups hours entries into monthly billing periods. An
// entry is billed independently on the coder side and on the project side;
// the two assignments may land in different periods.
package billing

import (
	"fmt"
	"time"

	"hourbook/internal/timeutil"
)

// Period is a (year, month) billing bucket, unique per pair and lazily
// created in storage.
type Period struct {
	ID    int64
	Year  int
	Month int
}

// FromDate returns the period the date falls in. The returned value carries
// no storage ID; use Store.GetOrCreateBillingPeriod for the persisted row.
func FromDate(date time.Time) Period {
	return Period{Year: date.Year(), Month: int(date.Month())}
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Start returns the first day of the period's month.
func (p Period) Start() time.Time {
	first, _ := timeutil.MonthBounds(p.Year, p.Month)
	return first
}

// End returns the last day of the period's month.
func (p Period) End() time.Time {
	_, last := timeutil.MonthBounds(p.Year, p.Month)
	return last
}

// Contains reports whether the date falls within the period's month.
func (p Period) Contains(date time.Time) bool {
	return timeutil.SameMonth(date, p.Year, p.Month)
}
