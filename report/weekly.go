package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hourbook/billing"
	"hourbook/hours"
	"hourbook/internal/timeutil"
)

// CoderWeekly is one coder's hours for one ISO week, ordered by date and
// start time. The billing period is the one covering the week's Monday, so a
// week spanning a month boundary reports billable hours against the month it
// starts in.
type CoderWeekly struct {
	Coder     *hours.Coder
	Year      int
	Week      int
	WeekStart time.Time
	WeekEnd   time.Time
	Period    billing.Period
	Entries   []*hours.Entry
}

func BuildCoderWeekly(store Store, coder *hours.Coder, year, week int) (*CoderWeekly, error) {
	monday, sunday := timeutil.ISOWeekBounds(year, week)
	entries, err := store.ListCoderEntriesForRange(coder.User.ID, monday, sunday)
	if err != nil {
		return nil, fmt.Errorf("list coder hours for week %d-W%02d: %w", year, week, err)
	}
	period, _, err := store.GetBillingPeriod(monday.Year(), int(monday.Month()))
	if err != nil {
		return nil, err
	}
	period.Year, period.Month = monday.Year(), int(monday.Month())
	return &CoderWeekly{
		Coder:     coder,
		Year:      year,
		Week:      week,
		WeekStart: monday,
		WeekEnd:   sunday,
		Period:    period,
		Entries:   entries,
	}, nil
}

func (w *CoderWeekly) TotalHours() decimal.Decimal {
	return totalAmount(w.Entries)
}

// TotalBillableHours sums the week's entries billed to the period of the
// week's starting month on the coder side.
func (w *CoderWeekly) TotalBillableHours() decimal.Decimal {
	if w.Period.ID == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, entry := range w.Entries {
		if entry.CoderBillingPeriodID == w.Period.ID {
			total = total.Add(entry.Amount)
		}
	}
	return total
}

// ProjectWeekly is one project's hours for one ISO week.
type ProjectWeekly struct {
	ProjectID   int64
	ProjectName string
	Year        int
	Week        int
	WeekStart   time.Time
	WeekEnd     time.Time
	Entries     []*hours.Entry
}

func BuildProjectWeekly(store Store, projectID int64, projectName string, year, week int) (*ProjectWeekly, error) {
	monday, sunday := timeutil.ISOWeekBounds(year, week)
	entries, err := store.ListProjectEntriesForRange(projectID, monday, sunday)
	if err != nil {
		return nil, fmt.Errorf("list project hours for week %d-W%02d: %w", year, week, err)
	}
	return &ProjectWeekly{
		ProjectID:   projectID,
		ProjectName: projectName,
		Year:        year,
		Week:        week,
		WeekStart:   monday,
		WeekEnd:     sunday,
		Entries:     entries,
	}, nil
}

func (w *ProjectWeekly) TotalHours() decimal.Decimal {
	return totalAmount(w.Entries)
}

// HoursByDay sums the week's entries per day, Monday through Sunday. Days
// without entries carry zero so callers can render a full week grid.
func (w *ProjectWeekly) HoursByDay() []decimal.Decimal {
	return hoursByDay(w.WeekStart, w.Entries)
}

// HoursByDay sums the week's entries per day, Monday through Sunday.
func (w *CoderWeekly) HoursByDay() []decimal.Decimal {
	return hoursByDay(w.WeekStart, w.Entries)
}

func hoursByDay(monday time.Time, entries []*hours.Entry) []decimal.Decimal {
	days := make([]decimal.Decimal, 7)
	for _, entry := range entries {
		offset := int(timeutil.DateOnly(entry.Date).Sub(monday).Hours() / 24)
		if offset < 0 || offset > 6 {
			continue
		}
		days[offset] = days[offset].Add(entry.Amount)
	}
	return days
}
