package report

import (
	"testing"

	"hourbook/billing"
	"hourbook/directory"
	"hourbook/hours"
)

// March 1 and 2, 2024 fall in ISO week 9, which starts on February 26.

func TestCoderWeeklyTotals(t *testing.T) {
	t.Parallel()

	billed := tagged("3.00", "dev")
	billed.CoderBillingPeriodID = 7
	unbilled := ticketed("2.00", "Portal", "")

	store := &fakeStore{
		entries: []*hours.Entry{billed, unbilled},
		period:  billing.Period{ID: 7, Year: 2024, Month: 2},
		found:   true,
	}
	coder := &hours.Coder{
		User:     directory.User{ID: 1, Username: "alice"},
		Projects: []directory.Project{{ID: 10, Name: "Acme"}},
	}

	weekly, err := BuildCoderWeekly(store, coder, 2024, 9)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := weekly.WeekStart.Format("2006-01-02"); got != "2024-02-26" {
		t.Errorf("week start = %s, want 2024-02-26", got)
	}
	if got := weekly.WeekEnd.Format("2006-01-02"); got != "2024-03-03" {
		t.Errorf("week end = %s, want 2024-03-03", got)
	}
	if weekly.Period.Year != 2024 || weekly.Period.Month != 2 {
		t.Errorf("period = %v, want the week's starting month", weekly.Period)
	}
	if got := weekly.TotalHours().StringFixed(2); got != "5.00" {
		t.Errorf("total = %s, want 5.00", got)
	}
	if got := weekly.TotalBillableHours().StringFixed(2); got != "3.00" {
		t.Errorf("billable = %s, want 3.00", got)
	}
}

func TestCoderWeeklyExcludesOtherWeeks(t *testing.T) {
	t.Parallel()

	store := &fakeStore{entries: []*hours.Entry{tagged("2.00", "dev")}}
	coder := &hours.Coder{User: directory.User{ID: 1, Username: "alice"}}

	weekly, err := BuildCoderWeekly(store, coder, 2024, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(weekly.Entries) != 0 {
		t.Errorf("entries = %v, want none outside the week", weekly.Entries)
	}
	if !weekly.TotalHours().IsZero() {
		t.Error("total must be zero for an empty week")
	}
}

func TestProjectWeeklyHoursByDay(t *testing.T) {
	t.Parallel()

	store := &fakeStore{entries: []*hours.Entry{
		ticketed("5.00", "Portal", ""),
		tagged("3.00", "meetings"),
	}}

	weekly, err := BuildProjectWeekly(store, 10, "Acme", 2024, 9)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := weekly.TotalHours().StringFixed(2); got != "8.00" {
		t.Errorf("total = %s, want 8.00", got)
	}

	days := weekly.HoursByDay()
	if len(days) != 7 {
		t.Fatalf("days = %d, want 7", len(days))
	}
	// March 1 is the Friday and March 2 the Saturday of the week.
	if got := days[4].StringFixed(2); got != "5.00" {
		t.Errorf("friday = %s, want 5.00", got)
	}
	if got := days[5].StringFixed(2); got != "3.00" {
		t.Errorf("saturday = %s, want 3.00", got)
	}
	for _, i := range []int{0, 1, 2, 3, 6} {
		if !days[i].IsZero() {
			t.Errorf("day %d = %s, want zero", i, days[i])
		}
	}
}
