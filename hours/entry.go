// Package hours holds the core timesheet records: logged-hour entries, their
// identity semantics for deduplication, and the coder view over a user
// identity and its authorized projects.
package hours

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hourbook/directory"
)

// IdentityFields lists the columns that define "the same logical record" for
// deduplication. Two entries differing only in end time or raw input are one
// record.
var IdentityFields = []string{
	"coder", "project", "date", "amount", "start_time", "issue", "repository",
	"comment",
}

// ExtraFields are overwritten on every import, whether or not the canonical
// record already existed.
var ExtraFields = []string{"end_time", "raw_input"}

// TimeOfDay is a wall-clock time without a date, used for the optional start
// and end times of an entry.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay tries each layout in order and returns the first match.
func ParseTimeOfDay(value string, layouts []string) (*TimeOfDay, error) {
	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			lastErr = err
			continue
		}
		return &TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second()}, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no layouts given")
	}
	return nil, lastErr
}

func (t TimeOfDay) Format(layout string) string {
	return time.Date(0, time.January, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format(layout)
}

func (t TimeOfDay) String() string {
	return t.Format("15:04:05")
}

// Entry is one logged-time record.
type Entry struct {
	ID int64

	// required
	Coder   directory.User
	Project directory.Project
	Date    time.Time
	Amount  decimal.Decimal

	// at least one required once persisted
	PendingTags []string // captured at parse time, before any Tag rows exist
	Tags        []string // persisted tag relation

	// optional
	StartTime  *TimeOfDay
	EndTime    *TimeOfDay
	Issue      *directory.Issue
	Repository *directory.Repository
	Comment    string

	// meta
	CreatedAt time.Time
	UpdatedAt time.Time
	RawInput  string // verbatim source row as JSON, kept for audit

	// billing; zero means unassigned
	CoderBillingPeriodID   int64
	ProjectBillingPeriodID int64
}

// TagNames returns the persisted tag relation for stored entries and the
// pending in-memory set for entries that have not been saved yet.
func (e *Entry) TagNames() []string {
	if e.ID > 0 {
		return e.Tags
	}
	return e.PendingTags
}

// Need returns the need the entry's issue belongs to, if any.
func (e *Entry) Need() string {
	if e.Issue == nil {
		return ""
	}
	return e.Issue.Need
}

// TicketInfo describes what the hours were spent on: the issue's need or
// title when a ticket is linked, otherwise the free-form comment.
func (e *Entry) TicketInfo() string {
	if e.Issue != nil {
		if e.Issue.Need != "" {
			return e.Issue.Need
		}
		return e.Issue.Title
	}
	return e.Comment
}

// SetCoderBillingPeriod assigns the coder-side billing period if it is still
// unset and reports whether the entry changed. The caller persists the
// assignment separately.
func (e *Entry) SetCoderBillingPeriod(periodID int64) bool {
	if e.CoderBillingPeriodID != 0 {
		return false
	}
	e.CoderBillingPeriodID = periodID
	return true
}

// SetProjectBillingPeriod is the project-side counterpart of
// SetCoderBillingPeriod.
func (e *Entry) SetProjectBillingPeriod(periodID int64) bool {
	if e.ProjectBillingPeriodID != 0 {
		return false
	}
	e.ProjectBillingPeriodID = periodID
	return true
}

func (e *Entry) String() string {
	repo, number := "", ""
	if e.Repository != nil {
		repo = e.Repository.DistinctName()
	}
	if e.Issue != nil {
		number = fmt.Sprintf("#%d", e.Issue.Number)
	}
	return fmt.Sprintf("%s | %s | %s%s | %s | %s",
		e.Coder.Username, e.Project.Name, repo, number,
		e.Date.Format("2006-01-02"), e.Amount.StringFixed(2))
}
