// Package report builds monthly and ISO-weekly views over logged hours:
// per-coder and per-project listings with totals, and invoice-ready summary
// rows grouping ticketed work by need and the rest by tag set.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hourbook/billing"
	"hourbook/hours"
)

// Store is the storage surface the report builders need.
type Store interface {
	ListCoderEntriesForMonth(coderID int64, year, month int) ([]*hours.Entry, error)
	ListProjectEntriesForMonth(projectID int64, year, month int) ([]*hours.Entry, error)
	ListCoderEntriesForRange(coderID int64, from, to time.Time) ([]*hours.Entry, error)
	ListProjectEntriesForRange(projectID int64, from, to time.Time) ([]*hours.Entry, error)
	GetBillingPeriod(year, month int) (billing.Period, bool, error)
}

// CoderMonthly is one coder's hours for one month, ordered by date and start
// time.
type CoderMonthly struct {
	Coder   *hours.Coder
	Period  billing.Period
	Entries []*hours.Entry
}

func BuildCoderMonthly(store Store, coder *hours.Coder, year, month int) (*CoderMonthly, error) {
	entries, err := store.ListCoderEntriesForMonth(coder.User.ID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list coder hours for %d-%02d: %w", year, month, err)
	}
	period, _, err := store.GetBillingPeriod(year, month)
	if err != nil {
		return nil, err
	}
	period.Year, period.Month = year, month
	return &CoderMonthly{Coder: coder, Period: period, Entries: entries}, nil
}

func (m *CoderMonthly) TotalHours() decimal.Decimal {
	return totalAmount(m.Entries)
}

// TotalBillableHours sums the entries billed to this month's period on the
// coder side. Zero when the period has never been created.
func (m *CoderMonthly) TotalBillableHours() decimal.Decimal {
	if m.Period.ID == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, entry := range m.Entries {
		if entry.CoderBillingPeriodID == m.Period.ID {
			total = total.Add(entry.Amount)
		}
	}
	return total
}

// ProjectMonthly is one project's hours for one month.
type ProjectMonthly struct {
	ProjectID   int64
	ProjectName string
	Period      billing.Period
	Entries     []*hours.Entry
}

func BuildProjectMonthly(store Store, projectID int64, projectName string, year, month int) (*ProjectMonthly, error) {
	entries, err := store.ListProjectEntriesForMonth(projectID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list project hours for %d-%02d: %w", year, month, err)
	}
	period, _, err := store.GetBillingPeriod(year, month)
	if err != nil {
		return nil, err
	}
	period.Year, period.Month = year, month
	return &ProjectMonthly{
		ProjectID:   projectID,
		ProjectName: projectName,
		Period:      period,
		Entries:     entries,
	}, nil
}

func (m *ProjectMonthly) TotalHours() decimal.Decimal {
	return totalAmount(m.Entries)
}

// SummaryRow is one line of an invoice-ready monthly summary.
type SummaryRow struct {
	Category    string
	Description string
	Hours       decimal.Decimal
}

// SummaryRows renders the month as summary lines: header, ticketed work
// grouped by need (falling back to issue title), a second block of
// non-ticketed work grouped by tag set, and a grand total.
func (m *ProjectMonthly) SummaryRows() []SummaryRow {
	rows := []SummaryRow{
		{Category: "CATEGORY", Description: "DESCRIPTION"},
		{},
	}
	total := decimal.Zero

	for _, group := range GroupByNeed(m.Entries) {
		rows = append(rows, SummaryRow{
			Category:    "Development work",
			Description: group.Description,
			Hours:       group.Hours,
		})
		total = total.Add(group.Hours)
	}
	rows = append(rows, SummaryRow{})

	for _, group := range GroupByTags(m.Entries) {
		rows = append(rows, SummaryRow{
			Category:    "Maintenance, administration, meetings, and other work",
			Description: fmt.Sprintf("Work hours tagged w/ %s", strings.ToUpper(group.Description)),
			Hours:       group.Hours,
		})
		total = total.Add(group.Hours)
	}

	rows = append(rows, SummaryRow{})
	rows = append(rows, SummaryRow{Category: "TOTAL", Hours: total})
	return rows
}

// Group is a description plus the summed hours behind it.
type Group struct {
	Description string
	Hours       decimal.Decimal
}

// GroupByNeed sums ticketed entries per need, falling back to the issue
// title when the issue has no need. Entries without an issue are ignored.
func GroupByNeed(entries []*hours.Entry) []Group {
	return groupBy(entries, func(entry *hours.Entry) (string, bool) {
		if entry.Issue == nil {
			return "", false
		}
		if entry.Issue.Need != "" {
			return entry.Issue.Need, true
		}
		return entry.Issue.Title, true
	})
}

// GroupByTags sums non-ticketed entries per comma-joined tag set.
func GroupByTags(entries []*hours.Entry) []Group {
	return groupBy(entries, func(entry *hours.Entry) (string, bool) {
		if entry.Issue != nil {
			return "", false
		}
		return strings.Join(entry.TagNames(), ", "), true
	})
}

func groupBy(entries []*hours.Entry, key func(*hours.Entry) (string, bool)) []Group {
	totals := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		k, ok := key(entry)
		if !ok {
			continue
		}
		totals[k] = totals[k].Add(entry.Amount)
	}

	groups := make([]Group, 0, len(totals))
	for description, amount := range totals {
		groups = append(groups, Group{Description: description, Hours: amount})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Description < groups[j].Description
	})
	return groups
}

func totalAmount(entries []*hours.Entry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}
	return total
}
