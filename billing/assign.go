package billing

import (
	"fmt"
	"time"

	"hourbook/hours"
)

// Store is the storage surface the assignment run needs.
type Store interface {
	ListEntriesForMonth(year, month int) ([]*hours.Entry, error)
	GetOrCreateBillingPeriod(date time.Time) (Period, error)
	SaveBillingAssignment(entry *hours.Entry) error
}

// AssignOptions selects which billing sides a run touches. The zero value
// assigns neither; callers normally enable both.
type AssignOptions struct {
	CoderSide   bool
	ProjectSide bool
}

type Result struct {
	EntriesScanned  int
	CoderAssigned   int
	ProjectAssigned int
	RowsUpdated     int
}

// Run assigns the default billing period, derived from each entry's date, to
// every entry of the month whose side is still unset. Existing assignments
// are never overwritten (first write wins), so re-running is harmless.
func Run(store Store, year, month int, opts AssignOptions) (*Result, error) {
	entries, err := store.ListEntriesForMonth(year, month)
	if err != nil {
		return nil, err
	}

	result := &Result{EntriesScanned: len(entries)}
	for _, entry := range entries {
		period, err := store.GetOrCreateBillingPeriod(entry.Date)
		if err != nil {
			return nil, err
		}

		changed := false
		if opts.CoderSide && entry.SetCoderBillingPeriod(period.ID) {
			result.CoderAssigned++
			changed = true
		}
		if opts.ProjectSide && entry.SetProjectBillingPeriod(period.ID) {
			result.ProjectAssigned++
			changed = true
		}
		if !changed {
			continue
		}

		if err := store.SaveBillingAssignment(entry); err != nil {
			return nil, fmt.Errorf("persist billing assignment for entry %d: %w", entry.ID, err)
		}
		result.RowsUpdated++
	}

	return result, nil
}
