package storage

import (
	"testing"
	"time"

	"hourbook/hours"
)

func TestGetOrCreateBillingPeriod(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	date := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	period, err := store.GetOrCreateBillingPeriod(date)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if period.Year != 2024 || period.Month != 3 {
		t.Errorf("period = %v, want 2024-03", period)
	}
	if period.ID == 0 {
		t.Fatal("persisted period must carry a storage id")
	}

	later := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	same, err := store.GetOrCreateBillingPeriod(later)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if same.ID != period.ID {
		t.Errorf("same month resolved to different periods: %d vs %d", same.ID, period.ID)
	}

	april, err := store.GetOrCreateBillingPeriod(date.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("april call: %v", err)
	}
	if april.ID == period.ID {
		t.Error("different month must get its own period")
	}
}

func TestGetBillingPeriod(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, found, err := store.GetBillingPeriod(2024, 3)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found {
		t.Fatal("period does not exist yet")
	}

	created, err := store.GetOrCreateBillingPeriod(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	period, found, err := store.GetBillingPeriod(2024, 3)
	if err != nil || !found {
		t.Fatalf("lookup after create: found=%t err=%v", found, err)
	}
	if period.ID != created.ID {
		t.Errorf("period id = %d, want %d", period.ID, created.ID)
	}
}

func TestTotalHoursForPeriod(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	period, err := f.store.GetOrCreateBillingPeriod(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create period: %v", err)
	}

	billed := []*hours.Entry{
		f.entry(t, "2024-03-01", "8.00"),
		f.entry(t, "2024-03-02", "1.50"),
	}
	for _, entry := range billed {
		if _, err := f.store.UpsertEntry(entry); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		entry.SetCoderBillingPeriod(period.ID)
		if err := f.store.SaveBillingAssignment(entry); err != nil {
			t.Fatalf("save assignment: %v", err)
		}
	}

	// Stored but never billed; must not count.
	unbilled := f.entry(t, "2024-03-03", "2.00")
	if _, err := f.store.UpsertEntry(unbilled); err != nil {
		t.Fatalf("upsert unbilled: %v", err)
	}

	coderTotal, err := f.store.TotalCoderHoursForPeriod(period.ID)
	if err != nil {
		t.Fatalf("coder total: %v", err)
	}
	if got := coderTotal.StringFixed(2); got != "9.50" {
		t.Errorf("coder total = %s, want 9.50", got)
	}

	projectTotal, err := f.store.TotalProjectHoursForPeriod(period.ID)
	if err != nil {
		t.Fatalf("project total: %v", err)
	}
	if !projectTotal.IsZero() {
		t.Errorf("project total = %s, want 0", projectTotal)
	}
}
