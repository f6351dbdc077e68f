package storage

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"hourbook/hours"
	"hourbook/internal/timeutil"
)

func TestUpsertEntryCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "8.00", "dev", "urgent")
	entry.StartTime = &hours.TimeOfDay{Hour: 9}
	entry.EndTime = &hours.TimeOfDay{Hour: 17}

	created, err := f.store.UpsertEntry(entry)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Fatal("first upsert must create the canonical row")
	}
	if entry.ID == 0 {
		t.Fatal("upsert must backfill the entry id")
	}

	// Same identity tuple with a different end time: updated in place.
	again := f.entry(t, "2024-03-01", "8.00", "dev", "urgent")
	again.StartTime = &hours.TimeOfDay{Hour: 9}
	again.EndTime = &hours.TimeOfDay{Hour: 18}

	created, err = f.store.UpsertEntry(again)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("second upsert must reuse the canonical row")
	}
	if again.ID != entry.ID {
		t.Errorf("ids differ: %d vs %d", again.ID, entry.ID)
	}

	stored, found, err := f.store.GetEntryByID(entry.ID)
	if err != nil || !found {
		t.Fatalf("get entry: found=%t err=%v", found, err)
	}
	if stored.EndTime == nil || stored.EndTime.Hour != 18 {
		t.Errorf("end time not overwritten: %v", stored.EndTime)
	}
	if stored.StartTime == nil || stored.StartTime.Hour != 9 {
		t.Errorf("start time = %v", stored.StartTime)
	}

	entries, err := f.store.ListEntries()
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(entries))
	}
}

func TestUpsertEntryDifferentStartTimeIsNewRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.entry(t, "2024-03-01", "4.00")
	first.StartTime = &hours.TimeOfDay{Hour: 9}
	second := f.entry(t, "2024-03-01", "4.00")
	second.StartTime = &hours.TimeOfDay{Hour: 13}

	if _, err := f.store.UpsertEntry(first); err != nil {
		t.Fatalf("upsert first: %v", err)
	}
	created, err := f.store.UpsertEntry(second)
	if err != nil {
		t.Fatalf("upsert second: %v", err)
	}
	if !created {
		t.Fatal("different start time means a different identity tuple")
	}

	entries, err := f.store.ListEntries()
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 stored entries, got %d", len(entries))
	}
}

func TestUpsertEntryReplacesTags(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "2.00", "dev", "urgent")
	if _, err := f.store.UpsertEntry(entry); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	again := f.entry(t, "2024-03-01", "2.00", "review")
	if _, err := f.store.UpsertEntry(again); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	stored, found, err := f.store.GetEntryByID(again.ID)
	if err != nil || !found {
		t.Fatalf("get entry: found=%t err=%v", found, err)
	}
	if !reflect.DeepEqual(stored.Tags, []string{"review"}) {
		t.Errorf("tags = %v, want [review]", stored.Tags)
	}

	// The dropped tag rows themselves survive in the tag table.
	names, err := f.store.ListTags()
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"dev", "review", "urgent"}) {
		t.Errorf("tag table = %v", names)
	}
}

func TestUpsertEntryRequiresTags(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "1.00")
	entry.PendingTags = nil

	_, err := f.store.UpsertEntry(entry)
	if !errors.Is(err, hours.ErrAtLeastOneTagRequired) {
		t.Fatalf("expected ErrAtLeastOneTagRequired, got %v", err)
	}
}

func TestUpsertEntryWithTicket(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "3.50")
	entry.Issue = f.issue42
	entry.Repository = f.repo

	if _, err := f.store.UpsertEntry(entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stored, found, err := f.store.GetEntryByID(entry.ID)
	if err != nil || !found {
		t.Fatalf("get entry: found=%t err=%v", found, err)
	}
	if stored.Issue == nil || stored.Issue.Number != 42 {
		t.Errorf("issue = %v", stored.Issue)
	}
	if stored.Issue != nil && stored.Issue.Need != "Customer portal" {
		t.Errorf("issue need = %q", stored.Issue.Need)
	}
	if stored.Repository == nil || stored.Repository.DistinctName() != "octo/repo-x" {
		t.Errorf("repository = %v", stored.Repository)
	}

	// Ticketless variant of the same row is a distinct record.
	bare := f.entry(t, "2024-03-01", "3.50")
	created, err := f.store.UpsertEntry(bare)
	if err != nil {
		t.Fatalf("upsert bare: %v", err)
	}
	if !created {
		t.Fatal("issue and repository are part of the identity tuple")
	}
}

func TestSimilarRowExists(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "8.00")

	exists, err := f.store.SimilarRowExists(entry)
	if err != nil {
		t.Fatalf("similar check: %v", err)
	}
	if exists {
		t.Fatal("nothing stored yet")
	}

	if _, err := f.store.UpsertEntry(entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	dup := f.entry(t, "2024-03-01", "8.00")
	exists, err = f.store.SimilarRowExists(dup)
	if err != nil {
		t.Fatalf("similar check: %v", err)
	}
	if !exists {
		t.Fatal("identity tuple should now exist")
	}

	other := f.entry(t, "2024-03-02", "8.00")
	exists, err = f.store.SimilarRowExists(other)
	if err != nil {
		t.Fatalf("similar check: %v", err)
	}
	if exists {
		t.Fatal("different date must not match")
	}
}

func TestSaveBillingAssignment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "8.00")
	if _, err := f.store.UpsertEntry(entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	period, err := f.store.GetOrCreateBillingPeriod(entry.Date)
	if err != nil {
		t.Fatalf("get period: %v", err)
	}
	entry.SetCoderBillingPeriod(period.ID)
	entry.SetProjectBillingPeriod(period.ID)
	if err := f.store.SaveBillingAssignment(entry); err != nil {
		t.Fatalf("save assignment: %v", err)
	}

	stored, found, err := f.store.GetEntryByID(entry.ID)
	if err != nil || !found {
		t.Fatalf("get entry: found=%t err=%v", found, err)
	}
	if stored.CoderBillingPeriodID != period.ID || stored.ProjectBillingPeriodID != period.ID {
		t.Errorf("billing refs = %d/%d, want %d", stored.CoderBillingPeriodID, stored.ProjectBillingPeriodID, period.ID)
	}

	ghost := f.entry(t, "2024-03-02", "1.00")
	ghost.ID = 9999
	if err := f.store.SaveBillingAssignment(ghost); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestListEntriesForMonth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, date := range []string{"2024-02-29", "2024-03-01", "2024-03-31", "2024-04-01"} {
		if _, err := f.store.UpsertEntry(f.entry(t, date, "1.00")); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	entries, err := f.store.ListEntriesForMonth(2024, 3)
	if err != nil {
		t.Fatalf("list month: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 march entries, got %d", len(entries))
	}
	if got := entries[0].Date.Format("2006-01-02"); got != "2024-03-01" {
		t.Errorf("first entry = %s, entries must be date-ordered", got)
	}

	byCoder, err := f.store.ListCoderEntriesForMonth(f.alice.ID, 2024, 3)
	if err != nil {
		t.Fatalf("list coder month: %v", err)
	}
	if len(byCoder) != 2 {
		t.Errorf("coder march entries = %d, want 2", len(byCoder))
	}

	byProject, err := f.store.ListProjectEntriesForMonth(f.globex.ID, 2024, 3)
	if err != nil {
		t.Fatalf("list project month: %v", err)
	}
	if len(byProject) != 0 {
		t.Errorf("globex has no entries, got %d", len(byProject))
	}
}

func TestListEntriesForRange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// ISO week 9 of 2024 runs February 26 through March 3.
	for _, date := range []string{"2024-02-25", "2024-02-26", "2024-03-03", "2024-03-04"} {
		if _, err := f.store.UpsertEntry(f.entry(t, date, "1.00")); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	from, to := timeutil.ISOWeekBounds(2024, 9)
	byCoder, err := f.store.ListCoderEntriesForRange(f.alice.ID, from, to)
	if err != nil {
		t.Fatalf("list coder range: %v", err)
	}
	if len(byCoder) != 2 {
		t.Fatalf("coder week entries = %d, want 2", len(byCoder))
	}
	if got := byCoder[0].Date.Format("2006-01-02"); got != "2024-02-26" {
		t.Errorf("first entry = %s, want 2024-02-26", got)
	}
	if got := byCoder[1].Date.Format("2006-01-02"); got != "2024-03-03" {
		t.Errorf("second entry = %s, want 2024-03-03", got)
	}

	byProject, err := f.store.ListProjectEntriesForRange(f.acme.ID, from, to)
	if err != nil {
		t.Fatalf("list project range: %v", err)
	}
	if len(byProject) != 2 {
		t.Errorf("project week entries = %d, want 2", len(byProject))
	}
}

func TestIdentitySQLFollowsIdentityFields(t *testing.T) {
	t.Parallel()

	for _, field := range hours.IdentityFields {
		if _, ok := identityColumn[field]; !ok {
			t.Errorf("identity field %q has no column mapping", field)
		}
	}
	if len(identityColumn) != len(hours.IdentityFields) {
		t.Errorf("column map has %d entries, identity has %d fields", len(identityColumn), len(hours.IdentityFields))
	}

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "8.00")
	if got := len(identityValues(entry)); got != len(hours.IdentityFields) {
		t.Errorf("identityValues yields %d values, want %d", got, len(hours.IdentityFields))
	}

	where := identityWhereClause()
	for _, column := range identityColumns() {
		if !strings.Contains(where, column+" = ?") {
			t.Errorf("where clause misses column %q: %s", column, where)
		}
	}
}

func TestDeleteEntry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "8.00", "dev", "urgent")
	if _, err := f.store.UpsertEntry(entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := f.store.DeleteEntry(entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, err := f.store.GetEntryByID(entry.ID); err != nil || found {
		t.Fatalf("entry must be gone: found=%t err=%v", found, err)
	}

	if err := f.store.DeleteEntry(entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDeleteEntryRefusesBilledRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	entry := f.entry(t, "2024-03-01", "8.00")
	if _, err := f.store.UpsertEntry(entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	period, err := f.store.GetOrCreateBillingPeriod(entry.Date)
	if err != nil {
		t.Fatalf("get period: %v", err)
	}
	entry.SetCoderBillingPeriod(period.ID)
	if err := f.store.SaveBillingAssignment(entry); err != nil {
		t.Fatalf("save assignment: %v", err)
	}

	if err := f.store.DeleteEntry(entry.ID); !errors.Is(err, ErrEntryBilled) {
		t.Fatalf("expected ErrEntryBilled, got %v", err)
	}
	if _, found, err := f.store.GetEntryByID(entry.ID); err != nil || !found {
		t.Fatalf("billed entry must survive: found=%t err=%v", found, err)
	}
}
