package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hourbook/directory"
	"hourbook/hours"
	"hourbook/internal/timeutil"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02 15:04:05"
)

// UpsertEntry finds or creates the canonical row for the entry's identity
// tuple, then unconditionally overwrites the extra fields (end time, raw
// input) and replaces the tag relation with the entry's pending tag set. The
// whole operation runs in one transaction; the returned flag reports whether
// the canonical row was created by this call.
func (s *Store) UpsertEntry(entry *hours.Entry) (bool, error) {
	if len(entry.PendingTags) == 0 {
		return false, hours.ErrAtLeastOneTagRequired
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	identity := identityValues(entry)

	res, err := tx.Exec(`INSERT OR IGNORE INTO hours `+identityInsertClause()+`;`, identity...)
	if err != nil {
		return false, fmt.Errorf("insert hours: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read inserted row count: %w", err)
	}
	created := inserted > 0

	var (
		id         int64
		createdRaw string
	)
	err = tx.QueryRow(`SELECT id, created_at FROM hours WHERE `+identityWhereClause()+`;`,
		identity...).Scan(&id, &createdRaw)
	if err != nil {
		return false, fmt.Errorf("fetch canonical hours row: %w", err)
	}

	if _, err := tx.Exec(`
UPDATE hours
SET end_time = ?, raw_input = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?;`, timeText(entry.EndTime), entry.RawInput, id); err != nil {
		return false, fmt.Errorf("update hours extras: %w", err)
	}

	tagIDs := make([]int64, 0, len(entry.PendingTags))
	for _, name := range entry.PendingTags {
		tagID, err := getOrCreateTag(tx, name)
		if err != nil {
			return false, err
		}
		tagIDs = append(tagIDs, tagID)
	}

	// Replace the relation wholesale: prior tags not in the new set are dropped.
	if _, err := tx.Exec(`DELETE FROM hour_tags WHERE hours_id = ?;`, id); err != nil {
		return false, fmt.Errorf("clear hours tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`INSERT INTO hour_tags (hours_id, tag_id) VALUES (?, ?);`, id, tagID); err != nil {
			return false, fmt.Errorf("link hours tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	entry.ID = id
	entry.Tags = append([]string(nil), entry.PendingTags...)
	if createdAt, err := time.Parse(timestampLayout, createdRaw); err == nil {
		entry.CreatedAt = createdAt
	}
	entry.UpdatedAt = time.Now()
	return created, nil
}

// SimilarRowExists reports whether a persisted entry with the same identity
// tuple already exists; useful for import previews.
func (s *Store) SimilarRowExists(entry *hours.Entry) (bool, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM hours WHERE `+identityWhereClause()+`;`,
		identityValues(entry)...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query similar hours row: %w", err)
	}
	return true, nil
}

// GetEntryByID returns one entry with its tag names hydrated.
func (s *Store) GetEntryByID(id int64) (*hours.Entry, bool, error) {
	if id <= 0 {
		return nil, false, fmt.Errorf("hours id must be > 0")
	}
	rows, err := s.queryEntries(`WHERE h.id = ?`, id)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// SaveBillingAssignment persists the entry's billing period references. The
// in-memory setters on hours.Entry decide first-write-wins; this only writes.
func (s *Store) SaveBillingAssignment(entry *hours.Entry) error {
	if entry.ID <= 0 {
		return fmt.Errorf("hours id must be > 0")
	}
	res, err := s.db.Exec(`
UPDATE hours
SET coder_billing_period_id = ?, project_billing_period_id = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?;`, entry.CoderBillingPeriodID, entry.ProjectBillingPeriodID, entry.ID)
	if err != nil {
		return fmt.Errorf("update billing assignment %d: %w", entry.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read updated row count: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListEntries returns all entries ordered by date and start time.
func (s *Store) ListEntries() ([]*hours.Entry, error) {
	return s.queryEntries(``)
}

// ListEntriesForMonth returns all entries dated within the given month.
func (s *Store) ListEntriesForMonth(year, month int) ([]*hours.Entry, error) {
	first, last := monthBounds(year, month)
	return s.queryEntries(`WHERE h.date >= ? AND h.date <= ?`, first, last)
}

// ListCoderEntriesForMonth returns one coder's entries for a month.
func (s *Store) ListCoderEntriesForMonth(coderID int64, year, month int) ([]*hours.Entry, error) {
	first, last := timeutil.MonthBounds(year, month)
	return s.ListCoderEntriesForRange(coderID, first, last)
}

// ListProjectEntriesForMonth returns one project's entries for a month.
func (s *Store) ListProjectEntriesForMonth(projectID int64, year, month int) ([]*hours.Entry, error) {
	first, last := timeutil.MonthBounds(year, month)
	return s.ListProjectEntriesForRange(projectID, first, last)
}

// ListCoderEntriesForRange returns one coder's entries dated within [from, to].
func (s *Store) ListCoderEntriesForRange(coderID int64, from, to time.Time) ([]*hours.Entry, error) {
	return s.queryEntries(`WHERE h.coder_id = ? AND h.date >= ? AND h.date <= ?`,
		coderID, from.Format(dateLayout), to.Format(dateLayout))
}

// ListProjectEntriesForRange returns one project's entries dated within [from, to].
func (s *Store) ListProjectEntriesForRange(projectID int64, from, to time.Time) ([]*hours.Entry, error) {
	return s.queryEntries(`WHERE h.project_id = ? AND h.date >= ? AND h.date <= ?`,
		projectID, from.Format(dateLayout), to.Format(dateLayout))
}

// DeleteEntry removes one entry together with its tag links. An entry that is
// already assigned to a coder or project billing period cannot be deleted.
func (s *Store) DeleteEntry(id int64) error {
	if id <= 0 {
		return fmt.Errorf("hours id must be > 0")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var coderPeriodID, projectPeriodID int64
	err = tx.QueryRow(`
SELECT coder_billing_period_id, project_billing_period_id FROM hours WHERE id = ?;`, id).
		Scan(&coderPeriodID, &projectPeriodID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEntryNotFound
	}
	if err != nil {
		return fmt.Errorf("fetch hours row %d: %w", id, err)
	}
	if coderPeriodID != 0 || projectPeriodID != 0 {
		return ErrEntryBilled
	}

	if _, err := tx.Exec(`DELETE FROM hour_tags WHERE hours_id = ?;`, id); err != nil {
		return fmt.Errorf("delete hours tags %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM hours WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("delete hours row %d: %w", id, err)
	}
	return tx.Commit()
}

func monthBounds(year, month int) (string, string) {
	first, last := timeutil.MonthBounds(year, month)
	return first.Format(dateLayout), last.Format(dateLayout)
}

func (s *Store) queryEntries(where string, args ...any) ([]*hours.Entry, error) {
	query := `
SELECT
	h.id, h.coder_id, u.username, u.email,
	h.project_id, p.name,
	h.date, h.amount, h.start_time, h.end_time,
	h.issue_id, h.repository_id, h.comment,
	h.raw_input, h.created_at, h.updated_at,
	h.coder_billing_period_id, h.project_billing_period_id,
	i.number, i.title, i.need, i.project_id,
	r.owner, r.name
FROM hours h
JOIN users u ON u.id = h.coder_id
JOIN projects p ON p.id = h.project_id
LEFT JOIN issues i ON i.id = h.issue_id AND h.issue_id != 0
LEFT JOIN repositories r ON r.id = h.repository_id AND h.repository_id != 0
` + where + `
ORDER BY h.date, h.start_time, h.id;`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hours: %w", err)
	}
	defer rows.Close()

	entries := make([]*hours.Entry, 0, 64)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hours: %w", err)
	}

	if err := s.attachTags(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (*hours.Entry, error) {
	var (
		entry      hours.Entry
		dateRaw    string
		amountRaw  string
		startRaw   string
		endRaw     string
		issueID    int64
		repoID     int64
		createdRaw string
		updatedRaw string

		issueNumber  sql.NullInt64
		issueTitle   sql.NullString
		issueNeed    sql.NullString
		issueProject sql.NullInt64
		repoOwner    sql.NullString
		repoName     sql.NullString
	)

	if err := rows.Scan(
		&entry.ID, &entry.Coder.ID, &entry.Coder.Username, &entry.Coder.Email,
		&entry.Project.ID, &entry.Project.Name,
		&dateRaw, &amountRaw, &startRaw, &endRaw,
		&issueID, &repoID, &entry.Comment,
		&entry.RawInput, &createdRaw, &updatedRaw,
		&entry.CoderBillingPeriodID, &entry.ProjectBillingPeriodID,
		&issueNumber, &issueTitle, &issueNeed, &issueProject,
		&repoOwner, &repoName,
	); err != nil {
		return nil, fmt.Errorf("scan hours row: %w", err)
	}

	date, err := time.Parse(dateLayout, dateRaw)
	if err != nil {
		return nil, fmt.Errorf("parse hours date %q: %w", dateRaw, err)
	}
	entry.Date = date

	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return nil, fmt.Errorf("parse hours amount %q: %w", amountRaw, err)
	}
	entry.Amount = amount

	if entry.StartTime, err = timeFromText(startRaw); err != nil {
		return nil, fmt.Errorf("parse start time %q: %w", startRaw, err)
	}
	if entry.EndTime, err = timeFromText(endRaw); err != nil {
		return nil, fmt.Errorf("parse end time %q: %w", endRaw, err)
	}

	if issueID != 0 {
		entry.Issue = &directory.Issue{ID: issueID, RepositoryID: repoID}
		if issueNumber.Valid {
			entry.Issue.Number = int(issueNumber.Int64)
			entry.Issue.Title = issueTitle.String
			entry.Issue.Need = issueNeed.String
			entry.Issue.ProjectID = issueProject.Int64
		}
	}
	if repoID != 0 {
		entry.Repository = &directory.Repository{ID: repoID}
		if repoName.Valid {
			entry.Repository.Owner = repoOwner.String
			entry.Repository.Name = repoName.String
		}
	}

	if createdAt, err := time.Parse(timestampLayout, createdRaw); err == nil {
		entry.CreatedAt = createdAt
	}
	if updatedAt, err := time.Parse(timestampLayout, updatedRaw); err == nil {
		entry.UpdatedAt = updatedAt
	}

	return &entry, nil
}

func (s *Store) attachTags(entries []*hours.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	byID := make(map[int64]*hours.Entry, len(entries))
	placeholders := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
		placeholders = append(placeholders, "?")
		args = append(args, entry.ID)
	}

	query := fmt.Sprintf(`
SELECT ht.hours_id, t.name
FROM hour_tags ht
JOIN tags t ON t.id = ht.tag_id
WHERE ht.hours_id IN (%s)
ORDER BY t.name;`, strings.Join(placeholders, ", "))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("query hours tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hoursID int64
			name    string
		)
		if err := rows.Scan(&hoursID, &name); err != nil {
			return fmt.Errorf("scan hours tag: %w", err)
		}
		if entry, ok := byID[hoursID]; ok {
			entry.Tags = append(entry.Tags, name)
		}
	}
	return rows.Err()
}

// identityColumn maps the identity field names declared on hours.Entry to
// their columns in the hours table. The identity SQL is built from
// hours.IdentityFields so the two stay in lockstep.
var identityColumn = map[string]string{
	"coder":      "coder_id",
	"project":    "project_id",
	"date":       "date",
	"amount":     "amount",
	"start_time": "start_time",
	"issue":      "issue_id",
	"repository": "repository_id",
	"comment":    "comment",
}

func identityColumns() []string {
	cols := make([]string, len(hours.IdentityFields))
	for i, field := range hours.IdentityFields {
		cols[i] = identityColumn[field]
	}
	return cols
}

func identityInsertClause() string {
	cols := identityColumns()
	marks := make([]string, len(cols))
	for i := range marks {
		marks[i] = "?"
	}
	return "(" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

func identityWhereClause() string {
	cols := identityColumns()
	preds := make([]string, len(cols))
	for i, col := range cols {
		preds[i] = col + " = ?"
	}
	return strings.Join(preds, " AND ")
}

func identityValues(entry *hours.Entry) []any {
	var issueID, repoID int64
	if entry.Issue != nil {
		issueID = entry.Issue.ID
	}
	if entry.Repository != nil {
		repoID = entry.Repository.ID
	}
	values := make([]any, 0, len(hours.IdentityFields))
	for _, field := range hours.IdentityFields {
		switch field {
		case "coder":
			values = append(values, entry.Coder.ID)
		case "project":
			values = append(values, entry.Project.ID)
		case "date":
			values = append(values, entry.Date.Format(dateLayout))
		case "amount":
			values = append(values, entry.Amount.StringFixed(2))
		case "start_time":
			values = append(values, timeText(entry.StartTime))
		case "issue":
			values = append(values, issueID)
		case "repository":
			values = append(values, repoID)
		case "comment":
			values = append(values, entry.Comment)
		}
	}
	return values
}

func timeText(t *hours.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

func timeFromText(value string) (*hours.TimeOfDay, error) {
	if value == "" {
		return nil, nil
	}
	return hours.ParseTimeOfDay(value, []string{timeLayout})
}
