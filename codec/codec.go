// Package codec converts between raw CSV rows and hours entries. Parsing
// resolves coder, project, repository, and issue references and enforces the
// tag, project-consistency, and authorization invariants; serialization is a
// pure formatting step.
package codec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"hourbook/directory"
	"hourbook/hours"
)

const (
	DefaultDateFormat = "2006-01-02"

	// ExportDelimiter separates fields in serialized rows.
	ExportDelimiter = ';'
)

// DefaultTimeFormats are tried in order when parsing start/end times; the
// first one is also the export format.
var DefaultTimeFormats = []string{"15:04", "03:04:05 PM"}

// Codec carries the formats used for parsing and serializing rows. The zero
// value is not usable; construct with Default or fill all fields.
type Codec struct {
	DateFormat  string
	TimeFormats []string

	// LenientTimes restores the legacy behavior of silently treating an
	// unparseable non-empty time as null instead of failing the row. Only
	// needed for compatibility with old source files.
	LenientTimes bool
}

func Default() Codec {
	return Codec{
		DateFormat:  DefaultDateFormat,
		TimeFormats: append([]string(nil), DefaultTimeFormats...),
	}
}

// Resolver bundles the collaborator lookups Parse needs.
type Resolver struct {
	Users    directory.UserDirectory
	Projects directory.ProjectCatalog
	Tracker  directory.IssueTracker
}

// Parse validates a row and resolves its references into a not-yet-persisted
// entry. When coder is nil the row must carry a username, which is resolved
// through the user directory. No writes happen here; the pending tag names
// live on the entry until the import step persists them.
func (c Codec) Parse(row Row, coder *hours.Coder, res Resolver) (*hours.Entry, error) {
	if coder == nil {
		if !row.HasUsername() {
			return nil, fmt.Errorf("row carries no username and no coder was supplied")
		}
		resolved, err := hours.ResolveCoder(res.Users, strings.TrimSpace(row.Username))
		if err != nil {
			return nil, err
		}
		coder = resolved
	}

	tags := NormalizeTags(row.Tags)
	if len(tags) == 0 {
		return nil, hours.ErrAtLeastOneTagRequired
	}

	repository, issue, err := c.resolveTicket(row, res.Tracker)
	if err != nil {
		return nil, err
	}

	project, err := c.resolveProject(row, issue, res.Projects)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(row.Date, c.DateFormat)
	if err != nil {
		return nil, err
	}

	amount, err := parseAmount(row.Amount)
	if err != nil {
		return nil, err
	}

	start, err := c.parseTime("start_time", row.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := c.parseTime("end_time", row.EndTime)
	if err != nil {
		return nil, err
	}

	if !coder.IsAuthorized(project.ID) {
		return nil, fmt.Errorf("project %s: %w", project.Name, hours.ErrNotAllowed)
	}

	rawInput, err := json.Marshal(row.Fields())
	if err != nil {
		return nil, fmt.Errorf("encode raw input: %w", err)
	}

	return &hours.Entry{
		Coder:       coder.User,
		Project:     *project,
		Date:        date,
		Amount:      amount,
		PendingTags: tags,
		StartTime:   start,
		EndTime:     end,
		Issue:       issue,
		Repository:  repository,
		Comment:     strings.TrimSpace(row.Comment),
		RawInput:    string(rawInput),
	}, nil
}

// Serialize renders an entry as one semicolon-delimited CSV line. Persisted
// entries read their stored tag relation, pending ones the tag names captured
// during parse. All values are NFC-normalized UTF-8.
func (c Codec) Serialize(entry *hours.Entry, omitCoder bool) (string, error) {
	values := c.FieldValues(entry, omitCoder)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = ExportDelimiter
	if err := writer.Write(values); err != nil {
		return "", fmt.Errorf("write csv row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv row: %w", err)
	}
	return strings.TrimRight(buf.String(), "\r\n"), nil
}

// FieldValues returns the export field values in parse order, minus the
// leading username when omitCoder is set.
func (c Codec) FieldValues(entry *hours.Entry, omitCoder bool) []string {
	formatTime := func(t *hours.TimeOfDay) string {
		if t == nil {
			return ""
		}
		return t.Format(c.TimeFormats[0])
	}

	repository := ""
	if entry.Repository != nil {
		repository = entry.Repository.DistinctName()
	}
	issue := ""
	if entry.Issue != nil {
		issue = strconv.Itoa(entry.Issue.Number)
	}

	values := make([]string, 0, 10)
	if !omitCoder {
		values = append(values, entry.Coder.Username)
	}
	values = append(values,
		entry.Project.Name,
		entry.Date.Format(c.DateFormat),
		formatTime(entry.StartTime),
		formatTime(entry.EndTime),
		entry.Amount.StringFixed(2),
		strings.Join(entry.TagNames(), ","),
		repository,
		issue,
		entry.Comment,
	)

	for i, value := range values {
		values[i] = norm.NFC.String(value)
	}
	return values
}

// NormalizeTags splits a comma-separated tag field into the canonical tag
// name set: trimmed, lowercased, empties dropped, duplicates collapsed.
func NormalizeTags(field string) []string {
	parts := strings.Split(field, ",")
	seen := make(map[string]struct{}, len(parts))
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags
}

func (c Codec) resolveTicket(row Row, tracker directory.IssueTracker) (*directory.Repository, *directory.Issue, error) {
	name := strings.TrimSpace(row.Repository)
	if name == "" || tracker == nil {
		return nil, nil, nil
	}

	repository, err := tracker.FindRepositoryByName(name)
	if err != nil {
		return nil, nil, fmt.Errorf("look up repository %s: %w", name, err)
	}
	if repository == nil {
		return nil, nil, nil
	}

	issueField := strings.TrimSpace(row.Issue)
	if issueField == "" {
		return repository, nil, nil
	}
	number, err := strconv.Atoi(issueField)
	if err != nil {
		return nil, nil, &hours.ParseError{Field: "issue", Value: issueField, Err: err}
	}

	issue, err := tracker.FindIssue(repository, number)
	if err != nil {
		return nil, nil, fmt.Errorf("look up issue %s#%d: %w", repository.DistinctName(), number, err)
	}
	return repository, issue, nil
}

func (c Codec) resolveProject(row Row, issue *directory.Issue, catalog directory.ProjectCatalog) (*directory.Project, error) {
	var explicit, derived *directory.Project

	if name := strings.TrimSpace(row.ProjectName); name != "" {
		project, err := catalog.FindProjectByName(name)
		if err != nil {
			return nil, fmt.Errorf("look up project %s: %w", name, err)
		}
		explicit = project
	}

	if issue != nil {
		project, err := deriveIssueProject(issue, catalog)
		if err != nil {
			return nil, err
		}
		derived = project
	}

	if explicit != nil && derived != nil && explicit.ID != derived.ID {
		return nil, fmt.Errorf("explicit %s vs issue %s: %w",
			explicit.Name, derived.Name, hours.ErrProjectMismatch)
	}
	if explicit != nil {
		return explicit, nil
	}
	if derived != nil {
		return derived, nil
	}
	return nil, hours.ErrProjectRequired
}

// deriveIssueProject resolves the project an issue belongs to. An issue with
// no traceable project yields nil without error.
func deriveIssueProject(issue *directory.Issue, catalog directory.ProjectCatalog) (*directory.Project, error) {
	switch {
	case issue.ProjectID > 0:
		project, err := catalog.FindProjectByID(issue.ProjectID)
		if err != nil {
			if errors.Is(err, hours.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("derive project for issue #%d: %w", issue.Number, err)
		}
		return project, nil
	case issue.ProjectName != "":
		project, err := catalog.FindProjectByName(issue.ProjectName)
		if err != nil {
			if errors.Is(err, hours.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("derive project for issue #%d: %w", issue.Number, err)
		}
		return project, nil
	default:
		return nil, nil
	}
}

func parseDate(value, layout string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	date, err := time.Parse(layout, trimmed)
	if err != nil {
		return time.Time{}, &hours.ParseError{Field: "date", Value: trimmed, Err: err}
	}
	return date, nil
}

// parseAmount reads the hours amount as a fixed-point decimal with two
// fractional digits; an empty field counts as zero.
func parseAmount(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, &hours.ParseError{Field: "amount", Value: trimmed, Err: err}
	}
	return amount.Round(2), nil
}

func (c Codec) parseTime(field, value string) (*hours.TimeOfDay, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := hours.ParseTimeOfDay(trimmed, c.TimeFormats)
	if err != nil {
		if c.LenientTimes {
			return nil, nil
		}
		return nil, &hours.ParseError{Field: field, Value: trimmed, Err: err}
	}
	return parsed, nil
}
