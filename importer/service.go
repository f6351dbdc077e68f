// Package importer drives the dedup import pipeline: raw CSV rows are parsed
// and validated by the codec, then found-or-created in storage by identity
// key. Batches run row by row; one row's failure never rolls back earlier
// rows.
package importer

import (
	"fmt"
	"io"
	"os"

	"hourbook/codec"
	"hourbook/hours"
	"hourbook/storage"
)

type Service struct {
	Codec    codec.Codec
	Resolver codec.Resolver
	Store    *storage.Store
}

// ImportOrUpdate imports one row: parse, find-or-create by identity key,
// overwrite the extra fields, replace the tag relation. The flag reports
// whether the canonical record was created by this call; re-importing the
// identical row yields false and leaves equivalent stored data.
func (s *Service) ImportOrUpdate(row codec.Row, coder *hours.Coder) (*hours.Entry, bool, error) {
	entry, err := s.Codec.Parse(row, coder, s.Resolver)
	if err != nil {
		return nil, false, err
	}
	created, err := s.Store.UpsertEntry(entry)
	if err != nil {
		return nil, false, err
	}
	return entry, created, nil
}

// RowError records one failed row of a batch with its 1-based line number.
type RowError struct {
	Line   int
	Fields []string
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

type RunOptions struct {
	// Coder, when set, marks every row as belonging to this coder; rows then
	// carry nine fields. When nil each row leads with a username field.
	Coder *hours.Coder
	// Delimiter separates row fields; defaults to ','.
	Delimiter rune
	// Preview validates rows and classifies them against existing records
	// without writing anything.
	Preview bool
	// SkipFailed imports the valid rows even when some rows failed to parse.
	// Without it a batch with any failed row writes nothing.
	SkipFailed bool
}

type Result struct {
	RowsRead int

	// import mode
	Created []*hours.Entry
	Updated []*hours.Entry

	// preview mode
	Pending  []*hours.Entry // would be created
	Existing []*hours.Entry // identity tuple already stored

	Failed []RowError
}

// Run imports or previews a whole CSV stream. Parsing failures are collected
// per row; whether they abort the batch is the caller's choice via
// SkipFailed.
func (s *Service) Run(r io.Reader, opts RunOptions) (*Result, error) {
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	rows, err := ReadRows(r, delimiter)
	if err != nil {
		return nil, err
	}

	result := &Result{RowsRead: len(rows)}
	parsed := make([]parsedRow, 0, len(rows))
	for i, fields := range rows {
		line := i + 1
		row, err := s.buildRow(fields, opts.Coder)
		if err != nil {
			result.Failed = append(result.Failed, RowError{Line: line, Fields: fields, Err: err})
			continue
		}
		entry, err := s.Codec.Parse(row, opts.Coder, s.Resolver)
		if err != nil {
			result.Failed = append(result.Failed, RowError{Line: line, Fields: fields, Err: err})
			continue
		}
		parsed = append(parsed, parsedRow{line: line, row: row, entry: entry})
	}

	if opts.Preview {
		return result, s.preview(parsed, result)
	}

	if len(result.Failed) > 0 && !opts.SkipFailed {
		return result, nil
	}

	for _, item := range parsed {
		created, err := s.Store.UpsertEntry(item.entry)
		if err != nil {
			result.Failed = append(result.Failed, RowError{Line: item.line, Fields: item.row.Fields(), Err: err})
			continue
		}
		if created {
			result.Created = append(result.Created, item.entry)
		} else {
			result.Updated = append(result.Updated, item.entry)
		}
	}
	return result, nil
}

// RunFile imports or previews a CSV file.
func (s *Service) RunFile(path string, opts RunOptions) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	defer file.Close()
	return s.Run(file, opts)
}

type parsedRow struct {
	line  int
	row   codec.Row
	entry *hours.Entry
}

func (s *Service) buildRow(fields []string, coder *hours.Coder) (codec.Row, error) {
	if coder != nil {
		return codec.RowForCoder(fields)
	}
	return codec.RowWithUsername(fields)
}

func (s *Service) preview(parsed []parsedRow, result *Result) error {
	for _, item := range parsed {
		// Make sure the entry round-trips to CSV before classifying it.
		if _, err := s.Codec.Serialize(item.entry, false); err != nil {
			result.Failed = append(result.Failed, RowError{Line: item.line, Fields: item.row.Fields(), Err: err})
			continue
		}
		exists, err := s.Store.SimilarRowExists(item.entry)
		if err != nil {
			return err
		}
		if exists {
			result.Existing = append(result.Existing, item.entry)
		} else {
			result.Pending = append(result.Pending, item.entry)
		}
	}
	return nil
}
