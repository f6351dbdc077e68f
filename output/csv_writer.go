package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"hourbook/codec"
	"hourbook/hours"
	"hourbook/report"
)

type CSVWriter struct {
	Codec codec.Codec
}

func (w *CSVWriter) Write(path string, entries []*hours.Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = codec.ExportDelimiter
	defer writer.Flush()

	if err := writer.Write(entryHeaders()); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, entry := range entries {
		if err := writer.Write(w.Codec.FieldValues(entry, false)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func writeSummariesCSV(path string, rows []report.SummaryRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = codec.ExportDelimiter
	defer writer.Flush()

	for _, row := range rows {
		if err := writer.Write(summaryValues(row)); err != nil {
			return fmt.Errorf("write csv summary row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func summaryValues(row report.SummaryRow) []string {
	hoursValue := ""
	if !row.Hours.IsZero() || row.Category == "TOTAL" {
		hoursValue = row.Hours.StringFixed(2)
	}
	if row.Category == "CATEGORY" {
		hoursValue = "HOURS"
	}
	return []string{row.Category, row.Description, hoursValue}
}
