package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadRows reads raw CSV rows with the given field delimiter. Input is
// decoded through a BOM-detecting transform so UTF-8 and UTF-16 exports both
// arrive as UTF-8. Rows are returned as-is; empty rows are dropped.
func ReadRows(r io.Reader, delimiter rune) ([][]string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	utf8Reader := transform.NewReader(r, decoder)

	reader := csv.NewReader(utf8Reader)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows := make([][]string, 0, 128)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		if isEmptyRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile reads all rows of a CSV file.
func ReadFile(path string, delimiter rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	defer file.Close()
	return ReadRows(file, delimiter)
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if field != "" {
			return false
		}
	}
	return true
}
