// Package output writes hours entries and monthly summaries to CSV or Excel
// files.
package output

import (
	"fmt"
	"strings"

	"hourbook/codec"
	"hourbook/hours"
)

type Writer interface {
	Write(path string, entries []*hours.Entry) error
}

func WriterForFormat(format string, c codec.Codec) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{Codec: c}, nil
	case "excel", "xlsx":
		return &ExcelWriter{Codec: c}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func entryHeaders() []string {
	return []string{
		"Coder", "Project", "Date", "StartTime", "EndTime",
		"Amount", "Tags", "Repository", "Issue", "Comment",
	}
}
