package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"hourbook/codec"
	"hourbook/hours"
	"hourbook/report"
)

type ExcelWriter struct {
	Codec codec.Codec
}

func (w *ExcelWriter) Write(path string, entries []*hours.Entry) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := writeExcelRow(file, sheet, 1, entryHeaders()); err != nil {
		return err
	}
	for i, entry := range entries {
		if err := writeExcelRow(file, sheet, i+2, w.Codec.FieldValues(entry, false)); err != nil {
			return err
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}

func writeSummariesExcel(path string, rows []report.SummaryRow) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for i, row := range rows {
		if err := writeExcelRow(file, sheet, i+1, summaryValues(row)); err != nil {
			return err
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}

func writeExcelRow(file *excelize.File, sheet string, row int, values []string) error {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set excel value %s: %w", cell, err)
		}
	}
	return nil
}

// WriteSummaries writes monthly summary rows in the requested format.
func WriteSummaries(path, format string, rows []report.SummaryRow) error {
	switch normalizeFormat(format) {
	case "csv":
		return writeSummariesCSV(path, rows)
	case "excel", "xlsx":
		return writeSummariesExcel(path, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
