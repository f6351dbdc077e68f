package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hourbook/config"
	"hourbook/output"
	"hourbook/storage"
)

var (
	exportFormat string
	exportOutput string
	exportDBPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stored hours to CSV/Excel",
	Long: `Export every stored hours entry, ordered by date and start time, with its
tags, ticket reference, and comment. Output format is selected via --format
or inferred from the --output extension.`,
	Example: `
  # Export to semicolon-delimited CSV
  hourbook export --output ./hours.csv

  # Export to Excel
  hourbook export --output ./hours.xlsx

  # Force format independent of extension
  hourbook export --format excel --output ./hours.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		store, err := storage.Open(resolveDBPath(exportDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.ListEntries()
		if err != nil {
			return err
		}

		writer, err := output.WriterForFormat(format, buildCodec(cfg))
		if err != nil {
			return err
		}
		if err := writer.Write(exportOutput, entries); err != nil {
			return err
		}

		fmt.Printf("Export completed. Rows: %d, Format: %s, File: %s\n", len(entries), format, exportOutput)
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "./hours.csv", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "SQLite database path (default from config)")
}
