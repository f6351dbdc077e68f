package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hourbook/config"
	"hourbook/hours"
	"hourbook/output"
	"hourbook/report"
	"hourbook/storage"
)

var (
	reportYear   int
	reportMonth  int
	reportWeek   int
	reportOutput string
	reportFormat string
	reportDBPath string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build monthly or weekly coder/project reports",
}

var reportCoderCmd = &cobra.Command{
	Use:   "coder <username>",
	Short: "Export one coder's hours for a month or an ISO week",
	Args:  cobra.ExactArgs(1),
	Example: `
  hourbook report coder alice --year 2024 --month 3 --output ./alice-2024-03.csv
  hourbook report coder alice --year 2024 --week 10 --output ./alice-2024-w10.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateReportSpan(); err != nil {
			return err
		}
		cfg, store, err := openReportStore()
		if err != nil {
			return err
		}
		defer store.Close()

		coder, err := hours.ResolveCoder(store, args[0])
		if err != nil {
			return err
		}

		var (
			entries  []*hours.Entry
			span     string
			total    string
			billable string
		)
		if reportWeek != 0 {
			weekly, err := report.BuildCoderWeekly(store, coder, reportYear, reportWeek)
			if err != nil {
				return err
			}
			entries = weekly.Entries
			span = fmt.Sprintf("Week: %d-W%02d", weekly.Year, weekly.Week)
			total = weekly.TotalHours().StringFixed(2)
			billable = weekly.TotalBillableHours().StringFixed(2)
		} else {
			monthly, err := report.BuildCoderMonthly(store, coder, reportYear, reportMonth)
			if err != nil {
				return err
			}
			entries = monthly.Entries
			span = fmt.Sprintf("Month: %s", monthly.Period)
			total = monthly.TotalHours().StringFixed(2)
			billable = monthly.TotalBillableHours().StringFixed(2)
		}

		writer, err := output.WriterForFormat(reportFormatFor(reportOutput), buildCodec(cfg))
		if err != nil {
			return err
		}
		if err := writer.Write(reportOutput, entries); err != nil {
			return err
		}

		fmt.Printf("Report completed. Coder: %s, %s, Rows: %d, Total hours: %s, Billable: %s, File: %s\n",
			coder, span, len(entries), total, billable, reportOutput)
		return nil
	},
}

var reportProjectCmd = &cobra.Command{
	Use:   "project <name>",
	Short: "Export one project's monthly invoice summary or weekly hours",
	Args:  cobra.ExactArgs(1),
	Example: `
  hourbook report project Acme --year 2024 --month 3 --output ./acme-2024-03.csv
  hourbook report project Acme --year 2024 --week 10 --output ./acme-2024-w10.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateReportSpan(); err != nil {
			return err
		}
		cfg, store, err := openReportStore()
		if err != nil {
			return err
		}
		defer store.Close()

		project, err := store.FindProjectByName(args[0])
		if err != nil {
			return err
		}

		if reportWeek != 0 {
			weekly, err := report.BuildProjectWeekly(store, project.ID, project.Name, reportYear, reportWeek)
			if err != nil {
				return err
			}
			writer, err := output.WriterForFormat(reportFormatFor(reportOutput), buildCodec(cfg))
			if err != nil {
				return err
			}
			if err := writer.Write(reportOutput, weekly.Entries); err != nil {
				return err
			}
			fmt.Printf("Report completed. Project: %s, Week: %d-W%02d, Rows: %d, Total hours: %s, File: %s\n",
				project.Name, weekly.Year, weekly.Week, len(weekly.Entries),
				weekly.TotalHours().StringFixed(2), reportOutput)
			return nil
		}

		monthly, err := report.BuildProjectMonthly(store, project.ID, project.Name, reportYear, reportMonth)
		if err != nil {
			return err
		}

		if err := output.WriteSummaries(reportOutput, reportFormatFor(reportOutput), monthly.SummaryRows()); err != nil {
			return err
		}

		fmt.Printf("Report completed. Project: %s, Month: %s, Rows: %d, Total hours: %s, File: %s\n",
			project.Name, monthly.Period, len(monthly.Entries),
			monthly.TotalHours().StringFixed(2), reportOutput)
		return nil
	},
}

// validateReportSpan requires exactly one of --month or --week.
func validateReportSpan() error {
	if reportMonth != 0 && reportWeek != 0 {
		return fmt.Errorf("--month and --week are mutually exclusive")
	}
	if reportMonth == 0 && reportWeek == 0 {
		return fmt.Errorf("one of --month or --week is required")
	}
	if reportMonth != 0 && (reportMonth < 1 || reportMonth > 12) {
		return fmt.Errorf("--month must be between 1 and 12")
	}
	if reportWeek != 0 && (reportWeek < 1 || reportWeek > 53) {
		return fmt.Errorf("--week must be between 1 and 53")
	}
	return nil
}

func openReportStore() (*config.Config, *storage.Store, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(resolveDBPath(reportDBPath, cfg))
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func reportFormatFor(path string) string {
	if strings.TrimSpace(reportFormat) != "" {
		return reportFormat
	}
	return detectExportFormat(path)
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportCoderCmd)
	reportCmd.AddCommand(reportProjectCmd)

	reportCmd.PersistentFlags().IntVar(&reportYear, "year", 0, "Report year")
	reportCmd.PersistentFlags().IntVar(&reportMonth, "month", 0, "Report month (1-12)")
	reportCmd.PersistentFlags().IntVar(&reportWeek, "week", 0, "Report ISO week (1-53)")
	reportCmd.PersistentFlags().StringVarP(&reportOutput, "output", "o", "./report.csv", "Output file path")
	reportCmd.PersistentFlags().StringVarP(&reportFormat, "format", "f", "", "Output format: csv|excel")
	reportCmd.PersistentFlags().StringVar(&reportDBPath, "db", "", "SQLite database path (default from config)")
	_ = reportCmd.MarkPersistentFlagRequired("year")
}
