package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hourbook/config"
	"hourbook/hours"
	"hourbook/importer"
	"hourbook/storage"
)

var (
	importInputs     []string
	importUsername   string
	importDBPath     string
	importDelimiter  string
	importPreview    bool
	importSkipFailed bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import hours CSV files with identity-based deduplication",
	Long: `Read CSV files, validate each row, and find-or-create the canonical hours
record by identity key (coder, project, date, amount, start time, issue,
repository, comment). Re-importing the same logical row overwrites only its
end time and raw input, and replaces its tag set.

With --username the rows carry nine fields and belong to that coder; without
it every row leads with a username field. --preview validates and classifies
rows without writing anything.`,
	Example: `
  # Import a coder's file
  hourbook import -i ./alice-march.csv --username alice

  # Import a mixed file whose rows carry usernames
  hourbook import -i ./all-hours.csv

  # Preview: what would be created vs. what already exists
  hourbook import -i ./alice-march.csv --username alice --preview

  # Import valid rows even when some rows fail to parse
  hourbook import -i ./alice-march.csv --username alice --skip-failed

  # Semicolon-delimited input
  hourbook import -i ./export.csv --username alice --delimiter ";"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		store, err := storage.Open(resolveDBPath(importDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		service, err := buildService(cfg, store)
		if err != nil {
			return err
		}

		var coder *hours.Coder
		if importUsername != "" {
			coder, err = hours.ResolveCoder(store, importUsername)
			if err != nil {
				return err
			}
		}

		opts := importer.RunOptions{
			Coder:      coder,
			Delimiter:  cfg.Import.DelimiterRune(),
			Preview:    importPreview,
			SkipFailed: importSkipFailed,
		}
		if importDelimiter != "" {
			opts.Delimiter = []rune(importDelimiter)[0]
		}

		for _, path := range importInputs {
			result, err := service.RunFile(path, opts)
			if err != nil {
				return err
			}
			printImportResult(path, result, importPreview)
		}
		return nil
	},
}

func printImportResult(path string, result *importer.Result, preview bool) {
	if preview {
		fmt.Printf("Preview of %s. Rows: %d, Would create: %d, Already stored: %d, Failed: %d\n",
			path, result.RowsRead, len(result.Pending), len(result.Existing), len(result.Failed))
	} else {
		fmt.Printf("Imported %s. Rows: %d, Created: %d, Updated: %d, Failed: %d\n",
			path, result.RowsRead, len(result.Created), len(result.Updated), len(result.Failed))
	}
	for _, failure := range result.Failed {
		fmt.Printf("  row %d: %v\n", failure.Line, failure.Err)
	}
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringSliceVarP(&importInputs, "input", "i", nil, "Input CSV file (repeatable)")
	importCmd.Flags().StringVar(&importUsername, "username", "", "Coder the rows belong to; omit when rows carry usernames")
	importCmd.Flags().StringVar(&importDBPath, "db", "", "SQLite database path (default from config)")
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "Field delimiter override (default from config)")
	importCmd.Flags().BoolVar(&importPreview, "preview", false, "Validate and classify rows without writing")
	importCmd.Flags().BoolVar(&importSkipFailed, "skip-failed", false, "Import valid rows even when some rows fail")
	_ = importCmd.MarkFlagRequired("input")
}
