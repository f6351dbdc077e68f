package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hourbook/billing"
	"hourbook/config"
	"hourbook/storage"
)

var (
	billingYear        int
	billingMonth       int
	billingDB          string
	billingCoderOnly   bool
	billingProjectOnly bool
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Manage monthly billing periods",
}

var billingAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign unbilled hours of a month to its billing period",
	Long: `Assign the month's billing period (created lazily) to every entry of that
month whose coder-side or project-side billing is still unset. Existing
assignments are never overwritten, so re-running is harmless.`,
	Example: `
  # Assign both sides
  hourbook billing assign --year 2024 --month 3

  # Only the coder side
  hourbook billing assign --year 2024 --month 3 --coder-only
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		store, err := storage.Open(resolveDBPath(billingDB, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		opts := billing.AssignOptions{CoderSide: true, ProjectSide: true}
		if billingCoderOnly {
			opts.ProjectSide = false
		}
		if billingProjectOnly {
			opts.CoderSide = false
		}

		result, err := billing.Run(store, billingYear, billingMonth, opts)
		if err != nil {
			return err
		}

		fmt.Printf("Billing assignment completed. Entries: %d, Coder-side assigned: %d, Project-side assigned: %d, Rows updated: %d\n",
			result.EntriesScanned, result.CoderAssigned, result.ProjectAssigned, result.RowsUpdated)
		return nil
	},
}

var billingTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Print billed hour totals for a month's period",
	Example: `
  hourbook billing totals --year 2024 --month 3
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		store, err := storage.Open(resolveDBPath(billingDB, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		period, found, err := store.GetBillingPeriod(billingYear, billingMonth)
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("No billing period exists for %d-%02d yet.\n", billingYear, billingMonth)
			return nil
		}

		coderTotal, err := store.TotalCoderHoursForPeriod(period.ID)
		if err != nil {
			return err
		}
		projectTotal, err := store.TotalProjectHoursForPeriod(period.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Period %s. Coder-side hours: %s, Project-side hours: %s\n",
			period, coderTotal.StringFixed(2), projectTotal.StringFixed(2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(billingCmd)
	billingCmd.AddCommand(billingAssignCmd)
	billingCmd.AddCommand(billingTotalsCmd)

	billingCmd.PersistentFlags().IntVar(&billingYear, "year", 0, "Billing year")
	billingCmd.PersistentFlags().IntVar(&billingMonth, "month", 0, "Billing month (1-12)")
	billingCmd.PersistentFlags().StringVar(&billingDB, "db", "", "SQLite database path (default from config)")
	billingAssignCmd.Flags().BoolVar(&billingCoderOnly, "coder-only", false, "Assign only the coder side")
	billingAssignCmd.Flags().BoolVar(&billingProjectOnly, "project-only", false, "Assign only the project side")
	_ = billingCmd.MarkPersistentFlagRequired("year")
	_ = billingCmd.MarkPersistentFlagRequired("month")
}
