package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hourbook/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hourbook",
	Short: "Import, deduplicate, bill, and export coder hours.",
	Long: `
hourbook keeps a local SQLite book of logged hours.

Coders log hours against customer projects, optionally tagged and linked to
an issue-tracker ticket. CSV imports are deduplicated by an identity key, so
re-importing the same logical row updates it in place instead of duplicating
it. Hours are later grouped into monthly billing periods for invoicing.
`,
	Example: `
  # Create configuration file
  hourbook config create

  # Register directory data
  hourbook directory project add Acme
  hourbook directory user add alice --email alice@example.com

  # Import a coder's CSV
  hourbook import -i ./alice-march.csv --username alice

  # Preview without writing
  hourbook import -i ./alice-march.csv --username alice --preview

  # Assign billing periods for a month
  hourbook billing assign --year 2024 --month 3

  # Export a project's monthly summary
  hourbook report project Acme --year 2024 --month 3 --output ./acme-2024-03.csv

  # Serve the local upload/report API
  hourbook serve --port 8080
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.hourbook.yaml, then ./.hourbook.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hourbook")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: hourbook config create")
	}
}
