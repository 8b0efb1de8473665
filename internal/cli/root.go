package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ndlsync",
	Short: "Mirror Nasdaq Data Link SHARADAR tables into PostgreSQL",
	Long: `ndlsync mirrors the Nasdaq Data Link SHARADAR datatables into PostgreSQL.

It runs as two independent stages that share a data directory:

  ndlsync download   fetch each table's bulk export and save it as <TABLE>.csv
  ndlsync load       recreate one PostgreSQL table per CSV, typed from INDICATORS.csv

Both stages run with no flags. Settings come from flags, the environment
(.env is read automatically) and an optional ndlsync.yaml, in that order.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  20 - Vendor transport error (HTTP failure, bad response)
  21 - Export still generating after the poll budget
  22 - Downloaded archive is not a usable ZIP
  23 - One or more tables failed to load (--strict only)
  24 - INDICATORS.csv missing from the data directory`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for ndlsync")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("config", "",
		"Path to a config file (default: ./ndlsync.yaml when present)")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// getConfigFlag returns the --config value, or "" when unset.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return ""
	}
	return path
}
