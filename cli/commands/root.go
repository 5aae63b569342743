// Package commands implements the datascope CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/datascope-io/datascope/cli/internal/ui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "datascope",
	Short: "Explore described database tables",
	Long: `datascope runs declarative, typed queries against described database
tables ("data sets"): select columns, sort, filter, compute row counts
and frequency distributions, and export results.

Data sets and connections are declared in .datascope.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .datascope.yaml)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}
