package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datascope-io/datascope/cli/internal/ui"
	"github.com/datascope-io/datascope/cli/internal/update"
	"github.com/datascope-io/datascope/cli/internal/version"
)

var checkUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		fmt.Println(info.FullString())

		if !checkUpdate {
			return nil
		}
		latest, available, err := update.Check(info.Version)
		if err != nil {
			return err
		}
		if available {
			ui.PrintWarning("a newer version %s is available", latest)
			ui.PrintInfo("download: %s", update.DownloadURL(latest))
		} else {
			ui.PrintSuccess("up to date")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&checkUpdate, "check-update", false, "check for a newer release")
	rootCmd.AddCommand(versionCmd)
}
