package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var autocompleteCmd = &cobra.Command{
	Use:   "autocomplete <data-set> <column> <term>",
	Short: "Suggest column values containing a term",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		ds, err := app.datasets.FindDataSet(args[0])
		if err != nil {
			return err
		}
		values, err := ds.Autocomplete(cmd.Context(), app.conns, args[1], args[2])
		if err != nil {
			return err
		}
		for _, value := range values {
			fmt.Println(value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autocompleteCmd)
}
