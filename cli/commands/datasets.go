package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/datascope-io/datascope/cli/internal/ui"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List configured data sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		rows := make([][]string, 0)
		for _, ds := range app.datasets.List() {
			rows = append(rows, []string{
				ds.ID,
				ds.Name,
				ds.ConnectionAlias,
				fmt.Sprintf("%s.%s", ds.DatabaseSchema, ds.DatabaseTable),
				fmt.Sprintf("%d", len(ds.Columns)),
			})
		}
		ui.PrintTable([]string{"ID", "Name", "Connection", "Table", "Columns"}, rows)
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <data-set>",
	Short: "Show the columns and description of a data set",
	Args:  cobra.ExactArgs(1),
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

		ui.PrintTitle(ds.Name)
		if ds.Description != "" {
			fmt.Print(ui.RenderMarkdown(ds.Description))
		}

		names := ds.ColumnNames()
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			column := ds.Columns[name]
			flags := ""
			if ds.IsPersonalData(name) {
				flags = "personal data"
			}
			rows = append(rows, []string{name, string(column.Type), boolString(column.Sortable()), flags})
		}
		ui.PrintTable([]string{"Column", "Type", "Sortable", "Flags"}, rows)

		total, err := ds.RowCount(cmd.Context(), app.conns)
		if err != nil {
			return err
		}
		ui.PrintInfo("%d rows", total)
		return nil
	},
}

func boolString(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	datasetsCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(datasetsCmd)
}
