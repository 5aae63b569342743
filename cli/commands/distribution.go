package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/datascope-io/datascope/cli/internal/ui"
	"github.com/datascope-io/datascope/dataset"
	"github.com/datascope-io/datascope/query/distribution"
)

var distributionFlags struct {
	filters []string
}

var distributionCmd = &cobra.Command{
	Use:   "distribution <data-set> <column>",
	Short: "Show the value distribution of a column",
	Long: `Show a frequency distribution for a column, respecting any filters.

Number columns get an adaptive power-of-ten histogram, date columns an
adaptive year/month/week/day histogram, text and text array columns
their ten most frequent values.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		filters, err := parseFilterFlags(distributionFlags.filters)
		if err != nil {
			return err
		}
		q, err := buildFilteredQuery(app, args[0], filters)
		if err != nil {
			return err
		}

		columnName := args[1]
		column, ok := q.DataSet.Columns[columnName]
		if !ok {
			return fmt.Errorf("%w: %q in data set %q", dataset.ErrUnknownColumn, columnName, args[0])
		}

		ctx := cmd.Context()
		var bars []pterm.Bar

		switch column.Type {
		case dataset.TypeNumber:
			buckets, err := distribution.Number(ctx, app.conns, q, columnName)
			if err != nil {
				return err
			}
			for _, b := range buckets {
				bars = append(bars, pterm.Bar{
					Label: fmt.Sprintf("%g – %g", b.Min, b.Max),
					Value: int(b.Count),
				})
			}

		case dataset.TypeDate:
			buckets, err := distribution.Date(ctx, app.conns, q, columnName)
			if err != nil {
				return err
			}
			for _, b := range buckets {
				bars = append(bars, pterm.Bar{Label: b.Label, Value: int(b.Count)})
			}

		case dataset.TypeTextArray:
			values, err := distribution.TextArray(ctx, app.conns, q, columnName)
			if err != nil {
				return err
			}
			bars = valueBars(values)

		case dataset.TypeText:
			values, err := distribution.Text(ctx, app.conns, q, columnName)
			if err != nil {
				return err
			}
			bars = valueBars(values)

		default:
			return fmt.Errorf("no distribution for column %q of type %s", columnName, column.Type)
		}

		if len(bars) == 0 {
			ui.PrintWarning("no data")
			return nil
		}
		ui.PrintBars(bars)
		return nil
	},
}

func valueBars(values []distribution.ValueCount) []pterm.Bar {
	bars := make([]pterm.Bar, 0, len(values))
	for _, v := range values {
		bars = append(bars, pterm.Bar{Label: v.Value, Value: int(v.Count)})
	}
	return bars
}

func init() {
	distributionCmd.Flags().StringArrayVar(&distributionFlags.filters, "filter", nil, "filter as column:operator:value (repeatable)")
	rootCmd.AddCommand(distributionCmd)
}
