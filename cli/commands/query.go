package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datascope-io/datascope/cli/internal/ui"
	"github.com/datascope-io/datascope/cli/internal/watch"
	"github.com/datascope-io/datascope/query"
)

var queryFlags struct {
	columns             []string
	filters             []string
	sortColumn          string
	sortOrder           string
	limit               int
	offset              int
	decimalMark         string
	includePersonalData bool
	sqlOnly             bool
	watchConfig         bool
	filterCounts        bool
}

var queryCmd = &cobra.Command{
	Use:   "query <data-set>",
	Short: "Run a query against a data set",
	Long: `Run a query against a data set and print the result as a table.

Filters take the form column:operator:value, with multiple values
separated by "|":

  datascope query orders --filter "status:=:open|pending" \
      --filter "amount:>=:100" --sort created_at --order desc --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if queryFlags.watchConfig {
			return watchAndRun(cmd.Context(), args[0])
		}
		return runQuery(cmd.Context(), args[0])
	},
}

func runQuery(ctx context.Context, dataSetID string) error {
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	q, err := buildQueryFromFlags(app, dataSetID)
	if err != nil {
		return err
	}

	opts := sqlOptionsFromFlags()
	if queryFlags.sqlOnly {
		sqlText := q.ToSQL(opts)
		if sqlText == "" {
			ui.PrintWarning("query has no resolvable columns, nothing to run")
			return nil
		}
		ui.PrintSQL(sqlText)
		return nil
	}

	rows, columns, err := q.Run(ctx, app.conns, opts)
	if err != nil {
		return err
	}
	if columns == nil && rows == nil {
		ui.PrintWarning("query has no resolvable columns, nothing to run")
		return nil
	}

	printed := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = ""
			} else {
				cells[j] = fmt.Sprintf("%v", v)
			}
		}
		printed[i] = cells
	}
	ui.PrintTable(columns, printed)

	total, err := q.RowCount(ctx, app.conns)
	if err != nil {
		return err
	}
	ui.PrintInfo("%d matching rows", total)

	if queryFlags.filterCounts {
		for i, f := range q.Filters {
			count, err := q.FilterRowCount(ctx, app.conns, i)
			if err != nil {
				return err
			}
			ui.PrintInfo("filter %s %s %v alone matches %d rows", f.ColumnName, f.Operator, f.Value, count)
		}
	}
	return nil
}

func watchAndRun(ctx context.Context, dataSetID string) error {
	// Resolve the config file once so the watcher has a path even when
	// it came from a default search location.
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	file := app.cfg.File
	app.Close()
	if file == "" {
		return fmt.Errorf("no config file to watch")
	}

	watcher, err := watch.NewWatcher(file, func() error {
		if err := runQuery(ctx, dataSetID); err != nil {
			ui.PrintError("%v", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	ui.PrintInfo("watching %s, press Ctrl+C to stop", file)
	return watcher.Start()
}

func buildQueryFromFlags(app *app, dataSetID string) (*query.Query, error) {
	filters, err := parseFilterFlags(queryFlags.filters)
	if err != nil {
		return nil, err
	}
	return query.New(app.datasets, dataSetID, query.Params{
		ColumnNames:    queryFlags.columns,
		SortColumnName: queryFlags.sortColumn,
		SortOrder:      query.SortOrder(queryFlags.sortOrder),
		Filters:        filters,
	})
}

func sqlOptionsFromFlags() query.SQLOptions {
	opts := query.SQLOptions{
		DecimalMark:         queryFlags.decimalMark,
		IncludePersonalData: queryFlags.includePersonalData,
	}
	if queryFlags.limit >= 0 {
		opts.Limit = &queryFlags.limit
	}
	if queryFlags.offset > 0 {
		opts.Offset = &queryFlags.offset
	}
	return opts
}

func init() {
	queryCmd.Flags().StringSliceVar(&queryFlags.columns, "columns", nil, "columns to select (default: data set defaults)")
	queryCmd.Flags().StringArrayVar(&queryFlags.filters, "filter", nil, "filter as column:operator:value (repeatable)")
	queryCmd.Flags().StringVar(&queryFlags.sortColumn, "sort", "", "column to sort on")
	queryCmd.Flags().StringVar(&queryFlags.sortOrder, "order", "ASC", "sort order (ASC or DESC)")
	queryCmd.Flags().IntVar(&queryFlags.limit, "limit", 50, "maximum number of rows (-1 for no limit)")
	queryCmd.Flags().IntVar(&queryFlags.offset, "offset", 0, "row to start with")
	queryCmd.Flags().StringVar(&queryFlags.decimalMark, "decimal-mark", ".", "decimal mark for number columns")
	queryCmd.Flags().BoolVar(&queryFlags.includePersonalData, "include-personal-data", false, "include personal data columns unredacted")
	queryCmd.Flags().BoolVar(&queryFlags.sqlOnly, "sql", false, "print the generated SQL instead of running it")
	queryCmd.Flags().BoolVar(&queryFlags.watchConfig, "watch", false, "re-run when the config file changes")
	queryCmd.Flags().BoolVar(&queryFlags.filterCounts, "filter-counts", false, "show how many rows each filter matches on its own")

	rootCmd.AddCommand(queryCmd)
}
