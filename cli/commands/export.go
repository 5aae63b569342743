package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datascope-io/datascope/cli/internal/ui"
	"github.com/datascope-io/datascope/export"
)

var exportFlags struct {
	format              string
	out                 string
	delimiter           string
	decimalMark         string
	arrayFormat         string
	includePersonalData bool
	header              bool
	limit               int
}

var exportCmd = &cobra.Command{
	Use:   "export <data-set>",
	Short: "Export a query result as CSV or spreadsheet rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		q, err := buildQueryFromFlags(app, args[0])
		if err != nil {
			return err
		}

		opts := export.Options{
			DecimalMark:         exportFlags.decimalMark,
			IncludePersonalData: exportFlags.includePersonalData,
			Header:              exportFlags.header,
			ArrayFormat:         export.ArrayFormat(exportFlags.arrayFormat),
		}
		if exportFlags.limit >= 0 {
			opts.Limit = &exportFlags.limit
		}
		if exportFlags.delimiter != "" {
			opts.Delimiter = rune(exportFlags.delimiter[0])
		}

		out := os.Stdout
		if exportFlags.out != "" {
			f, err := os.Create(exportFlags.out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		ctx := cmd.Context()
		switch exportFlags.format {
		case "csv":
			if err := export.CSV(ctx, app.conns, q, opts, out); err != nil {
				return err
			}
		case "sheet":
			rows, err := export.SheetRows(ctx, app.conns, q, opts)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(out)
			for _, row := range rows {
				if err := encoder.Encode(row); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unknown export format %q, expected csv or sheet", exportFlags.format)
		}

		if exportFlags.out != "" {
			ui.PrintSuccess("exported to %s", exportFlags.out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.format, "format", "csv", "export format (csv or sheet)")
	exportCmd.Flags().StringVar(&exportFlags.out, "out", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportFlags.delimiter, "delimiter", ",", "CSV field delimiter")
	exportCmd.Flags().StringVar(&exportFlags.decimalMark, "decimal-mark", ".", "decimal mark for number columns")
	exportCmd.Flags().StringVar(&exportFlags.arrayFormat, "array-format", "brackets", "array rendering (brackets, curly or tuple)")
	exportCmd.Flags().BoolVar(&exportFlags.includePersonalData, "include-personal-data", false, "include personal data columns unredacted")
	exportCmd.Flags().BoolVar(&exportFlags.header, "header", true, "include a header row")
	exportCmd.Flags().IntVar(&exportFlags.limit, "limit", -1, "maximum number of rows (-1 for no limit)")

	exportCmd.Flags().StringSliceVar(&queryFlags.columns, "columns", nil, "columns to select (default: data set defaults)")
	exportCmd.Flags().StringArrayVar(&queryFlags.filters, "filter", nil, "filter as column:operator:value (repeatable)")
	exportCmd.Flags().StringVar(&queryFlags.sortColumn, "sort", "", "column to sort on")
	exportCmd.Flags().StringVar(&queryFlags.sortOrder, "order", "ASC", "sort order (ASC or DESC)")

	rootCmd.AddCommand(exportCmd)
}
