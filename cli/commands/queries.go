package commands

import (
	"context"
	"fmt"
	"os/user"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/datascope-io/datascope/cli/internal/ui"
	"github.com/datascope-io/datascope/query"
	"github.com/datascope-io/datascope/query/store"
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Manage saved queries",
}

var queriesListCmd = &cobra.Command{
	Use:   "list <data-set>",
	Short: "List the saved queries of a data set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		infos, err := s.List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, []string{info.QueryID, info.UpdatedAt.Format("2006-01-02 15:04"), info.UpdatedBy})
		}
		ui.PrintTable([]string{"Query", "Updated", "By"}, rows)
		return nil
	},
}

var queriesSaveCmd = &cobra.Command{
	Use:   "save <data-set> <query-id>",
	Short: "Save the query described by the query flags",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		filters, err := parseFilterFlags(queryFlags.filters)
		if err != nil {
			return err
		}
		q, err := query.New(app.datasets, args[0], query.Params{
			QueryID:        args[1],
			ColumnNames:    queryFlags.columns,
			SortColumnName: queryFlags.sortColumn,
			SortOrder:      query.SortOrder(queryFlags.sortOrder),
			Filters:        filters,
		})
		if err != nil {
			return err
		}

		if err := s.Save(cmd.Context(), q, currentUser()); err != nil {
			return err
		}
		ui.PrintSuccess("saved query %q for data set %q", args[1], args[0])
		return nil
	},
}

var queriesShowCmd = &cobra.Command{
	Use:   "show <data-set> <query-id>",
	Short: "Show a saved query and its SQL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		q, err := s.Load(cmd.Context(), app.datasets, args[0], args[1])
		if err != nil {
			return err
		}
		ui.PrintSQL(q.ToSQL(query.SQLOptions{IncludePersonalData: true}))
		return nil
	},
}

var queriesDeleteCmd = &cobra.Command{
	Use:   "delete <data-set> <query-id>",
	Short: "Delete a saved query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Delete saved query %q of data set %q?", args[1], args[0]),
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return err
		}
		if !confirmed {
			return nil
		}

		app, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := s.Delete(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		ui.PrintSuccess("deleted query %q", args[1])
		return nil
	},
}

// openStore opens the saved-query store on the configured storage
// connection.
func openStore(ctx context.Context) (*app, *store.Store, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	alias := a.cfg.StorageConnection
	if alias == "" {
		a.Close()
		return nil, nil, fmt.Errorf("no storage_connection configured")
	}
	db, err := a.conns.DB(alias)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	s := store.New(db, a.conns.Provider(alias))
	if err := s.EnsureTable(ctx); err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, s, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func init() {
	queriesSaveCmd.Flags().StringSliceVar(&queryFlags.columns, "columns", nil, "columns to select")
	queriesSaveCmd.Flags().StringArrayVar(&queryFlags.filters, "filter", nil, "filter as column:operator:value (repeatable)")
	queriesSaveCmd.Flags().StringVar(&queryFlags.sortColumn, "sort", "", "column to sort on")
	queriesSaveCmd.Flags().StringVar(&queryFlags.sortOrder, "order", "ASC", "sort order (ASC or DESC)")

	queriesCmd.AddCommand(queriesListCmd, queriesSaveCmd, queriesShowCmd, queriesDeleteCmd)
	rootCmd.AddCommand(queriesCmd)
}
