package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/datascope-io/datascope/cli/internal/config"
	"github.com/datascope-io/datascope/dataset"
	"github.com/datascope-io/datascope/query"
	"github.com/datascope-io/datascope/query/executor"
)

// app bundles the loaded config with the connection and data set
// registries the commands operate on.
type app struct {
	cfg      *config.Config
	conns    *executor.Registry
	datasets *dataset.Registry
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	conns := executor.NewRegistry()
	for alias, conn := range cfg.Connections {
		conns.Register(alias, executor.Connection{Provider: conn.Provider, DSN: conn.DSN})
	}

	registry := dataset.NewRegistry()
	for _, dc := range cfg.DataSets {
		ds, err := buildDataSet(ctx, conns, cfg, dc)
		if err != nil {
			return nil, fmt.Errorf("data set %q: %w", dc.ID, err)
		}
		registry.Add(ds)
	}

	return &app{cfg: cfg, conns: conns, datasets: registry}, nil
}

func (a *app) Close() {
	_ = a.conns.Close()
}

// buildDataSet assembles a data set from its config entry, discovering
// column types from the database when they are not declared.
func buildDataSet(ctx context.Context, conns *executor.Registry, cfg *config.Config, dc config.DataSetConfig) (*dataset.DataSet, error) {
	conn, ok := cfg.Connections[dc.Connection]
	if !ok {
		return nil, fmt.Errorf("unknown connection %q", dc.Connection)
	}

	ds := &dataset.DataSet{
		ID:                      dc.ID,
		Name:                    dc.Name,
		ConnectionAlias:         dc.Connection,
		DatabaseSchema:          dc.Schema,
		DatabaseTable:           dc.Table,
		DefaultColumnNames:      dc.DefaultColumns,
		PersonalDataColumnNames: dc.PersonalDataColumns,
		UseAttributesTable:      dc.UseAttributesTable,
		Description:             dc.Description,
		Provider:                conn.Provider,
	}

	if len(dc.Columns) > 0 {
		ds.Columns = make(map[string]dataset.Column, len(dc.Columns))
		for name, typeName := range dc.Columns {
			ds.Columns[name] = dataset.Column{Name: name, Type: dataset.ColumnType(typeName)}
			ds.ColumnOrder = append(ds.ColumnOrder, name)
		}
		sort.Strings(ds.ColumnOrder)
		return ds, nil
	}

	db, err := conns.DB(dc.Connection)
	if err != nil {
		return nil, err
	}
	columns, order, err := dataset.DiscoverColumns(ctx, db, conn.Provider, dc.Schema, dc.Table)
	if err != nil {
		return nil, err
	}
	ds.Columns = columns
	ds.ColumnOrder = order
	return ds, nil
}

// buildFilteredQuery builds a query over the data set's default
// columns with the given filters applied.
func buildFilteredQuery(a *app, dataSetID string, filters []query.Filter) (*query.Query, error) {
	return query.New(a.datasets, dataSetID, query.Params{Filters: filters})
}

// parseFilterFlags parses --filter values of the form
// "column:operator:value" with multiple values separated by "|",
// e.g. --filter "status:=:open|pending" or --filter "amount:>=:100".
func parseFilterFlags(specs []string) ([]query.Filter, error) {
	var filters []query.Filter
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid filter %q, expected column:operator:value", spec)
		}
		f := query.Filter{ColumnName: parts[0], Operator: parts[1]}
		if len(parts) == 3 && parts[2] != "" {
			f.Value = strings.Split(parts[2], "|")
		}
		filters = append(filters, f)
	}
	return filters, nil
}
