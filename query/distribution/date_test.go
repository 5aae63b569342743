package distribution

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope-io/datascope/dataset"
	"github.com/datascope-io/datascope/query"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestChooseResolution(t *testing.T) {
	assert.Equal(t, ResolutionYear, chooseResolution(day(2015, 1, 1), day(2025, 1, 1)))
	assert.Equal(t, ResolutionMonth, chooseResolution(day(2024, 1, 1), day(2025, 2, 4)))
	assert.Equal(t, ResolutionWeek, chooseResolution(day(2024, 1, 1), day(2024, 2, 15)))
	assert.Equal(t, ResolutionDay, chooseResolution(day(2024, 1, 1), day(2024, 1, 4)))
	assert.Equal(t, ResolutionDay, chooseResolution(day(2024, 1, 1), day(2024, 1, 1)))
}

func TestFloorTo(t *testing.T) {
	aug25 := day(2026, 8, 25) // a Tuesday

	assert.Equal(t, day(2026, 1, 1), floorTo(ResolutionYear, aug25))
	assert.Equal(t, day(2026, 8, 1), floorTo(ResolutionMonth, aug25))
	assert.Equal(t, day(2026, 8, 24), floorTo(ResolutionWeek, aug25))
	assert.Equal(t, aug25, floorTo(ResolutionDay, aug25))

	// Weeks start on Monday; a Sunday floors back six days, a Monday
	// stays put.
	assert.Equal(t, day(2024, 1, 1), floorTo(ResolutionWeek, day(2024, 1, 7)))
	assert.Equal(t, day(2024, 1, 1), floorTo(ResolutionWeek, day(2024, 1, 1)))
}

func TestPeriodRange(t *testing.T) {
	periods := periodRange(ResolutionMonth, day(2024, 11, 1), day(2025, 2, 1))
	assert.Equal(t, []time.Time{
		day(2024, 11, 1), day(2024, 12, 1), day(2025, 1, 1), day(2025, 2, 1),
	}, periods)
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "2024", periodLabel(ResolutionYear, day(2024, 1, 1)))
	assert.Equal(t, "2024 Jan", periodLabel(ResolutionMonth, day(2024, 1, 1)))
	assert.Equal(t, "2024 - CW 01", periodLabel(ResolutionWeek, day(2024, 1, 1)))
	assert.Equal(t, "2024 - CW 06", periodLabel(ResolutionWeek, day(2024, 2, 5)))
	assert.Equal(t, "Mon, 05 Feb 2024", periodLabel(ResolutionDay, day(2024, 2, 5)))
}

func TestDateHistogram(t *testing.T) {
	q := histogramQuery(t)
	exec := &fakeExecutor{rows: [][][]any{
		{{"2024-01-01", "2025-02-04"}},
		{
			{"2024-01-01", "2024 Jan", int64(10)},
			{"2024-02-01", "2024 Feb", int64(4)},
		},
	}}

	buckets, err := Date(context.Background(), exec, q, "ordered_at")
	require.NoError(t, err)
	assert.Equal(t, []DateBucket{
		{Start: day(2024, 1, 1), Label: "2024 Jan", Count: 10},
		{Start: day(2024, 2, 1), Label: "2024 Feb", Count: 4},
	}, buckets)

	require.Len(t, exec.queries, 2)
	assert.Contains(t, exec.queries[0], `min("ordered_at")`)

	// A 400 day span resolves to months, with the cascade running from
	// the latest period down to the earliest.
	grouped := exec.queries[1]
	assert.Contains(t, grouped, `WHEN "ordered_at" >= DATE '2025-02-01' THEN DATE '2025-02-01'`)
	assert.Contains(t, grouped, `WHEN "ordered_at" >= DATE '2024-01-01' THEN '2024 Jan'`)
	assert.Less(t,
		strings.Index(grouped, "2025-02-01"),
		strings.Index(grouped, "2024-01-01"))
	assert.Contains(t, grouped, "GROUP BY d, label")
	assert.Contains(t, grouped, "ORDER BY d")
}

// SQLite stores dates as text and has no DATE literal syntax, so its
// cascade compares against plain quoted strings.
func TestDateHistogramSQLiteDateLiterals(t *testing.T) {
	ds := &dataset.DataSet{
		ID:              "events",
		ConnectionAlias: "local",
		DatabaseTable:   "events",
		Provider:        "sqlite",
		Columns: map[string]dataset.Column{
			"created_at": {Name: "created_at", Type: dataset.TypeDate},
		},
		ColumnOrder: []string{"created_at"},
	}
	q, err := query.New(dataset.NewRegistry(ds), "events", query.Params{})
	require.NoError(t, err)

	exec := &fakeExecutor{rows: [][][]any{
		{{"2024-01-01", "2025-02-04"}},
		{{"2024-01-01", "2024 Jan", int64(3)}},
	}}
	_, err = Date(context.Background(), exec, q, "created_at")
	require.NoError(t, err)

	require.Len(t, exec.queries, 2)
	grouped := exec.queries[1]
	assert.Contains(t, grouped, `WHEN "created_at" >= '2025-02-01' THEN '2025-02-01'`)
	assert.NotContains(t, grouped, "DATE '")
}

func TestDateHistogramNoData(t *testing.T) {
	q := histogramQuery(t)
	exec := &fakeExecutor{rows: [][][]any{
		{{nil, nil}},
	}}

	buckets, err := Date(context.Background(), exec, q, "ordered_at")
	require.NoError(t, err)
	assert.Nil(t, buckets)
	assert.Len(t, exec.queries, 1)
}
