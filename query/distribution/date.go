package distribution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datascope-io/datascope/dataset"
	"github.com/datascope-io/datascope/query"
	"github.com/datascope-io/datascope/query/executor"
)

// Resolution is the time granularity of a date histogram.
type Resolution string

const (
	ResolutionYear  Resolution = "year"
	ResolutionMonth Resolution = "month"
	ResolutionWeek  Resolution = "week"
	ResolutionDay   Resolution = "day"
)

// resolutions are ordered coarsest first; the histogram picks the first
// one that yields at least minBuckets periods, falling back to day.
var resolutions = []Resolution{ResolutionYear, ResolutionMonth, ResolutionWeek, ResolutionDay}

// DateBucket is one period of a date histogram.
type DateBucket struct {
	Start time.Time
	Label string
	Count int64
}

// Date returns a frequency histogram for a date column. The resolution
// is the coarsest of year/month/week/day that spans the column's value
// range with at least five periods; each bucket carries a
// human-readable label formatted for that resolution.
func Date(ctx context.Context, exec executor.Executor, q *query.Query, columnName string) ([]DateBucket, error) {
	ds := q.DataSet
	if !ds.HasColumn(columnName) {
		return nil, fmt.Errorf("%w: %q in data set %q", dataset.ErrUnknownColumn, columnName, ds.ID)
	}
	d := ds.Dialect()
	column := d.QuoteIdentifier(columnName)
	table := d.QualifiedTable(ds.DatabaseSchema, ds.DatabaseTable)

	statsSQL := fmt.Sprintf(`SELECT min(%s) AS min_value,
       max(%s) AS max_value
FROM %s
WHERE %s IS NOT NULL%s`, column, column, table, column, filterConjunction(q))

	rows, _, err := exec.ExecuteQuery(ctx, ds.ConnectionAlias, statsSQL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0][0] == nil {
		return nil, nil
	}
	minValue, err := toTime(rows[0][0])
	if err != nil {
		return nil, err
	}
	maxValue, err := toTime(rows[0][1])
	if err != nil {
		return nil, err
	}

	resolution := chooseResolution(minValue, maxValue)
	periods := periodRange(resolution, floorTo(resolution, minValue), floorTo(resolution, maxValue))

	var b strings.Builder
	b.WriteString("SELECT CASE")
	for i := len(periods) - 1; i >= 0; i-- {
		start := d.DateLiteral(periods[i].Format("2006-01-02"))
		fmt.Fprintf(&b, "\n    WHEN %s >= %s THEN %s", column, start, start)
	}
	b.WriteString("\n  END AS d,\n  CASE")
	for i := len(periods) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n    WHEN %s >= %s THEN %s",
			column, d.DateLiteral(periods[i].Format("2006-01-02")), d.QuoteLiteral(periodLabel(resolution, periods[i])))
	}
	fmt.Fprintf(&b, `
  END AS label,
  count(*) AS n
FROM %s
WHERE %s IS NOT NULL%s
GROUP BY d, label
ORDER BY d`, table, column, filterConjunction(q))

	grouped, _, err := exec.ExecuteQuery(ctx, ds.ConnectionAlias, b.String())
	if err != nil {
		return nil, err
	}

	buckets := make([]DateBucket, 0, len(grouped))
	for _, row := range grouped {
		if len(row) < 3 || row[0] == nil {
			continue
		}
		start, err := toTime(row[0])
		if err != nil {
			return nil, err
		}
		count, err := toInt64(row[2])
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, DateBucket{
			Start: start,
			Label: fmt.Sprintf("%v", row[1]),
			Count: count,
		})
	}
	return buckets, nil
}

// chooseResolution picks the coarsest resolution that divides the span
// from min to max into at least minBuckets periods.
func chooseResolution(min, max time.Time) Resolution {
	for _, resolution := range resolutions {
		count := 0
		for t := min; !t.After(max); t = nextPeriod(resolution, t) {
			count++
			if count >= minBuckets {
				break
			}
		}
		if count >= minBuckets {
			return resolution
		}
	}
	return ResolutionDay
}

// floorTo truncates t to the start of its period: January 1st for
// years, the 1st for months, Monday for weeks, midnight for days.
func floorTo(resolution Resolution, t time.Time) time.Time {
	year, month, day := t.Date()
	switch resolution {
	case ResolutionYear:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, t.Location())
	case ResolutionMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	case ResolutionWeek:
		start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
		weekday := int(start.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return start.AddDate(0, 0, 1-weekday)
	default:
		return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	}
}

func nextPeriod(resolution Resolution, t time.Time) time.Time {
	switch resolution {
	case ResolutionYear:
		return t.AddDate(1, 0, 0)
	case ResolutionMonth:
		return t.AddDate(0, 1, 0)
	case ResolutionWeek:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// periodRange returns the period starts from first to last, inclusive.
func periodRange(resolution Resolution, first, last time.Time) []time.Time {
	var periods []time.Time
	for t := first; !t.After(last); t = nextPeriod(resolution, t) {
		periods = append(periods, t)
	}
	return periods
}

func periodLabel(resolution Resolution, t time.Time) string {
	switch resolution {
	case ResolutionYear:
		return t.Format("2006")
	case ResolutionMonth:
		return t.Format("2006 Jan")
	case ResolutionWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d - CW %02d", year, week)
	default:
		return t.Format("Mon, 02 Jan 2006")
	}
}
