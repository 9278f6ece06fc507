// AngelaMos | 2026
// series.go

package analytics

import (
	"time"

	"github.com/carterperez-dev/memoria/internal/holiday"
)

// windowStart is local midnight of the first day in a window of days
// ending on the day containing now.
func windowStart(now time.Time, loc *time.Location, days int) time.Time {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, -(days - 1))
}

// fillDailySeries returns one entry per day from start, oldest first, with
// days absent from rows reported as zero.
func fillDailySeries(rows []ActivityRow, start time.Time, days int) []holiday.DailyActivity {
	byDay := make(map[string]ActivityRow, len(rows))
	for _, r := range rows {
		byDay[r.Day.Format(time.DateOnly)] = r
	}

	series := make([]holiday.DailyActivity, 0, days)
	for i := range days {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		row := byDay[date]
		series = append(series, holiday.DailyActivity{
			Date:         date,
			ActiveUsers:  row.ActiveUsers,
			MessageCount: row.MessageCount,
		})
	}

	return series
}
