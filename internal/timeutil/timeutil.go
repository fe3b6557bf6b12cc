// Package timeutil holds the pure time helpers shared by the engine, the
// log book and the stats aggregator.
package timeutil

import (
	"fmt"
	"math"
	"time"

	"github.com/sadopc/pomolog/internal/store"
)

// DateKeyLayout is the layout of a date key: a calendar day in local time.
const DateKeyLayout = "2006-01-02"

// DateKey truncates t to its local calendar day.
func DateKey(t time.Time) string {
	return t.Local().Format(DateKeyLayout)
}

// ParseDateKey parses a date key as local midnight.
func ParseDateKey(key string) (time.Time, error) {
	return time.ParseInLocation(DateKeyLayout, key, time.Local)
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// WeekBounds returns the Sunday-start week containing t as [start, end).
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := StartOfDay(t)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// MonthBounds returns the calendar month containing t as [start, end).
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.Local()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0)
}

// YearBounds returns the calendar year containing t as [start, end).
func YearBounds(t time.Time) (time.Time, time.Time) {
	t = t.Local()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(1, 0, 0)
}

// DaysIn returns the number of days in t's month.
func DaysIn(t time.Time) int {
	start, end := MonthBounds(t)
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// RoundMinutes converts seconds to whole minutes, rounding half away from zero.
func RoundMinutes(secs int64) int64 {
	return int64(math.Round(float64(secs) / 60))
}

// FormatDuration renders seconds as HH:MM:SS.
func FormatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatClock renders seconds as MM:SS, letting minutes grow past 59.
func FormatClock(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// FormatMinutes renders a minute count as "1h 05m" or "45m".
func FormatMinutes(mins int64) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

// PhaseTotals is the resolved work/rest split of a log.
type PhaseTotals struct {
	Work  int64
	Rest  int64
	Total int64
}

// ResolvePhaseTotals reads a log's split. Without a split the whole duration
// counts as work. Total falls back to the stored duration when both halves
// are zero.
func ResolvePhaseTotals(l store.LogEntry) PhaseTotals {
	var pt PhaseTotals
	if l.PhaseDurations != nil {
		pt.Work = l.PhaseDurations.Work
		pt.Rest = l.PhaseDurations.Rest
	} else {
		pt.Work = l.Duration
	}
	pt.Total = pt.Work + pt.Rest
	if pt.Total == 0 {
		pt.Total = l.Duration
	}
	return pt
}
