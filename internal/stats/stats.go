// Package stats derives rollups from session logs. Every function is pure:
// it reads the logs it is given and never mutates them.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

// View is the granularity of a stats window.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
	ViewYear  View = "year"
)

var views = []View{ViewDay, ViewWeek, ViewMonth, ViewYear}

func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range views {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q (want day, week, month or year)", s)
}

// Next returns the view after v, wrapping around.
func (v View) Next() View {
	for i, known := range views {
		if known == v {
			return views[(i+1)%len(views)]
		}
	}
	return ViewDay
}

// Shift moves date by n units of the view.
func (v View) Shift(date time.Time, n int) time.Time {
	switch v {
	case ViewWeek:
		return date.AddDate(0, 0, 7*n)
	case ViewMonth:
		return date.AddDate(0, n, 0)
	case ViewYear:
		return date.AddDate(n, 0, 0)
	}
	return date.AddDate(0, 0, n)
}

// Bounds returns the [start, end) window of the view containing date.
func (v View) Bounds(date time.Time) (time.Time, time.Time) {
	switch v {
	case ViewWeek:
		return timeutil.WeekBounds(date)
	case ViewMonth:
		return timeutil.MonthBounds(date)
	case ViewYear:
		return timeutil.YearBounds(date)
	}
	start := timeutil.StartOfDay(date)
	return start, start.AddDate(0, 0, 1)
}

// Title names the window of the view containing date.
func (v View) Title(date time.Time) string {
	start, end := v.Bounds(date)
	switch v {
	case ViewWeek:
		return fmt.Sprintf("Week %s - %s", start.Format("Jan 02"), end.AddDate(0, 0, -1).Format("Jan 02, 2006"))
	case ViewMonth:
		return start.Format("January 2006")
	case ViewYear:
		return start.Format("2006")
	}
	return start.Format("Monday, Jan 02 2006")
}

// RelevantLogs keeps the logs that started inside the view window.
func RelevantLogs(logs []store.LogEntry, date time.Time, v View) []store.LogEntry {
	var out []store.LogEntry
	if v == ViewDay {
		key := timeutil.DateKey(date)
		for _, l := range logs {
			if timeutil.DateKey(l.StartTime) == key {
				out = append(out, l)
			}
		}
		return out
	}
	start, end := v.Bounds(date)
	for _, l := range logs {
		st := l.StartTime.In(time.Local)
		if !st.Before(start) && st.Before(end) {
			out = append(out, l)
		}
	}
	return out
}

// EffectiveDuration is the larger of the stored duration and the timestamp
// delta, in seconds.
func EffectiveDuration(l store.LogEntry) int64 {
	if l.EndTime == nil {
		return l.Duration
	}
	delta := int64(math.Round(l.EndTime.Sub(l.StartTime).Seconds()))
	return max(l.Duration, delta)
}

// Split divides a log's effective duration into focus and rest seconds.
func Split(l store.LogEntry) (focus, rest int64) {
	d := EffectiveDuration(l)
	switch {
	case l.PhaseDurations != nil:
		rest = l.PhaseDurations.Rest
	case l.Category == store.RestCategory:
		rest = d
	}
	if l.Category == store.RestCategory {
		return 0, rest
	}
	return max(0, d-rest), rest
}

type CategoryTotal struct {
	Category string
	Minutes  int64
}

// CategoryTotals sums focus time per category and rest time under the Rest
// bucket, sorted by minutes descending then name.
func CategoryTotals(logs []store.LogEntry) []CategoryTotal {
	secs := make(map[string]int64)
	for _, l := range logs {
		focus, rest := Split(l)
		if focus > 0 {
			secs[l.Category] += focus
		}
		if rest > 0 {
			secs[store.RestCategory] += rest
		}
	}

	out := make([]CategoryTotal, 0, len(secs))
	for name, s := range secs {
		out = append(out, CategoryTotal{Category: name, Minutes: timeutil.RoundMinutes(s)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TotalSeconds sums effective durations.
func TotalSeconds(logs []store.LogEntry) int64 {
	var total int64
	for _, l := range logs {
		total += EffectiveDuration(l)
	}
	return total
}

// Bucket is one point of a period history series.
type Bucket struct {
	Label   string
	Minutes int64
}

// History returns the full, zero-filled series for the period: days of the
// week, days of the month or months of the year. The day view has none.
func History(logs []store.LogEntry, date time.Time, v View) []Bucket {
	start, _ := v.Bounds(date)
	var labels []string
	var index func(t time.Time) int

	switch v {
	case ViewWeek:
		for i := 0; i < 7; i++ {
			labels = append(labels, start.AddDate(0, 0, i).Format("Mon"))
		}
		index = func(t time.Time) int { return int(t.Weekday()) }
	case ViewMonth:
		for d := 1; d <= timeutil.DaysIn(date); d++ {
			labels = append(labels, fmt.Sprintf("%d", d))
		}
		index = func(t time.Time) int { return t.Day() - 1 }
	case ViewYear:
		for m := time.January; m <= time.December; m++ {
			labels = append(labels, m.String()[:3])
		}
		index = func(t time.Time) int { return int(t.Month()) - 1 }
	default:
		return nil
	}

	secs := make([]int64, len(labels))
	for _, l := range RelevantLogs(logs, date, v) {
		secs[index(l.StartTime.In(time.Local))] += EffectiveDuration(l)
	}
	out := make([]Bucket, len(labels))
	for i, label := range labels {
		out[i] = Bucket{Label: label, Minutes: timeutil.RoundMinutes(secs[i])}
	}
	return out
}

// MaxCellImages caps the images shown per calendar day.
const MaxCellImages = 3

// CalendarCell is one day of a calendar grid. Padding cells before the first
// of the month have Empty set and nothing else.
type CalendarCell struct {
	Empty   bool
	DateKey string
	Day     int
	Minutes int64
	Images  []string
}

// Calendar builds the grid for the month or week containing date.
func Calendar(logs []store.LogEntry, date time.Time, v View) []CalendarCell {
	if v != ViewMonth && v != ViewWeek {
		return nil
	}
	start, end := v.Bounds(date)

	type day struct {
		secs   int64
		images []string
	}
	days := make(map[string]*day)
	for _, l := range RelevantLogs(logs, date, v) {
		key := timeutil.DateKey(l.StartTime)
		d := days[key]
		if d == nil {
			d = &day{}
			days[key] = d
		}
		d.secs += EffectiveDuration(l)
		for _, img := range l.Images {
			if len(d.images) < MaxCellImages {
				d.images = append(d.images, img)
			}
		}
	}

	var cells []CalendarCell
	if v == ViewMonth {
		for i := 0; i < int(start.Weekday()); i++ {
			cells = append(cells, CalendarCell{Empty: true})
		}
	}
	for t := start; t.Before(end); t = t.AddDate(0, 0, 1) {
		key := timeutil.DateKey(t)
		c := CalendarCell{DateKey: key, Day: t.Day()}
		if d := days[key]; d != nil {
			c.Minutes = timeutil.RoundMinutes(d.secs)
			c.Images = d.images
		}
		cells = append(cells, c)
	}
	return cells
}

// MonthSummary is one month of the year view.
type MonthSummary struct {
	Month      time.Month
	Categories []CategoryTotal
	Minutes    int64
	Image      string
}

// YearMonths summarizes each month of the year containing date.
func YearMonths(logs []store.LogEntry, date time.Time) []MonthSummary {
	inYear := RelevantLogs(logs, date, ViewYear)
	out := make([]MonthSummary, 12)
	for i := range out {
		m := time.Month(i + 1)
		var monthLogs []store.LogEntry
		for _, l := range inYear {
			if l.StartTime.In(time.Local).Month() == m {
				monthLogs = append(monthLogs, l)
			}
		}
		ms := MonthSummary{
			Month:      m,
			Categories: CategoryTotals(monthLogs),
			Minutes:    timeutil.RoundMinutes(TotalSeconds(monthLogs)),
		}
		for _, l := range monthLogs {
			if len(l.Images) > 0 {
				ms.Image = l.Images[0]
				break
			}
		}
		out[i] = ms
	}
	return out
}
