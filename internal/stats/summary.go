package stats

import (
	"time"

	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

type Options struct {
	TimelineStartHour int
	Now               time.Time
}

// Summary is everything one stats screen shows. Fields that do not apply to
// the view are left empty.
type Summary struct {
	View         View
	Date         time.Time
	Logs         []store.LogEntry
	TotalMinutes int64
	FocusMinutes int64
	RestMinutes  int64
	Categories   []CategoryTotal
	History      []Bucket
	Calendar     []CalendarCell
	Months       []MonthSummary
	Timeline     *Timeline
}

// Compute derives the summary for date under view v.
func Compute(logs []store.LogEntry, date time.Time, v View, opts Options) Summary {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	relevant := RelevantLogs(logs, date, v)

	var focus, rest int64
	for _, l := range relevant {
		f, r := Split(l)
		focus += f
		rest += r
	}

	s := Summary{
		View:         v,
		Date:         date,
		Logs:         relevant,
		TotalMinutes: timeutil.RoundMinutes(TotalSeconds(relevant)),
		FocusMinutes: timeutil.RoundMinutes(focus),
		RestMinutes:  timeutil.RoundMinutes(rest),
		Categories:   CategoryTotals(relevant),
	}

	switch v {
	case ViewDay:
		tl := PackTimeline(logs, date, opts.TimelineStartHour, opts.Now)
		s.Timeline = &tl
	case ViewWeek, ViewMonth:
		s.History = History(logs, date, v)
		s.Calendar = Calendar(logs, date, v)
	case ViewYear:
		s.History = History(logs, date, v)
		s.Months = YearMonths(logs, date)
	}
	return s
}
