package stats

import (
	"sort"
	"time"

	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

// DefaultTimelineStartHour is the local hour the day timeline begins at.
const DefaultTimelineStartHour = 6

// Timeline is the packed day view. Lanes hold logs in ascending start order
// and no two logs in a lane overlap.
type Timeline struct {
	Start time.Time
	End   time.Time
	Lanes [][]store.LogEntry
}

type span struct {
	log        store.LogEntry
	start, end time.Time
}

func spanOf(l store.LogEntry, now time.Time) span {
	end := now
	if l.EndTime != nil {
		end = *l.EndTime
	}
	return span{log: l, start: l.StartTime, end: end}
}

func (a span) overlaps(b span) bool {
	return a.start.Before(b.end) && b.start.Before(a.end)
}

// PackTimeline lays out the logs overlapping the 24 hours from startHour on
// date. The window grows to cover every included log. Logs without an end
// are treated as running until now.
func PackTimeline(logs []store.LogEntry, date time.Time, startHour int, now time.Time) Timeline {
	winStart := timeutil.StartOfDay(date).Add(time.Duration(startHour) * time.Hour)
	winEnd := winStart.Add(24 * time.Hour)
	tl := Timeline{Start: winStart, End: winEnd}

	var spans []span
	for _, l := range logs {
		s := spanOf(l, now)
		if !s.start.Before(winEnd) || !s.end.After(winStart) {
			continue
		}
		spans = append(spans, s)
		if s.start.Before(tl.Start) {
			tl.Start = s.start
		}
		if s.end.After(tl.End) {
			tl.End = s.end
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	var lanes [][]span
	for _, s := range spans {
		placed := false
		for i, lane := range lanes {
			if fits(lane, s) {
				lanes[i] = append(lane, s)
				placed = true
				break
			}
		}
		if !placed {
			lanes = append(lanes, []span{s})
		}
	}

	for _, lane := range lanes {
		out := make([]store.LogEntry, len(lane))
		for i, s := range lane {
			out[i] = s.log
		}
		tl.Lanes = append(tl.Lanes, out)
	}
	return tl
}

func fits(lane []span, s span) bool {
	for _, other := range lane {
		if other.overlaps(s) {
			return false
		}
	}
	return true
}
