package logbook

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

// EditMode says which representation of a log's length the user edited last.
// The two are mutually exclusive per save: the edited one is authoritative
// and the other is recomputed from it.
type EditMode int

const (
	// EditClockTime: start and end are authoritative; duration is their delta.
	EditClockTime EditMode = iota
	// EditPhaseSplit: start and the work/rest split are authoritative; end is
	// start plus work plus rest.
	EditPhaseSplit
)

func (m EditMode) String() string {
	if m == EditPhaseSplit {
		return "phase split"
	}
	return "clock time"
}

// EditDraft is a full replacement for a log's editable fields.
type EditDraft struct {
	Mode        EditMode
	Category    string
	Description string
	Images      []string

	Start time.Time
	End   time.Time // EditClockTime only

	WorkSeconds int64 // EditPhaseSplit only
	RestSeconds int64 // EditPhaseSplit only
}

// DraftFrom prefills a draft from an existing log in clock-time mode.
func DraftFrom(e store.LogEntry) EditDraft {
	pt := timeutil.ResolvePhaseTotals(e)
	end := e.StartTime.Add(time.Duration(e.Duration) * time.Second)
	if e.EndTime != nil {
		end = *e.EndTime
	}
	return EditDraft{
		Mode:        EditClockTime,
		Category:    e.Category,
		Description: e.Description,
		Images:      append([]string(nil), e.Images...),
		Start:       e.StartTime,
		End:         end,
		WorkSeconds: pt.Work,
		RestSeconds: pt.Rest,
	}
}

// Apply returns base with the draft applied, or a validation error.
func (d EditDraft) Apply(base store.LogEntry) (store.LogEntry, error) {
	out := base
	out.Category = d.Category
	out.Description = d.Description
	out.Images = append([]string(nil), d.Images...)
	if len(out.Images) == 0 {
		out.Images = nil
	}
	out.StartTime = d.Start

	switch d.Mode {
	case EditPhaseSplit:
		if d.WorkSeconds < 0 || d.RestSeconds < 0 {
			return base, ErrInvalidTime
		}
		total := d.WorkSeconds + d.RestSeconds
		if total < MinDuration {
			return base, ErrTooShort
		}
		end := d.Start.Add(time.Duration(total) * time.Second)
		out.EndTime = &end
		out.Duration = total
		out.PhaseDurations = &store.PhaseDurations{Work: d.WorkSeconds, Rest: d.RestSeconds}

	default:
		if !d.End.After(d.Start) {
			return base, ErrEndBeforeStart
		}
		total := int64(math.Round(d.End.Sub(d.Start).Seconds()))
		if total < MinDuration {
			return base, ErrTooShort
		}
		end := d.End
		out.EndTime = &end
		out.Duration = total
		if base.PhaseDurations != nil {
			rest := min(base.PhaseDurations.Rest, total)
			out.PhaseDurations = &store.PhaseDurations{Work: total - rest, Rest: rest}
		}
	}
	return out, nil
}

const (
	manualDateLayout = timeutil.DateKeyLayout
	manualClock      = "15:04"
)

// ManualEntry is a log typed in directly by the user.
type ManualEntry struct {
	Date        string // 2006-01-02
	Start       string // 15:04
	End         string // 15:04
	Category    string
	Description string
	Images      []string
}

// Build validates the entry and returns the log it describes, without an id.
func (m ManualEntry) Build() (store.LogEntry, error) {
	date := strings.TrimSpace(m.Date)
	start, err := time.ParseInLocation(manualDateLayout+" "+manualClock, date+" "+strings.TrimSpace(m.Start), time.Local)
	if err != nil {
		return store.LogEntry{}, fmt.Errorf("start: %w", ErrInvalidTime)
	}
	end, err := time.ParseInLocation(manualDateLayout+" "+manualClock, date+" "+strings.TrimSpace(m.End), time.Local)
	if err != nil {
		return store.LogEntry{}, fmt.Errorf("end: %w", ErrInvalidTime)
	}
	if !end.After(start) {
		return store.LogEntry{}, ErrEndBeforeStart
	}
	if end.Sub(start) < MinDuration*time.Second {
		return store.LogEntry{}, ErrTooShort
	}

	return store.LogEntry{
		Category:    defaultCategory(m.Category, store.PhaseWork),
		Description: DefaultDescription(m.Description, store.PhaseWork),
		StartTime:   start,
		EndTime:     &end,
		Duration:    int64(end.Sub(start) / time.Second),
		Images:      m.Images,
	}, nil
}
