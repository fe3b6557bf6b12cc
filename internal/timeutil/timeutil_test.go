package timeutil

import (
	"testing"
	"time"

	"github.com/sadopc/pomolog/internal/store"
)

func TestResolvePhaseTotals(t *testing.T) {
	tests := []struct {
		name string
		log  store.LogEntry
		want PhaseTotals
	}{
		{
			name: "with split",
			log:  store.LogEntry{Duration: 420, PhaseDurations: &store.PhaseDurations{Work: 300, Rest: 120}},
			want: PhaseTotals{Work: 300, Rest: 120, Total: 420},
		},
		{
			name: "without split",
			log:  store.LogEntry{Duration: 180},
			want: PhaseTotals{Work: 180, Rest: 0, Total: 180},
		},
		{
			name: "zero split falls back to duration",
			log:  store.LogEntry{Duration: 240, PhaseDurations: &store.PhaseDurations{}},
			want: PhaseTotals{Work: 0, Rest: 0, Total: 240},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePhaseTotals(tt.log)
			if got != tt.want {
				t.Errorf("ResolvePhaseTotals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3661, "01:01:01"},
		{90061, "25:01:01"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		got := FormatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00"},
		{1500, "25:00"},
		{59, "00:59"},
		{6000, "100:00"},
	}

	for _, tt := range tests {
		got := FormatClock(tt.secs)
		if got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	if got := FormatMinutes(45); got != "45m" {
		t.Errorf("FormatMinutes(45) = %q", got)
	}
	if got := FormatMinutes(125); got != "2h 05m" {
		t.Errorf("FormatMinutes(125) = %q", got)
	}
}

func TestRoundMinutes(t *testing.T) {
	tests := []struct {
		secs int64
		want int64
	}{
		{0, 0},
		{29, 0},
		{30, 1},
		{89, 1},
		{90, 2},
		{1500, 25},
	}

	for _, tt := range tests {
		if got := RoundMinutes(tt.secs); got != tt.want {
			t.Errorf("RoundMinutes(%d) = %d, want %d", tt.secs, got, tt.want)
		}
	}
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2024, 1, 1, 23, 59, 0, 0, time.Local)
	if got := DateKey(ts); got != "2024-01-01" {
		t.Fatalf("DateKey = %q", got)
	}
	parsed, err := ParseDateKey("2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("ParseDateKey = %v", parsed)
	}
	if _, err := ParseDateKey("2024-13-01"); err == nil {
		t.Fatal("expected error for bad month")
	}
}

func TestWeekBounds(t *testing.T) {
	// 2024-01-03 is a Wednesday; the week starts Sunday 2023-12-31.
	start, end := WeekBounds(time.Date(2024, 1, 3, 15, 0, 0, 0, time.Local))
	if !start.Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("week start = %v", start)
	}
	if !end.Equal(time.Date(2024, 1, 7, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("week end = %v", end)
	}

	// A Sunday is the first day of its own week.
	start, _ = WeekBounds(time.Date(2024, 1, 7, 0, 0, 0, 0, time.Local))
	if !start.Equal(time.Date(2024, 1, 7, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("sunday week start = %v", start)
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		t    time.Time
		want int
	}{
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local), 29},
		{time.Date(2023, 2, 10, 0, 0, 0, 0, time.Local), 28},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local), 30},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.Local), 31},
	}
	for _, tt := range tests {
		if got := DaysIn(tt.t); got != tt.want {
			t.Errorf("DaysIn(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}
