package store

import "time"

// RestCategory is the category name whose logs count entirely as rest time
// when they carry no phase split.
const RestCategory = "Rest"

// Phase is one of the two recurring timer modes.
type Phase string

const (
	PhaseWork Phase = "work"
	PhaseRest Phase = "rest"
)

// Opposite returns the phase that follows p.
func (p Phase) Opposite() Phase {
	if p == PhaseRest {
		return PhaseWork
	}
	return PhaseRest
}

// PhaseDurations splits a log's duration, in seconds, between the two phases.
type PhaseDurations struct {
	Work int64
	Rest int64
}

type LogEntry struct {
	ID             string
	Category       string
	Description    string
	StartTime      time.Time
	EndTime        *time.Time
	Duration       int64 // seconds
	PhaseDurations *PhaseDurations
	Images         []string
}

type Category struct {
	Name  string
	Color string
	Icon  string
}

type Goal struct {
	ID            string
	Title         string
	Category      string
	TargetMinutes int
	Done          bool
	CreatedAt     time.Time
}

type Inspiration struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Images    []string  `json:"images,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Settings holds the nominal phase lengths in seconds.
type Settings struct {
	WorkDuration int64
	RestDuration int64
}

type Setting struct {
	Key   string
	Value string
}

// LogFilter is used to filter logs in queries.
type LogFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
	Limit    int
}

const (
	DefaultWorkDuration = 1500
	DefaultRestDuration = 300
	MinPhaseDuration    = 60
)

func DefaultSettings() Settings {
	return Settings{WorkDuration: DefaultWorkDuration, RestDuration: DefaultRestDuration}
}

// FallbackColor is used for categories that are referenced by a log but no
// longer exist in the category list.
const FallbackColor = "#95A5A6"

// DefaultCategories returns a fresh copy of the built-in category list.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Work", Color: "#6C63FF", Icon: "💼"},
		{Name: "Study", Color: "#2EC4B6", Icon: "📚"},
		{Name: "Reading", Color: "#F39C12", Icon: "📖"},
		{Name: "Exercise", Color: "#2ECC71", Icon: "🏃"},
		{Name: "Life", Color: "#FF6B6B", Icon: "🏠"},
		{Name: RestCategory, Color: "#7AA2F7", Icon: "☕"},
		{Name: "Other", Color: FallbackColor, Icon: "•"},
	}
}

// CategoryColor looks a category up by name, falling back to FallbackColor.
func CategoryColor(categories []Category, name string) string {
	for _, c := range categories {
		if c.Name == name && c.Color != "" {
			return c.Color
		}
	}
	return FallbackColor
}
