// Package bundle reads and writes the backup snapshot: one JSON object with
// the top-level keys logs, settings, categories, goals and inspirations. Any
// subset of keys may be present on import.
package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sadopc/pomolog/internal/store"
)

const (
	KeyLogs           = "logs"
	KeySettings       = "settings"
	KeyCategories     = "categories"
	KeyGoals          = "goals"
	KeyInspirations   = "inspirations"
	keyCategoryColors = "categoryColors"
)

var ErrNotObject = errors.New("bundle must be a JSON object")

// Bundle is a decoded snapshot. Only the keys reported by Has were present.
type Bundle struct {
	Logs         []store.LogEntry
	Settings     store.Settings
	Categories   []store.Category
	Goals        []store.Goal
	Inspirations []store.Inspiration

	present map[string]bool
}

// Has reports whether key was present (and well formed) in the source.
func (b *Bundle) Has(key string) bool { return b.present[key] }

func (b *Bundle) mark(key string) {
	if b.present == nil {
		b.present = make(map[string]bool)
	}
	b.present[key] = true
}

type wireSplit struct {
	Work int64 `json:"work"`
	Rest int64 `json:"rest"`
}

type wireLog struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	StartTime      int64      `json:"startTime"`
	EndTime        *int64     `json:"endTime,omitempty"`
	Duration       int64      `json:"duration"`
	PhaseDurations *wireSplit `json:"phaseDurations,omitempty"`
	Images         []string   `json:"images,omitempty"`
}

type wireSettings struct {
	WorkDuration int64 `json:"workDuration"`
	RestDuration int64 `json:"restDuration"`
}

type wireCategory struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

type wireGoal struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category,omitempty"`
	TargetMinutes int    `json:"targetMinutes"`
	Done          bool   `json:"done"`
	CreatedAt     int64  `json:"createdAt"`
}

type wireBundle struct {
	ExportedAt   string              `json:"exportedAt,omitempty"`
	Logs         []wireLog           `json:"logs"`
	Settings     wireSettings        `json:"settings"`
	Categories   []wireCategory      `json:"categories"`
	Goals        []wireGoal          `json:"goals"`
	Inspirations []store.Inspiration `json:"inspirations"`
}

func toWireLog(e store.LogEntry) wireLog {
	w := wireLog{
		ID:          e.ID,
		Category:    e.Category,
		Description: e.Description,
		StartTime:   e.StartTime.UnixMilli(),
		Duration:    e.Duration,
		Images:      e.Images,
	}
	if e.EndTime != nil {
		ms := e.EndTime.UnixMilli()
		w.EndTime = &ms
	}
	if e.PhaseDurations != nil {
		w.PhaseDurations = &wireSplit{Work: e.PhaseDurations.Work, Rest: e.PhaseDurations.Rest}
	}
	return w
}

func fromWireLog(w wireLog) store.LogEntry {
	e := store.LogEntry{
		ID:          w.ID,
		Category:    w.Category,
		Description: w.Description,
		StartTime:   time.UnixMilli(w.StartTime),
		Duration:    w.Duration,
		Images:      w.Images,
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if w.EndTime != nil {
		end := time.UnixMilli(*w.EndTime)
		e.EndTime = &end
	}
	if w.PhaseDurations != nil {
		e.PhaseDurations = &store.PhaseDurations{Work: w.PhaseDurations.Work, Rest: w.PhaseDurations.Rest}
	}
	return e
}

// Encode writes b as an indented JSON object with every key present.
func Encode(w io.Writer, b *Bundle) error {
	out := wireBundle{
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Logs:         make([]wireLog, 0, len(b.Logs)),
		Settings:     wireSettings{WorkDuration: b.Settings.WorkDuration, RestDuration: b.Settings.RestDuration},
		Categories:   make([]wireCategory, 0, len(b.Categories)),
		Goals:        make([]wireGoal, 0, len(b.Goals)),
		Inspirations: b.Inspirations,
	}
	if out.Inspirations == nil {
		out.Inspirations = []store.Inspiration{}
	}
	for _, e := range b.Logs {
		out.Logs = append(out.Logs, toWireLog(e))
	}
	for _, c := range b.Categories {
		out.Categories = append(out.Categories, wireCategory(c))
	}
	for _, g := range b.Goals {
		out.Goals = append(out.Goals, wireGoal{
			ID:            g.ID,
			Title:         g.Title,
			Category:      g.Category,
			TargetMinutes: g.TargetMinutes,
			Done:          g.Done,
			CreatedAt:     g.CreatedAt.UnixMilli(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Decode parses a bundle. Keys that are missing are left absent; keys that
// are present but malformed are skipped with a warning. Only input that is
// not a JSON object at all is an error.
func Decode(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil || raw == nil {
		return nil, ErrNotObject
	}

	b := &Bundle{}
	if msg, ok := raw[KeyLogs]; ok {
		var logs []wireLog
		if err := json.Unmarshal(msg, &logs); err != nil {
			log.Warn("skipping malformed bundle key", "key", KeyLogs, "err", err)
		} else {
			b.Logs = make([]store.LogEntry, 0, len(logs))
			for _, w := range logs {
				b.Logs = append(b.Logs, fromWireLog(w))
			}
			b.mark(KeyLogs)
		}
	}

	if msg, ok := raw[KeySettings]; ok {
		var s wireSettings
		switch err := json.Unmarshal(msg, &s); {
		case err != nil:
			log.Warn("skipping malformed bundle key", "key", KeySettings, "err", err)
		case s.WorkDuration < store.MinPhaseDuration || s.RestDuration < store.MinPhaseDuration:
			log.Warn("skipping out of range settings", "work", s.WorkDuration, "rest", s.RestDuration)
		default:
			b.Settings = store.Settings{WorkDuration: s.WorkDuration, RestDuration: s.RestDuration}
			b.mark(KeySettings)
		}
	}

	if msg, ok := raw[KeyCategories]; ok {
		var cats []wireCategory
		if err := json.Unmarshal(msg, &cats); err != nil {
			log.Warn("skipping malformed bundle key", "key", KeyCategories, "err", err)
		} else {
			b.Categories = make([]store.Category, 0, len(cats))
			for _, c := range cats {
				if c.Name == "" {
					continue
				}
				b.Categories = append(b.Categories, store.Category(c))
			}
			b.mark(KeyCategories)
		}
	}
	if msg, ok := raw[keyCategoryColors]; ok && !b.Has(KeyCategories) {
		var colors map[string]string
		if err := json.Unmarshal(msg, &colors); err != nil {
			log.Warn("skipping malformed bundle key", "key", keyCategoryColors, "err", err)
		} else {
			b.Categories = MigrateCategoryColors(colors)
			b.mark(KeyCategories)
		}
	}

	if msg, ok := raw[KeyGoals]; ok {
		var goals []wireGoal
		if err := json.Unmarshal(msg, &goals); err != nil {
			log.Warn("skipping malformed bundle key", "key", KeyGoals, "err", err)
		} else {
			b.Goals = make([]store.Goal, 0, len(goals))
			for _, g := range goals {
				if g.ID == "" {
					g.ID = uuid.NewString()
				}
				b.Goals = append(b.Goals, store.Goal{
					ID:            g.ID,
					Title:         g.Title,
					Category:      g.Category,
					TargetMinutes: g.TargetMinutes,
					Done:          g.Done,
					CreatedAt:     time.UnixMilli(g.CreatedAt).UTC(),
				})
			}
			b.mark(KeyGoals)
		}
	}

	if msg, ok := raw[KeyInspirations]; ok {
		var items []store.Inspiration
		if err := json.Unmarshal(msg, &items); err != nil {
			log.Warn("skipping malformed bundle key", "key", KeyInspirations, "err", err)
		} else {
			b.Inspirations = items
			b.mark(KeyInspirations)
		}
	}

	return b, nil
}

// MigrateCategoryColors rewrites the legacy name-to-color map onto the
// default category list. Names not in the default list are ignored.
func MigrateCategoryColors(colors map[string]string) []store.Category {
	cats := store.DefaultCategories()
	for i := range cats {
		if c, ok := colors[cats[i].Name]; ok && c != "" {
			cats[i].Color = c
		}
	}
	return cats
}

// Source is what a snapshot is read from.
type Source interface {
	ListLogs(f store.LogFilter) ([]store.LogEntry, error)
	LoadSettings() store.Settings
	ListCategories() ([]store.Category, error)
	ListGoals(includeDone bool) ([]store.Goal, error)
	LoadInspirations() []store.Inspiration
}

// Target is what a snapshot is applied to.
type Target interface {
	ReplaceLogs(logs []store.LogEntry) error
	SaveSettings(s store.Settings) error
	ReplaceCategories(categories []store.Category) error
	ReplaceGoals(goals []store.Goal) error
	SaveInspirations(items []store.Inspiration) error
}

// Snapshot collects every key from src.
func Snapshot(src Source) (*Bundle, error) {
	logs, err := src.ListLogs(store.LogFilter{})
	if err != nil {
		return nil, fmt.Errorf("snapshot logs: %w", err)
	}
	cats, err := src.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("snapshot categories: %w", err)
	}
	goals, err := src.ListGoals(true)
	if err != nil {
		return nil, fmt.Errorf("snapshot goals: %w", err)
	}
	b := &Bundle{
		Logs:         logs,
		Settings:     src.LoadSettings(),
		Categories:   cats,
		Goals:        goals,
		Inspirations: src.LoadInspirations(),
	}
	for _, k := range []string{KeyLogs, KeySettings, KeyCategories, KeyGoals, KeyInspirations} {
		b.mark(k)
	}
	return b, nil
}

// Apply replaces each present key in dst. It returns the keys it wrote.
func Apply(dst Target, b *Bundle) ([]string, error) {
	var applied []string
	if b.Has(KeyLogs) {
		if err := dst.ReplaceLogs(b.Logs); err != nil {
			return applied, fmt.Errorf("import logs: %w", err)
		}
		applied = append(applied, KeyLogs)
	}
	if b.Has(KeySettings) {
		if err := dst.SaveSettings(b.Settings); err != nil {
			return applied, fmt.Errorf("import settings: %w", err)
		}
		applied = append(applied, KeySettings)
	}
	if b.Has(KeyCategories) {
		if err := dst.ReplaceCategories(b.Categories); err != nil {
			return applied, fmt.Errorf("import categories: %w", err)
		}
		applied = append(applied, KeyCategories)
	}
	if b.Has(KeyGoals) {
		if err := dst.ReplaceGoals(b.Goals); err != nil {
			return applied, fmt.Errorf("import goals: %w", err)
		}
		applied = append(applied, KeyGoals)
	}
	if b.Has(KeyInspirations) {
		if err := dst.SaveInspirations(b.Inspirations); err != nil {
			return applied, fmt.Errorf("import inspirations: %w", err)
		}
		applied = append(applied, KeyInspirations)
	}
	log.Info("bundle applied", "keys", applied)
	return applied, nil
}

// ToJSON writes a snapshot file at path.
func ToJSON(b *Bundle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	defer f.Close()
	return Encode(f, b)
}

// FromJSON reads a snapshot file.
func FromJSON(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
