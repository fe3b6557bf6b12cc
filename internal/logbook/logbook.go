// Package logbook is the authoritative collection of session logs. It keeps
// the logs in memory, loaded once at startup, and writes every mutation
// through to the repository before changing its own state.
package logbook

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

// MinDuration is the shortest session, in seconds, that is ever persisted.
const MinDuration = 60

var (
	ErrTooShort       = errors.New("session must be at least one minute")
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrInvalidTime    = errors.New("invalid date or time")
	ErrNotFound       = errors.New("log not found")
)

// Repository persists logs.
type Repository interface {
	ListLogs(f store.LogFilter) ([]store.LogEntry, error)
	SaveLog(e store.LogEntry) error
	DeleteLog(id string) error
	ReplaceLogs(logs []store.LogEntry) error
}

type Logbook struct {
	mu      sync.Mutex
	repo    Repository
	entries []store.LogEntry // newest first
	newID   func() string
}

func New(repo Repository) *Logbook {
	return &Logbook{repo: repo, newID: uuid.NewString}
}

// Load reads every log from the repository, replacing the in-memory set.
func (b *Logbook) Load() error {
	logs, err := b.repo.ListLogs(store.LogFilter{})
	if err != nil {
		return fmt.Errorf("load logs: %w", err)
	}
	b.mu.Lock()
	b.entries = logs
	b.mu.Unlock()
	log.Debug("logbook loaded", "count", len(logs))
	return nil
}

// FinalizeRequest describes an accumulated recording to turn into a log.
type FinalizeRequest struct {
	LiveID      string
	Category    string
	Description string
	Phase       store.Phase // supplies the default label and category
	Start       time.Time
	End         time.Time
	Acc         store.PhaseDurations
	Automatic   bool
}

// Finalize saves an accumulated recording. Recordings under MinDuration are
// rejected with ErrTooShort, except automatic ones which return (nil, nil).
func (b *Logbook) Finalize(req FinalizeRequest) (*store.LogEntry, error) {
	duration := req.Acc.Work + req.Acc.Rest
	if duration < MinDuration {
		if req.Automatic {
			log.Info("automatic save skipped, session too short", "seconds", duration)
			return nil, nil
		}
		return nil, ErrTooShort
	}

	id := req.LiveID
	if id == "" {
		id = b.newID()
	}
	end := req.End
	if !end.After(req.Start) {
		end = req.Start.Add(time.Duration(duration) * time.Second)
	}
	acc := req.Acc
	e := store.LogEntry{
		ID:             id,
		Category:       defaultCategory(req.Category, req.Phase),
		Description:    DefaultDescription(req.Description, req.Phase),
		StartTime:      req.Start,
		EndTime:        &end,
		Duration:       duration,
		PhaseDurations: &acc,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.repo.SaveLog(e); err != nil {
		return nil, err
	}
	b.entries = append([]store.LogEntry{e}, b.without(id)...)
	log.Info("log saved", "id", id, "category", e.Category, "seconds", duration, "automatic", req.Automatic)
	return &e, nil
}

// Update replaces a log with the result of applying the draft to it.
func (b *Logbook) Update(id string, d EditDraft) (*store.LogEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	e, err := d.Apply(b.entries[i])
	if err != nil {
		return nil, err
	}
	if err := b.repo.SaveLog(e); err != nil {
		return nil, err
	}
	b.entries[i] = e
	return &e, nil
}

// Remove deletes a log. Unknown ids are ignored.
func (b *Logbook) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.repo.DeleteLog(id); err != nil {
		return err
	}
	b.entries = b.without(id)
	return nil
}

// ManualInsert validates and stores a fully user-authored log.
func (b *Logbook) ManualInsert(m ManualEntry) (*store.LogEntry, error) {
	e, err := m.Build()
	if err != nil {
		return nil, err
	}
	e.ID = b.newID()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.repo.SaveLog(e); err != nil {
		return nil, err
	}
	b.entries = append([]store.LogEntry{e}, b.entries...)
	return &e, nil
}

// Replace swaps the whole collection, as done by a bundle import.
func (b *Logbook) Replace(logs []store.LogEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.repo.ReplaceLogs(logs); err != nil {
		return err
	}
	b.entries = append([]store.LogEntry(nil), logs...)
	return nil
}

// All returns a copy of every log. Order is not meaningful; sort by
// StartTime when it matters.
func (b *Logbook) All() []store.LogEntry {
	return b.filter(func(store.LogEntry) bool { return true })
}

func (b *Logbook) Get(id string) (*store.LogEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return nil, false
	}
	e := b.entries[i]
	return &e, true
}

// ByDateKey returns the logs that started on the given local day.
func (b *Logbook) ByDateKey(key string) []store.LogEntry {
	return b.filter(func(e store.LogEntry) bool { return timeutil.DateKey(e.StartTime) == key })
}

// InRange returns the logs that started in [from, to).
func (b *Logbook) InRange(from, to time.Time) []store.LogEntry {
	return b.filter(func(e store.LogEntry) bool {
		return !e.StartTime.Before(from) && e.StartTime.Before(to)
	})
}

func (b *Logbook) ByCategory(name string) []store.LogEntry {
	return b.filter(func(e store.LogEntry) bool { return e.Category == name })
}

func (b *Logbook) filter(keep func(store.LogEntry) bool) []store.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []store.LogEntry
	for _, e := range b.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (b *Logbook) index(id string) int {
	for i := range b.entries {
		if b.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Logbook) without(id string) []store.LogEntry {
	out := make([]store.LogEntry, 0, len(b.entries))
	for _, e := range b.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// DefaultDescription returns desc, or the phase label when desc is empty.
func DefaultDescription(desc string, phase store.Phase) string {
	if desc != "" {
		return desc
	}
	if phase == store.PhaseRest {
		return "Break"
	}
	return "Focus"
}

func defaultCategory(cat string, phase store.Phase) string {
	if cat != "" {
		return cat
	}
	if phase == store.PhaseRest {
		return store.RestCategory
	}
	return "Work"
}
