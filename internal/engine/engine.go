// Package engine is the work/rest phase state machine. All state lives in one
// State value that only the named transitions on Engine mutate. Transitions
// return the effects the caller should perform (notifications, cues, status
// notices) so the engine itself never does I/O beyond the Recorder.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

// DefaultReminderInterval is how much overtime passes between reminders.
const DefaultReminderInterval = 10 * time.Minute

var (
	ErrInvalidSettings = errors.New("durations must be at least one minute")
	ErrNothingToSave   = errors.New("at least one minute of focus time is needed to save")
)

// PromptKind says why the engine is waiting for a decision.
type PromptKind string

const (
	PromptPhaseEnd      PromptKind = "phase-end"
	PromptReminder      PromptKind = "reminder"
	PromptCycleComplete PromptKind = "cycle-complete"
)

type Prompt struct {
	Phase store.Phase
	Kind  PromptKind
}

// Status is the coarse state derived from State.
type Status int

const (
	StatusIdle Status = iota
	StatusPaused
	StatusCounting
	StatusOvertime
	StatusPrompt
	StatusChoice
	StatusStopConfirm
)

var statusNames = map[Status]string{
	StatusIdle:        "IDLE",
	StatusPaused:      "PAUSED",
	StatusCounting:    "COUNTING",
	StatusOvertime:    "OVERTIME",
	StatusPrompt:      "WAITING",
	StatusChoice:      "CHOOSING",
	StatusStopConfirm: "STOPPING",
}

func (s Status) String() string { return statusNames[s] }

// State is the full engine state. Values returned by Engine.State are
// snapshots and must not be mutated.
type State struct {
	Phase           store.Phase
	IsActive        bool
	TimeLeft        int64 // seconds
	IsOvertime      bool
	OvertimeSeconds int64
	NextReminderAt  int64 // overtime seconds

	SessionStart *time.Time
	LiveID       string
	Acc          store.PhaseDurations

	Category    string
	Description string

	Prompt              *Prompt
	PendingNextPhase    *store.Phase
	PendingPromptBackup *Prompt
	PendingResume       bool // clock was running when the choice opened

	StopConfirm     bool
	PendingSettings *store.Settings
}

// Recorder turns an accumulated recording into a persisted log.
type Recorder interface {
	Finalize(req logbook.FinalizeRequest) (*store.LogEntry, error)
}

type Config struct {
	ReminderInterval time.Duration
	Clock            func() time.Time
}

type Engine struct {
	st       State
	settings store.Settings
	rec      Recorder
	now      func() time.Time
	reminder int64
}

func New(rec Recorder, settings store.Settings, cfg Config) *Engine {
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = DefaultReminderInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	e := &Engine{
		settings: settings,
		rec:      rec,
		now:      cfg.Clock,
		reminder: int64(cfg.ReminderInterval / time.Second),
	}
	e.reset()
	return e
}

// State returns a snapshot of the engine state.
func (e *Engine) State() State { return e.st }

func (e *Engine) Settings() store.Settings { return e.settings }

// ReminderInterval returns the overtime reminder period in seconds.
func (e *Engine) ReminderInterval() int64 { return e.reminder }

func (e *Engine) Status() Status {
	s := e.st
	switch {
	case s.StopConfirm:
		return StatusStopConfirm
	case s.PendingNextPhase != nil:
		return StatusChoice
	case s.Prompt != nil:
		return StatusPrompt
	case s.IsOvertime && s.IsActive:
		return StatusOvertime
	case s.IsActive:
		return StatusCounting
	case s.SessionStart != nil || s.IsOvertime:
		return StatusPaused
	}
	return StatusIdle
}

// Running reports whether the clock should be ticking.
func (e *Engine) Running() bool { return e.st.IsActive }

// DisplayTime returns the seconds to show: remaining time while counting
// down, elapsed overtime once the nominal duration is used up.
func (e *Engine) DisplayTime() (secs int64, overtime bool) {
	if e.st.IsOvertime {
		return e.st.OvertimeSeconds, true
	}
	return e.st.TimeLeft, false
}

// IsCurrentlyRecording reports whether leaving the phase would lose elapsed time.
func (e *Engine) IsCurrentlyRecording() bool {
	return e.st.IsActive || e.st.IsOvertime || e.st.TimeLeft < e.nominal(e.st.Phase)
}

func (e *Engine) nominal(p store.Phase) int64 {
	if p == store.PhaseRest {
		return e.settings.RestDuration
	}
	return e.settings.WorkDuration
}

func (e *Engine) blocked() bool {
	return e.st.Prompt != nil || e.st.PendingNextPhase != nil || e.st.StopConfirm
}

// SetTask sets the category and description for the next saved log.
func (e *Engine) SetTask(category, description string) {
	e.st.Category = category
	e.st.Description = description
}

// Start toggles between counting and paused.
func (e *Engine) Start() []Effect {
	if e.blocked() {
		return nil
	}
	if e.st.IsActive {
		e.st.IsActive = false
		return []Effect{hapticEffect()}
	}
	e.beginSession()
	e.st.IsActive = true
	return []Effect{hapticEffect()}
}

func (e *Engine) beginSession() {
	if e.st.SessionStart != nil {
		return
	}
	now := e.now()
	e.st.SessionStart = &now
	e.st.Acc = store.PhaseDurations{}
	e.st.LiveID = uuid.NewString()
}

// Tick advances the clock by one second.
func (e *Engine) Tick() []Effect {
	s := &e.st
	if !s.IsActive {
		return nil
	}
	if s.Phase == store.PhaseRest {
		s.Acc.Rest++
	} else {
		s.Acc.Work++
	}

	if s.IsOvertime {
		s.OvertimeSeconds++
		if s.Prompt != nil || s.PendingNextPhase != nil || s.OvertimeSeconds < s.NextReminderAt {
			return nil
		}
		s.Prompt = &Prompt{Phase: s.Phase, Kind: PromptReminder}
		log.Debug("reminder due", "phase", s.Phase, "overtime", s.OvertimeSeconds)
		return []Effect{notifyEffect(reminderText(s.Phase, s.OvertimeSeconds))}
	}

	s.TimeLeft--
	if s.TimeLeft > 0 {
		return nil
	}
	s.TimeLeft = 0
	s.IsActive = false
	s.IsOvertime = false
	s.NextReminderAt = e.reminder
	kind := PromptPhaseEnd
	if s.Phase == store.PhaseRest {
		kind = PromptCycleComplete
	}
	s.Prompt = &Prompt{Phase: s.Phase, Kind: kind}
	log.Debug("phase ended", "phase", s.Phase, "kind", kind)
	return []Effect{notifyEffect(boundaryText(kind))}
}

func boundaryText(kind PromptKind) (string, string) {
	if kind == PromptCycleComplete {
		return "Break over", "Cycle complete. Ready to focus again?"
	}
	return "Focus session complete", "Time for a break."
}

func reminderText(p store.Phase, overtime int64) (string, string) {
	label := "Focus"
	if p == store.PhaseRest {
		label = "Break"
	}
	return "Still going", fmt.Sprintf("%s overtime: %s", label, timeutil.FormatMinutes(timeutil.RoundMinutes(overtime)))
}

// ContinuePhase answers a prompt by staying in the current phase in overtime.
func (e *Engine) ContinuePhase() []Effect {
	s := &e.st
	if s.Prompt == nil {
		return nil
	}
	if !s.IsOvertime {
		s.IsOvertime = true
		s.OvertimeSeconds = 0
		s.NextReminderAt = e.reminder
	} else {
		s.NextReminderAt = s.OvertimeSeconds + e.reminder
	}
	s.Prompt = nil
	s.IsActive = true
	return nil
}

// AdvancePhase moves to the other phase. With elapsed time at stake the user
// first chooses whether the current log carries over. Also usable without a
// prompt to skip the rest of a phase.
func (e *Engine) AdvancePhase() []Effect {
	s := &e.st
	if s.PendingNextPhase != nil || s.StopConfirm {
		return nil
	}
	next := s.Phase.Opposite()
	if !e.IsCurrentlyRecording() {
		return e.switchPhase(next, true)
	}
	s.PendingNextPhase = &next
	s.PendingPromptBackup = s.Prompt
	s.PendingResume = s.IsActive
	s.Prompt = nil
	if !s.IsOvertime {
		// the countdown must not reach zero while the choice is open
		s.IsActive = false
	}
	return nil
}

// SaveAndExit answers a prompt by saving the log and returning to idle.
func (e *Engine) SaveAndExit() ([]Effect, error) {
	if e.st.Prompt == nil {
		return nil, nil
	}
	entry, err := e.finalize(store.PhaseWork, false)
	if err != nil {
		return []Effect{noticeEffect(err.Error(), true)}, err
	}
	e.reset()
	return []Effect{savedEffect(entry), noticeEffect(savedText(entry), false)}, nil
}

// ContinueLog switches phase and keeps accumulating into the same log.
func (e *Engine) ContinueLog() []Effect {
	if e.st.PendingNextPhase == nil {
		return nil
	}
	return e.switchPhase(*e.st.PendingNextPhase, true)
}

// StartNewLog saves the current log automatically, then switches phase with a
// fresh recording.
func (e *Engine) StartNewLog() ([]Effect, error) {
	if e.st.PendingNextPhase == nil {
		return nil, nil
	}
	next := *e.st.PendingNextPhase
	var effects []Effect
	if e.st.SessionStart != nil {
		entry, err := e.finalize(e.st.Phase, true)
		if err != nil {
			return []Effect{noticeEffect(err.Error(), true)}, err
		}
		if entry == nil {
			effects = append(effects, noticeEffect("Session under a minute, not saved", false))
		} else {
			effects = append(effects, savedEffect(entry), noticeEffect(savedText(entry), false))
		}
	}
	e.clearSession()
	return append(effects, e.switchPhase(next, true)...), nil
}

// CancelChoice closes the continuation choice and restores the prompt it
// replaced.
func (e *Engine) CancelChoice() []Effect {
	s := &e.st
	if s.PendingNextPhase == nil {
		return nil
	}
	s.Prompt = s.PendingPromptBackup
	s.IsActive = s.PendingResume
	s.PendingNextPhase = nil
	s.PendingPromptBackup = nil
	s.PendingResume = false
	return nil
}

// Stop pauses and asks whether to save or discard the recording.
func (e *Engine) Stop() []Effect {
	s := &e.st
	if s.SessionStart == nil || e.blocked() {
		return nil
	}
	s.IsActive = false
	s.StopConfirm = true
	return []Effect{hapticEffect()}
}

// ConfirmSave saves the stopped recording. Rest-only recordings cannot be
// saved this way.
func (e *Engine) ConfirmSave() ([]Effect, error) {
	if !e.st.StopConfirm {
		return nil, nil
	}
	if e.st.Acc.Work < logbook.MinDuration {
		return []Effect{noticeEffect(ErrNothingToSave.Error(), true)}, ErrNothingToSave
	}
	entry, err := e.finalize(e.st.Phase, false)
	if err != nil {
		return []Effect{noticeEffect(err.Error(), true)}, err
	}
	e.reset()
	return []Effect{savedEffect(entry), noticeEffect(savedText(entry), false)}, nil
}

// Discard throws the recording away and returns to idle.
func (e *Engine) Discard() []Effect {
	if !e.st.StopConfirm {
		return nil
	}
	e.reset()
	return []Effect{noticeEffect("Session discarded", false)}
}

// CancelStop closes the stop confirmation. The timer stays paused.
func (e *Engine) CancelStop() []Effect {
	e.st.StopConfirm = false
	return nil
}

// RequestSettings changes the nominal durations. While a recording is in
// progress the change is held until ApplyPendingSettings or KeepSession.
func (e *Engine) RequestSettings(next store.Settings) ([]Effect, error) {
	if next.WorkDuration < store.MinPhaseDuration || next.RestDuration < store.MinPhaseDuration {
		return []Effect{noticeEffect(ErrInvalidSettings.Error(), true)}, ErrInvalidSettings
	}
	if e.st.SessionStart != nil {
		e.st.PendingSettings = &next
		return []Effect{noticeEffect("A session is running: apply to discard it, or keep it", false)}, nil
	}
	e.settings = next
	e.reset()
	return []Effect{settingsEffect(next)}, nil
}

// ApplyPendingSettings applies held settings, discarding the running session.
func (e *Engine) ApplyPendingSettings() []Effect {
	if e.st.PendingSettings == nil {
		return nil
	}
	e.settings = *e.st.PendingSettings
	e.reset()
	log.Info("settings applied, session discarded", "work", e.settings.WorkDuration, "rest", e.settings.RestDuration)
	return []Effect{settingsEffect(e.settings), noticeEffect("Settings applied", false)}
}

// KeepSession drops held settings and keeps the running session.
func (e *Engine) KeepSession() []Effect {
	if e.st.PendingSettings == nil {
		return nil
	}
	e.st.PendingSettings = nil
	return []Effect{noticeEffect("Settings unchanged", false)}
}

func (e *Engine) switchPhase(target store.Phase, autoStart bool) []Effect {
	s := &e.st
	s.Phase = target
	s.TimeLeft = e.nominal(target)
	s.IsOvertime = false
	s.OvertimeSeconds = 0
	s.IsActive = false
	s.NextReminderAt = e.reminder
	s.Prompt = nil
	s.PendingNextPhase = nil
	s.PendingPromptBackup = nil
	s.PendingResume = false
	if autoStart {
		e.beginSession()
		s.IsActive = true
	}
	return []Effect{hapticEffect()}
}

func (e *Engine) finalize(hint store.Phase, automatic bool) (*store.LogEntry, error) {
	if e.st.SessionStart == nil {
		return nil, ErrNothingToSave
	}
	return e.rec.Finalize(logbook.FinalizeRequest{
		LiveID:      e.st.LiveID,
		Category:    e.st.Category,
		Description: e.st.Description,
		Phase:       hint,
		Start:       *e.st.SessionStart,
		End:         e.now(),
		Acc:         e.st.Acc,
		Automatic:   automatic,
	})
}

func (e *Engine) clearSession() {
	e.st.SessionStart = nil
	e.st.Acc = store.PhaseDurations{}
	e.st.LiveID = ""
}

// reset returns to idle in the work phase, keeping the task.
func (e *Engine) reset() {
	e.st = State{
		Phase:          store.PhaseWork,
		TimeLeft:       e.settings.WorkDuration,
		NextReminderAt: e.reminder,
		Category:       e.st.Category,
		Description:    e.st.Description,
	}
}

func savedText(entry *store.LogEntry) string {
	return fmt.Sprintf("Saved %s (%s)", entry.Description, timeutil.FormatDuration(entry.Duration))
}
