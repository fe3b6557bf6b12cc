package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type harness struct {
	e     *Engine
	book  *logbook.Logbook
	clock *fakeClock
}

func newHarness(t *testing.T, settings store.Settings) *harness {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	book := logbook.New(s)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	e := New(book, settings, Config{ReminderInterval: 10 * time.Minute, Clock: clock.Now})
	return &harness{e: e, book: book, clock: clock}
}

func (h *harness) tick(n int) []Effect {
	var out []Effect
	for i := 0; i < n; i++ {
		h.clock.t = h.clock.t.Add(time.Second)
		out = append(out, h.e.Tick()...)
	}
	return out
}

// toPhaseEnd starts a work phase and runs it to its prompt.
func (h *harness) toPhaseEnd(t *testing.T) {
	t.Helper()
	h.e.Start()
	h.tick(int(h.e.Settings().WorkDuration))
	if h.e.Status() != StatusPrompt {
		t.Fatalf("status = %v, want WAITING", h.e.Status())
	}
}

var defaults = store.Settings{WorkDuration: 1500, RestDuration: 300}

// ============================================================
// End-to-end scenarios
// ============================================================

func TestWorkPhaseEndsWithPrompt(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.Start()

	effects := h.tick(1499)
	if len(effects) != 0 {
		t.Fatalf("no effects expected before the boundary, got %v", effects)
	}
	effects = h.tick(1)

	st := h.e.State()
	if st.Prompt == nil || st.Prompt.Phase != store.PhaseWork || st.Prompt.Kind != PromptPhaseEnd {
		t.Fatalf("prompt = %+v, want work/phase-end", st.Prompt)
	}
	if st.TimeLeft != 0 {
		t.Fatalf("TimeLeft = %d, want 0", st.TimeLeft)
	}
	if st.Acc != (store.PhaseDurations{Work: 1500, Rest: 0}) {
		t.Fatalf("Acc = %+v", st.Acc)
	}
	if st.IsActive || st.IsOvertime {
		t.Fatal("clock must stop at the boundary")
	}
	if _, ok := Find(effects, EffectNotify); !ok {
		t.Fatal("expected a notification at the boundary")
	}

	// Further ticks are ignored while waiting.
	h.tick(5)
	if h.e.State().Acc.Work != 1500 {
		t.Fatal("accumulator must stay frozen while a phase-end prompt is open")
	}
}

func TestAdvanceAndStartNewLog(t *testing.T) {
	h := newHarness(t, defaults)
	h.toPhaseEnd(t)
	firstLive := h.e.State().LiveID

	h.e.AdvancePhase()
	st := h.e.State()
	if h.e.Status() != StatusChoice {
		t.Fatalf("status = %v, want CHOOSING", h.e.Status())
	}
	if st.PendingNextPhase == nil || *st.PendingNextPhase != store.PhaseRest {
		t.Fatalf("PendingNextPhase = %v, want rest", st.PendingNextPhase)
	}

	effects, err := h.e.StartNewLog()
	if err != nil {
		t.Fatal(err)
	}
	saved, ok := Find(effects, EffectLogSaved)
	if !ok {
		t.Fatal("expected a saved log")
	}
	if saved.Entry.Duration != 1500 {
		t.Fatalf("duration = %d, want 1500", saved.Entry.Duration)
	}
	if *saved.Entry.PhaseDurations != (store.PhaseDurations{Work: 1500, Rest: 0}) {
		t.Fatalf("split = %+v", saved.Entry.PhaseDurations)
	}
	if saved.Entry.ID != firstLive {
		t.Fatal("saved log should carry the live id")
	}
	if !saved.Entry.EndTime.Equal(h.clock.t) {
		t.Fatalf("end = %v, want %v", saved.Entry.EndTime, h.clock.t)
	}

	st = h.e.State()
	if st.Phase != store.PhaseRest || st.TimeLeft != 300 {
		t.Fatalf("phase = %s timeLeft = %d, want rest/300", st.Phase, st.TimeLeft)
	}
	if st.IsOvertime || !st.IsActive {
		t.Fatal("new phase should auto-start without overtime")
	}
	if st.Acc != (store.PhaseDurations{}) || st.LiveID == firstLive {
		t.Fatal("a fresh recording should begin")
	}
	if len(h.book.All()) != 1 {
		t.Fatalf("expected 1 log, got %d", len(h.book.All()))
	}
}

func TestRestPhaseEndsWithCycleComplete(t *testing.T) {
	h := newHarness(t, defaults)

	// Nothing recorded yet, so advancing switches straight away.
	h.e.AdvancePhase()
	if h.e.State().Phase != store.PhaseRest || !h.e.Running() {
		t.Fatal("expected a running rest phase")
	}
	effects := h.tick(300)
	st := h.e.State()
	if st.Prompt == nil || st.Prompt.Kind != PromptCycleComplete {
		t.Fatalf("prompt = %+v, want cycle-complete", st.Prompt)
	}
	n, _ := Find(effects, EffectNotify)
	if n.Title != "Break over" {
		t.Fatalf("title = %q", n.Title)
	}
	if st.Acc.Rest != 300 || st.Acc.Work != 0 {
		t.Fatalf("Acc = %+v", st.Acc)
	}
}

func TestContinueLogCarriesRecording(t *testing.T) {
	h := newHarness(t, defaults)
	h.toPhaseEnd(t)
	before := h.e.State()

	h.e.AdvancePhase()
	effects := h.e.ContinueLog()
	if _, ok := Find(effects, EffectLogSaved); ok {
		t.Fatal("continuing must not save")
	}
	st := h.e.State()
	if st.Phase != store.PhaseRest || st.TimeLeft != 300 {
		t.Fatalf("phase = %s timeLeft = %d", st.Phase, st.TimeLeft)
	}
	if st.LiveID != before.LiveID || !st.SessionStart.Equal(*before.SessionStart) {
		t.Fatal("live id and session start should carry over")
	}

	h.tick(300)
	effects, err := h.e.SaveAndExit()
	if err != nil {
		t.Fatal(err)
	}
	saved, _ := Find(effects, EffectLogSaved)
	if saved.Entry.Duration != 1800 {
		t.Fatalf("duration = %d, want 1800", saved.Entry.Duration)
	}
	if *saved.Entry.PhaseDurations != (store.PhaseDurations{Work: 1500, Rest: 300}) {
		t.Fatalf("split = %+v", saved.Entry.PhaseDurations)
	}
	if saved.Entry.Category != "Work" {
		t.Fatalf("category = %q, want the work default", saved.Entry.Category)
	}
	if h.e.Status() != StatusIdle || h.e.State().Phase != store.PhaseWork {
		t.Fatal("save and exit should return to idle work")
	}
}

func TestCancelChoiceRestoresPrompt(t *testing.T) {
	h := newHarness(t, defaults)
	h.toPhaseEnd(t)

	h.e.AdvancePhase()
	h.e.CancelChoice()

	st := h.e.State()
	if st.Prompt == nil || st.Prompt.Kind != PromptPhaseEnd {
		t.Fatalf("prompt = %+v, want the phase-end prompt back", st.Prompt)
	}
	if st.PendingNextPhase != nil || st.PendingPromptBackup != nil {
		t.Fatal("choice state should be cleared")
	}
	if st.IsActive {
		t.Fatal("clock should stay stopped")
	}
}

// ============================================================
// Overtime and reminders
// ============================================================

func TestOvertimeReminder(t *testing.T) {
	h := newHarness(t, defaults)
	h.toPhaseEnd(t)

	h.e.ContinuePhase()
	st := h.e.State()
	if !st.IsOvertime || !st.IsActive || st.OvertimeSeconds != 0 || st.NextReminderAt != 600 {
		t.Fatalf("unexpected overtime state: %+v", st)
	}

	if effects := h.tick(599); len(effects) != 0 {
		t.Fatalf("no reminder expected yet, got %v", effects)
	}
	effects := h.tick(1)
	if _, ok := Find(effects, EffectNotify); !ok {
		t.Fatal("expected a reminder notification")
	}
	st = h.e.State()
	if st.Prompt == nil || st.Prompt.Kind != PromptReminder {
		t.Fatalf("prompt = %+v, want reminder", st.Prompt)
	}

	// Overtime keeps counting while the reminder is open, without a second one.
	if effects := h.tick(700); len(effects) != 0 {
		t.Fatalf("second reminder fired while one is pending: %v", effects)
	}
	st = h.e.State()
	if st.OvertimeSeconds != 1300 || st.Acc.Work != 2800 {
		t.Fatalf("overtime = %d acc = %+v", st.OvertimeSeconds, st.Acc)
	}

	h.e.ContinuePhase()
	if got := h.e.State().NextReminderAt; got != 1900 {
		t.Fatalf("NextReminderAt = %d, want 1900", got)
	}
}

func TestReminderSuppressedDuringChoice(t *testing.T) {
	h := newHarness(t, defaults)
	h.toPhaseEnd(t)
	h.e.ContinuePhase()
	h.tick(100)

	h.e.AdvancePhase()
	if h.e.State().PendingPromptBackup != nil {
		t.Fatal("no prompt was open, backup should be nil")
	}
	if !h.e.Running() {
		t.Fatal("overtime keeps running while choosing")
	}
	if effects := h.tick(1000); len(effects) != 0 {
		t.Fatalf("reminder fired during a pending choice: %v", effects)
	}

	h.e.ContinueLog()
	st := h.e.State()
	if st.TimeLeft != 300 || st.IsOvertime || st.OvertimeSeconds != 0 {
		t.Fatalf("phase switch did not reset: %+v", st)
	}
	if st.Acc.Work != 2600 {
		t.Fatalf("Acc.Work = %d, want 2600", st.Acc.Work)
	}
}

func TestSkipPausesCountdownWhileChoosing(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.Start()
	h.tick(1000)

	h.e.AdvancePhase()
	if h.e.Running() {
		t.Fatal("countdown should pause while choosing")
	}
	h.e.CancelChoice()
	st := h.e.State()
	if !st.IsActive || st.Prompt != nil {
		t.Fatal("cancel should resume the countdown with no prompt")
	}
}

// ============================================================
// Start / stop
// ============================================================

func TestStartToggles(t *testing.T) {
	h := newHarness(t, defaults)

	if effects := h.e.Start(); len(effects) != 1 || effects[0].Kind != EffectHaptic {
		t.Fatalf("expected a haptic cue, got %v", effects)
	}
	start := h.e.State().SessionStart
	h.tick(10)
	h.e.Start()
	if h.e.Status() != StatusPaused {
		t.Fatalf("status = %v, want PAUSED", h.e.Status())
	}
	h.tick(10)
	h.e.Start()
	h.tick(10)

	st := h.e.State()
	if st.Acc.Work != 20 || st.TimeLeft != 1480 {
		t.Fatalf("acc = %+v timeLeft = %d", st.Acc, st.TimeLeft)
	}
	if !st.SessionStart.Equal(*start) {
		t.Fatal("resuming must keep the session start")
	}
}

func TestStartIgnoredWhilePrompt(t *testing.T) {
	h := newHarness(t, defaults)
	h.toPhaseEnd(t)
	if effects := h.e.Start(); effects != nil {
		t.Fatal("start should be ignored while a prompt is open")
	}
	if h.e.Running() {
		t.Fatal("clock must not resume")
	}
}

func TestStopConfirmSave(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.Start()
	h.tick(120)

	h.e.Stop()
	if h.e.Status() != StatusStopConfirm || h.e.Running() {
		t.Fatal("stop should pause and ask for confirmation")
	}
	effects, err := h.e.ConfirmSave()
	if err != nil {
		t.Fatal(err)
	}
	saved, _ := Find(effects, EffectLogSaved)
	if saved.Entry == nil || saved.Entry.Duration != 120 {
		t.Fatalf("saved = %+v", saved.Entry)
	}
	if h.e.Status() != StatusIdle {
		t.Fatalf("status = %v, want IDLE", h.e.Status())
	}
}

func TestStopSaveNeedsFocusTime(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.Start()
	h.tick(30)
	h.e.Stop()

	_, err := h.e.ConfirmSave()
	if !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("expected ErrNothingToSave, got %v", err)
	}
	st := h.e.State()
	if !st.StopConfirm || st.Acc.Work != 30 {
		t.Fatal("rejected save must not reset anything")
	}

	h.e.Discard()
	st = h.e.State()
	if h.e.Status() != StatusIdle || st.SessionStart != nil || st.TimeLeft != 1500 {
		t.Fatalf("discard should reset to idle: %+v", st)
	}
	if len(h.book.All()) != 0 {
		t.Fatal("discard must not write a log")
	}
}

func TestStopRestOnlyRejected(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.AdvancePhase()
	h.tick(200)
	h.e.Stop()
	if _, err := h.e.ConfirmSave(); !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("rest-only recording should be rejected, got %v", err)
	}
}

func TestCancelStopStaysPaused(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.Start()
	h.tick(5)
	h.e.Stop()
	h.e.CancelStop()
	if h.e.Status() != StatusPaused {
		t.Fatalf("status = %v, want PAUSED", h.e.Status())
	}
}

func TestSaveAndExitTooShort(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 30, RestDuration: 60})
	h.toPhaseEnd(t)

	_, err := h.e.SaveAndExit()
	if !errors.Is(err, logbook.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if h.e.Status() != StatusPrompt {
		t.Fatal("rejected save must leave the prompt open")
	}
}

func TestStartNewLogTooShort(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.Start()
	h.tick(30)
	h.e.AdvancePhase()

	effects, err := h.e.StartNewLog()
	if err != nil {
		t.Fatalf("automatic save must not fail: %v", err)
	}
	if _, ok := Find(effects, EffectLogSaved); ok {
		t.Fatal("nothing should be saved")
	}
	n, ok := Find(effects, EffectNotice)
	if !ok || n.IsError {
		t.Fatalf("expected a not-saved notice, got %+v", effects)
	}
	if h.e.State().Phase != store.PhaseRest {
		t.Fatal("phase should still switch")
	}
	if len(h.book.All()) != 0 {
		t.Fatal("store must be unchanged")
	}
}

func TestTaskUsedForLog(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.SetTask("Study", "Chapter 3")
	h.e.Start()
	h.tick(90)
	h.e.Stop()
	effects, _ := h.e.ConfirmSave()
	saved, _ := Find(effects, EffectLogSaved)
	if saved.Entry.Category != "Study" || saved.Entry.Description != "Chapter 3" {
		t.Fatalf("entry = %+v", saved.Entry)
	}
	if h.e.State().Category != "Study" {
		t.Fatal("task should survive a reset")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsWhileIdle(t *testing.T) {
	h := newHarness(t, defaults)
	effects, err := h.e.RequestSettings(store.Settings{WorkDuration: 3000, RestDuration: 600})
	if err != nil {
		t.Fatal(err)
	}
	applied, ok := Find(effects, EffectSettingsApplied)
	if !ok || applied.Settings.WorkDuration != 3000 {
		t.Fatalf("expected applied settings, got %v", effects)
	}
	if h.e.State().TimeLeft != 3000 {
		t.Fatalf("TimeLeft = %d, want 3000", h.e.State().TimeLeft)
	}
}

func TestSettingsValidation(t *testing.T) {
	h := newHarness(t, defaults)
	_, err := h.e.RequestSettings(store.Settings{WorkDuration: 59, RestDuration: 300})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	if h.e.Settings() != defaults {
		t.Fatal("settings must be unchanged")
	}
}

func TestSettingsWhileRecording(t *testing.T) {
	h := newHarness(t, defaults)
	h.e.Start()
	h.tick(10)

	next := store.Settings{WorkDuration: 600, RestDuration: 120}
	effects, err := h.e.RequestSettings(next)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := Find(effects, EffectSettingsApplied); ok {
		t.Fatal("settings must not apply while recording")
	}
	if h.e.State().PendingSettings == nil || h.e.Settings() != defaults {
		t.Fatal("expected a pending change")
	}

	h.e.KeepSession()
	if h.e.State().PendingSettings != nil || !h.e.Running() {
		t.Fatal("keep should drop the change and leave the session running")
	}

	h.e.RequestSettings(next)
	effects = h.e.ApplyPendingSettings()
	if _, ok := Find(effects, EffectSettingsApplied); !ok {
		t.Fatal("expected applied settings")
	}
	st := h.e.State()
	if h.e.Status() != StatusIdle || st.TimeLeft != 600 || st.PendingSettings != nil {
		t.Fatalf("apply should reset to idle with new durations: %+v", st)
	}
	if len(h.book.All()) != 0 {
		t.Fatal("applying settings must not save the session")
	}
}

// ============================================================
// Ticker
// ============================================================

// loopSim drives the engine the way the UI does: every live loop delivers
// one tick per second, and stale loops are dropped on delivery.
type loopSim struct {
	e       *Engine
	t       Ticker
	pending []int
	applied int
}

func (l *loopSim) sync() {
	if gen, start := l.t.Sync(l.e.Running()); start {
		l.pending = append(l.pending, gen)
	}
}

func (l *loopSim) second() {
	due := l.pending
	l.pending = nil
	for _, gen := range due {
		if !l.t.Accept(gen) {
			continue
		}
		l.applied++
		l.e.Tick()
		l.sync()
		if l.t.Accept(gen) {
			l.pending = append(l.pending, gen)
		}
	}
}

func TestTickLoopNeverDoubleCounts(t *testing.T) {
	h := newHarness(t, defaults)
	sim := &loopSim{e: h.e}

	// Toggle pattern per second: true means press start/pause before the tick.
	pattern := []bool{true, false, false, true, true, true, false, true, false, false, true, true, false, false, false}
	running := 0
	for i := 0; i < 60; i++ {
		if pattern[i%len(pattern)] {
			h.e.Start()
			sim.sync()
		}
		if h.e.Running() {
			running++
		}
		sim.second()
	}

	if sim.applied != running {
		t.Fatalf("applied %d ticks, clock ran for %d seconds", sim.applied, running)
	}
	if got := h.e.State().Acc.Work; got != int64(running) {
		t.Fatalf("Acc.Work = %d, want %d", got, running)
	}
}

func TestTickerStopsAtBoundary(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 60, RestDuration: 60})
	sim := &loopSim{e: h.e}
	h.e.Start()
	sim.sync()
	for i := 0; i < 100; i++ {
		sim.second()
	}
	if sim.applied != 60 || sim.t.Live() {
		t.Fatalf("applied = %d live = %v, want 60 and stopped", sim.applied, sim.t.Live())
	}
}

func TestTickerSync(t *testing.T) {
	var tk Ticker
	gen, start := tk.Sync(true)
	if !start {
		t.Fatal("expected a loop to start")
	}
	if _, again := tk.Sync(true); again {
		t.Fatal("a second loop must not start while one is live")
	}
	tk.Sync(false)
	if tk.Accept(gen) {
		t.Fatal("stopped loop must be rejected")
	}
	gen2, _ := tk.Sync(true)
	if gen2 == gen || !tk.Accept(gen2) || tk.Accept(gen) {
		t.Fatal("only the newest loop is accepted")
	}
}

func TestStatusString(t *testing.T) {
	if StatusOvertime.String() != "OVERTIME" || StatusIdle.String() != "IDLE" {
		t.Fatal("unexpected status names")
	}
	if EffectNotify.String() != "notify" {
		t.Fatal("unexpected effect name")
	}
}
