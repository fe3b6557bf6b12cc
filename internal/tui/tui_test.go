package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/pomolog/internal/config"
	"github.com/sadopc/pomolog/internal/engine"
	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/notify"
	"github.com/sadopc/pomolog/internal/stats"
	"github.com/sadopc/pomolog/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeNotifier struct {
	titles []string
	perm   notify.Permission
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, title, _ string) (notify.Permission, error) {
	f.titles = append(f.titles, title)
	return f.perm, f.err
}

type harness struct {
	store *store.Store
	book  *logbook.Logbook
	note  *fakeNotifier
	now   time.Time
}

func newHarness(t *testing.T, settings store.Settings) *harness {
	t.Helper()
	s := newTestStore(t)
	if err := s.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}
	b := logbook.New(s)
	if err := b.Load(); err != nil {
		t.Fatal(err)
	}
	return &harness{
		store: s,
		book:  b,
		note:  &fakeNotifier{perm: notify.PermissionGranted},
		now:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local),
	}
}

func (h *harness) app() App {
	return NewApp(Deps{
		Store:    h.store,
		Book:     h.book,
		Config:   config.Default(),
		Notifier: h.note,
		Clock:    func() time.Time { return h.now },
	})
}

func send(a App, msg tea.Msg) (App, tea.Cmd) {
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func press(a App, k string) App {
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	a, _ = send(a, msg)
	return a
}

// tick delivers n ticks from loop gen, advancing the fake clock with them.
func (h *harness) tick(a App, gen, n int) App {
	for i := 0; i < n; i++ {
		h.now = h.now.Add(time.Second)
		a, _ = send(a, tickMsg{gen: gen})
	}
	return a
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := h.app()

	if app.activeView != viewTimer {
		t.Fatal("default view should be the timer")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("overlays should be hidden by default")
	}
	if app.engine.Status() != engine.StatusIdle {
		t.Fatalf("status = %s, want IDLE", app.engine.Status())
	}
	if app.ticker.Live() {
		t.Fatal("no tick loop should run before start")
	}
}

func TestAppLoadsStoredSettings(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 600, RestDuration: 120})
	app := h.app()
	if got := app.engine.State().TimeLeft; got != 600 {
		t.Fatalf("TimeLeft = %d, want 600", got)
	}
}

func TestAppLoadingState(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	if got := h.app().View(); got != "Loading..." {
		t.Fatalf("view before sizing = %q", got)
	}
}

func TestAppViewSwitching(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := h.app()

	app = press(app, "2")
	if app.activeView != viewLogs {
		t.Fatal("2 should open logs")
	}
	app = press(app, "3")
	if app.activeView != viewStats {
		t.Fatal("3 should open stats")
	}
	app = press(app, "4")
	if app.activeView != viewSettings {
		t.Fatal("4 should open settings")
	}
	app = press(app, "tab")
	if app.activeView != viewTimer {
		t.Fatal("tab should wrap around to the timer")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app, _ := send(h.app(), tea.WindowSizeMsg{Width: 120, Height: 40})

	view := app.View()
	for _, name := range append(viewNames, "pomolog", "FOCUS", "25:00") {
		if !strings.Contains(view, name) {
			t.Errorf("view missing %q", name)
		}
	}
}

func TestAppStatusMessage(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app, _ := send(h.app(), tea.WindowSizeMsg{Width: 120, Height: 40})
	app, _ = send(app, statusMsg{text: "hello there", isError: true})

	if app.status != "hello there" || !app.statusErr {
		t.Fatalf("status = %q err=%v", app.status, app.statusErr)
	}
	if !strings.Contains(app.renderFooter(), "hello there") {
		t.Fatal("footer should show the status")
	}
}

func TestAppPermissionInFooter(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app, _ := send(h.app(), tea.WindowSizeMsg{Width: 160, Height: 40})
	app, _ = send(app, notifiedMsg{perm: notify.PermissionDenied, err: errors.New("blocked")})

	if app.permission != notify.PermissionDenied {
		t.Fatalf("permission = %q", app.permission)
	}
	if !strings.Contains(app.renderFooter(), "notifications denied") {
		t.Fatal("footer should show a denied permission")
	}
}

func TestAppHelpToggle(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), "?")
	if !app.showHelp || !app.help.ShowAll {
		t.Fatal("? should show full help")
	}
	app = press(app, "?")
	if app.showHelp {
		t.Fatal("? again should hide help")
	}
}

// ============================================================
// Timer and tick loop
// ============================================================

func TestStartBeginsTickLoop(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), " ")

	if !app.engine.Running() || !app.ticker.Live() {
		t.Fatal("space should start the engine and a tick loop")
	}
	app = h.tick(app, 1, 3)
	if got := app.engine.State().TimeLeft; got != 1497 {
		t.Fatalf("TimeLeft = %d, want 1497", got)
	}
}

func TestStaleTicksAreDropped(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), " ") // loop 1
	app = press(app, " ")      // pause, loop 1 retired
	app = press(app, " ")      // loop 3

	app = h.tick(app, 1, 5)
	if got := app.engine.State().TimeLeft; got != 1500 {
		t.Fatalf("stale loop advanced the clock: TimeLeft = %d", got)
	}
	app = h.tick(app, 3, 2)
	if got := app.engine.State().TimeLeft; got != 1498 {
		t.Fatalf("TimeLeft = %d, want 1498", got)
	}
}

func TestPauseStopsTickLoop(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), " ")
	app = press(app, " ")

	if app.engine.Running() || app.ticker.Live() {
		t.Fatal("pause should stop the loop")
	}
	if app.engine.Status() != engine.StatusPaused {
		t.Fatalf("status = %s, want PAUSED", app.engine.Status())
	}
}

func TestPhaseEndPromptAndSave(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 60, RestDuration: 60})
	app := press(h.app(), " ")
	app = h.tick(app, 1, 60)

	if app.engine.Status() != engine.StatusPrompt {
		t.Fatalf("status = %s, want WAITING", app.engine.Status())
	}
	if app.ticker.Live() {
		t.Fatal("the loop should stop at the phase boundary")
	}

	app = press(app, "s")
	if app.engine.Status() != engine.StatusIdle {
		t.Fatalf("status after save = %s", app.engine.Status())
	}
	logs := h.book.All()
	if len(logs) != 1 || logs[0].Duration != 60 {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestPromptContinueIntoOvertime(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 60, RestDuration: 60})
	app := press(h.app(), " ")
	app = h.tick(app, 1, 60)

	app = press(app, "c")
	if app.engine.Status() != engine.StatusOvertime || !app.ticker.Live() {
		t.Fatalf("status = %s live=%v", app.engine.Status(), app.ticker.Live())
	}
	app = h.tick(app, 3, 5)
	if secs, overtime := app.engine.DisplayTime(); !overtime || secs != 5 {
		t.Fatalf("display = %d overtime=%v", secs, overtime)
	}
}

func TestContinuationChoice(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 60, RestDuration: 60})
	app := press(h.app(), " ")
	app = h.tick(app, 1, 60)

	app = press(app, "n")
	if app.engine.Status() != engine.StatusChoice {
		t.Fatalf("status = %s, want CHOOSING", app.engine.Status())
	}

	app = press(app, "esc")
	if app.engine.Status() != engine.StatusPrompt {
		t.Fatal("esc should restore the prompt")
	}

	app = press(app, "n")
	app = press(app, "c")
	st := app.engine.State()
	if st.Phase != store.PhaseRest || !st.IsActive || st.Acc.Work != 60 {
		t.Fatalf("continue log state = %+v", st)
	}
	if len(h.book.All()) != 0 {
		t.Fatal("continuing the log must not save it")
	}
}

func TestStartNewLogSaves(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 60, RestDuration: 60})
	app := press(h.app(), " ")
	app = h.tick(app, 1, 60)
	app = press(app, "n")
	app = press(app, "n")

	if len(h.book.All()) != 1 {
		t.Fatal("starting a new log should save the previous one")
	}
	if st := app.engine.State(); st.Phase != store.PhaseRest || st.Acc.Work != 0 {
		t.Fatalf("new log state = %+v", st)
	}
}

func TestStopConfirmFlow(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), " ")
	app = h.tick(app, 1, 30)

	app = press(app, "x")
	if app.engine.Status() != engine.StatusStopConfirm {
		t.Fatalf("status = %s, want STOPPING", app.engine.Status())
	}
	app = press(app, "s")
	if app.engine.Status() != engine.StatusStopConfirm {
		t.Fatal("saving under a minute of focus should be rejected")
	}
	app = press(app, "d")
	if app.engine.Status() != engine.StatusIdle || len(h.book.All()) != 0 {
		t.Fatal("discard should reset without a log")
	}
}

func TestTimerKeysIgnoredWhilePrompting(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 60, RestDuration: 60})
	app := press(h.app(), " ")
	app = h.tick(app, 1, 60)

	app = press(app, " ")
	if app.engine.Status() != engine.StatusPrompt || app.engine.Running() {
		t.Fatal("space must not start the clock while a prompt is open")
	}
}

func TestFooterShowsClockOnOtherViews(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app, _ := send(h.app(), tea.WindowSizeMsg{Width: 160, Height: 40})
	app = press(app, " ")
	app = h.tick(app, 1, 5)
	app = press(app, "2")

	if !strings.Contains(app.renderFooter(), "FOCUS 24:55") {
		t.Fatalf("footer = %q", app.renderFooter())
	}
}

// ============================================================
// Pending settings
// ============================================================

func TestPendingSettingsKeep(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), " ")
	app = h.tick(app, 1, 10)

	if _, err := app.engine.RequestSettings(store.Settings{WorkDuration: 600, RestDuration: 120}); err != nil {
		t.Fatal(err)
	}
	app, _ = send(app, tea.WindowSizeMsg{Width: 160, Height: 40})
	if !strings.Contains(app.View(), "New durations waiting") {
		t.Fatal("a pending change should show a banner")
	}

	app = press(app, "r")
	if app.engine.State().PendingSettings != nil || !app.engine.Running() {
		t.Fatal("keep should drop the change and leave the session running")
	}
	if h.store.LoadSettings().WorkDuration != 1500 {
		t.Fatal("kept session must not persist new settings")
	}
}

func TestPendingSettingsApply(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), " ")
	app = h.tick(app, 1, 10)
	app.engine.RequestSettings(store.Settings{WorkDuration: 600, RestDuration: 120})

	app = press(app, "a")
	if app.engine.Status() != engine.StatusIdle || app.engine.State().TimeLeft != 600 {
		t.Fatalf("apply state = %+v", app.engine.State())
	}
	if app.ticker.Live() {
		t.Fatal("apply resets to idle and stops the loop")
	}
	if got := h.store.LoadSettings(); got.WorkDuration != 600 || got.RestDuration != 120 {
		t.Fatalf("persisted settings = %+v", got)
	}
}

// ============================================================
// Effects
// ============================================================

func TestEffectsNotify(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	fx := &effects{notifier: h.note, store: h.store}

	msg := fx.notify("Focus session complete", "Time for a break.")()
	got, ok := msg.(notifiedMsg)
	if !ok || got.perm != notify.PermissionGranted || got.err != nil {
		t.Fatalf("msg = %#v", msg)
	}
	if len(h.note.titles) != 1 || h.note.titles[0] != "Focus session complete" {
		t.Fatalf("titles = %v", h.note.titles)
	}
}

func TestEffectsSettingsPersisted(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	fx := &effects{notifier: notify.Disabled{}, store: h.store}

	fx.run([]engine.Effect{{Kind: engine.EffectSettingsApplied, Settings: store.Settings{WorkDuration: 900, RestDuration: 300}}})
	if got := h.store.LoadSettings(); got.WorkDuration != 900 {
		t.Fatalf("settings = %+v", got)
	}
}

func TestEffectsNoticeAndSaved(t *testing.T) {
	fx := &effects{notifier: notify.Disabled{}}

	if msg := fx.run([]engine.Effect{{Kind: engine.EffectNotice, Body: "Saved", IsError: false}})(); msg != (statusMsg{text: "Saved"}) {
		t.Fatalf("notice msg = %#v", msg)
	}
	if _, ok := fx.run([]engine.Effect{{Kind: engine.EffectLogSaved}})().(logsChangedMsg); !ok {
		t.Fatal("a saved log should refresh the log views")
	}
	if fx.run(nil) != nil {
		t.Fatal("no effects, no command")
	}
}

// ============================================================
// Logs view
// ============================================================

func addLog(t *testing.T, b *logbook.Logbook, date, start, end, desc string) *store.LogEntry {
	t.Helper()
	e, err := b.ManualInsert(logbook.ManualEntry{Date: date, Start: start, End: end, Description: desc})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestLogsViewListsLogs(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	addLog(t, h.book, "2024-01-01", "07:00", "07:30", "reading notes")

	app, _ := send(h.app(), tea.WindowSizeMsg{Width: 160, Height: 40})
	app = press(app, "2")
	app, _ = send(app, app.logs.refresh()())

	view := app.View()
	if !strings.Contains(view, "reading notes") || !strings.Contains(view, "00:30:00") {
		t.Fatalf("logs view = %s", view)
	}
}

func TestLogsDeleteNeedsConfirm(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	addLog(t, h.book, "2024-01-01", "07:00", "07:30", "a")

	app := press(h.app(), "2")
	app, _ = send(app, app.logs.refresh()())

	app = press(app, "d")
	app = press(app, "n")
	if len(h.book.All()) != 1 || app.logs.confirmDelete {
		t.Fatal("any key other than y cancels the delete")
	}

	app = press(app, "d")
	_, cmd := send(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if cmd == nil {
		t.Fatal("confirm should return a delete command")
	}
	if msg := cmd(); msg != (logsChangedMsg{}) {
		t.Fatalf("delete msg = %#v", msg)
	}
	if len(h.book.All()) != 0 {
		t.Fatal("log should be deleted")
	}
}

func TestLogsCursorBounds(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	addLog(t, h.book, "2024-01-01", "07:00", "07:30", "a")
	addLog(t, h.book, "2024-01-01", "08:00", "08:30", "b")

	app := press(h.app(), "2")
	app, _ = send(app, app.logs.refresh()())

	app = press(app, "j")
	app = press(app, "j")
	if app.logs.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", app.logs.cursor)
	}
	app = press(app, "k")
	app = press(app, "k")
	if app.logs.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", app.logs.cursor)
	}
}

func TestLogsNewFormActivates(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), "2")
	app = press(app, "n")

	if !app.logs.formActive || !app.isFormActive() {
		t.Fatal("n should open the manual entry form")
	}
	if app.logs.values.date != "2024-01-01" || app.logs.values.end != "09:00" {
		t.Fatalf("form defaults = %+v", *app.logs.values)
	}
	app = press(app, "1")
	if app.activeView != viewLogs {
		t.Fatal("keys go to the form while it is open")
	}
	app = press(app, "esc")
	if app.logs.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestLogsSaveNew(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	l := newLogsModel(h.book, func() time.Time { return h.now })
	*l.values = logForm{date: "2024-01-01", start: "09:00", end: "09:00", category: "Work"}

	msg := l.saveNew()()
	st, ok := msg.(statusMsg)
	if !ok || !st.isError || !strings.Contains(st.text, "end time must be after start time") {
		t.Fatalf("msg = %#v", msg)
	}
	if len(h.book.All()) != 0 {
		t.Fatal("rejected entry must not be stored")
	}

	*l.values = logForm{date: "2024-01-01", start: "09:00", end: "09:45", category: "Study", images: "a.png, b.png"}
	l.saveNew()
	logs := h.book.All()
	if len(logs) != 1 || logs[0].Category != "Study" || len(logs[0].Images) != 2 {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestLogsBuildDraft(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	e := addLog(t, h.book, "2024-01-01", "09:00", "10:00", "x")

	l := newLogsModel(h.book, time.Now)
	l.editing = *e
	*l.values = logForm{
		category: "Work",
		mode:     modeSplit,
		startAt:  "2024-01-01 09:00",
		work:     "40m",
		rest:     "5m",
	}
	d, err := l.buildDraft()
	if err != nil {
		t.Fatal(err)
	}
	if d.Mode != logbook.EditPhaseSplit || d.WorkSeconds != 2400 || d.RestSeconds != 300 {
		t.Fatalf("draft = %+v", d)
	}

	l.values.mode = modeClock
	l.values.endAt = "2024-01-01 10:30"
	d, err = l.buildDraft()
	if err != nil {
		t.Fatal(err)
	}
	if d.Mode != logbook.EditClockTime || d.End.Sub(d.Start) != 90*time.Minute {
		t.Fatalf("draft = %+v", d)
	}

	l.values.endAt = "later"
	if _, err := l.buildDraft(); !errors.Is(err, logbook.ErrInvalidTime) {
		t.Fatalf("err = %v", err)
	}
}

func TestKeepStamp(t *testing.T) {
	orig := time.Date(2024, 1, 1, 9, 0, 42, 0, time.Local)
	got, err := keepStamp("2024-01-01 09:00", orig)
	if err != nil || !got.Equal(orig) {
		t.Fatalf("unchanged stamp = %v, %v", got, err)
	}
	got, err = keepStamp("2024-01-01 09:05", orig)
	if err != nil || got.Second() != 0 || got.Minute() != 5 {
		t.Fatalf("edited stamp = %v, %v", got, err)
	}
}

// ============================================================
// Stats view
// ============================================================

func TestStatsViewNavigation(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	addLog(t, h.book, "2024-01-01", "07:00", "08:00", "early")

	app, _ := send(h.app(), tea.WindowSizeMsg{Width: 160, Height: 50})
	app = press(app, "3")
	app, _ = send(app, app.stats.refresh()())

	if app.stats.summary.TotalMinutes != 60 {
		t.Fatalf("day total = %d", app.stats.summary.TotalMinutes)
	}
	if !strings.Contains(app.View(), "Monday, Jan 01 2024") {
		t.Fatal("stats view should show the day title")
	}

	app = press(app, "v")
	if app.stats.mode != stats.ViewWeek || len(app.stats.summary.History) != 7 {
		t.Fatalf("mode = %s history = %d", app.stats.mode, len(app.stats.summary.History))
	}

	app = press(app, "left")
	app = press(app, "h")
	if app.stats.summary.TotalMinutes != 0 {
		t.Fatal("the previous week has no logs")
	}
	app = press(app, ".")
	if app.stats.summary.TotalMinutes != 60 {
		t.Fatal(". should return to today")
	}
}

func TestStatsViewsRender(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	addLog(t, h.book, "2024-01-01", "07:00", "08:00", "a")
	addLog(t, h.book, "2024-01-01", "07:30", "08:30", "b")

	s := newStatsModel(h.book, 6, func() time.Time { return h.now })
	s.setSize(160, 50)
	s, _ = s.update(statsDataMsg{logs: h.book.All()})

	if tl := s.summary.Timeline; tl == nil || len(tl.Lanes) != 2 {
		t.Fatal("overlapping logs should take two lanes")
	}
	for _, want := range []string{"Stats", "Work", "06h"} {
		if !strings.Contains(s.view(), want) {
			t.Errorf("day view missing %q", want)
		}
	}

	for _, mode := range []stats.View{stats.ViewWeek, stats.ViewMonth, stats.ViewYear} {
		s.mode = mode
		s.recompute()
		if s.view() == "" {
			t.Errorf("%s view is empty", mode)
		}
	}
	if !strings.Contains(s.view(), "Jan") {
		t.Fatal("year view should list months")
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsViewShowsDurations(t *testing.T) {
	h := newHarness(t, store.Settings{WorkDuration: 3000, RestDuration: 600})
	app, _ := send(h.app(), tea.WindowSizeMsg{Width: 160, Height: 50})
	app = press(app, "4")
	app, _ = send(app, app.loadCategories()())

	view := app.View()
	for _, want := range []string{"50 min", "10 min", "every 10 min", "Study"} {
		if !strings.Contains(view, want) {
			t.Errorf("settings view missing %q", want)
		}
	}
}

func TestSettingsApplyDurationsWhenIdle(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := h.app()
	s := app.settings
	*s.workMinutes = "45"
	*s.restMinutes = "15"

	s.applyDurations()
	if got := app.engine.Settings(); got.WorkDuration != 2700 || got.RestDuration != 900 {
		t.Fatalf("engine settings = %+v", got)
	}
	if got := h.store.LoadSettings(); got.WorkDuration != 2700 {
		t.Fatalf("stored settings = %+v", got)
	}
}

func TestSettingsCategoryCrud(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	s := h.app().settings
	*s.catName = " Music "
	*s.catColor = "#123456"

	if msg := s.saveCategory()(); msg != (categoriesChangedMsg{}) {
		t.Fatalf("save msg = %#v", msg)
	}
	cats, _ := h.store.ListCategories()
	if store.CategoryColor(cats, "Music") != "#123456" {
		t.Fatal("category should be saved trimmed")
	}

	if msg := s.deleteCategory("Music")(); msg != (categoriesChangedMsg{}) {
		t.Fatalf("delete msg = %#v", msg)
	}
	cats, _ = h.store.ListCategories()
	if store.CategoryColor(cats, "Music") != store.FallbackColor {
		t.Fatal("category should be deleted")
	}
}

func TestValidateMinutes(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"25", true},
		{" 1 ", true},
		{"0", false},
		{"-5", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		if err := validateMinutes(tt.in); (err == nil) != tt.ok {
			t.Errorf("validateMinutes(%q) = %v", tt.in, err)
		}
	}
}

// ============================================================
// Export
// ============================================================

func TestDoExport(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	addLog(t, h.book, "2024-01-01", "07:00", "08:00", "a")
	app := h.app()
	dir := t.TempDir()

	for format := range exportFormats {
		msg := app.doExport(format, dir)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: msg = %#v", format, msg)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("export file: %v", err)
		}
	}
}

func TestExportPicker(t *testing.T) {
	h := newHarness(t, store.DefaultSettings())
	app := press(h.app(), "E")
	if !app.exportPicking {
		t.Fatal("E should open the export picker")
	}
	app = press(app, "j")
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}
	app = press(app, "esc")
	if app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a long description", 6, "a lon…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBar(t *testing.T) {
	if got := bar(0.5, 4); got != "██░░" {
		t.Fatalf("bar = %q", got)
	}
	if got := bar(2, 3); got != "███" {
		t.Fatalf("bar over 1 = %q", got)
	}
	if got := bar(-1, 2); got != "░░" {
		t.Fatalf("bar under 0 = %q", got)
	}
}

func TestParseImages(t *testing.T) {
	got := parseImages(" a.png, ,b.png ,")
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Fatalf("images = %v", got)
	}
	if parseImages("") != nil {
		t.Fatal("empty input should give no images")
	}
}

func TestSecsToMin(t *testing.T) {
	if secsToMin(1500) != "25" {
		t.Fatal("1500s should be 25 min")
	}
	if secs, err := minToSecs("5"); err != nil || secs != 300 {
		t.Fatalf("minToSecs = %d, %v", secs, err)
	}
}

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should not be empty")
	}
	for i, group := range keys.FullHelp() {
		if len(group) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}
