package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomolog/internal/engine"
	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

// timerModel drives the phase engine from the keyboard and renders its state.
type timerModel struct {
	engine *engine.Engine
	fx     *effects
	width  int
	height int

	categories []store.Category

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	formCategory *string
	formDesc     *string
}

func newTimerModel(e *engine.Engine, fx *effects) timerModel {
	cat, desc := "", ""
	return timerModel{
		engine:       e,
		fx:           fx,
		formCategory: &cat,
		formDesc:     &desc,
	}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return t.handleKey(msg)
	}
	return t, nil
}

// handleKey maps keys to transitions. Which keys are live depends on what
// the engine is waiting for.
func (t timerModel) handleKey(msg tea.KeyMsg) (timerModel, tea.Cmd) {
	e := t.engine
	switch e.Status() {
	case engine.StatusStopConfirm:
		switch {
		case key.Matches(msg, keys.Save):
			return t, t.fx.try(e.ConfirmSave())
		case key.Matches(msg, keys.Discard):
			return t, t.fx.run(e.Discard())
		case key.Matches(msg, keys.Back):
			return t, t.fx.run(e.CancelStop())
		}

	case engine.StatusChoice:
		switch {
		case key.Matches(msg, keys.Continue):
			return t, t.fx.run(e.ContinueLog())
		case key.Matches(msg, keys.Next):
			return t, t.fx.try(e.StartNewLog())
		case key.Matches(msg, keys.Back):
			return t, t.fx.run(e.CancelChoice())
		}

	case engine.StatusPrompt:
		switch {
		case key.Matches(msg, keys.Continue):
			return t, t.fx.run(e.ContinuePhase())
		case key.Matches(msg, keys.Next):
			return t, t.fx.run(e.AdvancePhase())
		case key.Matches(msg, keys.Save):
			return t, t.fx.try(e.SaveAndExit())
		}

	default:
		switch {
		case key.Matches(msg, keys.Toggle):
			return t, t.fx.run(e.Start())
		case key.Matches(msg, keys.Stop):
			return t, t.fx.run(e.Stop())
		case key.Matches(msg, keys.Skip):
			return t, t.fx.run(e.AdvancePhase())
		case key.Matches(msg, keys.Task):
			return t.showTaskForm()
		}
	}
	return t, nil
}

func (t timerModel) showTaskForm() (timerModel, tea.Cmd) {
	st := t.engine.State()
	*t.formCategory = st.Category
	*t.formDesc = st.Description

	options := []huh.Option[string]{huh.NewOption("(phase default)", "")}
	for _, c := range t.categories {
		options = append(options, huh.NewOption(strings.TrimSpace(c.Icon+" "+c.Name), c.Name))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Category").Options(options...).Value(t.formCategory),
			huh.NewInput().Title("What are you working on?").Placeholder("Focus").Value(t.formDesc),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t timerModel) updateForm(msg tea.Msg) (timerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		t.engine.SetTask(*t.formCategory, strings.TrimSpace(*t.formDesc))
		return t, status("Task updated", false)
	}

	return t, cmd
}

func (t timerModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("Task")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()),
		)
	}

	e := t.engine
	st := e.State()
	rest := st.Phase == store.PhaseRest
	secs, overtime := e.DisplayTime()
	style := phaseStyle(rest, overtime)

	clock := timeutil.FormatClock(secs)
	if overtime {
		clock = "+" + clock
	}
	inner := max(w-6, 10)

	label := style.Bold(true).Render(phaseLabel(st.Phase))
	if overtime {
		label += style.Render(" · OVERTIME")
	}
	label += mutedStyle.Render("  " + strings.ToLower(e.Status().String()))

	rows := []string{
		label,
		"",
		clockStyle.Inherit(style).Width(inner).Render(clock),
		"",
		t.renderProgress(inner),
		"",
		t.renderTask(),
		t.renderSession(),
	}
	if panel := t.renderPrompt(inner); panel != "" {
		rows = append(rows, "", panel)
	}
	rows = append(rows, "", mutedStyle.Render(t.controls()))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (t timerModel) renderProgress(width int) string {
	st := t.engine.State()
	set := t.engine.Settings()
	nominal := set.WorkDuration
	if st.Phase == store.PhaseRest {
		nominal = set.RestDuration
	}
	frac := 1.0
	if !st.IsOvertime && nominal > 0 {
		frac = 1 - float64(st.TimeLeft)/float64(nominal)
	}
	style := phaseStyle(st.Phase == store.PhaseRest, st.IsOvertime)
	return style.Render(bar(frac, min(width, 40)))
}

func (t timerModel) renderTask() string {
	st := t.engine.State()
	if st.Category == "" && st.Description == "" {
		return mutedStyle.Render("No task set. Press t to pick one.")
	}
	cat := st.Category
	if cat == "" {
		cat = "Work"
	}
	line := categoryDot(t.categories, cat) + " " + cat
	if st.Description != "" {
		line += mutedStyle.Render(" · ") + st.Description
	}
	return line
}

func (t timerModel) renderSession() string {
	st := t.engine.State()
	if st.SessionStart == nil {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf("recording since %s · focus %s · break %s",
		st.SessionStart.Local().Format("15:04"),
		timeutil.FormatMinutes(st.Acc.Work/60),
		timeutil.FormatMinutes(st.Acc.Rest/60),
	))
}

func (t timerModel) renderPrompt(width int) string {
	st := t.engine.State()
	var lines []string

	switch t.engine.Status() {
	case engine.StatusPrompt:
		p := st.Prompt
		switch p.Kind {
		case engine.PromptCycleComplete:
			lines = []string{"Break over. Ready to focus again?", "n: start focusing  c: keep resting  s: save and finish"}
		case engine.PromptReminder:
			lines = []string{
				fmt.Sprintf("Still going: %s of overtime.", timeutil.FormatMinutes(st.OvertimeSeconds/60)),
				"c: keep going  n: next phase  s: save and finish",
			}
		default:
			lines = []string{"Focus session complete. Time for a break.", "n: start the break  c: keep focusing  s: save and finish"}
		}

	case engine.StatusChoice:
		next := phaseLabel(*st.PendingNextPhase)
		lines = []string{
			fmt.Sprintf("Switching to %s. Keep recording into the same log?", strings.ToLower(next)),
			"c: continue this log  n: save it and start a new one  esc: cancel",
		}

	case engine.StatusStopConfirm:
		lines = []string{
			fmt.Sprintf("Stop the session (focus %s)?", timeutil.FormatMinutes(st.Acc.Work/60)),
			"s: save  d: discard  esc: keep it paused",
		}

	default:
		return ""
	}

	return promptPanelStyle.Width(min(width, 72)).Render(
		lipgloss.JoinVertical(lipgloss.Left, warningStyle.Bold(true).Render(lines[0]), mutedStyle.Render(lines[1])),
	)
}

func (t timerModel) controls() string {
	switch t.engine.Status() {
	case engine.StatusPrompt, engine.StatusChoice, engine.StatusStopConfirm:
		return ""
	case engine.StatusIdle:
		return "space: start  >: skip to break  t: task"
	}
	if t.engine.Running() {
		return "space: pause  x: stop  >: next phase  t: task"
	}
	return "space: resume  x: stop  >: next phase  t: task"
}
