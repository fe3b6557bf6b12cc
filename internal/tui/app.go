package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/sadopc/pomolog/internal/bundle"
	"github.com/sadopc/pomolog/internal/config"
	"github.com/sadopc/pomolog/internal/engine"
	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/notify"
	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

// Deps are the collaborators the TUI is built from.
type Deps struct {
	Store    *store.Store
	Book     *logbook.Logbook
	Config   *config.Config
	Notifier notify.Notifier
	Cue      notify.Cue
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	book   *logbook.Logbook
	engine *engine.Engine
	ticker *engine.Ticker
	fx     *effects
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer    timerModel
	logs     logsModel
	stats    statsModel
	settings settingsModel

	help       help.Model
	status     string
	statusErr  bool
	permission notify.Permission
}

func NewApp(d Deps) App {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Disabled{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}

	eng := engine.New(d.Book, d.Store.LoadSettings(), engine.Config{
		ReminderInterval: cfg.ReminderInterval(),
		Clock:            d.Clock,
	})
	fx := &effects{notifier: d.Notifier, cue: d.Cue, store: d.Store}

	h := help.New()
	h.ShowAll = false

	return App{
		store:      d.Store,
		book:       d.Book,
		engine:     eng,
		ticker:     &engine.Ticker{},
		fx:         fx,
		activeView: viewTimer,
		timer:      newTimerModel(eng, fx),
		logs:       newLogsModel(d.Book, d.Clock),
		stats:      newStatsModel(d.Book, cfg.TimelineStartHour, d.Clock),
		settings:   newSettingsModel(eng, d.Store, fx, cfg),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.loadCategories(),
		a.logs.refresh(),
		a.stats.refresh(),
	)
}

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// syncTicker starts a tick loop when the engine runs and none is live.
func (a App) syncTicker() tea.Cmd {
	gen, start := a.ticker.Sync(a.engine.Running())
	if !start {
		return nil
	}
	return tickCmd(gen)
}

func (a App) loadCategories() tea.Cmd {
	s := a.store
	return func() tea.Msg {
		cats, err := s.ListCategories()
		if err != nil {
			log.Warn("load categories", "err", err)
			return statusMsg{text: "Could not load categories", isError: true}
		}
		return categoriesMsg{categories: cats}
	}
}

// Update applies msg and then reconciles the tick loop with the engine, so
// every transition, whichever view made it, starts or stops the clock.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.update(msg)
	return next, tea.Batch(cmd, next.syncTicker())
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.logs.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		if a.engine.State().PendingSettings != nil {
			switch {
			case key.Matches(msg, keys.Apply):
				return a, a.fx.run(a.engine.ApplyPendingSettings())
			case key.Matches(msg, keys.Keep):
				return a, a.fx.run(a.engine.KeepSession())
			}
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			if a.engine.State().SessionStart != nil {
				log.Info("quit with an unsaved session", "status", a.engine.Status())
			}
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewLogs
			return a, a.logs.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, a.stats.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		if !a.ticker.Accept(msg.gen) {
			return a, nil
		}
		cmds := []tea.Cmd{a.fx.run(a.engine.Tick())}
		a.ticker.Sync(a.engine.Running())
		if a.ticker.Accept(msg.gen) {
			cmds = append(cmds, tickCmd(msg.gen))
		}
		return a, tea.Batch(cmds...)

	case notifiedMsg:
		a.permission = msg.perm
		if msg.err != nil {
			log.Warn("notification failed", "permission", msg.perm, "err", msg.err)
		}
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case logsChangedMsg:
		return a, tea.Batch(a.logs.refresh(), a.stats.refresh())

	case categoriesChangedMsg:
		return a, a.loadCategories()

	case categoriesMsg:
		a.timer.categories = msg.categories
		a.logs.categories = msg.categories
		a.settings.categories = msg.categories
		a.stats, cmd = a.stats.update(msg)
		return a, cmd

	case logsDataMsg:
		a.logs, cmd = a.logs.update(msg)
		return a, cmd

	case statsDataMsg:
		a.stats, cmd = a.stats.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewLogs:
		a.logs, cmd = a.logs.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.timer.formActive
	case viewLogs:
		return a.logs.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewLogs:
		return a.logs.refresh()
	case viewStats:
		return a.stats.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewLogs:
		content = a.logs.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	} else if banner := a.renderPendingSettings(); banner != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, banner, content)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("pomolog")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	perm := ""
	if a.permission != "" && a.permission != notify.PermissionGranted {
		perm = warningStyle.Render(" notifications " + string(a.permission))
	}

	timerInfo := ""
	if a.activeView != viewTimer && a.engine.Status() != engine.StatusIdle {
		st := a.engine.State()
		secs, overtime := a.engine.DisplayTime()
		clock := timeutil.FormatClock(secs)
		if overtime {
			clock = "+" + clock
		}
		icon := " ● "
		if !st.IsActive {
			icon = " ⏸ "
		}
		timerInfo = phaseStyle(st.Phase == store.PhaseRest, overtime).Render(icon + phaseLabel(st.Phase) + " " + clock)
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + perm + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderPendingSettings() string {
	p := a.engine.State().PendingSettings
	if p == nil {
		return ""
	}
	text := fmt.Sprintf("New durations waiting: focus %s, break %s.  a: apply and discard the session  r: keep the session",
		timeutil.FormatMinutes(p.WorkDuration/60), timeutil.FormatMinutes(p.RestDuration/60))
	return promptPanelStyle.Width(a.width - 4).Render(warningStyle.Render(text))
}

var exportFormats = []string{"JSON backup", "CSV logs"}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export"))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		dir, err := os.UserHomeDir()
		if err != nil {
			dir = "."
		}
		return a, a.doExport(a.exportCursor, dir)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int, dir string) tea.Cmd {
	s, book := a.store, a.book
	return func() tea.Msg {
		dateStr := timeutil.DateKey(time.Now())

		if format == 1 {
			path := filepath.Join(dir, fmt.Sprintf("pomolog-logs-%s.csv", dateStr))
			if err := bundle.ToCSV(book.All(), path); err != nil {
				log.Warn("export csv", "path", path, "err", err)
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
			return exportDoneMsg{path: path}
		}

		path := filepath.Join(dir, fmt.Sprintf("pomolog-backup-%s.json", dateStr))
		snap, err := bundle.Snapshot(s)
		if err == nil {
			err = bundle.ToJSON(snap, path)
		}
		if err != nil {
			log.Warn("export bundle", "path", path, "err", err)
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
