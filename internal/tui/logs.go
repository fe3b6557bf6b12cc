package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

const (
	formNew  = "new"
	formEdit = "edit"

	modeClock = "clock"
	modeSplit = "split"

	stampLayout = "2006-01-02 15:04"
)

// logForm holds the form values. It lives behind a pointer so huh can write
// into it across model copies.
type logForm struct {
	date        string
	start       string
	end         string
	category    string
	description string
	images      string

	mode    string
	startAt string
	endAt   string
	work    string
	rest    string
}

type logsModel struct {
	book   *logbook.Logbook
	now    func() time.Time
	width  int
	height int

	logs       []store.LogEntry
	categories []store.Category
	cursor     int
	offset     int

	confirmDelete bool

	formActive bool
	form       *huh.Form
	formType   string
	editing    store.LogEntry
	values     *logForm
}

func newLogsModel(b *logbook.Logbook, now func() time.Time) logsModel {
	return logsModel{book: b, now: now, values: &logForm{}}
}

func (l *logsModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

type logsDataMsg struct {
	logs []store.LogEntry
}

func (l logsModel) refresh() tea.Cmd {
	b := l.book
	return func() tea.Msg {
		return logsDataMsg{logs: b.All()}
	}
}

func (l logsModel) update(msg tea.Msg) (logsModel, tea.Cmd) {
	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}

	switch msg := msg.(type) {
	case logsDataMsg:
		l.logs = msg.logs
		sort.SliceStable(l.logs, func(i, j int) bool { return l.logs[i].StartTime.After(l.logs[j].StartTime) })
		if l.cursor >= len(l.logs) {
			l.cursor = max(0, len(l.logs)-1)
		}
		l.clampOffset()
		return l, nil

	case tea.KeyMsg:
		if l.confirmDelete {
			l.confirmDelete = false
			if key.Matches(msg, keys.Confirm) && l.cursor < len(l.logs) {
				return l, l.remove(l.logs[l.cursor])
			}
			return l, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if l.cursor > 0 {
				l.cursor--
			}
		case key.Matches(msg, keys.Down):
			if l.cursor < len(l.logs)-1 {
				l.cursor++
			}
		case key.Matches(msg, keys.New):
			return l.showNewForm()
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if l.cursor < len(l.logs) {
				return l.showEditForm(l.logs[l.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if len(l.logs) > 0 {
				l.confirmDelete = true
			}
		}
		l.clampOffset()
	}
	return l, nil
}

func (l logsModel) pageSize() int {
	return max(l.height-12, 3)
}

func (l *logsModel) clampOffset() {
	page := l.pageSize()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+page {
		l.offset = l.cursor - page + 1
	}
	l.offset = max(l.offset, 0)
}

func (l logsModel) remove(e store.LogEntry) tea.Cmd {
	b := l.book
	return func() tea.Msg {
		if err := b.Remove(e.ID); err != nil {
			log.Warn("delete log", "id", e.ID, "err", err)
			return statusMsg{text: "Delete failed: " + err.Error(), isError: true}
		}
		return logsChangedMsg{}
	}
}

func (l logsModel) categoryOptions() []huh.Option[string] {
	var options []huh.Option[string]
	for _, c := range l.categories {
		options = append(options, huh.NewOption(strings.TrimSpace(c.Icon+" "+c.Name), c.Name))
	}
	if len(options) == 0 {
		options = append(options, huh.NewOption("Work", "Work"))
	}
	return options
}

func validateClock(s string) error {
	if _, err := time.Parse("15:04", strings.TrimSpace(s)); err != nil {
		return errors.New("use HH:MM")
	}
	return nil
}

func validateDate(s string) error {
	if _, err := timeutil.ParseDateKey(strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateStamp(s string) error {
	if _, err := time.ParseInLocation(stampLayout, strings.TrimSpace(s), time.Local); err != nil {
		return errors.New("use YYYY-MM-DD HH:MM")
	}
	return nil
}

func validateSpan(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d < 0 {
		return errors.New("use a duration like 25m or 1h5m30s")
	}
	return nil
}

func (l logsModel) showNewForm() (logsModel, tea.Cmd) {
	now := l.now()
	*l.values = logForm{
		date:     timeutil.DateKey(now),
		start:    now.Add(-25 * time.Minute).Format("15:04"),
		end:      now.Format("15:04"),
		category: "Work",
	}
	v := l.values
	l.formType = formNew

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date").Value(&v.date).Validate(validateDate),
			huh.NewInput().Title("Start (HH:MM)").Value(&v.start).Validate(validateClock),
			huh.NewInput().Title("End (HH:MM)").Value(&v.end).Validate(validateClock),
			huh.NewSelect[string]().Title("Category").Options(l.categoryOptions()...).Value(&v.category),
			huh.NewInput().Title("Description").Placeholder("Focus").Value(&v.description),
			huh.NewInput().Title("Images (comma-separated)").Value(&v.images),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l logsModel) showEditForm(e store.LogEntry) (logsModel, tea.Cmd) {
	d := logbook.DraftFrom(e)
	*l.values = logForm{
		category:    d.Category,
		description: d.Description,
		images:      strings.Join(d.Images, ", "),
		mode:        modeClock,
		startAt:     d.Start.Local().Format(stampLayout),
		endAt:       d.End.Local().Format(stampLayout),
		work:        formatSpan(d.WorkSeconds),
		rest:        formatSpan(d.RestSeconds),
	}
	v := l.values
	l.formType = formEdit
	l.editing = e

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Category").Options(l.categoryOptions()...).Value(&v.category),
			huh.NewInput().Title("Description").Value(&v.description),
			huh.NewInput().Title("Images (comma-separated)").Value(&v.images),
			huh.NewSelect[string]().Title("Edit").
				Options(
					huh.NewOption("Start and end time", modeClock),
					huh.NewOption("Focus and break split", modeSplit),
				).Value(&v.mode),
		),
		huh.NewGroup(
			huh.NewInput().Title("Start").Value(&v.startAt).Validate(validateStamp),
			huh.NewInput().Title("End").Value(&v.endAt).Validate(validateStamp),
		).WithHideFunc(func() bool { return v.mode != modeClock }),
		huh.NewGroup(
			huh.NewInput().Title("Start").Value(&v.startAt).Validate(validateStamp),
			huh.NewInput().Title("Focus").Value(&v.work).Validate(validateSpan),
			huh.NewInput().Title("Break").Value(&v.rest).Validate(validateSpan),
		).WithHideFunc(func() bool { return v.mode != modeSplit }),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l logsModel) updateForm(msg tea.Msg) (logsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			l.formActive = false
			l.form = nil
			return l, nil
		}
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		l.form = nil
		if l.formType == formEdit {
			return l, l.saveEdit()
		}
		return l, l.saveNew()
	}

	return l, cmd
}

func (l logsModel) saveNew() tea.Cmd {
	v := *l.values
	e, err := l.book.ManualInsert(logbook.ManualEntry{
		Date:        v.date,
		Start:       v.start,
		End:         v.end,
		Category:    v.category,
		Description: strings.TrimSpace(v.description),
		Images:      parseImages(v.images),
	})
	if err != nil {
		return status("Not added: "+err.Error(), true)
	}
	return tea.Batch(
		func() tea.Msg { return logsChangedMsg{} },
		status(fmt.Sprintf("Added %s (%s)", e.Description, timeutil.FormatDuration(e.Duration)), false),
	)
}

// keepStamp parses a form timestamp. An unchanged value returns the original
// time so seconds survive an edit that does not touch it.
func keepStamp(s string, orig time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == orig.Local().Format(stampLayout) {
		return orig, nil
	}
	return time.ParseInLocation(stampLayout, s, time.Local)
}

func (l logsModel) buildDraft() (logbook.EditDraft, error) {
	v := *l.values
	base := logbook.DraftFrom(l.editing)

	d := logbook.EditDraft{
		Mode:        logbook.EditClockTime,
		Category:    v.category,
		Description: strings.TrimSpace(v.description),
		Images:      parseImages(v.images),
	}
	start, err := keepStamp(v.startAt, base.Start)
	if err != nil {
		return d, logbook.ErrInvalidTime
	}
	d.Start = start

	if v.mode == modeSplit {
		d.Mode = logbook.EditPhaseSplit
		work, err1 := time.ParseDuration(strings.TrimSpace(v.work))
		rest, err2 := time.ParseDuration(strings.TrimSpace(v.rest))
		if err1 != nil || err2 != nil {
			return d, logbook.ErrInvalidTime
		}
		d.WorkSeconds = int64(work / time.Second)
		d.RestSeconds = int64(rest / time.Second)
		return d, nil
	}

	end, err := keepStamp(v.endAt, base.End)
	if err != nil {
		return d, logbook.ErrInvalidTime
	}
	d.End = end
	return d, nil
}

func (l logsModel) saveEdit() tea.Cmd {
	d, err := l.buildDraft()
	if err == nil {
		_, err = l.book.Update(l.editing.ID, d)
	}
	if err != nil {
		return status("Not saved: "+err.Error(), true)
	}
	return tea.Batch(
		func() tea.Msg { return logsChangedMsg{} },
		status("Log updated ("+d.Mode.String()+")", false),
	)
}

func (l logsModel) view() string {
	w := l.width - 4

	if l.formActive && l.form != nil {
		title := titleStyle.Render("New Log")
		if l.formType == formEdit {
			title = titleStyle.Render("Edit Log")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", l.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Logs")
	if len(l.logs) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No logs yet. Finish a focus session or press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title+mutedStyle.Render(fmt.Sprintf("  %d logs", len(l.logs))))
	rows = append(rows, "")

	descWidth := max(w-66, 10)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %-11s %-8s %-12s %-*s %s",
		"Date", "Time", "Length", "Category", descWidth, "Description", "When")))

	end := min(l.offset+l.pageSize(), len(l.logs))
	for i := l.offset; i < end; i++ {
		e := l.logs[i]
		cursor := "  "
		style := normalItemStyle
		if i == l.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-10s %-11s %-8s ",
			cursor, timeutil.DateKey(e.StartTime), clockRange(e), timeutil.FormatDuration(e.Duration)))
		row += categoryDot(l.categories, e.Category) + " "
		row += style.Render(fmt.Sprintf("%-10s %-*s ", truncate(e.Category, 10), descWidth, truncate(e.Description, descWidth)))
		row += mutedStyle.Render(humanize.Time(e.StartTime))
		rows = append(rows, row)
	}

	if l.cursor < len(l.logs) {
		rows = append(rows, "", l.renderDetail(l.logs[l.cursor]))
	}

	rows = append(rows, "")
	if l.confirmDelete {
		rows = append(rows, warningStyle.Render("  Delete this log? y: yes  any other key: no"))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  e/enter: edit  d: delete"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (l logsModel) renderDetail(e store.LogEntry) string {
	pt := timeutil.ResolvePhaseTotals(e)
	parts := []string{
		focusStyle.Render("focus " + timeutil.FormatDuration(pt.Work)),
		breakStyle.Render("break " + timeutil.FormatDuration(pt.Rest)),
	}
	if len(e.Images) > 0 {
		parts = append(parts, mutedStyle.Render("images: "+strings.Join(e.Images, ", ")))
	}
	return "  " + strings.Join(parts, mutedStyle.Render(" · "))
}
