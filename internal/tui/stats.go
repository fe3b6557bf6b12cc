package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/stats"
	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

var viewTabs = []stats.View{stats.ViewDay, stats.ViewWeek, stats.ViewMonth, stats.ViewYear}

type statsModel struct {
	book      *logbook.Logbook
	now       func() time.Time
	startHour int
	width     int
	height    int

	mode       stats.View
	date       time.Time
	logs       []store.LogEntry
	categories []store.Category
	summary    stats.Summary

	chart barchart.Model
}

func newStatsModel(b *logbook.Logbook, startHour int, now func() time.Time) statsModel {
	m := statsModel{
		book:      b,
		now:       now,
		startHour: startHour,
		mode:      stats.ViewDay,
		date:      timeutil.StartOfDay(now()),
		chart:     barchart.New(60, 12),
	}
	m.recompute()
	return m
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.buildChart()
}

type statsDataMsg struct {
	logs []store.LogEntry
}

func (s statsModel) refresh() tea.Cmd {
	b := s.book
	return func() tea.Msg {
		return statsDataMsg{logs: b.All()}
	}
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		s.logs = msg.logs
		s.recompute()
		return s, nil

	case categoriesMsg:
		s.categories = msg.categories
		s.buildChart()
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			s.date = s.mode.Shift(s.date, -1)
		case key.Matches(msg, keys.Right):
			s.date = s.mode.Shift(s.date, 1)
		case key.Matches(msg, keys.Today):
			s.date = timeutil.StartOfDay(s.now())
		case key.Matches(msg, keys.Mode):
			s.mode = s.mode.Next()
		default:
			return s, nil
		}
		s.recompute()
	}
	return s, nil
}

func (s *statsModel) recompute() {
	s.summary = stats.Compute(s.logs, s.date, s.mode, stats.Options{
		TimelineStartHour: s.startHour,
		Now:               s.now(),
	})
	s.buildChart()
}

func (s *statsModel) buildChart() {
	chartWidth := max(s.width-8, 20)
	chartHeight := 10
	if s.height > 36 {
		chartHeight = 14
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	if s.mode == stats.ViewYear {
		for _, m := range s.summary.Months {
			bars = append(bars, barchart.BarData{
				Label:  m.Month.String()[:3],
				Values: s.monthValues(m),
			})
		}
	} else {
		for _, b := range s.summary.History {
			bars = append(bars, barchart.BarData{
				Label: b.Label,
				Values: []barchart.BarValue{{
					Name:  "minutes",
					Value: float64(b.Minutes),
					Style: lipgloss.NewStyle().Foreground(colorPrimary),
				}},
			})
		}
	}
	if !hasValue(bars) {
		return
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

// monthValues stacks a month's bar by category.
func (s statsModel) monthValues(m stats.MonthSummary) []barchart.BarValue {
	if len(m.Categories) == 0 {
		return []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
	}
	var values []barchart.BarValue
	for _, c := range m.Categories {
		color := store.CategoryColor(s.categories, c.Category)
		values = append(values, barchart.BarValue{
			Name:  c.Category,
			Value: float64(c.Minutes),
			Style: lipgloss.NewStyle().Foreground(lipgloss.Color(color)),
		})
	}
	return values
}

func (s statsModel) view() string {
	w := s.width - 4
	sum := s.summary

	var tabs []string
	for _, v := range viewTabs {
		label := strings.ToUpper(string(v[:1])) + string(v[1:])
		if v == s.mode {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ",
		lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "  ",
		mutedStyle.Render(s.mode.Title(s.date)),
	)

	totals := fmt.Sprintf("Total %s  %s  %s  %s",
		highlightStyle.Render(timeutil.FormatMinutes(sum.TotalMinutes)),
		focusStyle.Render("focus "+timeutil.FormatMinutes(sum.FocusMinutes)),
		breakStyle.Render("break "+timeutil.FormatMinutes(sum.RestMinutes)),
		mutedStyle.Render(fmt.Sprintf("%d logs", len(sum.Logs))),
	)

	sections := []string{header, "", totals}

	switch s.mode {
	case stats.ViewDay:
		sections = append(sections, "", s.renderTimeline(w-6))
	case stats.ViewWeek, stats.ViewMonth:
		sections = append(sections, "", s.chart.View(), "", s.renderCalendar())
	case stats.ViewYear:
		sections = append(sections, "", s.chart.View(), "", s.renderMonths())
	}

	sections = append(sections, "", s.renderCategories(w-6))
	sections = append(sections, "", mutedStyle.Render("  ←/→: previous/next  .: today  v: day/week/month/year"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (s statsModel) renderCategories(width int) string {
	cats := s.summary.Categories
	if len(cats) == 0 {
		return mutedStyle.Render("  No data for this period")
	}
	top := cats[0].Minutes
	barWidth := max(min(width-32, 40), 5)

	var rows []string
	for _, c := range cats {
		frac := 0.0
		if top > 0 {
			frac = float64(c.Minutes) / float64(top)
		}
		color := lipgloss.Color(store.CategoryColor(s.categories, c.Category))
		rows = append(rows, fmt.Sprintf("  %s %-14s %s %s",
			categoryDot(s.categories, c.Category),
			truncate(c.Category, 14),
			lipgloss.NewStyle().Foreground(color).Render(bar(frac, barWidth)),
			timeutil.FormatMinutes(c.Minutes),
		))
	}
	return strings.Join(rows, "\n")
}

// renderTimeline draws one row per lane with logs placed by clock time.
func (s statsModel) renderTimeline(width int) string {
	tl := s.summary.Timeline
	if tl == nil || len(tl.Lanes) == 0 {
		return mutedStyle.Render("  Nothing logged on this day")
	}
	width = max(width-4, 24)
	window := tl.End.Sub(tl.Start)
	col := func(t time.Time) int {
		c := int(float64(width) * float64(t.Sub(tl.Start)) / float64(window))
		return min(max(c, 0), width)
	}

	axis := []rune(strings.Repeat(" ", width+6))
	for h := tl.Start; !h.After(tl.End); h = h.Add(3 * time.Hour) {
		label := []rune(h.Format("15h"))
		at := col(h)
		if at+len(label) <= len(axis) {
			copy(axis[at:], label)
		}
	}

	now := s.now()
	rows := []string{mutedStyle.Render("  " + string(axis))}
	for _, lane := range tl.Lanes {
		cells := make([]string, width)
		for i := range cells {
			cells[i] = mutedStyle.Render("·")
		}
		for _, e := range lane {
			end := now
			if e.EndTime != nil {
				end = *e.EndTime
			}
			from, to := col(e.StartTime), col(end)
			if to <= from {
				to = min(from+1, width)
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(store.CategoryColor(s.categories, e.Category)))
			for i := from; i < to && i < width; i++ {
				cells[i] = style.Render("█")
			}
		}
		rows = append(rows, "  "+strings.Join(cells, ""))
	}
	return strings.Join(rows, "\n")
}

func (s statsModel) renderCalendar() string {
	cells := s.summary.Calendar
	if len(cells) == 0 {
		return ""
	}

	var rows []string
	rows = append(rows, mutedStyle.Render("  Sun      Mon      Tue      Wed      Thu      Fri      Sat"))
	today := timeutil.DateKey(s.now())
	var line []string
	for i, c := range cells {
		var cell string
		switch {
		case c.Empty:
			cell = strings.Repeat(" ", 9)
		default:
			label := fmt.Sprintf("%2d", c.Day)
			mins := ""
			if c.Minutes > 0 {
				mins = timeutil.FormatMinutes(c.Minutes)
			}
			style := normalItemStyle
			if c.DateKey == today {
				style = selectedItemStyle
			}
			cell = style.Render(label) + " " + highlightStyle.Render(fmt.Sprintf("%-6s", truncate(mins, 6)))
		}
		line = append(line, cell)
		if (i+1)%7 == 0 || i == len(cells)-1 {
			rows = append(rows, "  "+strings.Join(line, ""))
			line = nil
		}
	}
	return strings.Join(rows, "\n")
}

func (s statsModel) renderMonths() string {
	var rows []string
	for _, m := range s.summary.Months {
		top := ""
		if len(m.Categories) > 0 {
			top = categoryDot(s.categories, m.Categories[0].Category) + " " + m.Categories[0].Category
		}
		img := ""
		if m.Image != "" {
			img = mutedStyle.Render("  " + m.Image)
		}
		rows = append(rows, fmt.Sprintf("  %-4s %8s  %s%s", m.Month.String()[:3], timeutil.FormatMinutes(m.Minutes), top, img))
	}
	return strings.Join(rows, "\n")
}

func hasValue(bars []barchart.BarData) bool {
	for _, b := range bars {
		for _, v := range b.Values {
			if v.Value > 0 {
				return true
			}
		}
	}
	return false
}
