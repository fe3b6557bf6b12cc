package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomolog/internal/notify"
	"github.com/sadopc/pomolog/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewLogs
	viewStats
	viewSettings
)

var viewNames = []string{"Timer", "Logs", "Stats", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

// tickMsg carries the generation of the loop that scheduled it.
type tickMsg struct {
	gen int
}

type notifiedMsg struct {
	perm notify.Permission
	err  error
}

type logsChangedMsg struct{}

type categoriesChangedMsg struct{}

type categoriesMsg struct {
	categories []store.Category
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func phaseLabel(p store.Phase) string {
	if p == store.PhaseRest {
		return "BREAK"
	}
	return "FOCUS"
}

func categoryDot(categories []store.Category, name string) string {
	color := store.CategoryColor(categories, name)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func clockRange(l store.LogEntry) string {
	end := "now"
	if l.EndTime != nil {
		end = l.EndTime.Local().Format("15:04")
	}
	return l.StartTime.Local().Format("15:04") + "-" + end
}

// truncate cuts s to at most n display cells.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > n-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func bar(frac float64, width int) string {
	frac = min(max(frac, 0), 1)
	filled := int(frac*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func parseImages(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatSpan(secs int64) string {
	return (time.Duration(secs) * time.Second).String()
}
