package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/sadopc/pomolog/internal/config"
	"github.com/sadopc/pomolog/internal/engine"
	"github.com/sadopc/pomolog/internal/store"
)

var categoryPalette = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB", "#7AA2F7", "#95A5A6"}

const (
	formDurations = "durations"
	formCategory  = "category"
)

type settingsModel struct {
	engine *engine.Engine
	store  *store.Store
	fx     *effects
	cfg    *config.Config
	width  int
	height int

	categories []store.Category
	cursor     int

	formActive bool
	form       *huh.Form
	formType   string

	// Form values as pointers (survive value copies)
	workMinutes *string
	restMinutes *string
	catName     *string
	catColor    *string
	catIcon     *string
}

func newSettingsModel(e *engine.Engine, s *store.Store, fx *effects, cfg *config.Config) settingsModel {
	work, rest := "", ""
	name, color, icon := "", categoryPalette[0], ""
	return settingsModel{
		engine:      e,
		store:       s,
		fx:          fx,
		cfg:         cfg,
		workMinutes: &work,
		restMinutes: &rest,
		catName:     &name,
		catColor:    &color,
		catIcon:     &icon,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showDurationsForm()
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.categories)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.New):
			return s.showCategoryForm(nil)
		case key.Matches(msg, keys.Edit):
			if s.cursor < len(s.categories) {
				c := s.categories[s.cursor]
				return s.showCategoryForm(&c)
			}
		case key.Matches(msg, keys.Delete):
			if s.cursor < len(s.categories) {
				return s, s.deleteCategory(s.categories[s.cursor].Name)
			}
		}
	}
	return s, nil
}

func secsToMin(secs int64) string {
	return strconv.FormatInt(secs/60, 10)
}

func minToSecs(s string) (int64, error) {
	mins, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return mins * 60, nil
}

func validateMinutes(s string) error {
	secs, err := minToSecs(s)
	if err != nil || secs < store.MinPhaseDuration {
		return errors.New("whole minutes, at least 1")
	}
	return nil
}

func (s settingsModel) showDurationsForm() (settingsModel, tea.Cmd) {
	current := s.engine.Settings()
	*s.workMinutes = secsToMin(current.WorkDuration)
	*s.restMinutes = secsToMin(current.RestDuration)
	s.formType = formDurations

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(s.workMinutes).Validate(validateMinutes),
			huh.NewInput().Title("Break (min)").Value(s.restMinutes).Validate(validateMinutes),
		).Title("Timer"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showCategoryForm(existing *store.Category) (settingsModel, tea.Cmd) {
	*s.catName, *s.catColor, *s.catIcon = "", categoryPalette[0], ""
	if existing != nil {
		*s.catName, *s.catColor, *s.catIcon = existing.Name, existing.Color, existing.Icon
	}
	s.formType = formCategory

	colorOptions := make([]huh.Option[string], 0, len(categoryPalette)+1)
	for _, c := range categoryPalette {
		colorOptions = append(colorOptions, huh.NewOption(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("● "+c), c))
	}
	if existing != nil && !containsString(categoryPalette, existing.Color) {
		colorOptions = append(colorOptions, huh.NewOption("● "+existing.Color, existing.Color))
	}

	name := huh.NewInput().Title("Name").Value(s.catName).Validate(func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.New("name is required")
		}
		return nil
	})
	if existing != nil {
		name = name.Description("Renaming adds a new category")
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			name,
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(s.catColor),
			huh.NewInput().Title("Icon").Placeholder("optional").Value(s.catIcon),
		).Title("Category"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if s.formType == formCategory {
			return s, s.saveCategory()
		}
		return s, s.applyDurations()
	}

	return s, cmd
}

func (s settingsModel) applyDurations() tea.Cmd {
	work, err1 := minToSecs(*s.workMinutes)
	rest, err2 := minToSecs(*s.restMinutes)
	if err1 != nil || err2 != nil {
		return status(engine.ErrInvalidSettings.Error(), true)
	}
	return s.fx.try(s.engine.RequestSettings(store.Settings{WorkDuration: work, RestDuration: rest}))
}

func (s settingsModel) saveCategory() tea.Cmd {
	c := store.Category{
		Name:  strings.TrimSpace(*s.catName),
		Color: *s.catColor,
		Icon:  strings.TrimSpace(*s.catIcon),
	}
	st := s.store
	return func() tea.Msg {
		if err := st.SaveCategory(c); err != nil {
			log.Warn("save category", "name", c.Name, "err", err)
			return statusMsg{text: err.Error(), isError: true}
		}
		return categoriesChangedMsg{}
	}
}

func (s settingsModel) deleteCategory(name string) tea.Cmd {
	st := s.store
	return func() tea.Msg {
		if err := st.DeleteCategory(name); err != nil {
			log.Warn("delete category", "name", name, "err", err)
			return statusMsg{text: err.Error(), isError: true}
		}
		return categoriesChangedMsg{}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	current := s.engine.Settings()
	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(22).Render(label), highlightStyle.Render(value))
	}

	rows := []string{
		titleStyle.Render("Timer"),
		"",
		row("Focus", fmt.Sprintf("%s min", secsToMin(current.WorkDuration))),
		row("Break", fmt.Sprintf("%s min", secsToMin(current.RestDuration))),
		row("Overtime reminder", fmt.Sprintf("every %d min", s.engine.ReminderInterval()/60)),
		row("Notifications", onOff(s.cfg.Notifications)),
		row("Bell", onOff(s.cfg.Bell)),
		row("Database", s.cfg.DBPath),
		"",
		titleStyle.Render("Categories"),
		"",
	}

	if len(s.categories) == 0 {
		rows = append(rows, mutedStyle.Render("  No categories. Press n to add one."))
	}
	for i, c := range s.categories {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		icon := c.Icon
		if icon == "" {
			icon = " "
		}
		rows = append(rows, style.Render(cursor)+categoryDot(s.categories, c.Name)+" "+style.Render(fmt.Sprintf("%s %-16s", icon, c.Name))+mutedStyle.Render(c.Color))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: edit durations  n: new category  e: edit  d: delete"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
