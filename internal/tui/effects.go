package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/sadopc/pomolog/internal/engine"
	"github.com/sadopc/pomolog/internal/notify"
	"github.com/sadopc/pomolog/internal/store"
)

const notifyTimeout = 5 * time.Second

// effects performs what engine transitions ask for. It is shared by every
// view that drives the engine.
type effects struct {
	notifier notify.Notifier
	cue      notify.Cue
	store    *store.Store
}

// run executes the effects. Cues fire immediately; everything else comes
// back to the update loop as messages.
func (fx *effects) run(list []engine.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range list {
		switch e.Kind {
		case engine.EffectNotify:
			cmds = append(cmds, fx.notify(e.Title, e.Body))
		case engine.EffectHaptic:
			fx.cue.Fire()
		case engine.EffectNotice:
			cmds = append(cmds, status(e.Body, e.IsError))
		case engine.EffectLogSaved:
			cmds = append(cmds, func() tea.Msg { return logsChangedMsg{} })
		case engine.EffectSettingsApplied:
			if err := fx.store.SaveSettings(e.Settings); err != nil {
				log.Warn("persist settings", "err", err)
				cmds = append(cmds, status("Could not save settings: "+err.Error(), true))
			}
		}
	}
	return tea.Batch(cmds...)
}

// try runs the effects of a rejectable transition. The rejection itself is
// already carried as a notice.
func (fx *effects) try(list []engine.Effect, err error) tea.Cmd {
	if err != nil {
		log.Debug("transition rejected", "err", err)
	}
	return fx.run(list)
}

func (fx *effects) notify(title, body string) tea.Cmd {
	n := fx.notifier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		perm, err := n.Notify(ctx, title, body)
		return notifiedMsg{perm: perm, err: err}
	}
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}
