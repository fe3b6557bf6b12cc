package engine

import "github.com/sadopc/pomolog/internal/store"

// EffectKind identifies a side effect requested by a transition.
type EffectKind int

const (
	// EffectNotify asks for a desktop notification.
	EffectNotify EffectKind = iota
	// EffectHaptic asks for a short feedback cue.
	EffectHaptic
	// EffectNotice is a transient message for the status bar.
	EffectNotice
	// EffectLogSaved reports a newly persisted log.
	EffectLogSaved
	// EffectSettingsApplied reports new nominal durations that should be persisted.
	EffectSettingsApplied
)

func (k EffectKind) String() string {
	switch k {
	case EffectNotify:
		return "notify"
	case EffectHaptic:
		return "haptic"
	case EffectNotice:
		return "notice"
	case EffectLogSaved:
		return "log-saved"
	case EffectSettingsApplied:
		return "settings-applied"
	}
	return "unknown"
}

// Effect is one thing the caller should do after a transition. The engine
// never performs effects itself.
type Effect struct {
	Kind     EffectKind
	Title    string
	Body     string
	IsError  bool
	Entry    *store.LogEntry
	Settings store.Settings
}

func notifyEffect(title, body string) Effect {
	return Effect{Kind: EffectNotify, Title: title, Body: body}
}

func hapticEffect() Effect {
	return Effect{Kind: EffectHaptic}
}

func noticeEffect(text string, isError bool) Effect {
	return Effect{Kind: EffectNotice, Body: text, IsError: isError}
}

func savedEffect(e *store.LogEntry) Effect {
	return Effect{Kind: EffectLogSaved, Entry: e}
}

func settingsEffect(s store.Settings) Effect {
	return Effect{Kind: EffectSettingsApplied, Settings: s}
}

// Find returns the first effect of the given kind.
func Find(effects []Effect, kind EffectKind) (Effect, bool) {
	for _, e := range effects {
		if e.Kind == kind {
			return e, true
		}
	}
	return Effect{}, false
}
