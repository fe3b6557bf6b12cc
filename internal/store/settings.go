package store

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
)

const (
	settingWorkDuration = "work_duration"
	settingRestDuration = "rest_duration"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// LoadSettings reads the phase durations. Missing or malformed values fall
// back to their defaults individually.
func (s *Store) LoadSettings() Settings {
	def := DefaultSettings()
	return Settings{
		WorkDuration: s.durationSetting(settingWorkDuration, def.WorkDuration),
		RestDuration: s.durationSetting(settingRestDuration, def.RestDuration),
	}
}

func (s *Store) durationSetting(key string, fallback int64) int64 {
	v, err := s.GetSetting(key)
	if err != nil {
		return fallback
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs < MinPhaseDuration {
		log.Warn("malformed setting, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return secs
}

func (s *Store) SaveSettings(st Settings) error {
	if err := s.SetSetting(settingWorkDuration, strconv.FormatInt(st.WorkDuration, 10)); err != nil {
		return fmt.Errorf("save work duration: %w", err)
	}
	if err := s.SetSetting(settingRestDuration, strconv.FormatInt(st.RestDuration, 10)); err != nil {
		return fmt.Errorf("save rest duration: %w", err)
	}
	return nil
}
