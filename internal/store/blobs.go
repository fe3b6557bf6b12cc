package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const blobInspirations = "inspirations"

// GetBlob returns the named blob, or nil when it has never been written.
func (s *Store) GetBlob(name string) ([]byte, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM blobs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", name, err)
	}
	return []byte(data), nil
}

func (s *Store) PutBlob(name string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO blobs (name, data) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		name, string(data),
	)
	if err != nil {
		return fmt.Errorf("put blob %q: %w", name, err)
	}
	return nil
}

// LoadInspirations decodes the inspirations blob. A missing or malformed blob
// yields an empty list.
func (s *Store) LoadInspirations() []Inspiration {
	data, err := s.GetBlob(blobInspirations)
	if err != nil {
		log.Warn("read inspirations", "err", err)
		return nil
	}
	if data == nil {
		return nil
	}
	var out []Inspiration
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn("malformed inspirations blob, using empty list", "err", err)
		return nil
	}
	return out
}

func (s *Store) SaveInspirations(items []Inspiration) error {
	if items == nil {
		items = []Inspiration{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal inspirations: %w", err)
	}
	return s.PutBlob(blobInspirations, data)
}

func (s *Store) AddInspiration(content string, images []string) (*Inspiration, error) {
	item := Inspiration{
		ID:        uuid.NewString(),
		Content:   content,
		Images:    images,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	items := append([]Inspiration{item}, s.LoadInspirations()...)
	if err := s.SaveInspirations(items); err != nil {
		return nil, err
	}
	return &item, nil
}
