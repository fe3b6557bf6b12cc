package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateGoal(title, category string, targetMinutes int) (*Goal, error) {
	g := Goal{
		ID:            uuid.NewString(),
		Title:         title,
		Category:      category,
		TargetMinutes: targetMinutes,
		CreatedAt:     time.Now().UTC(),
	}
	if err := insertGoal(s.db, g); err != nil {
		return nil, err
	}
	return s.GetGoal(g.ID)
}

func insertGoal(db execer, g Goal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT OR REPLACE INTO goals (id, title, category, target_minutes, done, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Category, g.TargetMinutes, boolInt(g.Done), g.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(id string) (*Goal, error) {
	g := &Goal{}
	var createdAt string
	var done int
	err := s.db.QueryRow(
		`SELECT id, title, category, target_minutes, done, created_at FROM goals WHERE id = ?`, id,
	).Scan(&g.ID, &g.Title, &g.Category, &g.TargetMinutes, &done, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", id, err)
	}
	g.Done = done == 1
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return g, nil
}

func (s *Store) ListGoals(includeDone bool) ([]Goal, error) {
	query := `SELECT id, title, category, target_minutes, done, created_at FROM goals`
	if !includeDone {
		query += ` WHERE done = 0`
	}
	query += ` ORDER BY created_at, title`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		var createdAt string
		var done int
		if err := rows.Scan(&g.ID, &g.Title, &g.Category, &g.TargetMinutes, &done, &createdAt); err != nil {
			return nil, err
		}
		g.Done = done == 1
		g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) CompleteGoal(id string) error {
	_, err := s.db.Exec(`UPDATE goals SET done = 1 WHERE id = ?`, id)
	return err
}

func (s *Store) DeleteGoal(id string) error {
	_, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	return err
}

func (s *Store) ReplaceGoals(goals []Goal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM goals`); err != nil {
		return fmt.Errorf("clear goals: %w", err)
	}
	for _, g := range goals {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if err := insertGoal(tx, g); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
