package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const logColumns = `id, category, description, start_ms, end_ms, duration, phase_work, phase_rest, images`

// SaveLog inserts the entry or replaces the row with the same id.
func (s *Store) SaveLog(e LogEntry) error {
	return saveLog(s.db, e)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveLog(db execer, e LogEntry) error {
	images, err := json.Marshal(nonNil(e.Images))
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	var endMs sql.NullInt64
	if e.EndTime != nil {
		endMs = sql.NullInt64{Int64: e.EndTime.UnixMilli(), Valid: true}
	}
	var work, rest sql.NullInt64
	if e.PhaseDurations != nil {
		work = sql.NullInt64{Int64: e.PhaseDurations.Work, Valid: true}
		rest = sql.NullInt64{Int64: e.PhaseDurations.Rest, Valid: true}
	}

	_, err = db.Exec(
		`INSERT INTO logs (`+logColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			description = excluded.description,
			start_ms = excluded.start_ms,
			end_ms = excluded.end_ms,
			duration = excluded.duration,
			phase_work = excluded.phase_work,
			phase_rest = excluded.phase_rest,
			images = excluded.images`,
		e.ID, e.Category, e.Description, e.StartTime.UnixMilli(), endMs, e.Duration, work, rest, string(images),
	)
	if err != nil {
		return fmt.Errorf("save log %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) GetLog(id string) (*LogEntry, error) {
	row := s.db.QueryRow(`SELECT `+logColumns+` FROM logs WHERE id = ?`, id)
	e, err := scanLog(row)
	if err != nil {
		return nil, fmt.Errorf("get log %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) DeleteLog(id string) error {
	_, err := s.db.Exec(`DELETE FROM logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete log %s: %w", id, err)
	}
	return nil
}

// ListLogs returns logs matching f, newest first.
func (s *Store) ListLogs(f LogFilter) ([]LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM logs WHERE 1=1`
	var args []any

	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.From != nil {
		query += ` AND start_ms >= ?`
		args = append(args, f.From.UnixMilli())
	}
	if f.To != nil {
		query += ` AND start_ms < ?`
		args = append(args, f.To.UnixMilli())
	}
	query += ` ORDER BY start_ms DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *e)
	}
	return logs, rows.Err()
}

// ReplaceLogs swaps the whole log table for logs in one transaction.
func (s *Store) ReplaceLogs(logs []LogEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM logs`); err != nil {
		return fmt.Errorf("clear logs: %w", err)
	}
	for _, e := range logs {
		if err := saveLog(tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(sc scanner) (*LogEntry, error) {
	var e LogEntry
	var startMs int64
	var endMs, work, rest sql.NullInt64
	var images string

	if err := sc.Scan(&e.ID, &e.Category, &e.Description, &startMs, &endMs, &e.Duration, &work, &rest, &images); err != nil {
		return nil, err
	}
	e.StartTime = time.UnixMilli(startMs)
	if endMs.Valid {
		t := time.UnixMilli(endMs.Int64)
		e.EndTime = &t
	}
	if work.Valid || rest.Valid {
		e.PhaseDurations = &PhaseDurations{Work: work.Int64, Rest: rest.Int64}
	}
	// A corrupt image list only loses the thumbnails, not the record.
	if err := json.Unmarshal([]byte(images), &e.Images); err != nil {
		e.Images = nil
	}
	if len(e.Images) == 0 {
		e.Images = nil
	}
	return &e, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
