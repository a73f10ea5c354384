// Package planstore records published plan windows to SQLite so runs
// can be inspected and compared after the fact.
package planstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/waypoint.planner/internal/planner"
)

// Store wraps the SQLite database holding run sessions and per-tick
// window summaries.
type Store struct {
	*sql.DB
	runID string
}

// Open opens (or creates) the database at path. Call MigrateUp before
// recording.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan store: %w", err)
	}
	return &Store{DB: db}, nil
}

// Run is one recorded planner session.
type Run struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	PathLength int       `json:"path_length"`
	Windows    int       `json:"windows"`
}

// WindowRow is the stored summary of one published window.
type WindowRow struct {
	RunID      string    `json:"run_id"`
	Seq        uint64    `json:"seq"`
	CreatedAt  time.Time `json:"created_at"`
	State      string    `json:"state"`
	NextIndex  int       `json:"next_index"`
	StopIndex  int       `json:"stop_index"`
	WindowLen  int       `json:"window_len"`
	FirstSpeed float64   `json:"first_speed"`
	LastSpeed  float64   `json:"last_speed"`
}

// BeginRun opens a new run session; subsequent RecordWindow calls are
// attributed to it.
func (s *Store) BeginRun(startedAt time.Time, pathLength int) (string, error) {
	runID := uuid.NewString()
	_, err := s.Exec(
		`INSERT INTO runs (run_id, started_at, path_length) VALUES (?, ?, ?)`,
		runID, startedAt.UTC(), pathLength,
	)
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	s.runID = runID
	return runID, nil
}

// RunID returns the current run session id, empty before BeginRun.
func (s *Store) RunID() string {
	return s.runID
}

// RecordWindow stores a summary of one published window under the
// current run.
func (s *Store) RecordWindow(w planner.PlanWindow) error {
	if s.runID == "" {
		return fmt.Errorf("no run in progress; call BeginRun first")
	}
	var firstSpeed, lastSpeed float64
	if n := len(w.Waypoints); n > 0 {
		firstSpeed = w.Waypoints[0].TargetSpeed
		lastSpeed = w.Waypoints[n-1].TargetSpeed
	}
	_, err := s.Exec(
		`INSERT INTO plan_windows
			(run_id, seq, created_at, state, next_index, stop_index, window_len, first_speed, last_speed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, w.Seq, w.CreatedAt.UTC(), w.State.String(),
		w.NextIndex, w.StopIndex, len(w.Waypoints), firstSpeed, lastSpeed,
	)
	if err != nil {
		return fmt.Errorf("failed to record window: %w", err)
	}
	return nil
}

// Runs returns all recorded run sessions, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.Query(`
		SELECT r.run_id, r.started_at, r.path_length, COUNT(w.seq)
		FROM runs r
		LEFT JOIN plan_windows w ON w.run_id = r.run_id
		GROUP BY r.run_id, r.started_at, r.path_length
		ORDER BY r.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.PathLength, &r.Windows); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// WindowsForRun returns up to limit stored window summaries for a run,
// in publish order.
func (s *Store) WindowsForRun(runID string, limit int) ([]WindowRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.Query(`
		SELECT run_id, seq, created_at, state, next_index, stop_index, window_len, first_speed, last_speed
		FROM plan_windows
		WHERE run_id = ?
		ORDER BY seq ASC
		LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows: %w", err)
	}
	defer rows.Close()

	var windows []WindowRow
	for rows.Next() {
		var w WindowRow
		if err := rows.Scan(&w.RunID, &w.Seq, &w.CreatedAt, &w.State,
			&w.NextIndex, &w.StopIndex, &w.WindowLen, &w.FirstSpeed, &w.LastSpeed); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}
