package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const timeFmt = "2006-01-02T15:04:05Z"

type Run struct {
	ID         string
	Kind       string
	Model      string
	Suffix     string
	Search     string
	StartedAt  time.Time
	FinishedAt *time.Time
	ExitCode   *int
	Stages     []StageRecord
}

type StageRecord struct {
	Seq      int
	Name     string
	Command  string
	Duration time.Duration
	ExitCode int
}

// StartRun records a new run and returns its id.
func (l *Ledger) StartRun(kind, model, suffix, search string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.Exec(`INSERT INTO runs (id, kind, model, suffix, search, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, model, suffix, search, time.Now().UTC().Format(timeFmt))
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run with its final exit code.
func (l *Ledger) FinishRun(id string, exitCode int) error {
	_, err := l.db.Exec(`UPDATE runs SET finished_at = ?, exit_code = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFmt), exitCode, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// AddStage appends one finished stage invocation to a run.
func (l *Ledger) AddStage(runID string, seq int, name, command string, d time.Duration, exitCode int) error {
	_, err := l.db.Exec(`INSERT INTO run_stages (run_id, seq, name, command, duration_ms, exit_code)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, seq, name, command, d.Milliseconds(), exitCode)
	if err != nil {
		return fmt.Errorf("add stage: %w", err)
	}
	return nil
}

// GetRun loads one run with its stages, or nil when unknown.
func (l *Ledger) GetRun(id string) (*Run, error) {
	r := &Run{}
	var startedAt string
	var finishedAt *string
	err := l.db.QueryRow(`SELECT id, kind, model, suffix, search, started_at, finished_at, exit_code
		FROM runs WHERE id = ?`, id).Scan(
		&r.ID, &r.Kind, &r.Model, &r.Suffix, &r.Search, &startedAt, &finishedAt, &r.ExitCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.StartedAt = parseTime(startedAt)
	r.FinishedAt = parseTimePtr(finishedAt)
	if err := l.loadStages(r); err != nil {
		return nil, err
	}
	return r, nil
}

// RecentRuns lists the latest n runs, newest first, stages included.
func (l *Ledger) RecentRuns(n int) ([]*Run, error) {
	rows, err := l.db.Query(`SELECT id, kind, model, suffix, search, started_at, finished_at, exit_code
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var startedAt string
		var finishedAt *string
		if err := rows.Scan(&r.ID, &r.Kind, &r.Model, &r.Suffix, &r.Search, &startedAt, &finishedAt, &r.ExitCode); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		r.FinishedAt = parseTimePtr(finishedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	for _, r := range runs {
		if err := l.loadStages(r); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (l *Ledger) loadStages(r *Run) error {
	rows, err := l.db.Query(`SELECT seq, name, command, duration_ms, exit_code
		FROM run_stages WHERE run_id = ? ORDER BY seq`, r.ID)
	if err != nil {
		return fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s StageRecord
		var ms int64
		if err := rows.Scan(&s.Seq, &s.Name, &s.Command, &ms, &s.ExitCode); err != nil {
			return fmt.Errorf("scan stage: %w", err)
		}
		s.Duration = time.Duration(ms) * time.Millisecond
		r.Stages = append(r.Stages, s)
	}
	return rows.Err()
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFmt, s)
	return t
}

func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := parseTime(*s)
	return &t
}
