// Package sqlite implements store.JobStore on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed job persistence.
type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
	now func() time.Time
}

var _ store.JobStore = (*Store)(nil)

// Open creates the database at path, configures WAL mode and applies the schema.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, log: log, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const jobColumns = `id, filename, prompt, status, pages, explanation,
	audio_path, video_path, duration, error, created_at, completed_at`

func (s *Store) CreateJob(ctx context.Context, job *store.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	if job.Status == "" {
		job.Status = store.StatusProcessing
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO NOTHING`,
		job.ID, job.Filename, job.Prompt, string(job.Status), job.Pages, job.Explanation,
		job.AudioPath, job.VideoPath, job.Duration, job.Error, formatTime(job.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	} else if n == 0 {
		return fmt.Errorf("insert job %s: %w", job.ID, store.ErrExists)
	}
	s.log.WithFields(logrus.Fields{"job": job.ID, "filename": job.Filename}).Debug("Job created")
	return nil
}

func (s *Store) CompleteJob(ctx context.Context, id string, out store.Outcome) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ?, pages = ?, explanation = ?,
		audio_path = ?, video_path = ?, duration = ?, error = '', completed_at = ?
		WHERE id = ?`,
		string(store.StatusCompleted), out.Pages, out.Explanation,
		out.AudioPath, out.VideoPath, out.Duration, formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	return requireRow(res)
}

func (s *Store) FailJob(ctx context.Context, id string, reason string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(store.StatusFailed), reason, formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return requireRow(res)
}

func (s *Store) GetJob(ctx context.Context, id string) (*store.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns the newest jobs first. A non-positive limit means 50.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*store.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*store.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// scanJob scans a sql.Row or sql.Rows in jobColumns order.
func scanJob(scanner interface{ Scan(dest ...any) error }) (*store.Job, error) {
	var (
		job         store.Job
		status      string
		createdAt   string
		completedAt sql.NullString
	)
	err := scanner.Scan(
		&job.ID,
		&job.Filename,
		&job.Prompt,
		&status,
		&job.Pages,
		&job.Explanation,
		&job.AudioPath,
		&job.VideoPath,
		&job.Duration,
		&job.Error,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = store.Status(status)

	job.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid && completedAt.String != "" {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		job.CompletedAt = &t
	}
	return &job, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// timeLayout is RFC3339 with fixed-width nanoseconds so stored values sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
