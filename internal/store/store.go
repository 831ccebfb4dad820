// Package store defines job records kept for each processed upload.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a job does not exist.
	ErrNotFound = errors.New("job not found")
	// ErrExists is returned when a job id is already taken.
	ErrExists = errors.New("job already exists")
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job records one run of the upload-to-video pipeline.
type Job struct {
	ID          string     `json:"file_id"`
	Filename    string     `json:"filename"`
	Prompt      string     `json:"prompt"`
	Status      Status     `json:"status"`
	Pages       int        `json:"pages,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
	AudioPath   string     `json:"-"`
	VideoPath   string     `json:"-"`
	Duration    float64    `json:"duration_seconds,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Outcome is what a finished job produced.
type Outcome struct {
	Pages       int
	Explanation string
	AudioPath   string
	VideoPath   string
	Duration    float64
}

// JobStore persists jobs.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) error
	CompleteJob(ctx context.Context, id string, out Outcome) error
	FailJob(ctx context.Context, id string, reason string) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
}

// Noop discards jobs. Lookups always miss.
type Noop struct{}

func (Noop) CreateJob(context.Context, *Job) error             { return nil }
func (Noop) CompleteJob(context.Context, string, Outcome) error { return nil }
func (Noop) FailJob(context.Context, string, string) error      { return nil }
func (Noop) GetJob(context.Context, string) (*Job, error)       { return nil, ErrNotFound }
func (Noop) ListJobs(context.Context, int) ([]*Job, error)      { return nil, nil }
