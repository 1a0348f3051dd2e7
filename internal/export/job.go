package export

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var ErrJobNotFound = errors.New("export job not found")

type Job struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Settings  Settings  `json:"settings"`
	OutputRef string    `json:"output_ref,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobRepository persists export jobs. The runner polls it for queued
// work; handlers read it for status.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Enqueue(projectID string, settings Settings) (*Job, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Status:    StatusQueued,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.Exec(`
		INSERT INTO export_jobs (id, project_id, status, progress, quality, format, resolution, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		job.ID, job.ProjectID, string(job.Status),
		settings.Quality, settings.Format, settings.Resolution,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue export job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) Get(id string) (*Job, error) {
	row := r.db.QueryRow(`
		SELECT id, project_id, status, progress, quality, format, resolution,
		       COALESCE(output_ref, ''), COALESCE(error, ''), created_at, updated_at
		FROM export_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// NextQueued claims the oldest queued job by flipping it to running.
// Returns nil with no error when the queue is empty.
func (r *JobRepository) NextQueued() (*Job, error) {
	row := r.db.QueryRow(`
		SELECT id, project_id, status, progress, quality, format, resolution,
		       COALESCE(output_ref, ''), COALESCE(error, ''), created_at, updated_at
		FROM export_jobs WHERE status = ? ORDER BY created_at LIMIT 1`, string(StatusQueued))
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.setStatus(job.ID, StatusRunning, ""); err != nil {
		return nil, err
	}
	job.Status = StatusRunning
	return job, nil
}

func (r *JobRepository) ListByProject(projectID string) ([]*Job, error) {
	rows, err := r.db.Query(`
		SELECT id, project_id, status, progress, quality, format, resolution,
		       COALESCE(output_ref, ''), COALESCE(error, ''), created_at, updated_at
		FROM export_jobs WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list export jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) SetProgress(id string, progress int) error {
	_, err := r.db.Exec(`
		UPDATE export_jobs SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *JobRepository) MarkCompleted(id, outputRef string) error {
	_, err := r.db.Exec(`
		UPDATE export_jobs SET status = ?, progress = 100, output_ref = ?, updated_at = ? WHERE id = ?`,
		string(StatusCompleted), outputRef, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *JobRepository) MarkFailed(id, message string) error {
	return r.setStatus(id, StatusFailed, message)
}

func (r *JobRepository) setStatus(id string, status Status, message string) error {
	_, err := r.db.Exec(`
		UPDATE export_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), message, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var job Job
	var status, created, updated string
	err := row.Scan(&job.ID, &job.ProjectID, &status, &job.Progress,
		&job.Settings.Quality, &job.Settings.Format, &job.Settings.Resolution,
		&job.OutputRef, &job.Error, &created, &updated)
	if err != nil {
		return nil, err
	}
	job.Status = Status(status)
	if job.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("failed to parse job timestamp: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("failed to parse job timestamp: %w", err)
	}
	return &job, nil
}
