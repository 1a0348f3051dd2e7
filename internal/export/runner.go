package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/project"
)

const pollInterval = 5 * time.Second

// Renderer turns a manifest into a finished file and reports progress
// along the way. Implementations live in the render package.
type Renderer interface {
	Render(ctx context.Context, manifest Manifest, onProgress func(percent int)) (outputRef string, err error)
}

// RetryableError marks a render failure worth requeueing, such as the
// render service being temporarily unreachable.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Notifier receives job lifecycle events for fan-out to clients.
type Notifier interface {
	ExportProgress(job *Job)
}

// Runner drains the export queue one job at a time. Pause stops new
// jobs from being claimed without interrupting the one in flight.
type Runner struct {
	jobs     *JobRepository
	projects *project.Repository
	renderer Renderer
	notifier Notifier
	logger   *slog.Logger
	paused   atomic.Bool
}

func NewRunner(jobs *JobRepository, projects *project.Repository, renderer Renderer, notifier Notifier, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		jobs:     jobs,
		projects: projects,
		renderer: renderer,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "export-runner"),
	}
}

func (r *Runner) Pause()       { r.paused.Store(true) }
func (r *Runner) Resume()      { r.paused.Store(false) }
func (r *Runner) Paused() bool { return r.paused.Load() }

// Start polls until the context is canceled. Blocks; run in a goroutine.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	r.logger.Info("export runner started", "poll_interval", pollInterval.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("export runner stopped")
			return
		case <-ticker.C:
			if r.paused.Load() {
				continue
			}
			r.drain(ctx)
		}
	}
}

// drain processes queued jobs until the queue is empty, an error
// occurs, or the runner is paused.
func (r *Runner) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil || r.paused.Load() {
			return
		}

		job, err := r.jobs.NextQueued()
		if err != nil {
			r.logger.Error("failed to claim export job", "error", err)
			return
		}
		if job == nil {
			return
		}

		r.run(ctx, job)
	}
}

func (r *Runner) run(ctx context.Context, job *Job) {
	log := logging.WithJobID(r.logger, job.ID)
	log.Info("export started", "project_id", job.ProjectID,
		"quality", job.Settings.Quality, "format", job.Settings.Format)

	manifest, err := r.buildManifest(job)
	if err != nil {
		r.fail(job, log, err)
		return
	}

	outputRef, err := r.renderer.Render(ctx, manifest, func(percent int) {
		if err := r.jobs.SetProgress(job.ID, percent); err != nil {
			log.Warn("failed to persist progress", "error", err)
		}
		job.Progress = percent
		r.notify(job)
	})
	if err != nil {
		var retryable *RetryableError
		if errors.As(err, &retryable) && ctx.Err() == nil {
			log.Warn("render failed, requeueing", "error", err)
			if err := r.jobs.setStatus(job.ID, StatusQueued, ""); err != nil {
				log.Error("failed to requeue job", "error", err)
			}
			return
		}
		r.fail(job, log, err)
		return
	}

	if err := r.jobs.MarkCompleted(job.ID, outputRef); err != nil {
		log.Error("failed to mark job completed", "error", err)
		return
	}
	job.Status = StatusCompleted
	job.Progress = 100
	job.OutputRef = outputRef
	r.notify(job)
	log.Info("export completed", "output_ref", outputRef)
}

func (r *Runner) buildManifest(job *Job) (Manifest, error) {
	proj, err := r.projects.Get(job.ProjectID)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to load project: %w", err)
	}
	items, err := r.projects.LoadItems(job.ProjectID)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to load project items: %w", err)
	}
	if len(items) == 0 {
		return Manifest{}, errors.New("project has no items to render")
	}
	return BuildManifest(job.ID, proj.ID, proj.Name, items, job.Settings), nil
}

func (r *Runner) fail(job *Job, log *slog.Logger, cause error) {
	log.Error("export failed", "error", cause)
	if err := r.jobs.MarkFailed(job.ID, cause.Error()); err != nil {
		log.Error("failed to mark job failed", "error", err)
		return
	}
	job.Status = StatusFailed
	job.Error = cause.Error()
	r.notify(job)
}

func (r *Runner) notify(job *Job) {
	if r.notifier != nil {
		r.notifier.ExportProgress(job)
	}
}
