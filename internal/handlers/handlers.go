package handlers

import (
	"context"
	"time"

	"object-detection/internal/database"
	"object-detection/internal/pipeline"
	"object-detection/internal/startup"
)

// Runner executes a pipeline run with per-video admission.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

// Enqueuer schedules a background run for a video.
type Enqueuer interface {
	EnqueueProcess(ctx context.Context, videoID string) (taskID string, duplicate bool, err error)
	Ping() error
}

// Handlers serves the HTTP API.
type Handlers struct {
	db        *database.Database
	runner    Runner
	queue     Enqueuer
	uploadDir string
	staticDir string
	detector  string
	started   time.Time
}

// New returns the API handlers. queue may be nil when background jobs are
// not configured.
func New(db *database.Database, r Runner, queue Enqueuer, config *startup.Config, detectorName string) *Handlers {
	return &Handlers{
		db:        db,
		runner:    r,
		queue:     queue,
		uploadDir: config.UploadDir,
		staticDir: config.StaticDir,
		detector:  detectorName,
		started:   time.Now(),
	}
}
