package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"object-detection/internal/database"
	"object-detection/internal/logging"
	"object-detection/internal/metrics"
	"object-detection/internal/pipeline"
	"object-detection/internal/runner"
)

// VideoLookup resolves a video id to its stored row.
type VideoLookup interface {
	GetVideo(ctx context.Context, id string) (*database.Video, error)
}

// Runner executes an admitted pipeline run.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

// ProcessHandler handles TaskProcessVideo tasks.
type ProcessHandler struct {
	videos VideoLookup
	runner Runner
}

// NewProcessHandler returns a handler that runs videos through r.
func NewProcessHandler(videos VideoLookup, r Runner) *ProcessHandler {
	return &ProcessHandler{videos: videos, runner: r}
}

// ProcessTask implements asynq.Handler. Failures that a retry cannot fix
// are wrapped with asynq.SkipRetry.
func (h *ProcessHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ProcessPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		metrics.QueueTasksTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("unmarshal: %v: %w", err, asynq.SkipRetry)
	}

	err := h.process(ctx, p.VideoID)
	if err != nil {
		metrics.QueueTasksTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.QueueTasksTotal.WithLabelValues("processed").Inc()
	return nil
}

func (h *ProcessHandler) process(ctx context.Context, videoID string) error {
	video, err := h.videos.GetVideo(ctx, videoID)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("video %s: %v: %w", videoID, err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("look up video %s: %w", videoID, err)
	}

	logging.Info("Job: processing video %s", videoID)
	res, err := h.runner.Run(ctx, pipeline.Job{VideoID: video.ID, SourcePath: video.FilePath})
	switch {
	case errors.Is(err, runner.ErrRunInProgress):
		return fmt.Errorf("video %s: %v: %w", videoID, err, asynq.SkipRetry)
	case pipeline.KindOf(err).Fatal():
		return fmt.Errorf("video %s: %v: %w", videoID, err, asynq.SkipRetry)
	case err != nil:
		return fmt.Errorf("process video %s: %w", videoID, err)
	}

	logging.Info("Job: video %s done, %d detections, result %s", videoID, res.DetectionCount, res.ResultPath)
	return nil
}
