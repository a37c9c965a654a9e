package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"object-detection/internal/logging"
	"object-detection/internal/metrics"
)

const (
	TaskProcessVideo = "video:process"
)

// Queue names, highest priority first.
var queueNames = []string{"critical", "default", "low"}

// ProcessPayload is the body of a TaskProcessVideo task.
type ProcessPayload struct {
	VideoID string `json:"video_id"`
}

// Queue wraps the asynq client, server and inspector sharing one Redis.
type Queue struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	inspector *asynq.Inspector
}

// NewQueue connects to Redis at redisAddr. concurrency bounds how many
// tasks this process executes at once.
func NewQueue(redisAddr string, concurrency int) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:   logging.Logger(),
			LogLevel: asynqLevel(),
		},
	)
	mux := asynq.NewServeMux()
	inspector := asynq.NewInspector(redisOpt)
	return &Queue{client: client, server: server, mux: mux, inspector: inspector}
}

func asynqLevel() asynq.LogLevel {
	switch logging.GetLevel() {
	case logging.LevelDebug:
		return asynq.DebugLevel
	case logging.LevelInfo:
		return asynq.InfoLevel
	case logging.LevelWarn:
		return asynq.WarnLevel
	default:
		return asynq.ErrorLevel
	}
}

// isTaskConflict checks whether the error indicates a task ID conflict.
func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

// ProcessTaskID is the deterministic task id for a video.
func ProcessTaskID(videoID string) string {
	return "process:" + videoID
}

// NewProcessTask builds the task for videoID.
func NewProcessTask(videoID string, opts ...asynq.Option) (*asynq.Task, error) {
	if videoID == "" {
		return nil, errors.New("video id is required")
	}
	data, err := json.Marshal(ProcessPayload{VideoID: videoID})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TaskProcessVideo, data, opts...), nil
}

// EnqueueProcess queues a run for videoID. duplicate is true when a task for
// the video is already pending or active and nothing new was queued.
func (q *Queue) EnqueueProcess(ctx context.Context, videoID string) (id string, duplicate bool, err error) {
	task, err := NewProcessTask(videoID,
		asynq.TaskID(ProcessTaskID(videoID)),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Hour),
		asynq.Retention(time.Hour),
	)
	if err != nil {
		return "", false, err
	}
	return q.enqueueUnique(ctx, task, ProcessTaskID(videoID))
}

// enqueueUnique enqueues a task with a deterministic id. A completed or
// archived task with the same id is deleted first so the video can be
// processed again.
func (q *Queue) enqueueUnique(ctx context.Context, task *asynq.Task, uniqueID string) (string, bool, error) {
	info, err := q.client.EnqueueContext(ctx, task)
	if err == nil {
		metrics.QueueTasksTotal.WithLabelValues("enqueued").Inc()
		return info.ID, false, nil
	}
	if !isTaskConflict(err) {
		return "", false, fmt.Errorf("enqueue: %w", err)
	}

	cleared := false
	for _, queueName := range queueNames {
		if delErr := q.inspector.DeleteTask(queueName, uniqueID); delErr == nil {
			logging.Debug("Queue: cleared finished task %s from queue %s", uniqueID, queueName)
			cleared = true
			break
		}
	}

	if cleared {
		info, err = q.client.EnqueueContext(ctx, task)
		if err == nil {
			metrics.QueueTasksTotal.WithLabelValues("enqueued").Inc()
			return info.ID, false, nil
		}
	}

	if isTaskConflict(err) {
		logging.Info("Queue: task %s is already pending or active, skipping", uniqueID)
		metrics.QueueTasksTotal.WithLabelValues("duplicate").Inc()
		return uniqueID, true, nil
	}
	return "", false, fmt.Errorf("enqueue: %w", err)
}

// RegisterHandler routes tasks of taskType to handler.
func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

// Ping checks the Redis connection.
func (q *Queue) Ping() error {
	return q.server.Ping()
}

// Start begins processing tasks in the background.
func (q *Queue) Start() error {
	logging.Info("Job queue worker starting...")
	return q.server.Start(q.mux)
}

// Stop waits for active tasks and closes all connections.
func (q *Queue) Stop() {
	q.server.Shutdown()
	if err := q.client.Close(); err != nil {
		logging.Warn("failed to close queue client: %v", err)
	}
	if err := q.inspector.Close(); err != nil {
		logging.Warn("failed to close queue inspector: %v", err)
	}
}
