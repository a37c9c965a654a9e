package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"object-detection/internal/annotate"
	"object-detection/internal/database"
	"object-detection/internal/detector"
	"object-detection/internal/detector/yolo"
	"object-detection/internal/jobs"
	"object-detection/internal/logging"
	"object-detection/internal/media"
	"object-detection/internal/mediatypes"
	"object-detection/internal/metrics"
	"object-detection/internal/pipeline"
	"object-detection/internal/runner"
	"object-detection/internal/startup"
	"object-detection/internal/transcoder"
	"object-detection/internal/video"
	"object-detection/internal/workers"
)

// App holds the wired components of the service.
type App struct {
	Config     *startup.Config
	DB         *database.Database
	Detector   detector.Detector
	Transcoder *transcoder.Transcoder
	Poster     *media.PosterWriter
	Pipeline   *pipeline.Orchestrator
	Runner     *runner.Runner
	Queue      *jobs.Queue

	redis     redis.UniversalClient
	collector *metrics.Collector
}

// Options control which optional components New starts.
type Options struct {
	// Queue connects the asynq queue when REDIS_ADDR is set.
	Queue bool

	// CollectInterval enables the metrics collector when positive.
	CollectInterval time.Duration
}

// New wires every component from cfg. On error, anything already opened is
// closed.
func New(ctx context.Context, cfg *startup.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}
	if err := a.init(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	cfg := a.Config
	var err error

	dbStart := time.Now()
	a.DB, err = database.Open(ctx, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	a.Detector, err = newDetector(cfg)
	if err != nil {
		return err
	}
	a.Detector = detector.Instrument(a.Detector)

	a.Transcoder = transcoder.New(cfg.FFmpegPath, cfg.TranscodeTimeout)
	startup.LogTranscoderInit(cfg.FFmpegPath)

	a.Poster = media.NewPosterWriter(cfg.ResultDir)

	a.Pipeline, err = pipeline.New(pipeline.Deps{
		Source:     video.Opener{},
		Sink:       video.Encoder{},
		Detector:   a.Detector,
		Annotator:  annotate.New(cfg.ClassFilter),
		Transcoder: a.Transcoder,
		Store:      a.DB,
		Observers:  []pipeline.Observer{a.Poster},
	}, pipeline.Options{
		ResultDir:        cfg.ResultDir,
		Codec:            cfg.IntermediateCodec,
		KeepIntermediate: cfg.KeepIntermediate,
		ClassFilter:      cfg.ClassFilter,
	})
	if err != nil {
		return err
	}

	var locker runner.Locker
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = runner.NewRedisLocker(a.redis, cfg.RunLockTTL)
	}
	a.Runner = runner.New(a.Pipeline, locker, workers.ForCPU(cfg.MaxConcurrentRuns), a.Hooks())
	startup.LogRunnerInit(a.Runner.Slots(), a.redis != nil)

	if opts.Queue && cfg.RedisAddr != "" {
		a.Queue = jobs.NewQueue(cfg.RedisAddr, workers.ForIO(cfg.MaxConcurrentRuns))
		a.Queue.RegisterHandler(jobs.TaskProcessVideo, jobs.NewProcessHandler(a.DB, a.Runner))
		qErr := a.Queue.Ping()
		if qErr == nil {
			qErr = a.Queue.Start()
		}
		startup.LogQueueInit(cfg.RedisAddr, qErr)
		if qErr != nil {
			a.Queue.Stop()
			a.Queue = nil
		}
	}

	if opts.CollectInterval > 0 {
		a.collector = metrics.NewCollector(a.DB, opts.CollectInterval)
		a.collector.Start()
	}

	return nil
}

func newDetector(cfg *startup.Config) (detector.Detector, error) {
	start := time.Now()
	switch cfg.DetectorBackend {
	case startup.BackendHTTP:
		d, err := detector.NewHTTPDetector(detector.HTTPOptions{
			URL:     cfg.DetectorURL,
			Timeout: cfg.DetectorTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("http detector: %w", err)
		}
		startup.LogDetectorInit(cfg.DetectorBackend, cfg.DetectorURL, time.Since(start))
		return d, nil
	case startup.BackendYOLO, "":
		d, err := yolo.New(yolo.Options{
			ModelPath:     cfg.ModelPath,
			ConfThreshold: cfg.ConfidenceThreshold,
			NMSThreshold:  cfg.NMSThreshold,
		})
		if err != nil {
			return nil, fmt.Errorf("yolo detector: %w", err)
		}
		startup.LogDetectorInit(startup.BackendYOLO, cfg.ModelPath, time.Since(start))
		return d, nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
	}
}

// Hooks keep the video row in step with runs. The row is marked processing
// before the pipeline starts and the outcome is written once it returns. A
// failed run only updates status and error, so the artifacts and
// detections of an earlier run stay in place.
func (a *App) Hooks() runner.Hooks {
	return runner.Hooks{
		Before: func(ctx context.Context, job pipeline.Job) error {
			return beforeRun(ctx, a.DB, job)
		},
		After: func(ctx context.Context, job pipeline.Job, res *pipeline.Result, err error) {
			afterRun(context.WithoutCancel(ctx), a.DB, a.Poster, job, res, err)
		},
	}
}

// RunStore is the bookkeeping a run needs from the database.
type RunStore interface {
	SetVideoStatus(ctx context.Context, id string, status mediatypes.VideoStatus, msg string) error
	RecordOutcome(ctx context.Context, id string, o database.RunOutcome) error
}

// PosterLookup reports whether a poster was written for a video.
type PosterLookup interface {
	Path(videoID string) string
	Exists(videoID string) bool
}

func beforeRun(ctx context.Context, store RunStore, job pipeline.Job) error {
	return store.SetVideoStatus(ctx, job.VideoID, mediatypes.StatusProcessing, "")
}

func afterRun(ctx context.Context, store RunStore, posters PosterLookup, job pipeline.Job, res *pipeline.Result, runErr error) {
	outcome := Outcome(res, runErr)
	if outcome.Status == mediatypes.StatusFailed {
		if err := store.SetVideoStatus(ctx, job.VideoID, outcome.Status, outcome.Error); err != nil {
			logging.WithVideo(job.VideoID).Errorf("Failed to record run failure: %v", err)
		}
		return
	}
	if posters != nil && posters.Exists(job.VideoID) {
		outcome.PosterPath = posters.Path(job.VideoID)
	}
	if err := store.RecordOutcome(ctx, job.VideoID, outcome); err != nil {
		logging.WithVideo(job.VideoID).Errorf("Failed to record run outcome: %v", err)
	}
}

// Outcome converts a run result into the row update written after it.
func Outcome(res *pipeline.Result, err error) database.RunOutcome {
	if err != nil || res == nil {
		msg := "run produced no result"
		if err != nil {
			msg = err.Error()
		}
		return database.RunOutcome{Status: mediatypes.StatusFailed, Error: msg}
	}

	o := database.RunOutcome{
		Status:          mediatypes.StatusDone,
		Width:           res.Info.Width,
		Height:          res.Info.Height,
		FPS:             res.Info.FPS,
		ResultPath:      res.ResultPath,
		DetectionCount:  res.DetectionCount,
		FramesProcessed: res.FramesProcessed,
	}
	if res.Degraded {
		o.Status = mediatypes.StatusDegraded
	}
	if len(res.Warnings) > 0 {
		o.Error = res.Warnings[len(res.Warnings)-1]
	}
	return o
}

// DetectorName returns the configured backend name.
func (a *App) DetectorName() string {
	if a.Detector == nil {
		return ""
	}
	return a.Detector.Name()
}

// Close stops background work and releases every component. It is safe to
// call on a partially built App.
func (a *App) Close() {
	if a.collector != nil {
		a.collector.Stop()
	}
	if a.Queue != nil {
		a.Queue.Stop()
	}
	if a.Transcoder != nil {
		a.Transcoder.Cleanup()
	}
	if a.Detector != nil {
		if err := a.Detector.Close(); err != nil {
			logging.Warn("Detector close error: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			logging.Warn("Redis close error: %v", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		}
	}
}
