// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - UPLOAD_DIR: uploaded source videos (default: static/uploads)
//   - RESULT_DIR: annotated videos and posters (default: static/results)
//   - STATIC_DIR: served under /static/ (default: static)
//   - DATABASE_DIR: directory of the sqlite file detections.db (default: data)
//   - DATABASE_URL: postgres:// URL; when set, PostgreSQL replaces sqlite
//   - PORT: HTTP server port (default: 8000)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DETECTOR_BACKEND: yolo or http (default: yolo)
//   - MODEL_PATH: ONNX weights for the yolo backend (default: models/yolov5s.onnx)
//   - DETECTOR_URL, DETECTOR_TIMEOUT: remote detector endpoint (timeout default: 30s)
//   - CONFIDENCE_THRESHOLD, NMS_THRESHOLD: yolo post-processing (default: 0.25, 0.45)
//   - CLASS_FILTER: class names or ids to draw and record (default: person)
//   - INTERMEDIATE_CODEC: fourcc of the pre-transcode file (default: mp4v)
//   - FFMPEG_PATH, TRANSCODE_TIMEOUT: transcoder (default: ffmpeg, 30m)
//   - KEEP_INTERMEDIATE: keep <id>_raw.mp4 after transcoding (default: false)
//   - MAX_CONCURRENT_RUNS: cap on concurrent pipeline runs (default: 2)
//   - PIPELINE_WORKERS: explicit worker count, still capped by MAX_CONCURRENT_RUNS
//   - REDIS_ADDR: enables the job queue and the shared run lock
//   - RUN_LOCK_TTL: expiry of a Redis run lock (default: 1h)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// [FromEnv] parses the same variables without touching the filesystem;
// [Config.Prepare] resolves and creates the directories.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// The Log* functions print the sectioned startup and shutdown banner:
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogDatabaseInit(dbInitDuration)
//	startup.LogServerStarted(startup.ServerConfig{Port: config.Port})
//	...
//	startup.LogShutdownInitiated("SIGTERM")
//	startup.LogShutdownComplete()
package startup
