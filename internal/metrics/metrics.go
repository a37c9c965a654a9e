package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "object_detection_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "object_detection_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "object_detection_upload_bytes_total",
			Help: "Total bytes of uploaded video accepted",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "object_detection_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "object_detection_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_db_rows_written_total",
			Help: "Total number of rows written by table",
		},
		[]string{"table"},
	)
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome (done, degraded, failed, canceled)",
		},
		[]string{"outcome"},
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "object_detection_pipeline_run_duration_seconds",
			Help:    "Duration of complete pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	PipelineRunsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "object_detection_pipeline_runs_in_progress",
			Help: "Number of pipeline runs currently executing",
		},
	)

	PipelineStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_pipeline_state_transitions_total",
			Help: "Total number of pipeline state transitions by target state",
		},
		[]string{"state"},
	)

	PipelineFramesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "object_detection_pipeline_frames_processed_total",
			Help: "Total number of frames written to the intermediate encoder",
		},
	)

	PipelineDetectionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "object_detection_pipeline_detection_failures_total",
			Help: "Total number of frames on which the detector failed",
		},
	)

	PipelineDetectionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "object_detection_pipeline_detections_recorded_total",
			Help: "Total number of detection records persisted",
		},
	)

	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_pipeline_errors_total",
			Help: "Total number of pipeline errors by kind",
		},
		[]string{"kind"},
	)
)

// Detector metrics
var (
	DetectorInferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "object_detection_detector_inference_duration_seconds",
			Help:    "Per-frame detector latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"},
	)

	DetectorDetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_detector_detections_total",
			Help: "Total number of raw detections returned by class",
		},
		[]string{"class"},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_transcoder_jobs_total",
			Help: "Total number of transcoding jobs by status",
		},
		[]string{"status"},
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "object_detection_transcoder_job_duration_seconds",
			Help:    "Duration of transcoding jobs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "object_detection_transcoder_jobs_in_progress",
			Help: "Number of transcoding jobs currently in progress",
		},
	)
)

// Runner and queue metrics
var (
	RunnerRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_runner_rejections_total",
			Help: "Total number of run requests rejected at admission by reason",
		},
		[]string{"reason"},
	)

	RunnerWaiting = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "object_detection_runner_waiting",
			Help: "Number of admitted runs waiting for a worker slot",
		},
	)

	QueueTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_detection_queue_tasks_total",
			Help: "Total number of background tasks by event (enqueued, duplicate, processed, failed)",
		},
		[]string{"event"},
	)
)

// Library gauges, refreshed by Collector
var (
	VideosTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "object_detection_videos_total",
			Help: "Number of uploaded videos by processing status",
		},
		[]string{"status"},
	)

	DetectionsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "object_detection_detections_stored",
			Help: "Number of detection records currently stored",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "object_detection_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version", "detector"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion, detector string) {
	AppInfo.WithLabelValues(version, commit, goVersion, detector).Set(1)
}
