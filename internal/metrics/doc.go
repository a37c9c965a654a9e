// Package metrics provides Prometheus instrumentation for the object
// detection service.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "object_detection_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//   - UploadBytesTotal: Counter of accepted upload bytes
//
// ## Database Metrics
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBRowsWritten: Counter of rows written by table
//
// ## Pipeline Metrics
//   - PipelineRunsTotal: Counter of runs by outcome (done/degraded/failed/canceled)
//   - PipelineRunDuration: Histogram of end-to-end run duration
//   - PipelineRunsInProgress: Gauge of executing runs
//   - PipelineStateTransitions: Counter of state machine transitions by target state
//   - PipelineFramesProcessed: Counter of frames written to the intermediate encoder
//   - PipelineDetectionFailures: Counter of frames the detector failed on
//   - PipelineDetectionsRecorded: Counter of persisted detection records
//   - PipelineErrorsTotal: Counter of pipeline errors by kind
//
// ## Detector Metrics
//   - DetectorInferenceDuration: Histogram of per-frame latency by backend
//   - DetectorDetectionsTotal: Counter of raw detections by class, with unknown ids as "other"
//
// ## Transcoder Metrics
//   - TranscoderJobsTotal: Counter by status
//   - TranscoderJobDuration: Histogram of job duration
//   - TranscoderJobsInProgress: Gauge of active jobs
//
// ## Runner and Queue Metrics
//   - RunnerRejectionsTotal: Counter of admission rejections by reason
//   - RunnerWaiting: Gauge of admitted runs waiting for a worker slot
//   - QueueTasksTotal: Counter of background task events
//
// # Collector
//
// [Collector] periodically gathers library statistics from a
// [StatsProvider] (the database) and refreshes VideosTotal and
// DetectionsStored:
//
//	collector := metrics.NewCollector(db, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Degraded run ratio:
//
//	sum(rate(object_detection_pipeline_runs_total{outcome="degraded"}[1h])) /
//	sum(rate(object_detection_pipeline_runs_total[1h]))
//
// P95 detector latency:
//
//	histogram_quantile(0.95, sum(rate(object_detection_detector_inference_duration_seconds_bucket[5m])) by (le, backend))
package metrics
