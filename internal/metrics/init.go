package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range []string{"done", "degraded", "failed", "canceled"} {
		PipelineRunsTotal.WithLabelValues(outcome)
	}

	for _, state := range []string{"opened", "looping", "encoded", "transcoding", "persisting", "done", "errored"} {
		PipelineStateTransitions.WithLabelValues(state)
	}

	for _, kind := range []string{"unreadable_video", "detection_failure", "encode_failure", "transcode_failure", "persist_failure"} {
		PipelineErrorsTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error", "canceled"} {
		TranscoderJobsTotal.WithLabelValues(status)
	}

	for _, reason := range []string{"in_progress", "canceled", "lock_error"} {
		RunnerRejectionsTotal.WithLabelValues(reason)
	}

	for _, event := range []string{"enqueued", "duplicate", "processed", "failed"} {
		QueueTasksTotal.WithLabelValues(event)
	}

	for _, status := range []string{"uploaded", "processing", "done", "degraded", "failed"} {
		VideosTotal.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "create_video", "get_video", "list_videos",
		"update_video", "replace_detections", "clear_detections", "get_detections", "stats",
		"begin_transaction", "commit", "rollback"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, table := range []string{"videos", "detections"} {
		DBRowsWritten.WithLabelValues(table)
	}
}
