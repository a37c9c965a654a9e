package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"object-detection/internal/database"
	"object-detection/internal/logging"
	"object-detection/internal/pipeline"
	"object-detection/internal/runner"
)

// ProcessResponse is returned by a completed synchronous run.
type ProcessResponse struct {
	Message        string   `json:"message"`
	VideoPath      string   `json:"video_path"`
	DetectionCount int      `json:"detection_count"`
	Degraded       bool     `json:"degraded"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ProcessVideo runs a stored video through the pipeline. With ?async=true
// the run is queued and the handler responds 202 immediately.
func (h *Handlers) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	video, err := h.db.GetVideo(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "Video not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("ProcessVideo: look up %s: %v", id, err)
		writeJSONError(w, "Failed to look up video", http.StatusInternalServerError)
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.enqueue(w, r, video.ID)
		return
	}

	res, err := h.runner.Run(r.Context(), pipeline.Job{VideoID: video.ID, SourcePath: video.FilePath})
	if err != nil {
		status, msg := processErrorStatus(err)
		writeJSONError(w, msg, status)
		return
	}

	message := "Video processed and saved"
	if res.Degraded {
		message = "Video processed with warnings"
	}
	writeJSON(w, http.StatusOK, ProcessResponse{
		Message:        message,
		VideoPath:      h.staticURL(res.ResultPath),
		DetectionCount: res.DetectionCount,
		Degraded:       res.Degraded,
		Warnings:       res.Warnings,
	})
}

func (h *Handlers) enqueue(w http.ResponseWriter, r *http.Request, videoID string) {
	if h.queue == nil {
		writeJSONError(w, "Background processing is not configured", http.StatusServiceUnavailable)
		return
	}

	taskID, duplicate, err := h.queue.EnqueueProcess(r.Context(), videoID)
	if err != nil {
		logging.Error("ProcessVideo: enqueue %s: %v", videoID, err)
		writeJSONError(w, "Failed to enqueue video", http.StatusInternalServerError)
		return
	}

	message := "Video queued for processing"
	if duplicate {
		message = "Video is already queued"
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   message,
		"video_id":  videoID,
		"task_id":   taskID,
		"duplicate": duplicate,
	})
}

// processErrorStatus maps a run error to an HTTP status and a message that
// names the failure kind only. The full error, which carries server paths,
// is logged.
func processErrorStatus(err error) (int, string) {
	if errors.Is(err, runner.ErrRunInProgress) {
		return http.StatusConflict, runner.ErrRunInProgress.Error()
	}
	logging.Error("ProcessVideo: %v", err)
	switch kind := pipeline.KindOf(err); kind {
	case pipeline.KindUnreadableVideo:
		return http.StatusUnprocessableEntity, "Processing failed: " + kind.String()
	case pipeline.KindUnknown:
		return http.StatusInternalServerError, "Processing failed"
	default:
		return http.StatusInternalServerError, "Processing failed: " + kind.String()
	}
}
