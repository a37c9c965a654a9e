package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"object-detection/internal/database"
	"object-detection/internal/logging"
	"object-detection/internal/mediatypes"
	"object-detection/internal/metrics"
)

// maxUploadMemory is how much of a multipart upload is buffered in memory
// before spilling to temporary files.
const maxUploadMemory = 32 << 20

// UploadVideo stores a multipart "file" field as <uuid>.<ext> in the upload
// directory and creates its video row.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !mediatypes.IsUploadable(header.Filename) {
		writeJSONError(w, "Unsupported file format", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := id + ext
	path := filepath.Join(h.uploadDir, filename)

	n, err := saveUpload(path, file)
	if err != nil {
		logging.Error("Upload: failed to store %s: %v", path, err)
		writeJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	metrics.UploadBytesTotal.Add(float64(n))

	video := &database.Video{ID: id, Filename: filename, FilePath: path}
	if err := h.db.CreateVideo(r.Context(), video); err != nil {
		logging.Error("Upload: failed to create video %s: %v", id, err)
		_ = os.Remove(path)
		writeJSONError(w, "Failed to create video", http.StatusInternalServerError)
		return
	}

	logging.WithVideo(id).Infof("Uploaded %s (%d bytes)", header.Filename, n)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Video uploaded successfully",
		"video_id": id,
	})
}

func saveUpload(path string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}

// ListVideos returns every video with its processing status.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.db.ListVideos(r.Context())
	if err != nil {
		logging.Error("ListVideos: %v", err)
		writeJSONError(w, "Failed to list videos", http.StatusInternalServerError)
		return
	}
	if videos == nil {
		videos = []database.Video{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
}

// GetDetections returns the stored detections of a video ordered by frame.
// It responds 404 when there are none.
func (h *Handlers) GetDetections(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	dets, err := h.db.GetDetections(r.Context(), id)
	if err != nil {
		logging.Error("GetDetections %s: %v", id, err)
		writeJSONError(w, "Failed to get detections", http.StatusInternalServerError)
		return
	}
	if len(dets) == 0 {
		writeJSONError(w, "No detections found for this video", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"video_id":   id,
		"detections": dets,
	})
}
