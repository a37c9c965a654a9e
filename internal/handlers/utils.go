package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"object-detection/internal/logging"
)

// writeJSON encodes v as JSON with the given status code. Encoding errors
// are logged since the status has already been sent.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// staticURL maps a file under the static directory to its /static URL.
// Paths outside it are returned unchanged.
func (h *Handlers) staticURL(path string) string {
	if path == "" || h.staticDir == "" {
		return path
	}
	rel, err := filepath.Rel(h.staticDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return "/static/" + filepath.ToSlash(rel)
}
