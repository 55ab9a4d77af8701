package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/jotter/internal/notes"
	"github.com/dukerupert/jotter/internal/websocket"
)

// maxBodyBytes bounds request bodies; ciphertext of a full-length note fits.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidation(w http.ResponseWriter, errs notes.Errors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation failed",
		"details": errs,
	})
}

// firstError picks one message to report for single-message endpoints,
// preferring the name field.
func firstError(errs notes.Errors) string {
	if msg, ok := errs["name"]; ok {
		return msg
	}
	for _, msg := range errs {
		return msg
	}
	return ""
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func publish(hub *websocket.Hub, userID string, msg websocket.Message) {
	if hub != nil {
		hub.Publish(userID, msg)
	}
}
