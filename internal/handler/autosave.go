package handler

import (
	"net/http"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/notes"
	"github.com/dukerupert/jotter/internal/store"
	"github.com/dukerupert/jotter/internal/websocket"
)

type autosaveRequest struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Content          string  `json:"content"`
	EncryptedContent *string `json:"encrypted_content"`
	IsEncrypted      bool    `json:"is_encrypted"`
}

// Autosave serves POST /api/notes/autosave. Without an id it starts a new
// private draft; with one it overwrites the content snapshot of the caller's
// note and leaves visibility alone.
func (h *NoteHandler) Autosave(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req autosaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	title := req.Title
	if notes.Sanitize(title) == "" {
		title = model.UntitledNote
	}
	if errs := notes.Validate(title, req.Content); !errs.Valid() {
		writeValidation(w, errs)
		return
	}

	now := h.now().UTC()
	n := &model.Note{
		ID:               req.ID,
		AuthorID:         userID,
		Title:            notes.Sanitize(title),
		Content:          notes.Sanitize(req.Content),
		EncryptedContent: req.EncryptedContent,
		IsEncrypted:      req.IsEncrypted,
		IsDraft:          true,
		LastAutosave:     &now,
	}
	notes.NormalizeEncryption(n)

	if req.ID == "" {
		note, err := h.noteStore.Create(r.Context(), n)
		if err != nil {
			h.logger.Error("create draft", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create draft note")
			return
		}
		publish(h.hub, userID, websocket.NewMessage("note", "created", note.ID))
		writeJSON(w, http.StatusCreated, noteResponse{Message: "Note autosaved", Note: note})
		return
	}

	note, err := h.noteStore.Autosave(r.Context(), req.ID, userID, store.AutosaveInput{
		Title:            n.Title,
		Content:          n.Content,
		EncryptedContent: n.EncryptedContent,
		IsEncrypted:      n.IsEncrypted,
	})
	if err != nil {
		h.logger.Error("autosave note", "note_id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to autosave note")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("note", "autosaved", note.ID))
	writeJSON(w, http.StatusOK, noteResponse{Message: "Note autosaved", Note: note})
}
