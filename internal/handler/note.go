package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/notes"
	"github.com/dukerupert/jotter/internal/query"
	"github.com/dukerupert/jotter/internal/store"
	"github.com/dukerupert/jotter/internal/websocket"
)

type NoteHandler struct {
	noteStore     *store.NoteStore
	categoryStore *store.CategoryStore
	hub           *websocket.Hub
	logger        *slog.Logger
	now           func() time.Time
}

func NewNoteHandler(ns *store.NoteStore, cs *store.CategoryStore, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		noteStore:     ns,
		categoryStore: cs,
		hub:           hub,
		logger:        logger.With("component", "notes"),
		now:           time.Now,
	}
}

type createNoteRequest struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	EncryptedContent *string  `json:"encrypted_content"`
	IsEncrypted      bool     `json:"is_encrypted"`
	IsPublic         bool     `json:"is_public"`
	IsDraft          *bool    `json:"is_draft"`
	CategoryID       *string  `json:"category_id"`
	LabelIDs         []string `json:"label_ids"`
}

type noteResponse struct {
	Message string      `json:"message,omitempty"`
	Note    *model.Note `json:"note"`
}

// List serves GET /api/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	f := query.Parse(r.URL.Query(), "search")

	list, total, err := h.noteStore.List(r.Context(), userID, f)
	if err != nil {
		h.logger.Error("list notes", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch notes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notes":      list,
		"pagination": query.Paginate(f, total),
	})
}

// Search serves GET /api/notes/search. Same facets as List with the text
// under "q" and a flatter envelope.
func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	f := query.Parse(r.URL.Query(), "q")

	list, total, err := h.noteStore.List(r.Context(), userID, f)
	if err != nil {
		h.logger.Error("search notes", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to search notes")
		return
	}

	p := query.Paginate(f, total)
	writeJSON(w, http.StatusOK, map[string]any{
		"notes":   list,
		"total":   p.Total,
		"page":    p.Page,
		"limit":   p.Limit,
		"hasMore": p.HasMore,
	})
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if errs := notes.Validate(req.Title, req.Content); !errs.Valid() {
		writeValidation(w, errs)
		return
	}

	n := &model.Note{
		AuthorID:         userID,
		Title:            notes.Sanitize(req.Title),
		Content:          notes.Sanitize(req.Content),
		EncryptedContent: req.EncryptedContent,
		IsEncrypted:      req.IsEncrypted,
		IsPublic:         req.IsPublic,
		IsDraft:          true,
	}
	if req.IsDraft != nil {
		n.IsDraft = *req.IsDraft
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		ok, err := h.categoryVisible(r, *req.CategoryID, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create note")
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "Category not found")
			return
		}
		n.CategoryID = req.CategoryID
	}

	notes.NormalizeEncryption(n)
	if err := notes.ReconcileLink(n); err != nil {
		h.logger.Error("allocate public link", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create note")
		return
	}

	note, err := h.noteStore.Create(r.Context(), n)
	if err != nil {
		h.logger.Error("create note", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create note")
		return
	}

	if len(req.LabelIDs) > 0 {
		if _, err := h.noteStore.AttachLabels(r.Context(), note.ID, userID, req.LabelIDs); err != nil {
			h.logger.Warn("label assignment", "note_id", note.ID, "error", err)
		} else if refreshed, err := h.noteStore.GetByID(r.Context(), note.ID); err == nil && refreshed != nil {
			note = refreshed
		}
	}

	publish(h.hub, userID, websocket.NewMessage("note", "created", note.ID))

	writeJSON(w, http.StatusCreated, noteResponse{Message: "Note created successfully", Note: note})
}

// Get resolves the path id as a public link first, then as a note id owned by
// the caller. Every miss is the same 404.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	public, err := h.noteStore.GetByPublicLink(r.Context(), id)
	if err != nil {
		h.logger.Error("get public note", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if public != nil {
		if public.Author != nil {
			public.Author.Email = ""
		}
		writeJSON(w, http.StatusOK, noteResponse{Note: public})
		return
	}

	userID := auth.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	note, err := h.noteStore.GetOwned(r.Context(), id, userID)
	if err != nil {
		h.logger.Error("get note", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, noteResponse{Note: note})
}

// Update merges the supplied fields into the caller's note. Labels, when
// supplied, replace the existing set; failures there are logged only.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	var patch notes.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if errs := patch.Validate(); !errs.Valid() {
		writeValidation(w, errs)
		return
	}

	existing, err := h.noteStore.GetOwned(r.Context(), id, userID)
	if err != nil {
		h.logger.Error("get note", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update note")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	if patch.CategoryID.Set && !patch.CategoryID.Null && patch.CategoryID.Value != "" {
		ok, err := h.categoryVisible(r, patch.CategoryID.Value, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update note")
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "Category not found")
			return
		}
	}

	if err := patch.Apply(existing, h.now().UTC()); err != nil {
		h.logger.Error("apply note patch", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update note")
		return
	}

	note, err := h.noteStore.Update(r.Context(), existing)
	if err != nil {
		h.logger.Error("update note", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update note")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	if patch.LabelIDs.Set {
		if err := h.noteStore.ReplaceLabels(r.Context(), id, userID, patch.LabelIDs.Value); err != nil {
			h.logger.Warn("label assignment", "note_id", id, "error", err)
		} else if refreshed, err := h.noteStore.GetByID(r.Context(), id); err == nil && refreshed != nil {
			note = refreshed
		}
	}

	publish(h.hub, userID, websocket.NewMessage("note", "updated", id))

	msg := "Note updated successfully"
	if patch.IsAutosave {
		msg = "Note autosaved"
	}
	writeJSON(w, http.StatusOK, noteResponse{Message: msg, Note: note})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	deleted, err := h.noteStore.Delete(r.Context(), id, userID)
	if err != nil {
		h.logger.Error("delete note", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete note")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("note", "deleted", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

func (h *NoteHandler) categoryVisible(r *http.Request, categoryID, userID string) (bool, error) {
	c, err := h.categoryStore.GetVisible(r.Context(), categoryID, userID)
	if err != nil {
		h.logger.Error("check category", "category_id", categoryID, "error", err)
		return false, err
	}
	return c != nil, nil
}
