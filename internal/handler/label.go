package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/notes"
	"github.com/dukerupert/jotter/internal/store"
	"github.com/dukerupert/jotter/internal/websocket"
)

type LabelHandler struct {
	labelStore *store.LabelStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewLabelHandler(ls *store.LabelStore, hub *websocket.Hub, logger *slog.Logger) *LabelHandler {
	return &LabelHandler{labelStore: ls, hub: hub, logger: logger.With("component", "labels")}
}

type labelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// parse decodes and validates the body, writing the 400 itself on failure.
func (h *LabelHandler) parse(w http.ResponseWriter, r *http.Request) (labelRequest, bool) {
	var req labelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}
	if notes.Sanitize(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Label name is required")
		return req, false
	}
	if errs := notes.ValidateLabel(req.Name, req.Color); !errs.Valid() {
		writeError(w, http.StatusBadRequest, firstError(errs))
		return req, false
	}
	req.Name = notes.Sanitize(req.Name)
	req.Color = strings.TrimSpace(req.Color)
	if req.Color == "" {
		req.Color = model.DefaultLabelColor
	}
	return req, true
}

type labelResponse struct {
	Message string       `json:"message"`
	Label   *model.Label `json:"label"`
}

func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	labels, err := h.labelStore.ListByAuthor(r.Context(), userID)
	if err != nil {
		h.logger.Error("list labels", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch labels")
		return
	}
	if labels == nil {
		labels = []model.Label{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"labels": labels})
}

func (h *LabelHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	req, ok := h.parse(w, r)
	if !ok {
		return
	}

	exists, err := h.labelStore.NameExists(r.Context(), userID, req.Name, "")
	if err != nil {
		h.logger.Error("check label name", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create label")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "Label name already exists")
		return
	}

	label, err := h.labelStore.Create(r.Context(), userID, req.Name, req.Color)
	if err != nil {
		h.logger.Error("create label", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create label")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("label", "created", label.ID))

	writeJSON(w, http.StatusCreated, labelResponse{Message: "Label created successfully", Label: label})
}

// owned returns the label at the path id when the caller owns it, writing a
// 404 otherwise.
func (h *LabelHandler) owned(w http.ResponseWriter, r *http.Request, userID string) (*model.Label, bool) {
	id := r.PathValue("id")
	existing, err := h.labelStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get label", "label_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if existing == nil || existing.AuthorID != userID {
		writeError(w, http.StatusNotFound, "Label not found")
		return nil, false
	}
	return existing, true
}

func (h *LabelHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	existing, ok := h.owned(w, r, userID)
	if !ok {
		return
	}

	exists, err := h.labelStore.NameExists(r.Context(), userID, req.Name, existing.ID)
	if err != nil {
		h.logger.Error("check label name", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update label")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "Label name already exists")
		return
	}

	label, err := h.labelStore.Update(r.Context(), existing.ID, req.Name, req.Color)
	if err != nil {
		h.logger.Error("update label", "label_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update label")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("label", "updated", existing.ID))

	writeJSON(w, http.StatusOK, labelResponse{Message: "Label updated successfully", Label: label})
}

// Delete removes the label and, through the cascade, its note associations.
func (h *LabelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	existing, ok := h.owned(w, r, userID)
	if !ok {
		return
	}

	if err := h.labelStore.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("delete label", "label_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete label")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("label", "deleted", existing.ID))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Label deleted successfully"})
}
