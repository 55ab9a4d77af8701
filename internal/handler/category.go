package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/notes"
	"github.com/dukerupert/jotter/internal/store"
	"github.com/dukerupert/jotter/internal/websocket"
)

type CategoryHandler struct {
	categoryStore *store.CategoryStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewCategoryHandler(cs *store.CategoryStore, hub *websocket.Hub, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categoryStore: cs, hub: hub, logger: logger.With("component", "categories")}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

func (req *categoryRequest) normalize() {
	req.Name = notes.Sanitize(req.Name)
	req.Description = notes.Sanitize(req.Description)
	req.Color = strings.TrimSpace(req.Color)
	req.Icon = strings.TrimSpace(req.Icon)
	if req.Color == "" {
		req.Color = model.DefaultCategoryColor
	}
	if req.Icon == "" {
		req.Icon = model.DefaultCategoryIcon
	}
}

type categoryResponse struct {
	Message  string          `json:"message"`
	Category *model.Category `json:"category"`
}

// List returns the caller's categories plus the shared defaults.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	categories, err := h.categoryStore.ListVisible(r.Context(), userID)
	if err != nil {
		h.logger.Error("list categories", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if notes.Sanitize(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}
	if errs := notes.ValidateCategory(req.Name, req.Color); !errs.Valid() {
		writeError(w, http.StatusBadRequest, firstError(errs))
		return
	}
	req.normalize()

	exists, err := h.categoryStore.NameExists(r.Context(), userID, req.Name, "")
	if err != nil {
		h.logger.Error("check category name", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "Category name already exists")
		return
	}

	category, err := h.categoryStore.Create(r.Context(), userID, req.Name, req.Description, req.Color, req.Icon)
	if err != nil {
		h.logger.Error("create category", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("category", "created", category.ID))

	writeJSON(w, http.StatusCreated, categoryResponse{Message: "Category created successfully", Category: category})
}

// lookup resolves a category the caller may mutate. On failure it has already
// written the response: 404 when not visible, 403 for defaults.
func (h *CategoryHandler) lookup(w http.ResponseWriter, r *http.Request, userID, forbidden string) (*model.Category, bool) {
	id := r.PathValue("id")
	existing, err := h.categoryStore.GetVisible(r.Context(), id, userID)
	if err != nil {
		h.logger.Error("get category", "category_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return nil, false
	}
	if existing.IsDefault {
		writeError(w, http.StatusForbidden, forbidden)
		return nil, false
	}
	if !existing.OwnedBy(userID) {
		writeError(w, http.StatusNotFound, "Category not found")
		return nil, false
	}
	return existing, true
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if notes.Sanitize(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}
	if errs := notes.ValidateCategory(req.Name, req.Color); !errs.Valid() {
		writeError(w, http.StatusBadRequest, firstError(errs))
		return
	}
	req.normalize()

	existing, ok := h.lookup(w, r, userID, "Cannot modify default categories")
	if !ok {
		return
	}

	exists, err := h.categoryStore.NameExists(r.Context(), userID, req.Name, existing.ID)
	if err != nil {
		h.logger.Error("check category name", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "Category name already exists")
		return
	}

	category, err := h.categoryStore.Update(r.Context(), existing.ID, req.Name, req.Description, req.Color, req.Icon)
	if err != nil {
		h.logger.Error("update category", "category_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("category", "updated", existing.ID))

	writeJSON(w, http.StatusOK, categoryResponse{Message: "Category updated successfully", Category: category})
}

// Delete refuses while any note still references the category.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, ok := h.lookup(w, r, userID, "Cannot delete default categories")
	if !ok {
		return
	}

	inUse, err := h.categoryStore.InUse(r.Context(), existing.ID)
	if err != nil {
		h.logger.Error("check category usage", "category_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to check category usage")
		return
	}
	if inUse {
		writeError(w, http.StatusBadRequest, "Cannot delete category that is being used by notes")
		return
	}

	if err := h.categoryStore.Delete(r.Context(), existing.ID); err != nil {
		// A note may have claimed the category since the usage check.
		if errors.Is(err, store.ErrCategoryInUse) {
			writeError(w, http.StatusBadRequest, "Cannot delete category that is being used by notes")
			return
		}
		h.logger.Error("delete category", "category_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	publish(h.hub, userID, websocket.NewMessage("category", "deleted", existing.ID))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}
