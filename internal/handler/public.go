package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/dukerupert/jotter/internal/render"
	"github.com/dukerupert/jotter/internal/store"
)

// pageCSP keeps anything that slips past the sanitizer inert.
const pageCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src https: data:"

// PublicHandler serves published notes as HTML pages to anyone with the link.
type PublicHandler struct {
	noteStore *store.NoteStore
	renderer  *render.Renderer
	logger    *slog.Logger
}

func NewPublicHandler(ns *store.NoteStore, renderer *render.Renderer, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{noteStore: ns, renderer: renderer, logger: logger.With("component", "public")}
}

func (h *PublicHandler) Show(w http.ResponseWriter, r *http.Request) {
	note, err := h.noteStore.GetByPublicLink(r.Context(), r.PathValue("link"))
	if err != nil {
		h.logger.Error("get public note", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	status := http.StatusOK
	if note == nil {
		status = http.StatusNotFound
		err = h.renderer.NotFound(&buf)
	} else {
		err = h.renderer.Note(&buf, note)
	}
	if err != nil {
		h.logger.Error("render public note", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", pageCSP)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
