package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/backup"
	"github.com/dukerupert/jotter/internal/config"
	"github.com/dukerupert/jotter/internal/handler"
	"github.com/dukerupert/jotter/internal/middleware"
	"github.com/dukerupert/jotter/internal/render"
	"github.com/dukerupert/jotter/internal/store"
	ws "github.com/dukerupert/jotter/internal/websocket"
)

type Server struct {
	db              *sql.DB
	hub             *ws.Hub
	noteH           *handler.NoteHandler
	categoryH       *handler.CategoryHandler
	labelH          *handler.LabelHandler
	publicH         *handler.PublicHandler
	userStore       *store.UserStore
	tokens          *auth.Tokens
	publicLimiter   *middleware.RateLimiter
	autosaveLimiter *middleware.RateLimiter
	backupManager   *backup.Manager
	originPatterns  []string
	logger          *slog.Logger
}

// New wires stores, handlers and middleware over db. backupMgr may be nil.
func New(db *sql.DB, cfg *config.Config, backupMgr *backup.Manager, logger *slog.Logger) (*Server, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	noteStore := store.NewNoteStore(db)
	categoryStore := store.NewCategoryStore(db)
	labelStore := store.NewLabelStore(db)

	return &Server{
		db:              db,
		hub:             hub,
		noteH:           handler.NewNoteHandler(noteStore, categoryStore, hub, logger),
		categoryH:       handler.NewCategoryHandler(categoryStore, hub, logger),
		labelH:          handler.NewLabelHandler(labelStore, hub, logger),
		publicH:         handler.NewPublicHandler(noteStore, renderer, logger),
		userStore:       store.NewUserStore(db),
		tokens:          auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		publicLimiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		autosaveLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		backupManager:   backupMgr,
		originPatterns:  originPatterns(cfg.BaseURL),
		logger:          logger,
	}, nil
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiters returns the limiters for periodic cleanup.
func (s *Server) RateLimiters() []*middleware.RateLimiter {
	return []*middleware.RateLimiter{s.publicLimiter, s.autosaveLimiter}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	httpLogger := s.logger.With("component", "http")

	requireAuth := middleware.RequireAuth(s.tokens, s.userStore, httpLogger)
	optionalAuth := middleware.OptionalAuth(s.tokens, s.userStore, httpLogger)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.TrackUser(h))
	}

	// Public routes (no auth required)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /p/{link}", middleware.RateLimit(s.publicLimiter, middleware.RealIP)(http.HandlerFunc(s.publicH.Show)))

	// Single-note reads resolve public links before requiring an owner
	mux.Handle("GET /api/notes/{id}", optionalAuth(middleware.TrackUser(http.HandlerFunc(s.noteH.Get))))

	// Notes
	mux.Handle("GET /api/notes", protected(s.noteH.List))
	mux.Handle("POST /api/notes", protected(s.noteH.Create))
	mux.Handle("GET /api/notes/search", protected(s.noteH.Search))
	mux.Handle("POST /api/notes/autosave", requireAuth(middleware.TrackUser(
		middleware.RateLimit(s.autosaveLimiter, middleware.UserOrIP)(http.HandlerFunc(s.noteH.Autosave)),
	)))
	mux.Handle("PUT /api/notes/{id}", protected(s.noteH.Update))
	mux.Handle("DELETE /api/notes/{id}", protected(s.noteH.Delete))

	// Categories
	mux.Handle("GET /api/categories", protected(s.categoryH.List))
	mux.Handle("POST /api/categories", protected(s.categoryH.Create))
	mux.Handle("PUT /api/categories/{id}", protected(s.categoryH.Update))
	mux.Handle("DELETE /api/categories/{id}", protected(s.categoryH.Delete))

	// Labels
	mux.Handle("GET /api/labels", protected(s.labelH.List))
	mux.Handle("POST /api/labels", protected(s.labelH.Create))
	mux.Handle("PUT /api/labels/{id}", protected(s.labelH.Update))
	mux.Handle("DELETE /api/labels/{id}", protected(s.labelH.Delete))

	// Live updates
	mux.Handle("GET /ws", protected(ws.HandleWebSocket(s.hub, s.originPatterns, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(httpLogger)(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	status := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		resp["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if s.backupManager != nil {
		resp["backup"] = s.backupManager.Status()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// originPatterns allows websocket upgrades from the configured public host in
// addition to same-origin requests.
func originPatterns(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
