package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/store"
)

const authRequiredMessage = "Authentication required"

// RequireAuth verifies the bearer token and populates AuthContext. Missing,
// malformed and expired tokens all get the same 401 body.
func RequireAuth(tokens *auth.Tokens, users *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := authenticate(r, tokens)
			if !ok {
				writeError(w, http.StatusUnauthorized, authRequiredMessage)
				return
			}
			if err := users.Upsert(r.Context(), ac.UserID, ac.Name, ac.Email); err != nil {
				logger.Error("record user", "user_id", ac.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// OptionalAuth attaches the caller identity when a valid token is present and
// lets the request through anonymously otherwise.
func OptionalAuth(tokens *auth.Tokens, users *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := authenticate(r, tokens)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if err := users.Upsert(r.Context(), ac.UserID, ac.Name, ac.Email); err != nil {
				logger.Warn("record user", "user_id", ac.UserID, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

func authenticate(r *http.Request, tokens *auth.Tokens) (auth.AuthContext, bool) {
	token := BearerToken(r)
	if token == "" {
		return auth.AuthContext{}, false
	}
	ac, err := tokens.Verify(token)
	if err != nil {
		return auth.AuthContext{}, false
	}
	return ac, true
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
