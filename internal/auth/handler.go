// internal/auth/handler.go
package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Handler exposes the session surface: login, status, logout.
type Handler struct {
	Manager *Manager
}

// Login issues a session for the given identity. Stands in for the real
// identity provider callback; the rest of the API only consumes the
// resulting bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	token, principal, err := h.Manager.Login(body.Email, body.Name)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token": token,
		"user":  principal,
	})
}

// Status reports whether the caller holds a valid session.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	token := BearerToken(r.Header.Get("Authorization"))
	if token != "" {
		if p, err := h.Manager.Verify(token); err == nil {
			json.NewEncoder(w).Encode(map[string]any{
				"is_authenticated": true,
				"user":             p,
			})
			return
		}
	}
	json.NewEncoder(w).Encode(map[string]any{"is_authenticated": false})
}

// Logout revokes the caller's session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := BearerToken(r.Header.Get("Authorization")); token != "" {
		h.Manager.Logout(token)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
